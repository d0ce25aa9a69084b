package terminal

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	toneHz     = 880
	toneLength = 150 * time.Millisecond
)

// Beeper plays the collision tone.
type Beeper interface {
	Beep()
	Close()
}

// NopBeeper is used when there is no audio device.
type NopBeeper struct{}

// Beep does nothing.
func (NopBeeper) Beep() {}

// Close does nothing.
func (NopBeeper) Close() {}

// SpeakerBeeper plays a sine tone on the default audio device.
type SpeakerBeeper struct {
	mu     sync.Mutex
	closed bool
}

// NewSpeakerBeeper initialises the speaker. It fails when no audio device is
// available; callers fall back to NopBeeper.
func NewSpeakerBeeper() (*SpeakerBeeper, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}
	return &SpeakerBeeper{}, nil
}

// Beep starts the tone and returns immediately.
func (b *SpeakerBeeper) Beep() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	sine, err := generators.SineTone(sampleRate, toneHz)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(toneLength), sine))
}

// Close releases the audio device.
func (b *SpeakerBeeper) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	speaker.Close()
}
