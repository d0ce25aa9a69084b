package game

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// BackdropPalette is the ordered list of background colours.
var BackdropPalette = []uint32{
	0x87CEEB, // Sky Blue
	0xFFA07A, // Light Salmon
	0x98FB98, // Pale Green
	0xDDA0DD, // Plum
	0xF0E68C, // Khaki
	0xE6E6FA, // Lavender
	0xFFB6C1, // Light Pink
	0xB0E0E6, // Powder Blue
	0xD8BFD8, // Thistle
	0xFFE4B5, // Moccasin
}

// Backdrop is the process-wide background colour. It cycles on wall-clock
// time and is independent of any session's tick.
type Backdrop struct {
	index  atomic.Uint32
	period time.Duration
}

// NewBackdrop returns a backdrop on the first palette colour.
func NewBackdrop(period time.Duration) *Backdrop {
	return &Backdrop{period: period}
}

// Index returns the position of the current colour in BackdropPalette.
func (b *Backdrop) Index() int {
	return int(b.index.Load())
}

// Current returns the current colour as 0xRRGGBB.
func (b *Backdrop) Current() uint32 {
	if b == nil {
		return BackdropPalette[0]
	}
	return BackdropPalette[b.Index()]
}

// Advance moves to the next colour, wrapping after the last one.
func (b *Backdrop) Advance() uint32 {
	for {
		cur := b.index.Load()
		next := (cur + 1) % uint32(len(BackdropPalette))
		if b.index.CompareAndSwap(cur, next) {
			return BackdropPalette[next]
		}
	}
}

// Run advances the colour every period until ctx is done.
func (b *Backdrop) Run(ctx context.Context) {
	if b.period <= 0 {
		return
	}
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Advance()
		}
	}
}

// HexColor formats 0xRRGGBB as "#rrggbb".
func HexColor(c uint32) string {
	return fmt.Sprintf("#%06x", c&0xFFFFFF)
}
