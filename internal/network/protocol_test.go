package network

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/race/highway/config"
	"github.com/race/highway/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFlagsMatchInputBits(t *testing.T) {
	assert.Equal(t, game.BitUp, KeyUp)
	assert.Equal(t, game.BitDown, KeyDown)
	assert.Equal(t, game.BitLeft, KeyLeft)
	assert.Equal(t, game.BitRight, KeyRight)
}

func TestDecodeInput(t *testing.T) {
	p := NewProtocol()

	msg, err := p.DecodeInput(p.EncodeInput(7, KeyDown|KeyLeft))
	require.NoError(t, err)
	assert.Equal(t, uint8(7), msg.Sequence)
	assert.Equal(t, KeyDown|KeyLeft, msg.Keys)

	msg, err = p.DecodeInput([]byte{MsgTypeInput, 0, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, uint8(0x0F), msg.Keys, "unknown bits are masked")

	_, err = p.DecodeInput([]byte{MsgTypeInput, 0})
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	_, err = p.DecodeInput([]byte{MsgTypePing, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDecodeControl(t *testing.T) {
	p := NewProtocol()

	msg, err := p.DecodeControl(p.EncodeControl(SourceTouch, uint8(game.ControlRight), true))
	require.NoError(t, err)
	assert.Equal(t, SourceTouch, msg.Source)
	assert.Equal(t, uint8(game.ControlRight), msg.Control)
	assert.True(t, msg.Pressed)

	msg, err = p.DecodeControl(p.EncodeControl(SourceKeyboard, 42, false))
	require.NoError(t, err, "unknown controls reach the sampler, which ignores them")
	assert.False(t, msg.Pressed)

	_, err = p.DecodeControl([]byte{MsgTypeControl, 9, 0, 1})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = p.DecodeControl([]byte{MsgTypeControl, 0, 0})
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestPingPong(t *testing.T) {
	p := NewProtocol()

	ping, err := p.DecodePing(p.EncodePing(1234567890123))
	require.NoError(t, err)
	assert.Equal(t, uint64(1234567890123), ping.Timestamp)

	pong, err := p.DecodePong(p.EncodePong(ping.Timestamp))
	require.NoError(t, err)
	assert.Equal(t, ping.Timestamp, pong.Timestamp)

	_, err = p.DecodePing([]byte{MsgTypePing, 1, 2})
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestFrameEncoding(t *testing.T) {
	p := NewProtocol()
	tuning := config.DefaultTuning()

	st := game.State{
		Tick: 99,
		Player: game.PlayerVehicle{
			Position: mgl64.Vec3{1.5, tuning.RideHeight, 20},
			Heading:  0.25,
			Speed:    12.5,
		},
		Traffic: []game.TrafficVehicle{
			{Position: mgl64.Vec3{-3, 0.25, -100}, Speed: 3, Color: 0xff00ff},
			{Position: mgl64.Vec3{7.5, 0.25, 400}, Speed: 2, Color: 0x00ffaa},
		},
		Road: game.RoadState{Offset: 33.5},
	}
	frame := game.NewFrame(st, tuning, game.BackdropPalette[3])

	data := p.EncodeFrame(ConvertFrame(frame))
	require.Len(t, data, 54+2*16)
	assert.Equal(t, MsgTypeFrame, data[0])

	msg, err := p.DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), msg.Tick)
	assert.Equal(t, float32(1.5), msg.Player.X)
	assert.Equal(t, float32(20), msg.Player.Z)
	assert.Equal(t, float32(0.25), msg.Player.Heading)
	assert.Equal(t, float32(12.5), msg.Player.Speed)
	assert.Equal(t, float32(33.5), msg.Offset)
	assert.InDelta(t, frame.Camera.Position.Z(), float64(msg.Camera.Z), 1e-4)
	assert.Equal(t, float32(game.CameraPitch), msg.Camera.Pitch)
	assert.Equal(t, game.BackdropPalette[3], msg.Backdrop)

	require.Len(t, msg.Traffic, 2)
	assert.Equal(t, CarData{X: -3, Y: 0.25, Z: -100, Color: 0xff00ff}, msg.Traffic[0])
	assert.Equal(t, CarData{X: 7.5, Y: 0.25, Z: 400, Color: 0x00ffaa}, msg.Traffic[1])
}

func TestDecodeFrame_Truncated(t *testing.T) {
	p := NewProtocol()
	data := p.EncodeFrame(&FrameMessage{Traffic: make([]CarData, 3)})

	_, err := p.DecodeFrame(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	_, err = p.DecodeFrame(data[:10])
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestAlert(t *testing.T) {
	p := NewProtocol()

	msg, err := p.DecodeAlert(p.EncodeAlert(config.CollisionMessage))
	require.NoError(t, err)
	assert.Equal(t, config.CollisionMessage, msg.Message)

	long := strings.Repeat("x", 300)
	msg, err = p.DecodeAlert(p.EncodeAlert(long))
	require.NoError(t, err)
	assert.Len(t, msg.Message, 255)
}

func TestSessionInfo(t *testing.T) {
	p := NewProtocol()
	in := &SessionInfoMessage{
		SessionID:    "4a2b6c1e-0000-4000-8000-000000000000",
		RoadWidth:    20,
		RoadLength:   1000,
		CarWidth:     2,
		CarLength:    4,
		CarHeight:    1.2,
		TrafficCount: 10,
		TickRate:     60,
	}

	out, err := p.DecodeSessionInfo(p.EncodeSessionInfo(in))
	require.NoError(t, err)
	in.MsgType = MsgTypeSessionInfo
	assert.Equal(t, in, out)
}

func TestErrorMessage(t *testing.T) {
	p := NewProtocol()

	msg, err := p.DecodeError(p.EncodeError(ErrorCodeServerFull, "Server full"))
	require.NoError(t, err)
	assert.Equal(t, ErrorCodeServerFull, msg.Code)
	assert.Equal(t, "Server full", msg.Message)

	_, err = p.DecodeError([]byte{MsgTypeAlert, 1, 0})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
