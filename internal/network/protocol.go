package network

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/race/highway/internal/game"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrBufferTooSmall = errors.New("buffer too small")
)

// Protocol handles binary encoding/decoding
type Protocol struct{}

// NewProtocol creates a new protocol handler
func NewProtocol() *Protocol {
	return &Protocol{}
}

// DecodeInput decodes a client input message (3 bytes)
func (p *Protocol) DecodeInput(data []byte) (*InputMessage, error) {
	if len(data) < inputSize {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypeInput {
		return nil, ErrInvalidMessage
	}

	return &InputMessage{
		MsgType:  data[0],
		Sequence: data[1],
		Keys:     data[2] & (KeyUp | KeyDown | KeyLeft | KeyRight),
	}, nil
}

// DecodeControl decodes a single press/release (4 bytes). The control byte is
// passed through; unknown controls are ignored by the input sampler.
func (p *Protocol) DecodeControl(data []byte) (*ControlMessage, error) {
	if len(data) < controlSize {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypeControl || data[1] > SourceTouch {
		return nil, ErrInvalidMessage
	}

	return &ControlMessage{
		MsgType: data[0],
		Source:  data[1],
		Control: data[2],
		Pressed: data[3] != 0,
	}, nil
}

// DecodePing decodes a ping message (9 bytes)
func (p *Protocol) DecodePing(data []byte) (*PingMessage, error) {
	if len(data) < pingSize {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypePing {
		return nil, ErrInvalidMessage
	}

	return &PingMessage{
		MsgType:   data[0],
		Timestamp: binary.LittleEndian.Uint64(data[1:9]),
	}, nil
}

// EncodeInput encodes a client input message
func (p *Protocol) EncodeInput(seq, keys uint8) []byte {
	return []byte{MsgTypeInput, seq, keys}
}

// EncodeControl encodes a client control message
func (p *Protocol) EncodeControl(source, control uint8, pressed bool) []byte {
	buf := []byte{MsgTypeControl, source, control, 0}
	if pressed {
		buf[3] = 1
	}
	return buf
}

// EncodePing encodes a client ping message
func (p *Protocol) EncodePing(timestamp uint64) []byte {
	buf := make([]byte, pingSize)
	buf[0] = MsgTypePing
	binary.LittleEndian.PutUint64(buf[1:9], timestamp)
	return buf
}

// EncodeFrame encodes a frame message: 54 byte header + 16 bytes per car
func (p *Protocol) EncodeFrame(msg *FrameMessage) []byte {
	carCount := len(msg.Traffic)
	if carCount > 255 {
		carCount = 255
	}

	buf := make([]byte, frameHeaderSize+carCount*frameCarSize)
	buf[0] = MsgTypeFrame
	binary.LittleEndian.PutUint32(buf[1:5], msg.Tick)

	putFloats(buf[5:25], msg.Player.X, msg.Player.Y, msg.Player.Z, msg.Player.Heading, msg.Player.Speed)
	putFloats(buf[25:29], msg.Offset)
	putFloats(buf[29:49], msg.Camera.X, msg.Camera.Y, msg.Camera.Z, msg.Camera.Yaw, msg.Camera.Pitch)
	binary.LittleEndian.PutUint32(buf[49:53], msg.Backdrop)
	buf[53] = uint8(carCount)

	offset := frameHeaderSize
	for i := 0; i < carCount; i++ {
		car := msg.Traffic[i]
		putFloats(buf[offset:offset+12], car.X, car.Y, car.Z)
		binary.LittleEndian.PutUint32(buf[offset+12:offset+16], car.Color)
		offset += frameCarSize
	}

	return buf
}

// DecodeFrame decodes a frame message
func (p *Protocol) DecodeFrame(data []byte) (*FrameMessage, error) {
	if len(data) < frameHeaderSize {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypeFrame {
		return nil, ErrInvalidMessage
	}

	carCount := int(data[53])
	if len(data) < frameHeaderSize+carCount*frameCarSize {
		return nil, ErrBufferTooSmall
	}

	f := getFloats(data[5:49], 11)
	msg := &FrameMessage{
		MsgType:  data[0],
		Tick:     binary.LittleEndian.Uint32(data[1:5]),
		Player:   PlayerData{X: f[0], Y: f[1], Z: f[2], Heading: f[3], Speed: f[4]},
		Offset:   f[5],
		Camera:   CameraData{X: f[6], Y: f[7], Z: f[8], Yaw: f[9], Pitch: f[10]},
		Backdrop: binary.LittleEndian.Uint32(data[49:53]),
		Traffic:  make([]CarData, carCount),
	}

	offset := frameHeaderSize
	for i := range msg.Traffic {
		c := getFloats(data[offset:offset+12], 3)
		msg.Traffic[i] = CarData{
			X:     c[0],
			Y:     c[1],
			Z:     c[2],
			Color: binary.LittleEndian.Uint32(data[offset+12 : offset+16]),
		}
		offset += frameCarSize
	}

	return msg, nil
}

// EncodeAlert encodes an alert message
func (p *Protocol) EncodeAlert(message string) []byte {
	msgBytes := truncate(message)

	buf := make([]byte, 2+len(msgBytes))
	buf[0] = MsgTypeAlert
	buf[1] = uint8(len(msgBytes))
	copy(buf[2:], msgBytes)

	return buf
}

// DecodeAlert decodes an alert message
func (p *Protocol) DecodeAlert(data []byte) (*AlertMessage, error) {
	if len(data) < 2 {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypeAlert {
		return nil, ErrInvalidMessage
	}

	msgLen := int(data[1])
	if len(data) < 2+msgLen {
		return nil, ErrBufferTooSmall
	}

	return &AlertMessage{
		MsgType: data[0],
		Message: string(data[2 : 2+msgLen]),
	}, nil
}

// EncodeSessionInfo encodes the session info message
func (p *Protocol) EncodeSessionInfo(msg *SessionInfoMessage) []byte {
	idBytes := truncate(msg.SessionID)

	buf := make([]byte, 2+len(idBytes)+22)
	buf[0] = MsgTypeSessionInfo
	buf[1] = uint8(len(idBytes))
	copy(buf[2:], idBytes)

	offset := 2 + len(idBytes)
	putFloats(buf[offset:offset+20], msg.RoadWidth, msg.RoadLength, msg.CarWidth, msg.CarLength, msg.CarHeight)
	buf[offset+20] = msg.TrafficCount
	buf[offset+21] = msg.TickRate

	return buf
}

// DecodeSessionInfo decodes the session info message
func (p *Protocol) DecodeSessionInfo(data []byte) (*SessionInfoMessage, error) {
	if len(data) < 2 {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypeSessionInfo {
		return nil, ErrInvalidMessage
	}

	idLen := int(data[1])
	if len(data) < 2+idLen+22 {
		return nil, ErrBufferTooSmall
	}

	offset := 2 + idLen
	f := getFloats(data[offset:offset+20], 5)
	return &SessionInfoMessage{
		MsgType:      data[0],
		SessionID:    string(data[2:offset]),
		RoadWidth:    f[0],
		RoadLength:   f[1],
		CarWidth:     f[2],
		CarLength:    f[3],
		CarHeight:    f[4],
		TrafficCount: data[offset+20],
		TickRate:     data[offset+21],
	}, nil
}

// EncodePong encodes a pong message
func (p *Protocol) EncodePong(timestamp uint64) []byte {
	buf := make([]byte, 9)
	buf[0] = MsgTypePong
	binary.LittleEndian.PutUint64(buf[1:9], timestamp)
	return buf
}

// DecodePong decodes a pong message
func (p *Protocol) DecodePong(data []byte) (*PongMessage, error) {
	if len(data) < 9 {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypePong {
		return nil, ErrInvalidMessage
	}

	return &PongMessage{
		MsgType:   data[0],
		Timestamp: binary.LittleEndian.Uint64(data[1:9]),
	}, nil
}

// EncodeError encodes an error message
func (p *Protocol) EncodeError(code uint8, message string) []byte {
	msgBytes := truncate(message)

	buf := make([]byte, 3+len(msgBytes))
	buf[0] = MsgTypeError
	buf[1] = code
	buf[2] = uint8(len(msgBytes))
	copy(buf[3:], msgBytes)

	return buf
}

// DecodeError decodes an error message
func (p *Protocol) DecodeError(data []byte) (*ErrorMessage, error) {
	if len(data) < 3 {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypeError {
		return nil, ErrInvalidMessage
	}

	msgLen := int(data[2])
	if len(data) < 3+msgLen {
		return nil, ErrBufferTooSmall
	}

	return &ErrorMessage{
		MsgType: data[0],
		Code:    data[1],
		Message: string(data[3 : 3+msgLen]),
	}, nil
}

// ConvertFrame converts a simulation frame to network format
func ConvertFrame(f game.Frame) *FrameMessage {
	msg := &FrameMessage{
		MsgType: MsgTypeFrame,
		Tick:    uint32(f.Tick),
		Player: PlayerData{
			X:       float32(f.Player.Position.X()),
			Y:       float32(f.Player.Position.Y()),
			Z:       float32(f.Player.Position.Z()),
			Heading: float32(f.Player.Heading),
			Speed:   float32(f.Player.Speed),
		},
		Offset: float32(f.Road.Offset),
		Camera: CameraData{
			X:     float32(f.Camera.Position.X()),
			Y:     float32(f.Camera.Position.Y()),
			Z:     float32(f.Camera.Position.Z()),
			Yaw:   float32(f.Camera.Yaw),
			Pitch: float32(f.Camera.Pitch),
		},
		Backdrop: f.Backdrop,
		Traffic:  make([]CarData, len(f.Traffic)),
	}

	for i, car := range f.Traffic {
		msg.Traffic[i] = CarData{
			X:     float32(car.Position.X()),
			Y:     float32(car.Position.Y()),
			Z:     float32(car.Position.Z()),
			Color: car.Color,
		}
	}

	return msg
}

// putFloats writes float32 values back to back into buf
func putFloats(buf []byte, values ...float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

// getFloats reads n float32 values from buf
func getFloats(buf []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

// truncate limits a string to what a u8 length prefix can carry
func truncate(s string) []byte {
	b := []byte(s)
	if len(b) > 255 {
		b = b[:255]
	}
	return b
}
