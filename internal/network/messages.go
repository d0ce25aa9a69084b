package network

// Message types
const (
	// Client -> Server
	MsgTypeInput   uint8 = 0x01
	MsgTypeControl uint8 = 0x02
	MsgTypePing    uint8 = 0x04

	// Server -> Client
	MsgTypeFrame       uint8 = 0x10
	MsgTypeAlert       uint8 = 0x13
	MsgTypeSessionInfo uint8 = 0x14
	MsgTypePong        uint8 = 0x15
	MsgTypeError       uint8 = 0xFF
)

// Key flags (bit field), same layout as game.InputState.Bits
const (
	KeyUp    uint8 = 1 << 0
	KeyDown  uint8 = 1 << 1
	KeyLeft  uint8 = 1 << 2
	KeyRight uint8 = 1 << 3
)

// Control event sources
const (
	SourceKeyboard uint8 = 0
	SourceTouch    uint8 = 1
)

// Fixed message sizes
const (
	inputSize       = 3
	controlSize     = 4
	pingSize        = 9
	frameHeaderSize = 54
	frameCarSize    = 16
)

// InputMessage from client (3 bytes): the full key bitmask.
type InputMessage struct {
	MsgType  uint8
	Sequence uint8
	Keys     uint8
}

// ControlMessage from client (4 bytes): one press or release.
type ControlMessage struct {
	MsgType uint8
	Source  uint8
	Control uint8
	Pressed bool
}

// PingMessage from client
type PingMessage struct {
	MsgType   uint8
	Timestamp uint64
}

// FrameMessage to client
type FrameMessage struct {
	MsgType  uint8
	Tick     uint32
	Player   PlayerData
	Offset   float32
	Camera   CameraData
	Backdrop uint32
	Traffic  []CarData
}

// PlayerData in a frame (20 bytes)
type PlayerData struct {
	X, Y, Z float32
	Heading float32
	Speed   float32
}

// CameraData in a frame (20 bytes)
type CameraData struct {
	X, Y, Z float32
	Yaw     float32
	Pitch   float32
}

// CarData in a frame (16 bytes per traffic vehicle)
type CarData struct {
	X, Y, Z float32
	Color   uint32
}

// AlertMessage to client
type AlertMessage struct {
	MsgType uint8
	Message string
}

// SessionInfoMessage to client, sent once after the upgrade.
type SessionInfoMessage struct {
	MsgType      uint8
	SessionID    string
	RoadWidth    float32
	RoadLength   float32
	CarWidth     float32
	CarLength    float32
	CarHeight    float32
	TrafficCount uint8
	TickRate     uint8
}

// PongMessage to client
type PongMessage struct {
	MsgType   uint8
	Timestamp uint64
}

// ErrorMessage to client
type ErrorMessage struct {
	MsgType uint8
	Code    uint8
	Message string
}

// Error codes
const (
	ErrorCodeInvalidMessage uint8 = 1
	ErrorCodeServerFull     uint8 = 2
	ErrorCodeKicked         uint8 = 3
	ErrorCodeServerError    uint8 = 4
)
