package libemit

import "fmt"

// EventType names the events a WsSource publishes.
type EventType string

const (
	EventConnect EventType = "connect"
	EventData    EventType = "data"
	EventBinary  EventType = "binary"
	EventPing    EventType = "ping"
	EventPong    EventType = "pong"
	EventClose   EventType = "close"
	EventError   EventType = "error"
)

type MessageType byte

// Values match the websocket opcodes.
const (
	DataMessage   MessageType = 1
	BinaryMessage MessageType = 2
	CloseMessage  MessageType = 8
	PingMessage   MessageType = 9
	PongMessage   MessageType = 10
)

func (t MessageType) Event() EventType {
	switch t {
	case DataMessage:
		return EventData
	case BinaryMessage:
		return EventBinary
	case CloseMessage:
		return EventClose
	case PingMessage:
		return EventPing
	case PongMessage:
		return EventPong
	default:
		return EventError
	}
}

// Frame is the payload of every WsSource event. Code is only set on close frames and
// Err only on error and close frames.
type Frame struct {
	Type MessageType
	Data []byte
	Code int
	Err  error
}

func (f Frame) String() string {
	if f.Type == CloseMessage {
		return fmt.Sprintf("Frame{type=%d,code=%d,data=%s}", f.Type, f.Code, f.Data)
	}
	return fmt.Sprintf("Frame{type=%d,data=%s}", f.Type, f.Data)
}

func NewDataFrame(data []byte) Frame {
	return Frame{Type: DataMessage, Data: data}
}

func NewBinaryFrame(data []byte) Frame {
	return Frame{Type: BinaryMessage, Data: data}
}

func NewPingFrame(data []byte) Frame {
	return Frame{Type: PingMessage, Data: data}
}

func NewPongFrame(data []byte) Frame {
	return Frame{Type: PongMessage, Data: data}
}
