package ws

import (
	"time"

	"github.com/HerbHall/startpage/pkg/plugin"
)

// sendBuffer is the per-client queue length. Messages beyond it are dropped.
const sendBuffer = 256

// Message is the envelope for all WebSocket messages. Type is the bus
// topic the message was published on.
type Message struct {
	Type      string    `json:"type"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TypeHello is sent once when a client connects.
const TypeHello = "hello"

// HelloData is the payload of the hello message.
type HelloData struct {
	Device string   `json:"device,omitempty"`
	Topics []string `json:"topics,omitempty"`
}

// messageFromEvent converts a bus event into a WebSocket message.
func messageFromEvent(e plugin.Event) Message {
	return Message{
		Type:      e.Topic,
		Source:    e.Source,
		Timestamp: e.Timestamp,
		Data:      e.Payload,
	}
}
