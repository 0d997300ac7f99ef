package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewEventMessage encodes an event notification.
func NewEventMessage(event interface{}) ([]byte, error) {
	return json.Marshal(Message{Action: "event", Payload: event})
}
