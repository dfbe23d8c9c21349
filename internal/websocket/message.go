package websocket

import (
	"encoding/json"

	"github.com/isdelr/ender-todo/internal/models"
)

// ActionEvent marks a message carrying a models.Event.
const ActionEvent = "event"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewEventMessage encodes an activity event for the wire.
func NewEventMessage(event models.Event) ([]byte, error) {
	return json.Marshal(Message{Action: ActionEvent, Payload: event})
}
