package streaming

import (
	"encoding/json"

	"github.com/hydra/aware/pkg/core"
)

// Message type constants for the world service websocket protocol.
const (
	TypeWatch       = "watch"
	TypeEntityEvent = "entity_event"
	TypePush        = "push"
	TypePushResult  = "push_result"
	TypeError       = "error"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"` // correlates push with push_result
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PushPayload carries entity mutations from client to server.
type PushPayload struct {
	Changes []core.Entity `json:"changes"`
}

// ErrorPayload is sent by the server before it closes a failed stream.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType, id string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType, ID: id}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}
