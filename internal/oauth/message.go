package oauth

import (
	"encoding/json"

	"taboowiki/internal/session"
)

// MessageType identifies a login result message.
type MessageType string

const (
	// TypeSuccess carries the token and user of a completed login.
	TypeSuccess MessageType = "OAUTH_SUCCESS"

	// TypeError carries a human readable failure message.
	TypeError MessageType = "OAUTH_ERROR"
)

// Message is the payload posted by the callback route.
type Message struct {
	Type    MessageType   `json:"type"`
	Token   string        `json:"token,omitempty"`
	User    *session.User `json:"user,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Envelope is a posted message together with the origin of its sender.
type Envelope struct {
	Origin string
	Data   json.RawMessage
}

// NewEnvelope encodes msg for posting from origin.
func NewEnvelope(origin string, msg Message) (Envelope, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Origin: origin, Data: data}, nil
}

// DecodeMessage parses a posted payload. It reports false for anything that
// is not an object with a known type; such payloads are ignored by listeners.
func DecodeMessage(data []byte) (Message, bool) {
	var msg Message
	if len(data) == 0 || json.Unmarshal(data, &msg) != nil {
		return Message{}, false
	}
	switch msg.Type {
	case TypeSuccess, TypeError:
		return msg, true
	default:
		return Message{}, false
	}
}
