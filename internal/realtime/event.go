package realtime

import (
	"github.com/goccy/go-json"
)

// Event types on the live channel.
const (
	EventAnnounce = "announce" // client -> server
	EventSend     = "send"     // client -> server
	EventReceive  = "receive"  // server -> client
	EventTyping   = "typing"   // both directions
	EventError    = "error"    // server -> client
	EventPing     = "ping"
	EventPong     = "pong"
)

// Event is the JSON envelope for every frame.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// inbound is an Event whose payload is decoded once the type is known.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type AnnouncePayload struct {
	UserID string `json:"userId"`
}

// SendPayload is a client's message. Timestamp is accepted for
// compatibility but the stored time is always the server's.
type SendPayload struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Message    string `json:"message"`
	Attachment string `json:"attachment,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

type ReceivePayload struct {
	ID         string `json:"id"`
	From       string `json:"from"`
	Message    string `json:"message"`
	Attachment string `json:"attachment,omitempty"`
	Timestamp  string `json:"timestamp"`
}

type TypingPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
