package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MessageBody is the content of a chat message. At least one of Text or
// Attachment is set.
type MessageBody struct {
	Text       string
	Attachment string // Reference (URL or storage key) to an attached file
}

// IsEmpty reports whether the body carries neither text nor attachment.
func (b MessageBody) IsEmpty() bool {
	return strings.TrimSpace(b.Text) == "" && strings.TrimSpace(b.Attachment) == ""
}

// Message is a point-to-point chat message. Messages are immutable once stored.
type Message struct {
	ID        string
	SenderID  string
	Users     [2]string // Always the two distinct participants, sender first
	Body      MessageBody
	CreatedAt time.Time
}

// NewMessage validates participants and body and returns an unsaved message.
func NewMessage(from, to string, body MessageBody) (*Message, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}
	if from == to {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrInvalidInput)
	}
	if body.IsEmpty() {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	return &Message{
		SenderID: from,
		Users:    [2]string{from, to},
		Body:     body,
	}, nil
}

// Recipient returns the participant that is not the sender.
func (m *Message) Recipient() string {
	if m.Users[0] == m.SenderID {
		return m.Users[1]
	}
	return m.Users[0]
}

// MessageRepository is the append-only message log.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	// ListConversation returns every message exchanged between a and b,
	// oldest first.
	ListConversation(ctx context.Context, a, b string) ([]Message, error)
}
