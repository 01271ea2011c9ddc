package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/metrics"
)

// Store persists a message and returns it with id and timestamp set.
type Store interface {
	Add(ctx context.Context, from, to string, body domain.MessageBody) (*domain.Message, error)
}

// Relay routes direct messages: it always persists first and only then
// pushes to the recipient's live connection, if any. The push is
// fire-and-forget; the store is the source of truth.
type Relay struct {
	store     Store
	directory Directory
}

func NewRelay(store Store, directory Directory) *Relay {
	return &Relay{store: store, directory: directory}
}

// Send persists the message and pushes it to the recipient. A persistence
// failure is logged and returned without pushing. The outcome of the push
// is not reported.
func (r *Relay) Send(ctx context.Context, from, to string, body domain.MessageBody) (*domain.Message, error) {
	msg, err := r.store.Add(ctx, from, to, body)
	if err != nil {
		slog.Error("relay persist message", "from", from, "to", to, "error", err)
		metrics.RecordRelay("persist_failed")
		return nil, err
	}

	// The recipient may disconnect between persist and lookup; the message
	// then surfaces on their next history fetch.
	conn, ok := r.directory.Lookup(to)
	if !ok {
		metrics.RecordRelay("stored")
		return msg, nil
	}

	delivered := conn.Deliver(Event{Type: EventReceive, Data: ReceivePayload{
		ID:         msg.ID,
		From:       msg.SenderID,
		Message:    msg.Body.Text,
		Attachment: msg.Body.Attachment,
		Timestamp:  msg.CreatedAt.Format(time.RFC3339Nano),
	}})
	if delivered {
		metrics.RecordRelay("delivered")
	} else {
		metrics.RecordRelay("dropped")
	}
	return msg, nil
}

// Typing forwards a typing indicator live only. Nothing is stored.
func (r *Relay) Typing(from, to string) {
	if conn, ok := r.directory.Lookup(to); ok {
		conn.Deliver(Event{Type: EventTyping, Data: TypingPayload{From: from, To: to}})
	}
}
