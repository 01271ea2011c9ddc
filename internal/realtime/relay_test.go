package realtime_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/realtime"
	"github.com/msomdec/skill-match/internal/repository/sqlite"
	"github.com/msomdec/skill-match/internal/service"
)

func newTestMessages(t *testing.T) *service.MessageService {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return service.NewMessageService(db.Messages())
}

type failingStore struct{}

func (failingStore) Add(context.Context, string, string, domain.MessageBody) (*domain.Message, error) {
	return nil, errors.New("disk full")
}

func TestRelaySendToAnnouncedRecipient(t *testing.T) {
	ctx := context.Background()
	messages := newTestMessages(t)
	dir := realtime.NewMemoryDirectory()
	relay := realtime.NewRelay(messages, dir)

	bob := &fakeConn{id: "bob-conn"}
	dir.Announce(bob, "bob")

	msg, err := relay.Send(ctx, "alice", "bob", domain.MessageBody{Text: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	events := bob.received()
	if len(events) != 1 {
		t.Fatalf("bob received %d events, want 1", len(events))
	}
	if events[0].Type != realtime.EventReceive {
		t.Errorf("Type = %q, want %q", events[0].Type, realtime.EventReceive)
	}
	p, ok := events[0].Data.(realtime.ReceivePayload)
	if !ok {
		t.Fatalf("Data = %T, want ReceivePayload", events[0].Data)
	}
	if p.From != "alice" || p.Message != "hi" || p.ID != msg.ID {
		t.Errorf("payload = %+v", p)
	}

	history, err := messages.History(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].FromSelf || history[0].Message != "hi" {
		t.Errorf("history = %+v", history)
	}
}

func TestRelaySendToAbsentRecipientStoresOnly(t *testing.T) {
	ctx := context.Background()
	messages := newTestMessages(t)
	relay := realtime.NewRelay(messages, realtime.NewMemoryDirectory())

	if _, err := relay.Send(ctx, "alice", "bob", domain.MessageBody{Text: "later"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	history, err := messages.History(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
}

func TestRelayPersistFailureSkipsPush(t *testing.T) {
	dir := realtime.NewMemoryDirectory()
	relay := realtime.NewRelay(failingStore{}, dir)
	bob := &fakeConn{id: "bob-conn"}
	dir.Announce(bob, "bob")

	if _, err := relay.Send(context.Background(), "alice", "bob", domain.MessageBody{Text: "hi"}); err == nil {
		t.Fatal("expected error")
	}
	if n := len(bob.received()); n != 0 {
		t.Errorf("bob received %d events, want 0", n)
	}
}

func TestRelayInvalidMessage(t *testing.T) {
	relay := realtime.NewRelay(newTestMessages(t), realtime.NewMemoryDirectory())

	_, err := relay.Send(context.Background(), "alice", "bob", domain.MessageBody{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRelayClosedRecipientStillStored(t *testing.T) {
	ctx := context.Background()
	messages := newTestMessages(t)
	dir := realtime.NewMemoryDirectory()
	relay := realtime.NewRelay(messages, dir)

	bob := &fakeConn{id: "bob-conn", closed: true}
	dir.Announce(bob, "bob")

	if _, err := relay.Send(ctx, "alice", "bob", domain.MessageBody{Text: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	history, _ := messages.History(ctx, "alice", "bob")
	if len(history) != 1 || !history[0].FromSelf {
		t.Errorf("history = %+v", history)
	}
}

func TestRelayTypingIsNotStored(t *testing.T) {
	ctx := context.Background()
	messages := newTestMessages(t)
	dir := realtime.NewMemoryDirectory()
	relay := realtime.NewRelay(messages, dir)
	bob := &fakeConn{id: "bob-conn"}
	dir.Announce(bob, "bob")

	relay.Typing("alice", "bob")

	events := bob.received()
	if len(events) != 1 || events[0].Type != realtime.EventTyping {
		t.Fatalf("events = %+v", events)
	}
	history, _ := messages.History(ctx, "alice", "bob")
	if len(history) != 0 {
		t.Errorf("typing was stored: %+v", history)
	}
}
