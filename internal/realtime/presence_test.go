package realtime_test

import (
	"sync"
	"testing"

	"github.com/msomdec/skill-match/internal/realtime"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	events []realtime.Event
	closed bool
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Deliver(ev realtime.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.events = append(c.events, ev)
	return true
}

func (c *fakeConn) received() []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.Event(nil), c.events...)
}

func TestDirectoryAnnounceAndLookup(t *testing.T) {
	d := realtime.NewMemoryDirectory()
	c := &fakeConn{id: "c1"}

	if _, ok := d.Lookup("alice"); ok {
		t.Fatal("expected no entry before announce")
	}

	d.Announce(c, "alice")
	got, ok := d.Lookup("alice")
	if !ok || got != c {
		t.Fatalf("Lookup = %v, %v; want c1", got, ok)
	}
	if d.Len() != 1 {
		t.Errorf("Len = %d, want 1", d.Len())
	}
}

func TestDirectoryLastAnnounceWins(t *testing.T) {
	d := realtime.NewMemoryDirectory()
	first := &fakeConn{id: "c1"}
	second := &fakeConn{id: "c2"}

	d.Announce(first, "alice")
	d.Announce(second, "alice")

	got, _ := d.Lookup("alice")
	if got != second {
		t.Fatalf("Lookup = %v, want second connection", got.ID())
	}
	if d.Len() != 1 {
		t.Errorf("Len = %d, want 1", d.Len())
	}
}

func TestDirectoryStaleDisconnectKeepsNewerEntry(t *testing.T) {
	d := realtime.NewMemoryDirectory()
	old := &fakeConn{id: "old"}
	current := &fakeConn{id: "new"}

	d.Announce(old, "alice")
	d.Announce(current, "alice")

	if removed := d.Disconnect(old); len(removed) != 0 {
		t.Errorf("Disconnect(old) removed %v, want nothing", removed)
	}
	got, ok := d.Lookup("alice")
	if !ok || got != current {
		t.Fatal("expected newer connection to remain")
	}
}

func TestDirectoryDisconnectRemovesAllEntriesForHandle(t *testing.T) {
	d := realtime.NewMemoryDirectory()
	c := &fakeConn{id: "c1"}
	other := &fakeConn{id: "c2"}

	d.Announce(c, "alice")
	d.Announce(c, "alias")
	d.Announce(other, "bob")

	removed := d.Disconnect(c)
	if len(removed) != 2 {
		t.Fatalf("removed %v, want 2 entries", removed)
	}
	if _, ok := d.Lookup("alice"); ok {
		t.Error("alice still present")
	}
	if _, ok := d.Lookup("bob"); !ok {
		t.Error("bob should be untouched")
	}
}

func TestDirectoryConcurrentAccess(t *testing.T) {
	d := realtime.NewMemoryDirectory()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &fakeConn{id: string(rune('a' + i%26))}
			d.Announce(c, c.id)
			d.Lookup(c.id)
			d.Disconnect(c)
		}()
	}
	wg.Wait()
}
