// Package realtime carries the live messaging channel: a presence directory
// mapping users to their current connection, a relay that persists and then
// pushes messages, and the websocket transport.
package realtime

import (
	"sync"

	"github.com/msomdec/skill-match/internal/metrics"
)

// Conn is a live connection handle that can receive pushed events.
type Conn interface {
	ID() string
	// Deliver queues ev without blocking. It reports false if the handle is
	// closed or its buffer is full; the event is then dropped.
	Deliver(ev Event) bool
}

// Directory maps user ids to at most one live connection each. It is
// process-local and does not survive restarts.
type Directory interface {
	// Announce binds userID to conn, replacing any previous binding.
	Announce(conn Conn, userID string)
	Lookup(userID string) (Conn, bool)
	// Disconnect removes every entry whose handle is conn and returns the
	// affected user ids. Entries pointing at other handles are untouched.
	Disconnect(conn Conn) []string
	Len() int
}

// MemoryDirectory is the in-memory Directory.
type MemoryDirectory struct {
	mu      sync.RWMutex
	entries map[string]Conn
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{entries: make(map[string]Conn)}
}

// Announce is last-writer-wins: a second device announcing the same user
// takes over live delivery from the first.
func (d *MemoryDirectory) Announce(conn Conn, userID string) {
	d.mu.Lock()
	d.entries[userID] = conn
	n := len(d.entries)
	d.mu.Unlock()
	metrics.PresenceEntries.Set(float64(n))
}

func (d *MemoryDirectory) Lookup(userID string) (Conn, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.entries[userID]
	return c, ok
}

func (d *MemoryDirectory) Disconnect(conn Conn) []string {
	d.mu.Lock()
	var removed []string
	for userID, c := range d.entries {
		if c == conn {
			delete(d.entries, userID)
			removed = append(removed, userID)
		}
	}
	n := len(d.entries)
	d.mu.Unlock()
	metrics.PresenceEntries.Set(float64(n))
	return removed
}

func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
