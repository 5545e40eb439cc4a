package room

import (
	"sort"
	"time"
)

// TypingTable holds per-user typing deadlines, one per connection, plus the
// set most recently announced to the room and the pending expiry timer.
// It is guarded by the owning State's lock.
type TypingTable struct {
	entries   map[string]map[string]time.Time
	announced []string
	timer     *time.Timer
}

func newTypingTable() *TypingTable {
	return &TypingTable{entries: make(map[string]map[string]time.Time)}
}

// Set records a deadline for the user's connection.
func (t *TypingTable) Set(userID, connectionID string, deadline time.Time) {
	conns, ok := t.entries[userID]
	if !ok {
		conns = make(map[string]time.Time)
		t.entries[userID] = conns
	}
	conns[connectionID] = deadline
}

// ClearConnection removes the connection's entries and reports whether any
// existed.
func (t *TypingTable) ClearConnection(connectionID string) bool {
	removed := false
	for userID, conns := range t.entries {
		if _, ok := conns[connectionID]; !ok {
			continue
		}
		delete(conns, connectionID)
		removed = true
		if len(conns) == 0 {
			delete(t.entries, userID)
		}
	}
	return removed
}

// Prune drops every deadline at or before now.
func (t *TypingTable) Prune(now time.Time) {
	for userID, conns := range t.entries {
		for connID, deadline := range conns {
			if !deadline.After(now) {
				delete(conns, connID)
			}
		}
		if len(conns) == 0 {
			delete(t.entries, userID)
		}
	}
}

// Users returns the sorted IDs of users with at least one entry.
func (t *TypingTable) Users() []string {
	users := make([]string, 0, len(t.entries))
	for userID := range t.entries {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// NextDeadline returns the earliest pending deadline.
func (t *TypingTable) NextDeadline() (time.Time, bool) {
	var next time.Time
	found := false
	for _, conns := range t.entries {
		for _, deadline := range conns {
			if !found || deadline.Before(next) {
				next = deadline
				found = true
			}
		}
	}
	return next, found
}

func (t *TypingTable) Announced() []string { return t.announced }

func (t *TypingTable) SetAnnounced(users []string) { t.announced = users }

// Arm replaces the pending timer.
func (t *TypingTable) Arm(timer *time.Timer) {
	t.Disarm()
	t.timer = timer
}

func (t *TypingTable) Disarm() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
