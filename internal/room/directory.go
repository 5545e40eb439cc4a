package room

import "sync"

// Directory maps room IDs to their in-memory state. Rooms are never
// deleted, so a State once created stays valid for the process lifetime.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*State
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*State)}
}

// Get returns the state for roomID, creating it on first use.
func (d *Directory) Get(roomID string) *State {
	d.mu.RLock()
	st, ok := d.rooms[roomID]
	d.mu.RUnlock()
	if ok {
		return st
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.rooms[roomID]; ok {
		return st
	}
	st = newState(roomID)
	d.rooms[roomID] = st
	return st
}

func (d *Directory) Lookup(roomID string) (*State, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st, ok := d.rooms[roomID]
	return st, ok
}

// Each calls fn for every known room. fn runs without the directory lock.
func (d *Directory) Each(fn func(*State)) {
	d.mu.RLock()
	states := make([]*State, 0, len(d.rooms))
	for _, st := range d.rooms {
		states = append(states, st)
	}
	d.mu.RUnlock()

	for _, st := range states {
		fn(st)
	}
}
