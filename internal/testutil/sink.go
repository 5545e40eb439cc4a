// Package testutil holds fakes shared by the package tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

var ErrSinkClosed = errors.New("sink closed")

// RecordingSink stores every delivered event.
type RecordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	closed bool
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) Deliver(ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.events = append(s.events, ev)
	return nil
}

// Close makes later deliveries fail.
func (s *RecordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *RecordingSink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *RecordingSink) Presence() []*domain.PresenceChanged {
	var out []*domain.PresenceChanged
	for _, ev := range s.Events() {
		if p, ok := ev.(*domain.PresenceChanged); ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *RecordingSink) Typing() []*domain.TypingChanged {
	var out []*domain.TypingChanged
	for _, ev := range s.Events() {
		if t, ok := ev.(*domain.TypingChanged); ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *RecordingSink) Messages() []*domain.MessageRelayed {
	var out []*domain.MessageRelayed
	for _, ev := range s.Events() {
		if m, ok := ev.(*domain.MessageRelayed); ok {
			out = append(out, m)
		}
	}
	return out
}

// LastPresence returns the most recent presence event, or nil.
func (s *RecordingSink) LastPresence() *domain.PresenceChanged {
	p := s.Presence()
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// LastTyping returns the most recent typing event, or nil.
func (s *RecordingSink) LastTyping() *domain.TypingChanged {
	t := s.Typing()
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}

// StaticIdentity authenticates a credential of the form "<userID>" or
// "<userID>:<displayName>". The credential "bad" and the empty credential
// fail.
type StaticIdentity struct{}

func (StaticIdentity) Authenticate(_ context.Context, credential string) (domain.Identity, error) {
	if credential == "" || credential == "bad" {
		return domain.Identity{}, domain.ErrAuth
	}
	for i := 0; i < len(credential); i++ {
		if credential[i] == ':' {
			return domain.Identity{UserID: credential[:i], DisplayName: credential[i+1:]}, nil
		}
	}
	return domain.Identity{UserID: credential, DisplayName: credential}, nil
}
