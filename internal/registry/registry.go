package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

// IdentityProvider resolves a credential into a user identity.
type IdentityProvider interface {
	Authenticate(ctx context.Context, credential string) (domain.Identity, error)
}

// ForgetHook runs after a connection is removed, with the rooms it had
// joined at the moment it was closed.
type ForgetHook func(conn *Connection, rooms []string)

// Option configures a Registry.
type Option func(*Registry)

// WithIDFunc overrides connection ID generation.
func WithIDFunc(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry tracks live connections and their identity.
type Registry struct {
	identity IdentityProvider
	newID    func() string
	now      func() time.Time

	mu    sync.RWMutex
	conns map[string]*Connection
	hooks []ForgetHook
}

func New(identity IdentityProvider, opts ...Option) *Registry {
	r := &Registry{
		identity: identity,
		newID:    uuid.NewString,
		now:      time.Now,
		conns:    make(map[string]*Connection),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnForget registers a hook run for every forgotten connection. Hooks are
// expected to be registered during wiring, before traffic starts.
func (r *Registry) OnForget(hook ForgetHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// Register authenticates the credential and records a new connection that
// delivers its events to sink.
func (r *Registry) Register(ctx context.Context, credential string, sink domain.Sink) (*Connection, error) {
	identity, err := r.identity.Authenticate(ctx, credential)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	if identity.UserID == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrAuth)
	}

	conn := newConnection(r.newID(), identity, sink, r.now())

	r.mu.Lock()
	r.conns[conn.id] = conn
	r.mu.Unlock()

	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldConnectionID, conn.id).
		Str(log.FieldUserID, conn.userID).
		Msg("connection registered")
	return conn, nil
}

// Forget removes a connection and runs the forget hooks. Unknown or already
// forgotten connections are ignored.
func (r *Registry) Forget(connectionID string) {
	r.mu.Lock()
	conn, ok := r.conns[connectionID]
	if ok {
		delete(r.conns, connectionID)
	}
	hooks := r.hooks
	r.mu.Unlock()

	if !ok {
		return
	}

	rooms := conn.close()
	for _, hook := range hooks {
		hook(conn, rooms)
	}

	l := log.L()
	l.Debug().
		Str(log.FieldConnectionID, conn.id).
		Str(log.FieldUserID, conn.userID).
		Strs("rooms", rooms).
		Msg("connection forgotten")
}

func (r *Registry) Lookup(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connectionID]
	return conn, ok
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ConnectionsOf returns the live connections owned by userID.
func (r *Registry) ConnectionsOf(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Connection
	for _, c := range r.conns {
		if c.userID == userID {
			out = append(out, c)
		}
	}
	return out
}

// Close forgets every live connection.
func (r *Registry) Close() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Forget(id)
	}
}
