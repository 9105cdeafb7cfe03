package wizard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/device"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// CapabilityFactory builds the device providers for a new session.
type CapabilityFactory func(sessionID string) Capabilities

// ClientCapabilities gives every session a geolocator and camera fed by the
// remote client.
func ClientCapabilities(string) Capabilities {
	return Capabilities{
		Geolocator: &device.ReportedGeolocator{},
		Camera:     &device.PushCamera{},
	}
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Store holds live sessions in memory and evicts idle ones.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	deps     Deps
	caps     CapabilityFactory
	clock    clockwork.Clock
	ttl      time.Duration
	running  atomic.Bool
}

// NewStore creates a Store. A nil clock uses the real clock; a nil factory
// uses ClientCapabilities.
func NewStore(deps Deps, caps CapabilityFactory, clock clockwork.Clock, ttl time.Duration) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if caps == nil {
		caps = ClientCapabilities
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		sessions: make(map[string]*entry),
		deps:     deps,
		caps:     caps,
		clock:    clock,
		ttl:      ttl,
	}
}

// Create starts a new session on the first step.
func (s *Store) Create(ctx context.Context) *Session {
	id := uuid.NewString()
	sess := NewSession(ctx, id, s.caps(id), s.deps)

	s.mu.Lock()
	s.sessions[id] = &entry{session: sess, lastSeen: s.clock.Now()}
	n := len(s.sessions)
	s.mu.Unlock()

	s.deps.Metrics.SessionsStarted.Inc()
	s.deps.Metrics.SessionsActive.Set(float64(n))
	s.deps.Logger.Info("session started", "session_id", id)
	return sess
}

// Get returns the session and marks it as used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = s.clock.Now()
	return e.session, nil
}

// Delete closes and removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.session.Close()
	s.deps.Metrics.SessionsActive.Set(float64(n))
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// it removed.
func (s *Store) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	var expired []*Session
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			expired = append(expired, e.session)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		s.deps.Metrics.SessionsActive.Set(float64(n))
		s.deps.Logger.Debug("evicted idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps once per TTL interval until ctx is cancelled, then closes all
// remaining sessions.
func (s *Store) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.ttl)
	defer ticker.Stop()

	s.running.Store(true)
	defer s.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return nil
		case <-ticker.Chan():
			s.Sweep()
		}
	}
}

// CheckReadiness returns nil while the eviction loop is running.
func (s *Store) CheckReadiness(_ context.Context) error {
	if !s.running.Load() {
		return errors.New("session store is not running")
	}
	return nil
}

func (s *Store) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()

	for _, e := range all {
		e.session.Close()
	}
	s.deps.Metrics.SessionsActive.Set(0)
}
