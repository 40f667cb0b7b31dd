package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventKind names a store lifecycle event reported to an Observer.
type EventKind string

const (
	EventHydrated      EventKind = "session_hydrated"
	EventHydrateEmpty  EventKind = "session_hydrate_empty"
	EventHydratePurged EventKind = "session_hydrate_purged"
	EventLogin         EventKind = "login"
	EventLogout        EventKind = "logout"
	EventPersistFailed EventKind = "persist_failed"
)

// Event describes one store transition. Op and Err are set for
// EventPersistFailed; Latency is the persistence round-trip of the
// operation that produced the event.
type Event struct {
	Kind     EventKind
	ClientID string
	UserID   string
	UserType UserType
	Op       string
	Err      error
	Latency  time.Duration
}

// Observer receives store events. It runs after the store lock is released,
// so a slow observer delays the caller but never other users of the store.
type Observer interface {
	Observe(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) Observe(ctx context.Context, event Event) { f(ctx, event) }

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for best-effort persistence failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers the audit/metrics hook.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithClientID tags events and log lines with the owning client.
func WithClientID(id string) Option {
	return func(s *Store) { s.clientID = id }
}

// WithClock overrides time.Now, used for latency measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the single source of truth for who is logged in on one client.
//
// All methods are safe for concurrent use. Login and Logout complete both the
// in-memory and the persisted mutation before returning, so any Snapshot taken
// afterwards observes them.
type Store struct {
	mu       sync.RWMutex
	state    State
	hydrated bool
	closed   bool

	persist  Persistence
	clientID string
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// NewStore creates an empty store. Call Hydrate once before serving reads.
func NewStore(p Persistence, opts ...Option) (*Store, error) {
	if p == nil {
		return nil, ErrNotWired
	}
	s := &Store{
		persist: p,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Hydrate restores the session from persistence. Only the first successful
// call on a store has an effect. A record with a missing slot or an
// undecodable user is purged and the store stays empty. A read failure leaves
// the record alone and the store unhydrated, so a later Hydrate retries.
func (s *Store) Hydrate(ctx context.Context) {
	var events []Event
	defer func() { s.emitAll(ctx, events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.hydrated {
		return
	}

	pctx := context.WithoutCancel(ctx)
	start := s.now()
	rec, err := s.persist.Read(pctx)
	latency := s.now().Sub(start)
	if err != nil {
		events = append(events, s.persistFailed("read", err, latency))
		return
	}
	s.hydrated = true

	if rec.Empty() {
		events = append(events, Event{Kind: EventHydrateEmpty, Latency: latency})
		return
	}

	if rec.Token == "" || rec.User == "" {
		events = append(events, s.purge(pctx, "incomplete record")...)
		return
	}

	user, err := DecodeUser(rec.User)
	if err != nil {
		events = append(events, s.purge(pctx, err.Error())...)
		return
	}

	s.state = State{User: &user, Token: rec.Token}
	events = append(events, Event{
		Kind:     EventHydrated,
		UserID:   user.ID,
		UserType: user.UserType,
		Latency:  latency,
	})
}

func (s *Store) purge(ctx context.Context, reason string) []Event {
	s.state = State{}

	start := s.now()
	err := s.persist.Remove(ctx)
	latency := s.now().Sub(start)

	s.logger.Info("discarded persisted session",
		zap.String("client_id", s.clientID),
		zap.String("reason", reason),
	)
	var events []Event
	if err != nil {
		events = append(events, s.persistFailed("remove", err, latency))
	}
	return append(events, Event{Kind: EventHydratePurged, Latency: latency})
}

// Login replaces the session with user and token. The token is trusted
// verbatim; credential checks belong to the authentication provider.
// Only precondition violations are returned: a failed persistence write is
// logged and the in-memory session still takes effect.
func (s *Store) Login(ctx context.Context, user User, token string) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	payload, err := EncodeUser(user)
	if err != nil {
		return err
	}

	var events []Event
	defer func() { s.emitAll(ctx, events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	u := user
	s.state = State{User: &u, Token: token}
	s.hydrated = true

	start := s.now()
	err = s.persist.Write(context.WithoutCancel(ctx), Record{Token: token, User: payload})
	latency := s.now().Sub(start)
	if err != nil {
		events = append(events, s.persistFailed("write", err, latency))
	}

	events = append(events, Event{
		Kind:     EventLogin,
		UserID:   user.ID,
		UserType: user.UserType,
		Latency:  latency,
	})
	return nil
}

// Logout clears the session and removes the persisted record. Calling it on
// an empty store is a no-op apart from the storage delete. A closed store
// still removes the record: disposal ends in-memory use, not the durable
// logout.
func (s *Store) Logout(ctx context.Context) {
	var events []Event
	defer func() { s.emitAll(ctx, events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	s.state = State{}
	s.hydrated = true

	start := s.now()
	err := s.persist.Remove(context.WithoutCancel(ctx))
	latency := s.now().Sub(start)
	if err != nil {
		events = append(events, s.persistFailed("remove", err, latency))
	}

	ev := Event{Kind: EventLogout, Latency: latency}
	if prev.User != nil {
		ev.UserID = prev.User.ID
		ev.UserType = prev.User.UserType
	}
	events = append(events, ev)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// IsAuthenticated is derived from the current state on every call.
func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

// Hydrated reports whether the store has been hydrated or mutated.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// ClientID returns the client the store belongs to, if any.
func (s *Store) ClientID() string {
	return s.clientID
}

// Close disposes the store. The last state stays readable; Login returns
// ErrStoreClosed and Hydrate does nothing. Logout still clears the record.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) persistFailed(op string, err error, latency time.Duration) Event {
	s.logger.Warn("session persistence failed",
		zap.String("client_id", s.clientID),
		zap.String("op", op),
		zap.Error(err),
	)
	return Event{Kind: EventPersistFailed, Op: op, Err: err, Latency: latency}
}

func (s *Store) emitAll(ctx context.Context, events []Event) {
	if s.observer == nil {
		return
	}
	for _, event := range events {
		event.ClientID = s.clientID
		s.observer.Observe(ctx, event)
	}
}
