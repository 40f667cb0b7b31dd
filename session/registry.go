package session

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxClients bounds the number of live stores held by a Registry.
const DefaultMaxClients = 10000

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxClients sets the live store bound. Values <= 0 keep the default.
func WithMaxClients(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxClients = n
		}
	}
}

// WithStoreOptions applies opts to every store the registry creates.
func WithStoreOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.storeOpts = append(r.storeOpts, opts...)
	}
}

// WithRegistryLogger sets the registry's own logger.
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type registryEntry struct {
	clientID string
	store    *Store
}

// Registry owns one Store per browser client. A store is created on first
// use and hydrated until a read succeeds. The least recently used store is
// disposed once the registry grows past its bound. Disposal keeps the
// persisted record, so the next Open for that client hydrates a fresh store
// from it.
type Registry struct {
	factory    PersistenceFactory
	storeOpts  []Option
	maxClients int
	logger     *zap.Logger

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
	closed  bool
}

// NewRegistry returns ErrNotWired for a nil factory.
func NewRegistry(factory PersistenceFactory, opts ...RegistryOption) (*Registry, error) {
	if factory == nil {
		return nil, ErrNotWired
	}
	r := &Registry{
		factory:    factory,
		maxClients: DefaultMaxClients,
		logger:     zap.NewNop(),
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// openAttempts bounds how often Open retries when the store it just fetched
// is evicted before hydration finishes.
const openAttempts = 3

// Open returns the store of clientID, hydrating it on first use. Hydration
// runs outside the registry lock, so a slow read only delays callers for the
// same client. A store whose read failed stays cached unhydrated and the next
// Open retries it.
func (r *Registry) Open(ctx context.Context, clientID string) (*Store, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, ErrInvalidClientID
	}

	var store *Store
	for attempt := 0; attempt < openAttempts; attempt++ {
		var err error
		store, err = r.entry(clientID)
		if err != nil {
			return nil, err
		}
		store.Hydrate(ctx)
		if !store.Closed() {
			return store, nil
		}
	}
	// Evicted on every attempt: the registry is thrashing. The closed store
	// still serves reads and a durable Logout.
	r.logger.Warn("session store evicted during open", zap.String("client_id", clientID))
	return store, nil
}

// entry finds or creates the store of clientID and marks it most recently
// used.
func (r *Registry) entry(clientID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrStoreClosed
	}

	if el, ok := r.entries[clientID]; ok {
		r.lru.MoveToFront(el)
		return el.Value.(*registryEntry).store, nil
	}

	opts := make([]Option, 0, len(r.storeOpts)+1)
	opts = append(opts, r.storeOpts...)
	opts = append(opts, WithClientID(clientID))

	store, err := NewStore(r.factory(clientID), opts...)
	if err != nil {
		return nil, err
	}

	r.entries[clientID] = r.lru.PushFront(&registryEntry{clientID: clientID, store: store})
	r.evictLocked()

	return store, nil
}

// Lookup returns the live store of clientID without creating one.
func (r *Registry) Lookup(clientID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.entries[clientID]
	if !ok {
		return nil, false
	}
	return el.Value.(*registryEntry).store, true
}

// Dispose closes and forgets the store of clientID.
func (r *Registry) Dispose(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.entries[clientID]; ok {
		r.removeLocked(el)
	}
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}

// Close disposes every store. Open fails afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.lru.Len() > 0 {
		r.removeLocked(r.lru.Back())
	}
	r.closed = true
}

func (r *Registry) evictLocked() {
	for r.lru.Len() > r.maxClients {
		el := r.lru.Back()
		r.logger.Debug("evicting idle session store",
			zap.String("client_id", el.Value.(*registryEntry).clientID),
		)
		r.removeLocked(el)
	}
}

func (r *Registry) removeLocked(el *list.Element) {
	entry := el.Value.(*registryEntry)
	entry.store.Close()
	delete(r.entries, entry.clientID)
	r.lru.Remove(el)
}
