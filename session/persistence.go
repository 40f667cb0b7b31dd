package session

import (
	"context"
	"sync"
)

// Persistence is the durable two-slot storage behind a Store. Write and
// Remove must affect both slots together.
type Persistence interface {
	Read(ctx context.Context) (Record, error)
	Write(ctx context.Context, rec Record) error
	Remove(ctx context.Context) error
}

// PersistenceFactory builds the persistence scoped to one browser client.
type PersistenceFactory func(clientID string) Persistence

// MemoryPersistence keeps the record in process memory. Failures can be
// injected with FailReads, FailWrites and FailRemoves.
type MemoryPersistence struct {
	mu  sync.Mutex
	rec Record

	FailReads   error
	FailWrites  error
	FailRemoves error
}

// NewMemoryPersistence returns a persistence seeded with rec.
func NewMemoryPersistence(rec Record) *MemoryPersistence {
	return &MemoryPersistence{rec: rec}
}

func (m *MemoryPersistence) Read(context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return Record{}, m.FailReads
	}
	return m.rec, nil
}

func (m *MemoryPersistence) Write(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.rec = rec
	return nil
}

func (m *MemoryPersistence) Remove(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRemoves != nil {
		return m.FailRemoves
	}
	m.rec = Record{}
	return nil
}

// Stored returns the current record without going through failure injection.
func (m *MemoryPersistence) Stored() Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec
}

// MemoryFactory hands out one MemoryPersistence per client id and keeps them
// across store disposal, which mirrors a browser's local storage.
type MemoryFactory struct {
	mu      sync.Mutex
	records map[string]*MemoryPersistence
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{records: make(map[string]*MemoryPersistence)}
}

// For returns the persistence of clientID, creating it on first use.
func (f *MemoryFactory) For(clientID string) Persistence {
	return f.persistence(clientID)
}

// Get exposes the concrete persistence of clientID for inspection.
func (f *MemoryFactory) Get(clientID string) *MemoryPersistence {
	return f.persistence(clientID)
}

func (f *MemoryFactory) persistence(clientID string) *MemoryPersistence {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.records[clientID]
	if !ok {
		p = &MemoryPersistence{}
		f.records[clientID] = p
	}
	return p
}
