package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSession is returned by Storage.Load when nothing, or only half of the
// token/user pair, is persisted.
var ErrNoSession = errors.New("no session")

// Record is the persisted session pair. User holds the JSON user document so a
// corrupt record can be detected by the store rather than by every backend.
type Record struct {
	Token string
	User  []byte
}

func (r Record) complete() bool {
	return r.Token != "" && len(r.User) > 0
}

// Storage persists the token and user together. Implementations must never
// leave one persisted without the other.
type Storage interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	// SaveUser replaces the persisted user only while a token is persisted.
	SaveUser(ctx context.Context, user []byte) error
	Clear(ctx context.Context) error
}

// MemoryStorage keeps the pair in process memory.
type MemoryStorage struct {
	mu  sync.Mutex
	rec Record
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.rec.complete() {
		return Record{}, ErrNoSession
	}
	return Record{Token: m.rec.Token, User: append([]byte(nil), m.rec.User...)}, nil
}

func (m *MemoryStorage) Save(_ context.Context, rec Record) error {
	if !rec.complete() {
		return errors.New("incomplete session record")
	}
	m.mu.Lock()
	m.rec = Record{Token: rec.Token, User: append([]byte(nil), rec.User...)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) SaveUser(_ context.Context, user []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec.Token == "" {
		return nil
	}
	m.rec.User = append([]byte(nil), user...)
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	m.rec = Record{}
	m.mu.Unlock()
	return nil
}

var _ Storage = (*MemoryStorage)(nil)
