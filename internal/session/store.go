// Package session holds the authenticated user and session token for the
// process and keeps the persisted copy in step with memory.
//
// Persistence failures never surface to callers: a store whose storage is
// broken behaves as logged out on the next Restore.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"job-agent/internal/domain/event"
	"job-agent/internal/domain/user"
)

// TokenChecker rejects tokens that are known to be unusable.
type TokenChecker interface {
	Check(token string) error
}

type Store struct {
	storage  Storage
	tokens   TokenChecker
	notifier event.Notifier
	logger   *log.Logger

	mu    sync.RWMutex
	user  *user.User
	token string
}

func NewStore(storage Storage, tokens TokenChecker, notifier event.Notifier, logger *log.Logger) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{storage: storage, tokens: tokens, notifier: event.OrNop(notifier), logger: logger}
}

// Restore loads the persisted session. Any inconsistency (half a pair, an
// unparsable user, a dead token) clears storage and reports no session.
func (s *Store) Restore(ctx context.Context) (user.User, bool) {
	rec, err := s.storage.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			s.logger.Printf("[Session] restore failed, continuing logged out: %v", err)
		}
		s.clearStorage(ctx)
		s.reset()
		return user.User{}, false
	}

	var u user.User
	if err := json.Unmarshal(rec.User, &u); err != nil {
		s.logger.Printf("[Session] persisted user unreadable, clearing: %v", err)
		s.clearStorage(ctx)
		s.reset()
		return user.User{}, false
	}

	if s.tokens != nil {
		if err := s.tokens.Check(rec.Token); err != nil {
			s.logger.Printf("[Session] persisted token rejected, clearing: %v", err)
			s.clearStorage(ctx)
			s.reset()
			return user.User{}, false
		}
	}

	s.mu.Lock()
	s.user = &u
	s.token = rec.Token
	s.mu.Unlock()

	return u, true
}

func (s *Store) Login(ctx context.Context, u user.User, token string) {
	s.begin(ctx, u, token, "login")
}

func (s *Store) Signup(ctx context.Context, u user.User, token string) {
	s.begin(ctx, u, token, "signup")
}

func (s *Store) begin(ctx context.Context, u user.User, token string, reason string) {
	s.mu.Lock()
	s.user = &u
	s.token = token
	s.mu.Unlock()

	b, err := json.Marshal(u)
	if err != nil {
		s.logger.Printf("[Session] encode user failed user_id=%d: %v", u.ID, err)
		s.clearStorage(ctx)
	} else if err := s.storage.Save(ctx, Record{Token: token, User: b}); err != nil {
		s.logger.Printf("[Session] persist %s failed user_id=%d: %v", reason, u.ID, err)
		s.clearStorage(ctx)
	}

	evt := event.New(event.TypeSessionChanged)
	evt.Message = reason
	evt.Data = u
	s.notifier.Notify(evt)
}

// Logout drops the in-memory and persisted session together.
func (s *Store) Logout(ctx context.Context) {
	s.reset()
	s.clearStorage(ctx)

	evt := event.New(event.TypeSessionChanged)
	evt.Message = "logout"
	s.notifier.Notify(evt)
}

// Clear is Logout for callers that only hold a token-source view of the store.
func (s *Store) Clear(ctx context.Context) {
	s.reset()
	s.clearStorage(ctx)
}

// UpdateUser replaces the user in memory and in storage. The token is untouched.
func (s *Store) UpdateUser(ctx context.Context, u user.User) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		s.logger.Printf("[Session] update ignored, no active session user_id=%d", u.ID)
		return
	}
	s.user = &u
	s.mu.Unlock()

	b, err := json.Marshal(u)
	if err != nil {
		s.logger.Printf("[Session] encode user failed user_id=%d: %v", u.ID, err)
		return
	}
	if err := s.storage.SaveUser(ctx, b); err != nil {
		s.logger.Printf("[Session] persist user failed user_id=%d: %v", u.ID, err)
	}
}

// User returns a copy of the current user.
func (s *Store) User() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return user.User{}, false
	}
	return *s.user, true
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

func (s *Store) reset() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
}

func (s *Store) clearStorage(ctx context.Context) {
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Printf("[Session] clear storage failed: %v", err)
	}
}
