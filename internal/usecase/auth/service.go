// Package auth runs the sign-in, sign-up, sign-out and expiry flows. Each flow
// changes the session and then resets every component that holds per-user
// state.
package auth

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"

	"job-agent/internal/domain/event"
	"job-agent/internal/domain/user"
	"job-agent/internal/gateway"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrMissingToken = errors.New("backend returned no session token")
)

type Backend interface {
	Login(ctx context.Context, cred user.Credentials) (gateway.LoginResult, error)
}

type Session interface {
	Login(ctx context.Context, u user.User, token string)
	Signup(ctx context.Context, u user.User, token string)
	Logout(ctx context.Context)
}

// Resetter is a component holding per-user state.
type Resetter interface {
	Reset()
}

type Service struct {
	backend  Backend
	session  Session
	notifier event.Notifier
	logger   *log.Logger

	resetters []Resetter
}

func NewService(backend Backend, session Session, notifier event.Notifier, logger *log.Logger, resetters ...Resetter) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		backend:   backend,
		session:   session,
		notifier:  event.OrNop(notifier),
		logger:    logger,
		resetters: resetters,
	}
}

// Attach adds components to reset on every session change. It is meant for
// wiring only, before the service is shared.
func (s *Service) Attach(r ...Resetter) {
	s.resetters = append(s.resetters, r...)
}

func (s *Service) Login(ctx context.Context, email string) (user.User, error) {
	email = normalizeEmail(email)
	if !isValidEmail(email) {
		return user.User{}, ErrInvalidInput
	}
	res, err := s.authenticate(ctx, user.Credentials{Email: email})
	if err != nil {
		return user.User{}, err
	}
	s.session.Login(ctx, res.User, res.Token)
	s.resetAll()
	s.logger.Printf("[Auth] login user_id=%d", res.User.ID)
	return res.User, nil
}

// Signup is a login that also names the account; the backend creates the user
// when the email is new.
func (s *Service) Signup(ctx context.Context, email, fullName string) (user.User, error) {
	email = normalizeEmail(email)
	fullName = strings.TrimSpace(fullName)
	if !isValidEmail(email) || fullName == "" {
		return user.User{}, ErrInvalidInput
	}
	res, err := s.authenticate(ctx, user.Credentials{Email: email, FullName: fullName})
	if err != nil {
		return user.User{}, err
	}
	s.session.Signup(ctx, res.User, res.Token)
	s.resetAll()
	s.logger.Printf("[Auth] signup user_id=%d", res.User.ID)
	return res.User, nil
}

func (s *Service) authenticate(ctx context.Context, cred user.Credentials) (gateway.LoginResult, error) {
	res, err := s.backend.Login(ctx, cred)
	if err != nil {
		return gateway.LoginResult{}, err
	}
	if strings.TrimSpace(res.Token) == "" {
		return gateway.LoginResult{}, ErrMissingToken
	}
	return res, nil
}

func (s *Service) Logout(ctx context.Context) {
	s.session.Logout(ctx)
	s.resetAll()
	s.logger.Printf("[Auth] logout")
}

// Expire handles a token the backend rejected. The session is already cleared
// by the gateway; this drops the remaining state and tells the presentation
// layer to start over.
func (s *Service) Expire(ctx context.Context) {
	s.resetAll()
	s.logger.Printf("[Auth] session expired")

	evt := event.New(event.TypeSessionExpired)
	evt.Message = gateway.UserMessage(&gateway.Error{Kind: gateway.KindAuth})
	s.notifier.Notify(evt)
}

func (s *Service) resetAll() {
	for _, r := range s.resetters {
		if r != nil {
			r.Reset()
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
