// Package profile reads and edits the signed-in user's account record outside
// the questionnaire.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"job-agent/internal/domain/event"
	"job-agent/internal/domain/user"
)

var (
	ErrNotSignedIn  = errors.New("not signed in")
	ErrInvalidInput = errors.New("invalid profile input")

	// ErrSessionChanged is returned when the signed-in user changed while the
	// backend call ran. The result is not merged.
	ErrSessionChanged = errors.New("session changed during profile update")
)

type Backend interface {
	GetUser(ctx context.Context, userID int64) (user.User, error)
	UpdateUser(ctx context.Context, userID int64, upd user.Update) (user.User, error)
}

type SessionStore interface {
	User() (user.User, bool)
	UpdateUser(ctx context.Context, u user.User)
}

// Resetter is reseeded after the stored user changes.
type Resetter interface {
	Reset()
}

// Edit is a partial profile change. Nil fields are left alone.
type Edit struct {
	FullName           *string `json:"full_name"`
	Phone              *string `json:"phone"`
	Summary            *string `json:"summary"`
	Skills             *string `json:"skills"`
	ResumeText         *string `json:"resume_text"`
	PreferredLocations *string `json:"preferred_locations"`
	DesiredSalaryMin   *int64  `json:"desired_salary_min"`
	DesiredSalaryMax   *int64  `json:"desired_salary_max"`
}

type Service struct {
	backend  Backend
	store    SessionStore
	notifier event.Notifier
	logger   *log.Logger

	resetters []Resetter
}

func NewService(backend Backend, store SessionStore, notifier event.Notifier, logger *log.Logger, resetters ...Resetter) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		backend:   backend,
		store:     store,
		notifier:  event.OrNop(notifier),
		logger:    logger,
		resetters: resetters,
	}
}

// Current returns the stored user without a backend call.
func (s *Service) Current() (user.User, error) {
	u, ok := s.store.User()
	if !ok {
		return user.User{}, ErrNotSignedIn
	}
	return u, nil
}

// Refresh fetches the user from the backend and merges it into the session.
func (s *Service) Refresh(ctx context.Context) (user.User, error) {
	u, err := s.Current()
	if err != nil {
		return user.User{}, err
	}
	fresh, err := s.backend.GetUser(ctx, u.ID)
	if err != nil {
		s.logger.Printf("[Profile] refresh failed user_id=%d: %v", u.ID, err)
		return user.User{}, err
	}
	return s.merge(ctx, u, fresh)
}

// Update sends e to the backend. Only a successful call changes the session.
func (s *Service) Update(ctx context.Context, e Edit) (user.User, error) {
	u, err := s.Current()
	if err != nil {
		return user.User{}, err
	}
	upd, err := e.normalize(u)
	if err != nil {
		return user.User{}, err
	}
	updated, err := s.backend.UpdateUser(ctx, u.ID, upd)
	if err != nil {
		s.logger.Printf("[Profile] update failed user_id=%d: %v", u.ID, err)
		return user.User{}, err
	}
	return s.merge(ctx, u, updated)
}

// merge lays the backend record over the stored one, keeping fields the
// backend left out, and stores it if the session still belongs to prev.
func (s *Service) merge(ctx context.Context, prev, got user.User) (user.User, error) {
	current, ok := s.store.User()
	if !ok || current.ID != prev.ID {
		s.logger.Printf("[Profile] result for user_id=%d arrived after session change, not merged", prev.ID)
		return user.User{}, ErrSessionChanged
	}

	merged := got
	merged.ID = current.ID
	if merged.Email == "" {
		merged.Email = current.Email
	}
	if len(merged.EmploymentData) == 0 {
		merged.EmploymentData = current.EmploymentData
	}
	s.store.UpdateUser(ctx, merged)
	for _, r := range s.resetters {
		if r != nil {
			r.Reset()
		}
	}
	s.logger.Printf("[Profile] stored user_id=%d", merged.ID)

	evt := event.New(event.TypeProfileSaved)
	evt.Data = merged
	s.notifier.Notify(evt)
	return merged, nil
}

func (e Edit) normalize(u user.User) (user.Update, error) {
	var upd user.Update
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	upd.FullName = trim(e.FullName)
	upd.Phone = trim(e.Phone)
	upd.Summary = trim(e.Summary)
	upd.Skills = trim(e.Skills)
	upd.PreferredLocations = trim(e.PreferredLocations)
	upd.ResumeText = trim(e.ResumeText)

	if upd.FullName != nil && *upd.FullName == "" {
		return user.Update{}, fmt.Errorf("%w: full name must not be empty", ErrInvalidInput)
	}

	lo, hi := u.DesiredSalaryMin, u.DesiredSalaryMax
	if e.DesiredSalaryMin != nil {
		lo = *e.DesiredSalaryMin
		upd.DesiredSalaryMin = e.DesiredSalaryMin
	}
	if e.DesiredSalaryMax != nil {
		hi = *e.DesiredSalaryMax
		upd.DesiredSalaryMax = e.DesiredSalaryMax
	}
	if lo < 0 || hi < 0 {
		return user.Update{}, fmt.Errorf("%w: salary must not be negative", ErrInvalidInput)
	}
	if lo > 0 && hi > 0 && lo > hi {
		return user.Update{}, fmt.Errorf("%w: minimum salary above maximum", ErrInvalidInput)
	}
	return upd, nil
}
