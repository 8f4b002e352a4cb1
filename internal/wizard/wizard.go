// Package wizard is the multi-section profile questionnaire. Navigation and edits
// only touch the local draft; Save pushes the derived profile to the backend and
// then into the session.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"job-agent/internal/domain/event"
	"job-agent/internal/domain/user"
	"job-agent/internal/gateway"
)

const defaultAckDelay = 3 * time.Second

var (
	ErrUnknownField = errors.New("unknown wizard field")
	ErrInvalidValue = errors.New("invalid wizard value")
	ErrOutOfRange   = errors.New("section index out of range")
	ErrNotSignedIn  = errors.New("not signed in")
	ErrSaving       = errors.New("save already in progress")

	// ErrSessionChanged is returned by a Save whose session was replaced while
	// the backend call ran. The result is not merged.
	ErrSessionChanged = errors.New("session changed during save")
)

// UserUpdater pushes a partial user to the backend.
type UserUpdater interface {
	UpdateUser(ctx context.Context, userID int64, upd user.Update) (user.User, error)
}

// SessionStore is the part of the session store the wizard reads and writes.
type SessionStore interface {
	User() (user.User, bool)
	UpdateUser(ctx context.Context, u user.User)
}

type Wizard struct {
	backend  UserUpdater
	store    SessionStore
	notifier event.Notifier
	logger   *log.Logger
	ackDelay time.Duration

	mu       sync.Mutex
	section  int
	draft    Draft
	saving   bool
	savedAck bool
	ackTimer *time.Timer
	lastErr  string
	epoch    uint64
}

func New(backend UserUpdater, store SessionStore, notifier event.Notifier, logger *log.Logger, ackDelay time.Duration) *Wizard {
	if logger == nil {
		logger = log.Default()
	}
	if ackDelay <= 0 {
		ackDelay = defaultAckDelay
	}
	w := &Wizard{
		backend:  backend,
		store:    store,
		notifier: event.OrNop(notifier),
		logger:   logger,
		ackDelay: ackDelay,
	}
	w.Reset()
	return w
}

type State struct {
	Section  int       `json:"section"`
	Sections []Section `json:"sections"`
	Draft    Draft     `json:"draft"`
	Saving   bool      `json:"saving"`
	SavedAck bool      `json:"saved"`
	Error    string    `json:"error,omitempty"`
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Section:  w.section,
		Sections: Sections(),
		Draft:    w.draft,
		Saving:   w.saving,
		SavedAck: w.savedAck,
		Error:    w.lastErr,
	}
}

func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

func (w *Wizard) Section() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.section
}

// Next moves forward one section, staying on the last.
func (w *Wizard) Next() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.section < len(sections)-1 {
		w.section++
	}
	return w.section
}

// Previous moves back one section, staying on the first.
func (w *Wizard) Previous() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.section > 0 {
		w.section--
	}
	return w.section
}

// JumpTo selects section i. An index outside the sections leaves the state
// unchanged.
func (w *Wizard) JumpTo(i int) error {
	if i < 0 || i >= len(sections) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	w.mu.Lock()
	w.section = i
	w.mu.Unlock()
	return nil
}

func (w *Wizard) Set(field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Set(field, value)
}

// Cancel discards draft edits by reseeding from the session user.
func (w *Wizard) Cancel() {
	w.mu.Lock()
	w.draft = w.seed()
	w.lastErr = ""
	w.mu.Unlock()
}

// Reset returns to the first section with a fresh draft.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.epoch++
	w.section = 0
	w.draft = w.seed()
	w.lastErr = ""
	w.savedAck = false
	if w.ackTimer != nil {
		w.ackTimer.Stop()
		w.ackTimer = nil
	}
}

func (w *Wizard) seed() Draft {
	if w.store == nil {
		return NewDraft(user.User{})
	}
	u, _ := w.store.User()
	return NewDraft(u)
}

// Save derives the profile from the draft, updates the backend, then merges the
// result into the session. On a backend error nothing is merged.
func (w *Wizard) Save(ctx context.Context) (user.User, error) {
	if w.store == nil {
		return user.User{}, ErrNotSignedIn
	}
	u, ok := w.store.User()
	if !ok {
		return user.User{}, ErrNotSignedIn
	}

	w.mu.Lock()
	if w.saving {
		w.mu.Unlock()
		return user.User{}, ErrSaving
	}
	w.saving = true
	w.lastErr = ""
	d := w.draft
	epoch := w.epoch
	w.mu.Unlock()

	merged, upd, err := apply(u, d)
	if err == nil {
		_, err = w.backend.UpdateUser(ctx, u.ID, upd)
	}
	if err != nil {
		w.mu.Lock()
		w.saving = false
		if w.epoch == epoch {
			w.lastErr = gateway.UserMessage(err)
		}
		w.mu.Unlock()
		w.logger.Printf("[Wizard] save failed user_id=%d: %v", u.ID, err)
		return user.User{}, err
	}

	// The store is only touched while the wizard still belongs to the user the
	// draft was built for.
	w.mu.Lock()
	current, ok := w.store.User()
	if w.epoch != epoch || !ok || current.ID != u.ID {
		w.saving = false
		w.mu.Unlock()
		w.logger.Printf("[Wizard] save for user_id=%d finished after session change, not merged", u.ID)
		return user.User{}, ErrSessionChanged
	}
	w.store.UpdateUser(ctx, merged)
	w.saving = false
	w.savedAck = true
	if w.ackTimer != nil {
		w.ackTimer.Stop()
	}
	w.ackTimer = time.AfterFunc(w.ackDelay, w.clearAck)
	w.mu.Unlock()

	evt := event.New(event.TypeProfileSaved)
	evt.Data = merged
	w.notifier.Notify(evt)
	return merged, nil
}

func (w *Wizard) clearAck() {
	w.mu.Lock()
	w.savedAck = false
	w.ackTimer = nil
	w.mu.Unlock()

	evt := event.New(event.TypeProfileSaved)
	evt.Message = "acknowledged"
	w.notifier.Notify(evt)
}

// SavedAck reports whether the transient "saved" acknowledgement is showing.
func (w *Wizard) SavedAck() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.savedAck
}

// Close stops the acknowledgement timer.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ackTimer != nil {
		w.ackTimer.Stop()
		w.ackTimer = nil
	}
}

// apply returns u with the draft's account fields merged in, and the partial
// update sent to the backend.
func apply(u user.User, d Draft) (user.User, user.Update, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return user.User{}, user.Update{}, err
	}
	lo, hi := ParseSalaryRange(d.DesiredSalary, u.DesiredSalaryMin, u.DesiredSalaryMax)

	merged := u
	merged.FullName = d.FullName
	merged.Email = d.Email
	merged.Phone = d.Phone
	merged.PreferredLocations = d.Location
	merged.Skills = d.TechnicalSkills
	merged.DesiredSalaryMin = lo
	merged.DesiredSalaryMax = hi
	merged.EmploymentData = data

	upd := user.Update{
		FullName:           &merged.FullName,
		Phone:              &merged.Phone,
		PreferredLocations: &merged.PreferredLocations,
		Skills:             &merged.Skills,
		DesiredSalaryMin:   &merged.DesiredSalaryMin,
		DesiredSalaryMax:   &merged.DesiredSalaryMax,
		EmploymentData:     data,
	}
	return merged, upd, nil
}
