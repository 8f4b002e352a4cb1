package event

import "time"

const (
	TypeSessionChanged  = "session_changed"
	TypeSessionExpired  = "session_expired"
	TypeJobsUpdated     = "jobs_updated"
	TypeSavedChanged    = "saved_changed"
	TypeApplied         = "applied"
	TypeArtifactUpdated = "artifact_updated"
	TypeProfileSaved    = "profile_saved"
	TypeOpenURL         = "open_url"
)

// Event is a state change pushed to the presentation layer.
type Event struct {
	Type      string `json:"type"`
	JobID     int64  `json:"job_id,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

func New(typ string) Event {
	return Event{Type: typ, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

type Notifier interface {
	Notify(evt Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(evt Event)

func (f NotifierFunc) Notify(evt Event) { f(evt) }

// Nop discards events.
var Nop Notifier = NotifierFunc(func(Event) {})

// OrNop returns n, or Nop when n is nil.
func OrNop(n Notifier) Notifier {
	if n == nil {
		return Nop
	}
	return n
}
