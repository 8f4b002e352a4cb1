// Package artifact defines the AI-generated documents tied to one (user, job) pair
// and the per-kind generation state.
//
// Slot lifecycle:
//
//	absent ──► pending ──► ready
//	              │  ▲
//	              ▼  │
//	            failed
//
// ready and failed both accept a new generation request, which moves the slot
// back to pending. pending accepts nothing.
package artifact

import "fmt"

type Kind string

const (
	KindCoverLetter   Kind = "cover-letter"
	KindResume        Kind = "resume"
	KindInterviewPrep Kind = "interview-prep"
)

// Kinds lists every artifact kind in display order.
var Kinds = []Kind{KindCoverLetter, KindResume, KindInterviewPrep}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindCoverLetter, KindResume, KindInterviewPrep:
		return k, nil
	}
	return "", fmt.Errorf("unknown artifact kind %q", s)
}

// Label is the human readable name used in messages and exported file names.
func (k Kind) Label() string {
	switch k {
	case KindCoverLetter:
		return "cover letter"
	case KindResume:
		return "tailored resume"
	case KindInterviewPrep:
		return "interview preparation"
	}
	return string(k)
}

type Status string

const (
	StatusAbsent  Status = "absent"
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// CanStart reports whether a generation request may begin from s.
func CanStart(s Status) bool { return s != StatusPending }

// InterviewPrep is the structured interview-prep artifact. Slices are never nil
// once normalised.
type InterviewPrep struct {
	TechnicalQuestions  []string `json:"technical_questions"`
	BehavioralQuestions []string `json:"behavioral_questions"`
	Tips                []string `json:"tips"`
}

// Normalize replaces missing lists with empty ones.
func (p InterviewPrep) Normalize() InterviewPrep {
	if p.TechnicalQuestions == nil {
		p.TechnicalQuestions = []string{}
	}
	if p.BehavioralQuestions == nil {
		p.BehavioralQuestions = []string{}
	}
	if p.Tips == nil {
		p.Tips = []string{}
	}
	return p
}

// State is one slot. Content is set for text kinds, Prep for interview-prep,
// Message for failures.
type State struct {
	Kind    Kind           `json:"kind"`
	Status  Status         `json:"status"`
	Content string         `json:"content,omitempty"`
	Prep    *InterviewPrep `json:"prep,omitempty"`
	Message string         `json:"message,omitempty"`
}

// GenerationResult is the backend envelope for cover letters and resumes.
type GenerationResult struct {
	Status  string `json:"status"`
	Content string `json:"content,omitempty"`
	Model   string `json:"model,omitempty"`
	Error   string `json:"error,omitempty"`
}

// InterviewPrepResult is the backend envelope for interview prep.
type InterviewPrepResult struct {
	Status    string         `json:"status"`
	Questions *InterviewPrep `json:"questions,omitempty"`
	Model     string         `json:"model,omitempty"`
	Error     string         `json:"error,omitempty"`
}

const ResultSuccess = "success"
