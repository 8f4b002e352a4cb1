package user

import "encoding/json"

// User is the authenticated account record as the backend returns it. Skills and
// preferred locations are flat comma-delimited strings.
type User struct {
	ID                 int64           `json:"id"`
	Email              string          `json:"email"`
	FullName           string          `json:"full_name,omitempty"`
	Phone              string          `json:"phone,omitempty"`
	Summary            string          `json:"summary,omitempty"`
	Skills             string          `json:"skills,omitempty"`
	ResumeText         string          `json:"resume_text,omitempty"`
	PreferredLocations string          `json:"preferred_locations,omitempty"`
	DesiredSalaryMin   int64           `json:"desired_salary_min,omitempty"`
	DesiredSalaryMax   int64           `json:"desired_salary_max,omitempty"`
	EmailVerified      bool            `json:"email_verified,omitempty"`
	EmploymentData     json.RawMessage `json:"employment_data,omitempty"`
}

// Update is the partial user sent to PUT /users/{id}. Nil fields are left alone.
type Update struct {
	FullName           *string `json:"full_name,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Summary            *string `json:"summary,omitempty"`
	PreferredLocations *string `json:"preferred_locations,omitempty"`
	DesiredSalaryMin   *int64  `json:"desired_salary_min,omitempty"`
	DesiredSalaryMax   *int64  `json:"desired_salary_max,omitempty"`
	Skills             *string `json:"skills,omitempty"`
	ResumeText         *string `json:"resume_text,omitempty"`

	// EmploymentData carries the raw wizard answers. Backends that do not store
	// it ignore the field.
	EmploymentData json.RawMessage `json:"employment_data,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

const (
	FeedbackSuggestion = "suggestion"
	FeedbackBug        = "bug"
	FeedbackFeature    = "feature"
)

type Feedback struct {
	UserID   int64  `json:"user_id"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	Category string `json:"category"`
}
