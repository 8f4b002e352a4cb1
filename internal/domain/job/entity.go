package job

// Job is a posting as served by the backend. MatchScore is server-computed (0-100)
// and opaque to the client. A refetch replaces the record, it is never patched.
type Job struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SalaryMin   *int64   `json:"salary_min,omitempty"`
	SalaryMax   *int64   `json:"salary_max,omitempty"`
	Salary      string   `json:"salary,omitempty"`
	Type        string   `json:"type,omitempty"`
	Level       string   `json:"level,omitempty"`
	ApplyURL    string   `json:"apply_url,omitempty"`
	Score       float64  `json:"score,omitempty"`
	MatchScore  float64  `json:"matchScore"`
}

const StatusApplied = "Applied"

// Application tracks that the user applied to a job. Timestamps are kept as the
// backend formats them; they are displayed, never compared.
type Application struct {
	ID        int64  `json:"id"`
	JobID     int64  `json:"job_id"`
	Status    string `json:"status"`
	AppliedAt string `json:"applied_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Job       *Job   `json:"job,omitempty"`
}

// ApplicationReceipt is the answer to a create-application call. The backend
// answers a duplicate with the existing application, so a receipt always means
// the user has applied.
type ApplicationReceipt struct {
	ApplicationID int64  `json:"application_id"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

// SavedJob is a bookmark. ID is the saved-record id the unsave call needs, not
// the job id.
type SavedJob struct {
	ID      int64  `json:"id"`
	SavedAt string `json:"saved_at,omitempty"`
	Job     Job    `json:"job"`
}

type SaveReceipt struct {
	SavedID int64  `json:"saved_id"`
	Message string `json:"message,omitempty"`
}

type ImportSummary struct {
	Status     string `json:"status"`
	Imported   int    `json:"imported"`
	TotalFound int    `json:"total_found"`
	Message    string `json:"message"`
}

// Dedupe keeps the first occurrence of every job id, preserving order.
func Dedupe(jobs []Job) []Job {
	seen := make(map[int64]struct{}, len(jobs))
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if _, ok := seen[j.ID]; ok {
			continue
		}
		seen[j.ID] = struct{}{}
		out = append(out, j)
	}
	return out
}
