// Package gatewaytest provides a programmable gateway.Client for tests.
package gatewaytest

import (
	"context"
	"sync"

	"job-agent/internal/domain/artifact"
	"job-agent/internal/domain/job"
	"job-agent/internal/domain/user"
	"job-agent/internal/gateway"
)

// Fake answers each call with the matching func field, or a zero value when the
// field is nil. Calls are counted by operation name.
type Fake struct {
	HealthFunc                func(ctx context.Context) (map[string]any, error)
	LoginFunc                 func(ctx context.Context, cred user.Credentials) (gateway.LoginResult, error)
	GetUserFunc               func(ctx context.Context, userID int64) (user.User, error)
	UpdateUserFunc            func(ctx context.Context, userID int64, upd user.Update) (user.User, error)
	RecommendedJobsFunc       func(ctx context.Context, userID int64) ([]job.Job, error)
	SearchJobsFunc            func(ctx context.Context, query, location string, userID int64) ([]job.Job, error)
	ImportJobsFunc            func(ctx context.Context, query string, userID int64) (job.ImportSummary, error)
	ListApplicationsFunc      func(ctx context.Context, userID int64) ([]job.Application, error)
	CreateApplicationFunc     func(ctx context.Context, userID, jobID int64) (job.ApplicationReceipt, error)
	ListSavedJobsFunc         func(ctx context.Context, userID int64) ([]job.SavedJob, error)
	SaveJobFunc               func(ctx context.Context, userID, jobID int64) (job.SaveReceipt, error)
	UnsaveJobFunc             func(ctx context.Context, savedID int64) error
	GenerateCoverLetterFunc   func(ctx context.Context, userID, jobID int64) (artifact.GenerationResult, error)
	GenerateResumeFunc        func(ctx context.Context, userID, jobID int64) (artifact.GenerationResult, error)
	GenerateInterviewPrepFunc func(ctx context.Context, userID, jobID int64) (artifact.InterviewPrepResult, error)
	SubmitFeedbackFunc        func(ctx context.Context, fb user.Feedback) error

	mu    sync.Mutex
	calls map[string]int
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) Health(ctx context.Context) (map[string]any, error) {
	f.record("Health")
	if f.HealthFunc == nil {
		return map[string]any{"status": "healthy"}, nil
	}
	return f.HealthFunc(ctx)
}

func (f *Fake) Login(ctx context.Context, cred user.Credentials) (gateway.LoginResult, error) {
	f.record("Login")
	if f.LoginFunc == nil {
		return gateway.LoginResult{}, nil
	}
	return f.LoginFunc(ctx, cred)
}

func (f *Fake) GetUser(ctx context.Context, userID int64) (user.User, error) {
	f.record("GetUser")
	if f.GetUserFunc == nil {
		return user.User{ID: userID}, nil
	}
	return f.GetUserFunc(ctx, userID)
}

func (f *Fake) UpdateUser(ctx context.Context, userID int64, upd user.Update) (user.User, error) {
	f.record("UpdateUser")
	if f.UpdateUserFunc == nil {
		return user.User{ID: userID}, nil
	}
	return f.UpdateUserFunc(ctx, userID, upd)
}

func (f *Fake) RecommendedJobs(ctx context.Context, userID int64) ([]job.Job, error) {
	f.record("RecommendedJobs")
	if f.RecommendedJobsFunc == nil {
		return nil, nil
	}
	return f.RecommendedJobsFunc(ctx, userID)
}

func (f *Fake) SearchJobs(ctx context.Context, query, location string, userID int64) ([]job.Job, error) {
	f.record("SearchJobs")
	if f.SearchJobsFunc == nil {
		return nil, nil
	}
	return f.SearchJobsFunc(ctx, query, location, userID)
}

func (f *Fake) ImportJobs(ctx context.Context, query string, userID int64) (job.ImportSummary, error) {
	f.record("ImportJobs")
	if f.ImportJobsFunc == nil {
		return job.ImportSummary{Status: "success"}, nil
	}
	return f.ImportJobsFunc(ctx, query, userID)
}

func (f *Fake) ListApplications(ctx context.Context, userID int64) ([]job.Application, error) {
	f.record("ListApplications")
	if f.ListApplicationsFunc == nil {
		return nil, nil
	}
	return f.ListApplicationsFunc(ctx, userID)
}

func (f *Fake) CreateApplication(ctx context.Context, userID, jobID int64) (job.ApplicationReceipt, error) {
	f.record("CreateApplication")
	if f.CreateApplicationFunc == nil {
		return job.ApplicationReceipt{ApplicationID: jobID, Status: job.StatusApplied}, nil
	}
	return f.CreateApplicationFunc(ctx, userID, jobID)
}

func (f *Fake) ListSavedJobs(ctx context.Context, userID int64) ([]job.SavedJob, error) {
	f.record("ListSavedJobs")
	if f.ListSavedJobsFunc == nil {
		return nil, nil
	}
	return f.ListSavedJobsFunc(ctx, userID)
}

func (f *Fake) SaveJob(ctx context.Context, userID, jobID int64) (job.SaveReceipt, error) {
	f.record("SaveJob")
	if f.SaveJobFunc == nil {
		return job.SaveReceipt{SavedID: 100 + jobID}, nil
	}
	return f.SaveJobFunc(ctx, userID, jobID)
}

func (f *Fake) UnsaveJob(ctx context.Context, savedID int64) error {
	f.record("UnsaveJob")
	if f.UnsaveJobFunc == nil {
		return nil
	}
	return f.UnsaveJobFunc(ctx, savedID)
}

func (f *Fake) GenerateCoverLetter(ctx context.Context, userID, jobID int64) (artifact.GenerationResult, error) {
	f.record("GenerateCoverLetter")
	if f.GenerateCoverLetterFunc == nil {
		return artifact.GenerationResult{Status: artifact.ResultSuccess}, nil
	}
	return f.GenerateCoverLetterFunc(ctx, userID, jobID)
}

func (f *Fake) GenerateResume(ctx context.Context, userID, jobID int64) (artifact.GenerationResult, error) {
	f.record("GenerateResume")
	if f.GenerateResumeFunc == nil {
		return artifact.GenerationResult{Status: artifact.ResultSuccess}, nil
	}
	return f.GenerateResumeFunc(ctx, userID, jobID)
}

func (f *Fake) GenerateInterviewPrep(ctx context.Context, userID, jobID int64) (artifact.InterviewPrepResult, error) {
	f.record("GenerateInterviewPrep")
	if f.GenerateInterviewPrepFunc == nil {
		prep := artifact.InterviewPrep{}.Normalize()
		return artifact.InterviewPrepResult{Status: artifact.ResultSuccess, Questions: &prep}, nil
	}
	return f.GenerateInterviewPrepFunc(ctx, userID, jobID)
}

func (f *Fake) SubmitFeedback(ctx context.Context, fb user.Feedback) error {
	f.record("SubmitFeedback")
	if f.SubmitFeedbackFunc == nil {
		return nil
	}
	return f.SubmitFeedbackFunc(ctx, fb)
}

var _ gateway.Client = (*Fake)(nil)
