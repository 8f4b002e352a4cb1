package dto

import "job-agent/internal/domain/job"

// JobMarks answers the per-job flags the presentation layer renders.
type JobMarks interface {
	IsSaved(jobID int64) bool
	IsApplied(jobID int64) bool
}

type JobItem struct {
	job.Job
	Saved   bool `json:"saved"`
	Applied bool `json:"applied"`
}

type JobListResponse struct {
	Jobs  []JobItem `json:"jobs"`
	Total int       `json:"total"`
}

func NewJobItem(j job.Job, marks JobMarks) JobItem {
	item := JobItem{Job: j}
	if marks != nil {
		item.Saved = marks.IsSaved(j.ID)
		item.Applied = marks.IsApplied(j.ID)
	}
	return item
}

func NewJobList(list []job.Job, marks JobMarks) JobListResponse {
	out := JobListResponse{Jobs: make([]JobItem, 0, len(list)), Total: len(list)}
	for _, j := range list {
		out.Jobs = append(out.Jobs, NewJobItem(j, marks))
	}
	return out
}

type SaveState struct {
	JobID int64 `json:"job_id"`
	Saved bool  `json:"saved"`
}
