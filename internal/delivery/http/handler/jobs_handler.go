package handler

import (
	"strings"

	"job-agent/internal/delivery/http/dto"
	"job-agent/internal/jobs"
	"job-agent/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type JobsHandler struct {
	jobs *jobs.Manager
}

type importRequest struct {
	Query string `json:"query"`
}

func NewJobsHandler(m *jobs.Manager) *JobsHandler {
	return &JobsHandler{jobs: m}
}

func (h *JobsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/jobs", h.State)
	r.Get("/jobs/search", h.Search)
	r.Get("/jobs/recommended", h.Recommended)
	r.Post("/jobs/import", h.Import)
	r.Get("/jobs/:id", h.Detail)
	r.Post("/jobs/:id/save/toggle", h.ToggleSave)
	r.Put("/jobs/:id/save", h.Save)
	r.Delete("/jobs/:id/save", h.Unsave)
	r.Post("/jobs/:id/apply", h.Apply)

	r.Get("/applications", h.Applications)
	r.Get("/saved-jobs", h.SavedJobs)
	r.Get("/dashboard", h.Dashboard)
}

func (h *JobsHandler) State(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.jobs.Snapshot())
}

func (h *JobsHandler) Search(c fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	location := strings.TrimSpace(c.Query("location"))

	list, err := h.jobs.Search(c.Context(), query, location)
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobList(list, h.jobs))
}

func (h *JobsHandler) Recommended(c fiber.Ctx) error {
	list, err := h.jobs.Recommended(c.Context())
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobList(list, h.jobs))
}

func (h *JobsHandler) Import(c fiber.Ctx) error {
	var req importRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return badRequest(nil)
	}

	sum, err := h.jobs.Import(c.Context(), req.Query)
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, sum)
}

func (h *JobsHandler) Detail(c fiber.Ctx) error {
	id, err := parseJobID(c)
	if err != nil {
		return err
	}
	j, ok := h.jobs.Job(id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Job not found")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobItem(j, h.jobs))
}

func (h *JobsHandler) ToggleSave(c fiber.Ctx) error {
	id, err := parseJobID(c)
	if err != nil {
		return err
	}
	saved, err := h.jobs.ToggleSave(c.Context(), id)
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.SaveState{JobID: id, Saved: saved})
}

func (h *JobsHandler) Save(c fiber.Ctx) error {
	return h.setSaved(c, true)
}

func (h *JobsHandler) Unsave(c fiber.Ctx) error {
	return h.setSaved(c, false)
}

func (h *JobsHandler) setSaved(c fiber.Ctx, want bool) error {
	id, err := parseJobID(c)
	if err != nil {
		return err
	}
	saved, err := h.jobs.SetSaved(c.Context(), id, want)
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.SaveState{JobID: id, Saved: saved})
}

func (h *JobsHandler) Apply(c fiber.Ctx) error {
	id, err := parseJobID(c)
	if err != nil {
		return err
	}
	rec, err := h.jobs.Apply(c.Context(), id)
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, rec)
}

func (h *JobsHandler) Applications(c fiber.Ctx) error {
	apps, err := h.jobs.LoadApplications(c.Context())
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, apps)
}

func (h *JobsHandler) SavedJobs(c fiber.Ctx) error {
	saved, err := h.jobs.LoadSaved(c.Context())
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, saved)
}

func (h *JobsHandler) Dashboard(c fiber.Ctx) error {
	d, err := h.jobs.LoadDashboard(c.Context())
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, d)
}
