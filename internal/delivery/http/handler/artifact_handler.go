package handler

import (
	"strconv"
	"strings"

	"job-agent/internal/artifact"
	"job-agent/internal/delivery/http/middleware"
	domartifact "job-agent/internal/domain/artifact"
	"job-agent/internal/jobs"
	"job-agent/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type ArtifactHandler struct {
	registry *artifact.Registry
	exporter *artifact.Exporter
	jobs     *jobs.Manager
}

type artifactsResponse struct {
	JobID     int64               `json:"job_id"`
	Artifacts []domartifact.State `json:"artifacts"`
}

func NewArtifactHandler(registry *artifact.Registry, exporter *artifact.Exporter, jobsManager *jobs.Manager) *ArtifactHandler {
	return &ArtifactHandler{registry: registry, exporter: exporter, jobs: jobsManager}
}

func (h *ArtifactHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	g := r.Group("/jobs/:id/artifacts")
	g.Post("/", h.Open)
	g.Get("/", h.States)
	g.Delete("/", h.Close)
	g.Post("/:kind", h.Generate)
	g.Get("/:kind", h.State)
	g.Get("/:kind/export", h.Export)
}

// Open shows the artifact panel for a job detail.
func (h *ArtifactHandler) Open(c fiber.Ctx) error {
	jobID, err := parseJobID(c)
	if err != nil {
		return err
	}
	o := h.registry.Open(currentUserID(c), jobID)
	return response.Success(c, fiber.StatusOK, response.MessageOK, artifactsResponse{JobID: jobID, Artifacts: o.States()})
}

func (h *ArtifactHandler) States(c fiber.Ctx) error {
	o, err := h.opened(c)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, artifactsResponse{JobID: o.JobID(), Artifacts: o.States()})
}

// Close leaves the job detail; its artifacts are discarded.
func (h *ArtifactHandler) Close(c fiber.Ctx) error {
	jobID, err := parseJobID(c)
	if err != nil {
		return err
	}
	h.registry.Close(jobID)
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

// Generate starts a generation and answers 202 with the pending slot. With
// ?wait=true it blocks and answers with the settled slot.
func (h *ArtifactHandler) Generate(c fiber.Ctx) error {
	jobID, err := parseJobID(c)
	if err != nil {
		return err
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	o := h.registry.Open(currentUserID(c), jobID)

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		st, err := o.Generate(c.Context(), kind)
		if err != nil {
			return mapError(err)
		}
		return response.Success(c, fiber.StatusOK, response.MessageOK, st)
	}

	if err := o.Start(kind); err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusAccepted, "accepted", o.State(kind))
}

func (h *ArtifactHandler) State(c fiber.Ctx) error {
	o, err := h.opened(c)
	if err != nil {
		return err
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, o.State(kind))
}

func (h *ArtifactHandler) Export(c fiber.Ctx) error {
	o, err := h.opened(c)
	if err != nil {
		return err
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	format, err := artifact.ParseFormat(c.Query("format"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Unsupported export format", nil, err)
	}

	title := ""
	if j, ok := h.jobs.Job(o.JobID()); ok {
		title = j.Title
		if j.Company != "" {
			title += " at " + j.Company
		}
	}

	doc, err := h.exporter.Export(c.Context(), o.State(kind), o.JobID(), title, format)
	if err != nil {
		return mapError(err)
	}
	return response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}

func (h *ArtifactHandler) opened(c fiber.Ctx) (*artifact.Orchestrator, error) {
	jobID, err := parseJobID(c)
	if err != nil {
		return nil, err
	}
	o, ok := h.registry.Get(jobID)
	if !ok || o.UserID() != currentUserID(c) {
		return nil, mapError(artifact.ErrClosed)
	}
	return o, nil
}

func parseKind(c fiber.Ctx) (domartifact.Kind, error) {
	kind, err := domartifact.ParseKind(strings.TrimSpace(c.Params("kind")))
	if err != nil {
		return "", middleware.NewAppError(fiber.StatusBadRequest, "Unknown artifact kind", nil, err)
	}
	return kind, nil
}

func currentUserID(c fiber.Ctx) int64 {
	id, _ := c.Locals(middleware.CtxUserIDKey).(int64)
	return id
}
