package handler

import (
	"context"
	"time"

	"job-agent/internal/gateway"
	"job-agent/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

const backendHealthTimeout = 3 * time.Second

type BackendHealth interface {
	Health(ctx context.Context) (map[string]any, error)
}

type HealthHandler struct {
	backend   BackendHealth
	clients   func() int
	signedIn  func() bool
	startedAt time.Time
}

type backendStatus struct {
	Reachable bool           `json:"reachable"`
	Detail    map[string]any `json:"detail,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type healthResponse struct {
	Status        string        `json:"status"`
	Uptime        string        `json:"uptime"`
	Authenticated bool          `json:"authenticated"`
	EventClients  int           `json:"event_clients"`
	Backend       backendStatus `json:"backend"`
}

// NewHealthHandler reports bridge and backend health. clients and signedIn may
// be nil.
func NewHealthHandler(backend BackendHealth, clients func() int, signedIn func() bool) *HealthHandler {
	return &HealthHandler{backend: backend, clients: clients, signedIn: signedIn, startedAt: time.Now()}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/health", h.Health)
}

// Health always answers 200 while the bridge is up; an unreachable backend is
// reported in the body.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	out := healthResponse{
		Status: "ok",
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.clients != nil {
		out.EventClients = h.clients()
	}
	if h.signedIn != nil {
		out.Authenticated = h.signedIn()
	}

	if h.backend != nil {
		ctx, cancel := context.WithTimeout(c.Context(), backendHealthTimeout)
		defer cancel()
		detail, err := h.backend.Health(ctx)
		if err != nil {
			out.Status = "degraded"
			out.Backend = backendStatus{Error: gateway.UserMessage(err)}
		} else {
			out.Backend = backendStatus{Reachable: true, Detail: detail}
		}
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}
