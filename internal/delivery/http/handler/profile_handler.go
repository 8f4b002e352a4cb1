package handler

import (
	"strconv"

	"job-agent/internal/pkg/response"
	ucprofile "job-agent/internal/usecase/profile"

	"github.com/gofiber/fiber/v3"
)

type ProfileHandler struct {
	profile *ucprofile.Service
}

func NewProfileHandler(p *ucprofile.Service) *ProfileHandler {
	return &ProfileHandler{profile: p}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

// Get returns the stored user. ?refresh=true reloads it from the backend first.
func (h *ProfileHandler) Get(c fiber.Ctx) error {
	refresh := false
	if v := c.Query("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(err)
		}
		refresh = b
	}

	if refresh {
		u, err := h.profile.Refresh(c.Context())
		if err != nil {
			return mapError(err)
		}
		return response.Success(c, fiber.StatusOK, response.MessageOK, u)
	}

	u, err := h.profile.Current()
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, u)
}

func (h *ProfileHandler) Update(c fiber.Ctx) error {
	var req ucprofile.Edit
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	u, err := h.profile.Update(c.Context(), req)
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, "Profile updated", u)
}
