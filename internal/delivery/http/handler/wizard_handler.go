package handler

import (
	"sort"

	"job-agent/internal/pkg/response"
	"job-agent/internal/wizard"

	"github.com/gofiber/fiber/v3"
)

type WizardHandler struct {
	wizard *wizard.Wizard
}

type jumpRequest struct {
	Index *int `json:"index"`
}

func NewWizardHandler(w *wizard.Wizard) *WizardHandler {
	return &WizardHandler{wizard: w}
}

func (h *WizardHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.State)
	r.Post("/next", h.Next)
	r.Post("/previous", h.Previous)
	r.Post("/jump", h.Jump)
	r.Patch("/fields", h.SetFields)
	r.Post("/save", h.Save)
	r.Post("/cancel", h.Cancel)
}

func (h *WizardHandler) State(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.wizard.State())
}

func (h *WizardHandler) Next(c fiber.Ctx) error {
	h.wizard.Next()
	return h.State(c)
}

func (h *WizardHandler) Previous(c fiber.Ctx) error {
	h.wizard.Previous()
	return h.State(c)
}

func (h *WizardHandler) Jump(c fiber.Ctx) error {
	var req jumpRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	if req.Index == nil {
		return badRequest(nil)
	}
	if err := h.wizard.JumpTo(*req.Index); err != nil {
		return mapError(err)
	}
	return h.State(c)
}

// SetFields applies {"field": "value", ...} to the draft in name order and
// stops at the first rejected field.
func (h *WizardHandler) SetFields(c fiber.Ctx) error {
	var fields map[string]string
	if err := c.Bind().Body(&fields); err != nil {
		return badRequest(err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.wizard.Set(name, fields[name]); err != nil {
			return mapError(err)
		}
	}
	return h.State(c)
}

func (h *WizardHandler) Save(c fiber.Ctx) error {
	u, err := h.wizard.Save(c.Context())
	if err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, "saved", u)
}

func (h *WizardHandler) Cancel(c fiber.Ctx) error {
	h.wizard.Cancel()
	return h.State(c)
}
