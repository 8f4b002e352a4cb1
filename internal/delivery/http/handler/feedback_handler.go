package handler

import (
	"context"
	"strings"

	"job-agent/internal/delivery/http/middleware"
	"job-agent/internal/domain/user"
	"job-agent/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type FeedbackSubmitter interface {
	SubmitFeedback(ctx context.Context, fb user.Feedback) error
}

type FeedbackHandler struct {
	backend FeedbackSubmitter
}

type feedbackRequest struct {
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	Category string `json:"category"`
}

func NewFeedbackHandler(backend FeedbackSubmitter) *FeedbackHandler {
	return &FeedbackHandler{backend: backend}
}

func (h *FeedbackHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/feedback", h.Submit)
}

func (h *FeedbackHandler) Submit(c fiber.Ctx) error {
	var req feedbackRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return middleware.NewAppError(fiber.StatusBadRequest, "Rating must be between 1 and 5", nil, nil)
	}

	category := strings.ToLower(strings.TrimSpace(req.Category))
	switch category {
	case "", user.FeedbackSuggestion, user.FeedbackBug, user.FeedbackFeature:
	default:
		return middleware.NewAppError(fiber.StatusBadRequest, "Unknown feedback category", nil, nil)
	}

	fb := user.Feedback{
		UserID:   currentUserID(c),
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
		Category: category,
	}
	if err := h.backend.SubmitFeedback(c.Context(), fb); err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, "Thank you for your feedback", nil)
}
