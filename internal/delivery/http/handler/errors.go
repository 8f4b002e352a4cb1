package handler

import (
	"errors"
	"strconv"
	"strings"

	"job-agent/internal/artifact"
	"job-agent/internal/delivery/http/middleware"
	"job-agent/internal/gateway"
	"job-agent/internal/jobs"
	"job-agent/internal/pkg/response"
	ucauth "job-agent/internal/usecase/auth"
	ucprofile "job-agent/internal/usecase/profile"
	"job-agent/internal/wizard"

	"github.com/gofiber/fiber/v3"
)

// mapError turns a component error into the AppError the error middleware
// renders. Gateway failures carry the single user-facing message.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *middleware.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, gateway.UserMessage(err), nil, err)
	case errors.Is(err, gateway.ErrBusiness):
		return middleware.NewAppError(businessStatus(err), gateway.UserMessage(err), nil, err)
	case errors.Is(err, gateway.ErrTransport):
		return middleware.NewAppError(fiber.StatusBadGateway, gateway.UserMessage(err), nil, err)
	case errors.Is(err, gateway.ErrValidation):
		return middleware.NewAppError(fiber.StatusBadGateway, gateway.UserMessage(err), nil, err)

	case errors.Is(err, jobs.ErrNotSignedIn), errors.Is(err, wizard.ErrNotSignedIn), errors.Is(err, ucprofile.ErrNotSignedIn):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Not signed in", nil, err)
	case errors.Is(err, jobs.ErrInFlight), errors.Is(err, artifact.ErrPending), errors.Is(err, wizard.ErrSaving):
		return middleware.NewAppError(fiber.StatusConflict, capitalize(err.Error()), nil, err)
	case errors.Is(err, jobs.ErrSuperseded), errors.Is(err, wizard.ErrSessionChanged), errors.Is(err, ucprofile.ErrSessionChanged):
		return middleware.NewAppError(fiber.StatusConflict, capitalize(err.Error()), nil, err)
	case errors.Is(err, artifact.ErrNotReady):
		return middleware.NewAppError(fiber.StatusConflict, "Artifact is not ready", nil, err)
	case errors.Is(err, artifact.ErrClosed):
		return middleware.NewAppError(fiber.StatusNotFound, "Job detail is not open", nil, err)

	case errors.Is(err, wizard.ErrUnknownField), errors.Is(err, wizard.ErrInvalidValue), errors.Is(err, wizard.ErrOutOfRange):
		return middleware.NewAppError(fiber.StatusBadRequest, capitalize(err.Error()), nil, err)
	case errors.Is(err, ucprofile.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, capitalize(err.Error()), nil, err)
	case errors.Is(err, ucauth.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "A valid email is required", nil, err)
	case errors.Is(err, ucauth.ErrMissingToken):
		return middleware.NewAppError(fiber.StatusBadGateway, gateway.UserMessage(&gateway.Error{Kind: gateway.KindValidation}), nil, err)
	}

	return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
}

// businessStatus keeps the backend's 4xx status; AI failures reported inside a
// 2xx body and backend 5xx answers become 422 and 502.
func businessStatus(err error) int {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		return fiber.StatusUnprocessableEntity
	}
	switch {
	case gwErr.StatusCode >= 400 && gwErr.StatusCode < 500 && gwErr.StatusCode != fiber.StatusUnauthorized:
		return gwErr.StatusCode
	case gwErr.StatusCode >= 500:
		return fiber.StatusBadGateway
	}
	return fiber.StatusUnprocessableEntity
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func parseJobID(c fiber.Ctx) (int64, error) {
	raw := strings.TrimSpace(c.Params("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}
	return id, nil
}

func badRequest(err error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
}
