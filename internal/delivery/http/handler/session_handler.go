package handler

import (
	"context"

	"job-agent/internal/domain/user"
	"job-agent/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type SessionUsecase interface {
	Login(ctx context.Context, email string) (user.User, error)
	Signup(ctx context.Context, email, fullName string) (user.User, error)
	Logout(ctx context.Context)
}

type SessionView interface {
	User() (user.User, bool)
}

type SessionHandler struct {
	uc      SessionUsecase
	session SessionView
}

type loginRequest struct {
	Email string `json:"email"`
}

type signupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	User          *user.User `json:"user"`
}

func NewSessionHandler(uc SessionUsecase, session SessionView) *SessionHandler {
	return &SessionHandler{uc: uc, session: session}
}

// RegisterRoutes mounts the public session routes. Logout is mounted
// separately behind the session guard.
func (h *SessionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.Get)
	r.Post("/login", h.Login)
	r.Post("/signup", h.Signup)
}

func (h *SessionHandler) RegisterProtectedRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/logout", h.Logout)
}

func (h *SessionHandler) Get(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.current())
}

func (h *SessionHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	if _, err := h.uc.Login(c.Context(), req.Email); err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.current())
}

func (h *SessionHandler) Signup(c fiber.Ctx) error {
	var req signupRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	if _, err := h.uc.Signup(c.Context(), req.Email, req.FullName); err != nil {
		return mapError(err)
	}
	return response.Success(c, fiber.StatusCreated, "created", h.current())
}

func (h *SessionHandler) Logout(c fiber.Ctx) error {
	h.uc.Logout(c.Context())
	return response.Success(c, fiber.StatusOK, response.MessageOK, sessionResponse{})
}

func (h *SessionHandler) current() sessionResponse {
	u, ok := h.session.User()
	if !ok {
		return sessionResponse{}
	}
	return sessionResponse{Authenticated: true, User: &u}
}
