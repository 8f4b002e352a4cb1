package v1

import (
	"job-agent/internal/delivery/http/handler"
	"job-agent/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Session   *handler.SessionHandler
	Jobs      *handler.JobsHandler
	Artifacts *handler.ArtifactHandler
	Wizard    *handler.WizardHandler
	Profile   *handler.ProfileHandler
	Feedback  *handler.FeedbackHandler
}

// Register mounts the bridge API. Only the session read, login and signup
// routes are reachable without a signed-in user.
func Register(r fiber.Router, h Handlers, guard *middleware.SessionMiddleware) {
	if r == nil || guard == nil {
		return
	}

	public := r.Group("", guard.RequireBridgeToken())
	h.Session.RegisterRoutes(public.Group("/session"))

	protected := r.Group("", guard.RequireSession())
	h.Session.RegisterProtectedRoutes(protected.Group("/session"))
	h.Jobs.RegisterRoutes(protected)
	h.Artifacts.RegisterRoutes(protected)
	h.Wizard.RegisterRoutes(protected.Group("/wizard"))
	h.Profile.RegisterRoutes(protected.Group("/profile"))
	h.Feedback.RegisterRoutes(protected)
}
