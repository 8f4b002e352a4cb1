package routes

import (
	"job-agent/internal/delivery/http/handler"
	"job-agent/internal/delivery/http/middleware"
	v1 "job-agent/internal/delivery/http/routes/v1"
	"job-agent/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	events *ws.Handler
	api    v1.Handlers
	guard  *middleware.SessionMiddleware
}

func NewRegistry(health *handler.HealthHandler, events *ws.Handler, api v1.Handlers, guard *middleware.SessionMiddleware) *Registry {
	return &Registry{health: health, events: events, api: api, guard: guard}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerEvents(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	r.health.RegisterRoutes(app)
}

func (r *Registry) registerEvents(app *fiber.App) {
	app.Get("/ws", r.guard.RequireBridgeToken(), r.events.HandleEvents)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.api, r.guard)
}
