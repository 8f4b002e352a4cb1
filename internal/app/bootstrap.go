package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"job-agent/internal/config"
	"job-agent/internal/delivery/http/handler"
	"job-agent/internal/delivery/http/middleware"
	"job-agent/internal/delivery/http/routes"
	v1 "job-agent/internal/delivery/http/routes/v1"
	"job-agent/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the bridge over an existing container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap creates the container, starts the event hub and builds the bridge.
// The returned cleanup stops the hub and releases storage connections.
func Bootstrap(cfg config.Config, logger *log.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	go c.Hub.Run(hubCtx)

	app := New(c)
	cleanup := func() error {
		stopHub()
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *log.Logger) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware(logger)
	app.Use(errMw.Middleware())

	accessMw := middleware.NewAccessLogMiddleware(logger)
	app.Use(accessMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil || c == nil {
		return
	}

	guard := middleware.NewSessionMiddleware(c.Session, c.Config.App.BridgeToken)
	registry := routes.NewRegistry(
		handler.NewHealthHandler(c.Gateway, c.Hub.ClientCount, c.Session.Authenticated),
		ws.NewHandler(c.Hub, c.Logger),
		v1.Handlers{
			Session:   handler.NewSessionHandler(c.Auth, c.Session),
			Jobs:      handler.NewJobsHandler(c.Jobs),
			Artifacts: handler.NewArtifactHandler(c.Artifacts, c.Exporter, c.Jobs),
			Wizard:    handler.NewWizardHandler(c.Wizard),
			Profile:   handler.NewProfileHandler(c.Profile),
			Feedback:  handler.NewFeedbackHandler(c.Gateway),
		},
		guard,
	)
	registry.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
