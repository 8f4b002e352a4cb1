package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"job-agent/internal/artifact"
	"job-agent/internal/config"
	"job-agent/internal/database"
	dbpostgres "job-agent/internal/database/postgres"
	"job-agent/internal/gateway"
	"job-agent/internal/infrastructure/cache"
	"job-agent/internal/infrastructure/persistence/file"
	pgsession "job-agent/internal/infrastructure/persistence/postgres"
	"job-agent/internal/infrastructure/renderer"
	"job-agent/internal/jobs"
	"job-agent/internal/pkg/jwt"
	"job-agent/internal/session"
	ucauth "job-agent/internal/usecase/auth"
	ucprofile "job-agent/internal/usecase/profile"
	"job-agent/internal/wizard"
	"job-agent/internal/ws"
)

// Container owns every long-lived component. They all share one session store
// and publish to one event hub.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Redis *cache.Redis

	Session   *session.Store
	Hub       *ws.Hub
	Gateway   gateway.Client
	Jobs      *jobs.Manager
	Artifacts *artifact.Registry
	Exporter  *artifact.Exporter
	Wizard    *wizard.Wizard
	Auth      *ucauth.Service
	Profile   *ucprofile.Service
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	storage, err := c.newStorage(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Hub = ws.NewHub(logger)
	c.Session = session.NewStore(storage, jwt.NewInspector(), c.Hub, logger)
	c.Gateway = gateway.NewClient(cfg.API.BaseURL, cfg.API.Timeout, c.Session, logger,
		gateway.WithUnauthorizedHook(c.expire),
	)

	c.Jobs = jobs.NewManager(c.Gateway, c.Session, ws.NewOpener(c.Hub), c.Hub, logger)
	c.Artifacts = artifact.NewRegistry(c.Gateway, c.Hub, logger)
	c.Exporter = artifact.NewExporter(renderer.NewChromedp(cfg.Export.ChromePath, cfg.Export.Timeout))
	c.Wizard = wizard.New(c.Gateway, c.Session, c.Hub, logger, cfg.Wizard.SavedAckDelay)
	c.Auth = ucauth.NewService(c.Gateway, c.Session, c.Hub, logger, c.Jobs, c.Artifacts, c.Wizard)
	c.Profile = ucprofile.NewService(c.Gateway, c.Session, c.Hub, logger, c.Wizard)

	return c, nil
}

func (c *Container) expire(ctx context.Context) {
	if c.Auth != nil {
		c.Auth.Expire(ctx)
	}
}

func (c *Container) newStorage(ctx context.Context) (session.Storage, error) {
	cfg := c.Config
	switch cfg.Session.Storage {
	case config.SessionStorageMemory:
		return session.NewMemoryStorage(), nil

	case config.SessionStorageFile:
		if cfg.Session.FileKey == "" {
			c.Logger.Printf("[App] session file is stored unencrypted path=%s", cfg.Session.File)
		}
		return file.NewSessionFile(cfg.Session.File, cfg.Session.FileKey), nil

	case config.SessionStorageRedis:
		c.Redis = cache.NewRedis(cfg.Redis, cfg.Session.Profile, c.Logger)
		return c.Redis, nil

	case config.SessionStoragePostgres:
		db, err := dbpostgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect session database: %w", err)
		}
		c.DB = db
		if err := pgsession.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate session database: %w", err)
		}
		return pgsession.NewSessionRepository(db, cfg.Session.Profile), nil
	}
	return nil, fmt.Errorf("unknown session storage %q", cfg.Session.Storage)
}

// RestoreSession loads the persisted session and reseeds the wizard from it.
func (c *Container) RestoreSession(ctx context.Context) bool {
	u, ok := c.Session.Restore(ctx)
	c.Wizard.Reset()
	if ok {
		c.Logger.Printf("[App] session restored user_id=%d", u.ID)
	} else {
		c.Logger.Printf("[App] no stored session")
	}
	return ok
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Artifacts != nil {
		c.Artifacts.Reset()
	}
	if c.Wizard != nil {
		c.Wizard.Close()
	}

	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
