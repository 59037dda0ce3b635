package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/innkeep/innkeep/internal/auth"
	"github.com/innkeep/innkeep/internal/guard"
	"github.com/innkeep/innkeep/internal/observability"
	"github.com/innkeep/innkeep/internal/platform/cache"
	"github.com/innkeep/innkeep/internal/platform/db"
	"github.com/innkeep/innkeep/internal/rbac"
	"github.com/innkeep/innkeep/internal/roles"
	"github.com/innkeep/innkeep/internal/session"
	"github.com/innkeep/innkeep/internal/users"
)

// Container owns the long-lived services behind the HTTP server.
type Container struct {
	Config   *Config
	Logger   *slog.Logger
	Registry *rbac.Registry
	Sessions *session.Manager
	Metrics  *observability.Metrics
	Router   http.Handler

	redis *redis.Client
	pool  *pgxpool.Pool
}

// NewContainer connects backing services and assembles the router.
func NewContainer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: rbac.DefaultRegistry(rbac.DefaultCatalog()),
		Metrics:  observability.NewMetrics(),
	}
	var health []HealthCheck

	var store session.Store
	switch cfg.SessionStore {
	case SessionStoreMemory:
		store = session.NewExpiringMemoryStore(cfg.SessionTTL)
	default:
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		c.redis = client
		store = session.NewRedisStore(client, cfg.SessionTTL)
		health = append(health, HealthCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}

	var (
		authn   session.Authenticator
		service *auth.Service
		repo    auth.Repository
	)
	switch cfg.Directory {
	case DirectoryPostgres:
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.pool = pool
		pgRepo := auth.NewRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			c.Close()
			return nil, err
		}
		if cfg.SeedDirectory {
			seed, err := auth.FixtureUsers(cfg.DemoPassword, bcrypt.DefaultCost)
			if err == nil {
				err = pgRepo.Seed(ctx, seed...)
			}
			if err != nil {
				c.Close()
				return nil, err
			}
			logger.Info("seeded staff directory", slog.Int("users", len(seed)))
		}
		repo = pgRepo
		health = append(health, HealthCheck{Name: "postgres", Probe: pool.Ping})
	default:
		fixtures, err := auth.NewFixtureRepository(cfg.DemoPassword, bcrypt.DefaultCost)
		if err != nil {
			c.Close()
			return nil, err
		}
		repo = fixtures
	}
	service = auth.NewService(repo)
	authn = service
	if cfg.Directory == DirectoryDemo {
		logger.Warn("demo directory: any credentials sign in as the owner")
		authn = auth.DemoAuthenticator{}
		service = nil
	}

	sessions, err := session.NewManager(session.ManagerConfig{
		Store:         store,
		Authenticator: authn,
		Roles:         c.Registry,
		Logger:        logger,
		CookieName:    cfg.SessionCookie,
		TTL:           cfg.SessionTTL,
		Secure:        cfg.IsProduction(),
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("app: session manager: %w", err)
	}
	c.Sessions = sessions

	guards := guard.Middleware{Logger: logger, Observer: c.Metrics}
	c.Router = NewRouter(RouterParams{
		Logger:       logger,
		Config:       cfg,
		Sessions:     sessions,
		AuthHandler:  auth.NewHandler(logger, service, c.Metrics, cfg.LoginRateLimitPerMinute),
		RolesHandler: roles.NewHandler(logger, roles.NewService(c.Registry, logger), guards),
		UsersHandler: users.NewHandler(logger, users.NewService(repo, c.Registry), guards),
		Metrics:      c.Metrics,
		Health:       health,
	})
	return c, nil
}

// Close releases backing connections.
func (c *Container) Close() error {
	var errs []error
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.pool != nil {
		c.pool.Close()
	}
	return errors.Join(errs...)
}
