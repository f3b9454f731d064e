package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	billingApp "github.com/felixgeelhaar/jobtrack/internal/billing/application"
	billingDomain "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/felixgeelhaar/jobtrack/internal/billing/infrastructure/paystack"
	identityApp "github.com/felixgeelhaar/jobtrack/internal/identity/application"
	identityDomain "github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	"github.com/felixgeelhaar/jobtrack/internal/identity/infrastructure/cache"
	"github.com/felixgeelhaar/jobtrack/internal/identity/infrastructure/clerk"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/commands"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/queries"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	sharedApplication "github.com/felixgeelhaar/jobtrack/internal/shared/application"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/config"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/redis/go-redis/v9"

	// Storage drivers register themselves with the database factory.
	_ "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/database/sqlite"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	// MetricsHandler serves the Prometheus registry behind Metrics.
	MetricsHandler http.Handler
	Health         *observability.HealthRegistry

	// Infrastructure
	DBConn      database.Connection
	Factory     *RepositoryFactory
	RedisClient *redis.Client

	// Repositories
	JobRepo          job.Repository
	SubscriptionRepo billingDomain.SubscriptionRepository
	UserRepo         identityDomain.UserRepository
	OutboxRepo       outbox.Repository
	UnitOfWork       sharedApplication.UnitOfWork

	// Identity
	ProfileCache  cache.ProfileCache
	ProfileSource *cache.CachedProfileSource
	// Verifier is nil when the identity keys are unusable; ConfigProblems
	// then says why.
	Verifier       *clerk.Verifier
	ConfigProblems []string
	SyncService    *identityApp.SyncService

	// Billing
	PaymentGateway *paystack.Client
	BillingService *billingApp.Service

	// Job command handlers
	CreateJobHandler       *commands.CreateJobHandler
	UpdateJobHandler       *commands.UpdateJobHandler
	UpdateJobStatusHandler *commands.UpdateJobStatusHandler
	DeleteJobHandler       *commands.DeleteJobHandler

	// Job query handlers
	ListJobsHandler    *queries.ListJobsHandler
	GetJobHandler      *queries.GetJobHandler
	GetJobStatsHandler *queries.GetJobStatsHandler
}

// NewContainer creates a new dependency container.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		Key:        cfg.DatabaseKey,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("connected to database", "driver", conn.Driver())

	c, err := newContainer(ctx, cfg, logger, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithConnection builds the container around an open
// connection. The container takes ownership of conn.
func NewContainerWithConnection(ctx context.Context, cfg *config.Config, logger *slog.Logger, conn database.Connection) (*Container, error) {
	return newContainer(ctx, cfg, logger, conn)
}

func newContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, conn database.Connection) (*Container, error) {
	prom := observability.NewPrometheusMetrics()
	c := &Container{
		Config:         cfg,
		Logger:         logger,
		Metrics:        prom,
		MetricsHandler: prom.Handler(),
		Health:         observability.NewHealthRegistry(),
		DBConn:         conn,
		Factory:        NewRepositoryFactory(conn),
	}

	// The embedded backend has no separate deploy step, so it migrates on start.
	if conn.Driver() == database.DriverSQLite {
		if err := c.Factory.Migrate(ctx, logger); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	if err := c.initRepositories(); err != nil {
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		return nil, err
	}
	c.initIdentity(ctx)
	c.initBilling()
	c.initJobs()
	c.registerHealthChecks()

	return c, nil
}

func (c *Container) initRepositories() error {
	var err error
	if c.JobRepo, err = c.Factory.JobRepository(); err != nil {
		return fmt.Errorf("failed to create job repository: %w", err)
	}
	if c.SubscriptionRepo, err = c.Factory.SubscriptionRepository(); err != nil {
		return fmt.Errorf("failed to create subscription repository: %w", err)
	}
	if c.UserRepo, err = c.Factory.UserRepository(); err != nil {
		return fmt.Errorf("failed to create user repository: %w", err)
	}
	if c.OutboxRepo, err = c.Factory.OutboxRepository(); err != nil {
		return fmt.Errorf("failed to create outbox repository: %w", err)
	}
	if c.UnitOfWork, err = c.Factory.UnitOfWork(); err != nil {
		return fmt.Errorf("failed to create unit of work: %w", err)
	}
	return nil
}

// initRedis connects the shared profile cache. Outside production an
// unreachable Redis falls back to the in-process cache.
func (c *Container) initRedis(ctx context.Context) error {
	cfg, logger := c.Config, c.Logger
	if cfg.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		if cfg.IsProduction() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		logger.Warn("invalid Redis URL, profile cache will use in-memory fallback", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if cfg.IsProduction() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Warn("Redis not available, profile cache will use in-memory fallback", "error", err)
		return nil
	}

	c.RedisClient = client
	logger.Info("connected to Redis")
	return nil
}

func (c *Container) initIdentity(ctx context.Context) {
	cfg, logger := c.Config, c.Logger

	if c.RedisClient != nil {
		c.ProfileCache = cache.NewRedisProfileCache(c.RedisClient, cfg.ProfileCacheTTL, logger)
	} else {
		c.ProfileCache = cache.NewMemoryProfileCache(cfg.ProfileCacheTTL)
	}
	client := clerk.NewClient(cfg.ClerkSecretKey, cfg.ClerkAPIURL, 0)
	c.ProfileSource = cache.NewCachedProfileSource(client, c.ProfileCache)
	c.SyncService = identityApp.NewSyncService(c.ProfileSource, c.UserRepo, c.OutboxRepo, c.UnitOfWork, logger)

	c.ConfigProblems = cfg.IdentityKeyProblems()
	if len(c.ConfigProblems) > 0 {
		logger.Error("identity provider keys are not usable, serving configuration error page",
			"problems", c.ConfigProblems)
		return
	}

	verifier, err := clerk.NewVerifier(ctx, clerk.VerifierConfig{
		PublishableKey: cfg.ClerkPublishableKey,
		JWKSURL:        cfg.ClerkJWKSURL,
		Issuer:         cfg.ClerkIssuer,
	})
	if err != nil {
		logger.Error("failed to initialize session verifier", "error", err)
		c.ConfigProblems = append(c.ConfigProblems, "CLERK_PUBLISHABLE_KEY could not be used to load signing keys")
		return
	}
	c.Verifier = verifier
}

func (c *Container) initBilling() {
	cfg := c.Config
	if cfg.PaystackSecretKey == "" {
		c.Logger.Warn("PAYSTACK_SECRET_KEY is not set, checkout will fail")
	}
	c.PaymentGateway = paystack.NewClient(paystack.Config{
		SecretKey: cfg.PaystackSecretKey,
		BaseURL:   cfg.PaystackBaseURL,
		Timeout:   cfg.PaystackTimeout,
		Logger:    c.Logger,
	})
	c.BillingService = billingApp.NewService(billingApp.ServiceConfig{
		Subscriptions: c.SubscriptionRepo,
		Jobs:          c.JobRepo,
		Gateway:       c.PaymentGateway,
		Outbox:        c.OutboxRepo,
		UnitOfWork:    c.UnitOfWork,
		CallbackURL:   cfg.CheckoutCallbackURL(),
		Logger:        c.Logger,
		Metrics:       c.Metrics,
	})
}

func (c *Container) initJobs() {
	c.CreateJobHandler = commands.NewCreateJobHandler(c.JobRepo, c.BillingService, c.OutboxRepo, c.UnitOfWork, c.Logger, c.Metrics)
	c.UpdateJobHandler = commands.NewUpdateJobHandler(c.JobRepo, c.OutboxRepo, c.UnitOfWork)
	c.UpdateJobStatusHandler = commands.NewUpdateJobStatusHandler(c.JobRepo, c.OutboxRepo, c.UnitOfWork)
	c.DeleteJobHandler = commands.NewDeleteJobHandler(c.JobRepo, c.OutboxRepo, c.UnitOfWork, c.Metrics)

	c.ListJobsHandler = queries.NewListJobsHandler(c.JobRepo)
	c.GetJobHandler = queries.NewGetJobHandler(c.JobRepo)
	c.GetJobStatsHandler = queries.NewGetJobStatsHandler(c.JobRepo)
}

func (c *Container) registerHealthChecks() {
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, c.DBConn.Ping))
	if c.RedisClient != nil {
		c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}
	c.Health.Register("identity", func(context.Context) observability.HealthCheckResult {
		if len(c.ConfigProblems) > 0 {
			return observability.HealthCheckResult{
				Status:  observability.HealthStatusUnhealthy,
				Message: "identity provider keys are misconfigured",
			}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})
}

// Close releases all resources.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis client", "error", err)
		}
	}
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database", "error", err)
		}
	}
}
