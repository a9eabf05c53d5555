// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/pharmabook-be/internal/adapters/db"
	redis_a "github.com/ammerola/pharmabook-be/internal/adapters/redis_adapter"
	"github.com/ammerola/pharmabook-be/internal/adapters/storage"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
	"github.com/ammerola/pharmabook-be/internal/core/services"
	"github.com/ammerola/pharmabook-be/internal/handlers"
	"github.com/ammerola/pharmabook-be/internal/handlers/middleware"
	"github.com/ammerola/pharmabook-be/internal/pkg/config"
	"github.com/ammerola/pharmabook-be/internal/pkg/logger"
	"github.com/ammerola/pharmabook-be/internal/pkg/metrics"
	"github.com/ammerola/pharmabook-be/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	log := logger.SetupLogger("debug", "json")

	log.Info("starting pharmabook billing api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(log.Logger)
	if err != nil {
		log.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	if err := resolveSecrets(ctx, cfg, log.Logger); err != nil {
		log.Error("failed to resolve secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	log = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	log.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	if cfg.Database.MigrateOnStart {
		if err := runMigrations(ctx, cfg, log.Logger); err != nil {
			log.Error("failed to run migrations", slog.String("error", err.Error()))
			if cfg.IsProduction() {
				os.Exit(1)
			}
		}
	}

	deps, err := initializeDependencies(ctx, cfg, log.Logger)
	if err != nil {
		log.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, log)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		// In-flight bills finish (commit or roll back) before the pool closes.
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		log.Info("server shutdown complete")
	}
}

// resolveSecrets overlays credentials from Secrets Manager when a secret
// name is configured, and from the environment otherwise.
func resolveSecrets(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var src config.SecretsSource = config.NewEnvSecretsManager()
	if cfg.AWS.SecretName != "" {
		sm, err := config.NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.AWS.SecretName, logger)
		if err != nil {
			return err
		}
		src = sm
	}
	if err := config.ApplySecrets(ctx, cfg, src); err != nil {
		return err
	}
	return config.RunValidators(cfg, config.ValidatorsFor(cfg)...)
}

// dependencies holds all application dependencies
type dependencies struct {
	database        *db.Database
	redisClient     *redis.Client
	asynqClient     *asynq.Client
	asynqInspector  *asynq.Inspector
	metrics         *metrics.Metrics
	billHandler     *handlers.BillHandler
	medicineHandler *handlers.MedicineHandler
	healthHandler   *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, databaseConfig(cfg, cfg.Database.MaxConnections, cfg.Database.MinConnections), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	deps.redisClient = redisClient

	// The cache is an optimisation: billing keeps working when Redis is down.
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable at startup", slog.String("error", err.Error()))
	}
	cache := redis_a.NewCache(redisClient, cfg.Redis.BillTTL, logger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)
	tasks := workers.NewTaskClient(deps.asynqClient, cfg.Asynq.RetryMax, logger)

	files, err := newFileStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps.metrics = metrics.New(nil)

	catalogRepo := db.NewCatalogRepository(database, logger)
	billRepo := db.NewBillRepository(database, logger)
	ledger := services.NewLedger(db.NewTxManager(database, logger), logger)

	billing := services.NewBillingService(ledger, billRepo, cache, tasks, deps.metrics, services.BillingOptions{
		ConflictRetries: cfg.Billing.ConflictRetries,
		RetryBackoff:    cfg.Billing.RetryBackoff,
		MaxItems:        cfg.Billing.MaxItems,
	}, logger)
	catalog := services.NewCatalogService(catalogRepo, deps.metrics, logger)

	deps.billHandler = handlers.NewBillHandler(billing, logger)
	deps.medicineHandler = handlers.NewMedicineHandler(
		catalog,
		files,
		tasks,
		deps.asynqInspector,
		cfg.Files.TempDir,
		int64(cfg.Files.ImportMaxSizeMB)*1024*1024,
		logger,
	)
	checks := []handlers.Dependency{
		{Name: "database", Checker: database, Critical: true},
		{Name: "redis", Checker: cache},
	}
	if checker, ok := files.(ports.HealthChecker); ok {
		checks = append(checks, handlers.Dependency{Name: "storage", Checker: checker})
	}
	deps.healthHandler = handlers.NewHealthHandler(
		checks,
		deps.asynqInspector,
		cfg,
		logger,
	)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func databaseConfig(cfg *config.Config, maxConns, minConns int32) *db.Config {
	return &db.Config{
		Host:              cfg.Database.Host,
		Port:              cfg.Database.Port,
		User:              cfg.Database.User,
		Password:          cfg.Database.Password,
		Database:          cfg.Database.Name,
		SSLMode:           cfg.Database.SSLMode,
		MaxConnections:    maxConns,
		MinConnections:    minConns,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
		ConnectTimeout:    cfg.Database.ConnectTimeout,
		LockTimeout:       cfg.Database.LockTimeout,
		ApplicationName:   cfg.App.Name,
	}
}

func newFileStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.FileStorage, error) {
	if cfg.Files.UseLocalStorage {
		return storage.NewLocalStorage(cfg.Files.LocalDir, logger)
	}
	return storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps, log.Logger, cfg)

	handler := middleware.Chain(mux,
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(log),
		middleware.Recovery(log.Logger),
		deps.metrics.Middleware(metrics.MuxRoute(mux)),
		middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration),
		middleware.CORS(cfg.Security.AllowedOrigins),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)
	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(log.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, logger *slog.Logger, cfg *config.Config) {
	apiV1 := "/api/v1"
	auth := middleware.Authenticate([]byte(cfg.Security.JWTSecret), logger)
	secured := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)

	mux.Handle("POST "+apiV1+"/bills", secured(deps.billHandler.CreateBill))
	mux.Handle("GET "+apiV1+"/bills", secured(deps.billHandler.ListBills))
	mux.Handle("GET "+apiV1+"/bills/{id}", secured(deps.billHandler.GetBill))

	mux.Handle("POST "+apiV1+"/medicines", secured(deps.medicineHandler.AddStock))
	mux.Handle("GET "+apiV1+"/medicines/{id}", secured(deps.medicineHandler.GetMedicine))
	mux.Handle("POST "+apiV1+"/medicines/import", secured(deps.medicineHandler.ImportStock))
	mux.Handle("GET "+apiV1+"/medicines/import/{taskId}", secured(deps.medicineHandler.ImportStatus))

	if cfg.Server.EnableMetrics {
		mux.Handle("GET /metrics", deps.metrics.Handler())
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}
