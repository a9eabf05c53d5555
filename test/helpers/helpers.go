// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/pharmabook-be/internal/adapters/db"
	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// SetupTestDB starts a disposable Postgres, applies the embedded schema and
// returns a pool sized for the concurrent ledger tests.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "docker is required for integration tests")
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=pharmabook",
			"POSTGRES_PASSWORD=pharmabook",
			"POSTGRES_DB=pharmabook_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("purge postgres container: %v", err)
		}
	})

	cfg := db.DefaultConfig()
	cfg.User, cfg.Password, cfg.Database = "pharmabook", "pharmabook", "pharmabook_test"
	cfg.Port = resource.GetPort("5432/tcp")
	cfg.MaxConnections, cfg.MinConnections = 10, 1
	cfg.LockTimeout = 2 * time.Second
	cfg.EnableQueryLogging = testing.Verbose()

	var database *db.Database
	require.NoError(t, pool.Retry(func() error {
		var err error
		database, err = db.NewDatabase(context.Background(), cfg, TestLogger())
		return err
	}), "connect to postgres")
	t.Cleanup(database.Close)

	migrations := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database),
	}
	require.NoError(t, db.RunMigrationsWithRetry(context.Background(), migrations, TestLogger(), 3), "migrate")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   cfg,
	}
}

// SetupTestRedis creates an in-process Redis for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{Client: client, Server: mr}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_pharmabook",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			PoolSize: 10,
			BillTTL:  time.Hour,
		},
		Files: config.FilesConfig{
			UseLocalStorage: true,
			LocalDir:        os.TempDir(),
			ImportMaxSizeMB: 5,
			TempDir:         os.TempDir(),
			TempMaxAge:      time.Hour,
		},
		Security: config.SecurityConfig{
			JWTSecret:         TestJWTSecret,
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			RequestIDHeader:   "X-Request-ID",
		},
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           "8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Billing: config.BillingConfig{
			ConflictRetries: 2,
			RetryBackoff:    time.Millisecond,
			MaxItems:        100,
		},
	}
}

// TestJWTSecret signs tokens in handler and e2e tests.
const TestJWTSecret = "test-secret-that-is-long-enough-for-hs256"

// CreateTestBatch returns a strip-based batch: 50 per strip of 10, 100 tablets.
func CreateTestBatch(overrides ...func(*domain.Batch)) domain.Batch {
	b := domain.Batch{
		BatchNumber:     "B-001",
		ManufactureDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:      time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC),
		Quantity:        100,
		Price:           decimal.NewFromInt(50),
		IsStripBased:    true,
		TabletsPerStrip: 10,
	}
	for _, override := range overrides {
		override(&b)
	}
	return b
}

// CreateTestMedicine returns an unsaved medicine holding one CreateTestBatch.
func CreateTestMedicine(ownerID uuid.UUID, overrides ...func(*domain.Medicine)) *domain.Medicine {
	m := &domain.Medicine{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    "Paracetamol 500mg",
		Company: "Acme Pharma",
		Batches: []domain.Batch{CreateTestBatch()},
	}
	for _, override := range overrides {
		override(m)
	}
	return m
}

// CreateTestBillRequest bills quantity tablets of one batch per pair.
func CreateTestBillRequest(customer string, lines ...domain.BillItemRequest) domain.BillRequest {
	return domain.BillRequest{CustomerName: customer, Items: lines}
}

// Line is shorthand for a BillItemRequest.
func Line(medicineID uuid.UUID, batchNumber string, quantity int) domain.BillItemRequest {
	return domain.BillItemRequest{MedicineID: medicineID, BatchNumber: batchNumber, Quantity: quantity}
}

// TruncateAllTables empties every table in the test database.
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE bill_items, bills, medicine_batches, medicines CASCADE")
	require.NoError(t, err, "Failed to truncate tables")
}
