// internal/adapters/db/migrations.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Schema for the catalog (medicines, batches) and bills.
//
//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// MigrationConfig describes where the schema lives and where its migrations
// come from. SourcePath overrides the embedded set with a directory on disk.
type MigrationConfig struct {
	DatabaseURL      string
	SourcePath       string
	TableName        string
	SchemaName       string
	ForceDirty       bool
	StatementTimeout time.Duration
}

func (c *MigrationConfig) withDefaults() *MigrationConfig {
	out := *c
	if out.TableName == "" {
		out.TableName = "schema_migrations"
	}
	if out.SchemaName == "" {
		out.SchemaName = "public"
	}
	if out.StatementTimeout == 0 {
		out.StatementTimeout = 10 * time.Minute
	}
	return &out
}

// Migrator applies schema migrations over a short-lived database/sql
// connection, separate from the application pool.
type Migrator struct {
	migrate *migrate.Migrate
	source  source.Driver
	config  *MigrationConfig
	logger  *slog.Logger
	conn    *sql.DB
}

func NewMigrator(config *MigrationConfig, logger *slog.Logger) (*Migrator, error) {
	if config == nil {
		return nil, errors.New("migration config is required")
	}
	config = config.withDefaults()

	conn, err := sql.Open("pgx", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	conn.SetMaxOpenConns(2)
	conn.SetMaxIdleConns(2)

	m, src, err := newMigrate(conn, config)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Migrator{
		migrate: m,
		source:  src,
		config:  config,
		logger:  logger.With(slog.String("component", "migrator")),
		conn:    conn,
	}, nil
}

func newMigrate(conn *sql.DB, config *MigrationConfig) (*migrate.Migrate, source.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("database not reachable: %w", err)
	}

	target, err := postgres.WithInstance(conn, &postgres.Config{
		MigrationsTable:  config.TableName,
		SchemaName:       config.SchemaName,
		StatementTimeout: config.StatementTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	name, src, err := openSource(config.SourcePath)
	if err != nil {
		return nil, nil, err
	}

	m, err := migrate.NewWithInstance(name, src, "postgres", target)
	if err != nil {
		return nil, nil, fmt.Errorf("init migrate: %w", err)
	}
	return m, src, nil
}

func openSource(path string) (string, source.Driver, error) {
	if path != "" {
		src, err := (&file.File{}).Open("file://" + path)
		if err != nil {
			return "", nil, fmt.Errorf("open migrations in %s: %w", path, err)
		}
		return "file", src, nil
	}
	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return "", nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return "iofs", src, nil
}

// Up applies every pending migration. A dirty schema is only forced back to
// its recorded version when ForceDirty is set.
func (m *Migrator) Up(ctx context.Context) error {
	version, dirty, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if dirty {
		if !m.config.ForceDirty {
			return fmt.Errorf("schema is dirty at version %d", version)
		}
		m.logger.WarnContext(ctx, "forcing dirty schema version", slog.Uint64("version", uint64(version)))
		if err := m.migrate.Force(int(version)); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
	}

	err = m.migrate.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.InfoContext(ctx, "schema up to date", slog.Uint64("version", uint64(version)))
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}

	if current, _, err := m.Version(ctx); err == nil {
		m.logger.InfoContext(ctx, "schema migrated",
			slog.Uint64("from_version", uint64(version)),
			slog.Uint64("to_version", uint64(current)))
	}
	return nil
}

// Version returns the recorded schema version, zero when nothing ran yet.
func (m *Migrator) Version(_ context.Context) (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Status combines the migrations table with the versions the source still
// has to apply.
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	version, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}

	applied, err := appliedMigrations(ctx, m.conn, m.config.SchemaName, m.config.TableName)
	if err != nil {
		return nil, err
	}

	available, err := sourceVersions(m.source)
	if err != nil {
		return nil, err
	}

	return &MigrationStatus{
		CurrentVersion: version,
		IsDirty:        dirty,
		Applied:        applied,
		Pending:        pendingVersions(available, version),
	}, nil
}

func appliedMigrations(ctx context.Context, conn *sql.DB, schema, table string) ([]AppliedMigration, error) {
	query := fmt.Sprintf(`SELECT version, dirty FROM %s.%s ORDER BY version ASC`, schema, table)

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := []AppliedMigration{}
	for rows.Next() {
		var row AppliedMigration
		if err := rows.Scan(&row.Version, &row.Dirty); err != nil {
			return nil, fmt.Errorf("scan migration row: %w", err)
		}
		applied = append(applied, row)
	}
	return applied, rows.Err()
}

// sourceVersions walks src from its first migration in ascending order.
func sourceVersions(src source.Driver) ([]uint, error) {
	v, err := src.First()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read first migration: %w", err)
	}

	versions := []uint{v}
	for {
		v, err = src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return versions, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read migration after %d: %w", versions[len(versions)-1], err)
		}
		versions = append(versions, v)
	}
}

func pendingVersions(available []uint, current uint) []uint {
	pending := []uint{}
	for _, v := range available {
		if v > current {
			pending = append(pending, v)
		}
	}
	return pending
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

type MigrationStatus struct {
	CurrentVersion uint               `json:"current_version"`
	IsDirty        bool               `json:"is_dirty"`
	Applied        []AppliedMigration `json:"applied"`
	Pending        []uint             `json:"pending"`
}

type AppliedMigration struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// RunMigrationsWithRetry migrates once the database accepts connections,
// backing off linearly between attempts.
func RunMigrationsWithRetry(ctx context.Context, config *MigrationConfig, logger *slog.Logger, attempts int) error {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * 2 * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		lastErr = migrateOnce(ctx, config, logger)
		if lastErr == nil {
			return nil
		}
		logger.WarnContext(ctx, "migration attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()))
	}

	return fmt.Errorf("migrations failed after %d attempts: %w", attempts, lastErr)
}

func migrateOnce(ctx context.Context, config *MigrationConfig, logger *slog.Logger) error {
	migrator, err := NewMigrator(config, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close migrator", slog.String("error", err.Error()))
		}
	}()
	return migrator.Up(ctx)
}
