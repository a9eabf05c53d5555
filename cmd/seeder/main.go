// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/pharmabook-be/internal/adapters/db"
	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/services"
	"github.com/ammerola/pharmabook-be/internal/handlers/middleware"
	"github.com/ammerola/pharmabook-be/internal/pkg/config"
	"github.com/ammerola/pharmabook-be/internal/pkg/logger"
	"github.com/ammerola/pharmabook-be/internal/workers"
)

func main() {
	var (
		sheetFile = flag.String("sheet", "", "xlsx stock sheet to load (demo stock when empty)")
		ownerFlag = flag.String("owner", "", "owner (user) id; a new one is generated when empty")
		role      = flag.String("role", "owner", "role carried by the printed token")
		tokenTTL  = flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed token")
		logLevel  = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun    = flag.Bool("dry-run", false, "Validate rows without modifying the database")
		migrateDB = flag.Bool("migrate", false, "Apply pending schema migrations before seeding")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "text").Logger

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ownerID := uuid.New()
	if *ownerFlag != "" {
		if ownerID, err = uuid.Parse(*ownerFlag); err != nil {
			slogger.Error("invalid owner id", slog.String("owner", *ownerFlag))
			os.Exit(1)
		}
	}

	intakes, rowErrors, err := loadIntakes(*sheetFile)
	if err != nil {
		slogger.Error("failed to read stock sheet", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, re := range rowErrors {
		fmt.Printf("WARNING: line %d skipped - %s\n", re.Line, re.Message)
	}

	ctx := context.Background()
	var catalog *services.CatalogService

	if *migrateDB && !*dryRun {
		if err := migrateSchema(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to migrate schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if !*dryRun {
		database, err := db.NewDatabase(ctx, &db.Config{
			Host:              cfg.Database.Host,
			Port:              cfg.Database.Port,
			User:              cfg.Database.User,
			Password:          cfg.Database.Password,
			Database:          cfg.Database.Name,
			SSLMode:           cfg.Database.SSLMode,
			MaxConnections:    2,
			MinConnections:    1,
			MaxConnLifetime:   cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
			HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
			ConnectTimeout:    cfg.Database.ConnectTimeout,
			LockTimeout:       cfg.Database.LockTimeout,
			ApplicationName:   cfg.App.Name + "-seeder",
		}, slogger)
		if err != nil {
			slogger.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.Close()

		catalog = services.NewCatalogService(db.NewCatalogRepository(database, slogger), nil, slogger)
	}

	added, failed := 0, 0
	for i, intake := range intakes {
		fmt.Printf("PROGRESS: %d/%d: %s %s\n", i+1, len(intakes), intake.Name, intake.Batch.BatchNumber)

		if *dryRun {
			if err := intake.Validate(); err != nil {
				fmt.Printf("ERROR: %s - %v\n", intake.Batch.BatchNumber, err)
				failed++
				continue
			}
			added++
			continue
		}

		if _, err := catalog.AddStock(ctx, ownerID, intake); err != nil {
			fmt.Printf("ERROR: %s - %v\n", intake.Batch.BatchNumber, err)
			failed++
			continue
		}
		added++
	}

	token, err := middleware.SignToken([]byte(cfg.Security.JWTSecret),
		domain.Identity{UserID: ownerID, Role: *role},
		jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(*tokenTTL)),
		})
	if err != nil {
		slogger.Error("failed to sign token", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEED SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Owner:            %s\n", ownerID)
	fmt.Printf("Batches added:    %d\n", added)
	fmt.Printf("Batches rejected: %d\n", failed+len(rowErrors))
	fmt.Printf("x-auth-token:     %s\n", token)

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes were made to the database")
	}

	slogger.Info("seed operation completed",
		slog.String("owner_id", ownerID.String()),
		slog.Int("added", added),
		slog.Int("failed", failed))
}

func migrateSchema(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	migrationCfg := &db.MigrationConfig{DatabaseURL: cfg.GetDatabaseURL()}
	if err := db.RunMigrationsWithRetry(ctx, migrationCfg, logger, 3); err != nil {
		return err
	}

	migrator, err := db.NewMigrator(migrationCfg, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	status, err := migrator.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Schema version %d (%d applied, %d pending)\n",
		status.CurrentVersion, len(status.Applied), len(status.Pending))
	return nil
}

// loadIntakes parses path with the import sheet format, or returns the demo
// stock when path is empty.
func loadIntakes(path string) ([]domain.StockIntake, []workers.RowError, error) {
	if path == "" {
		return demoStock(time.Now().UTC()), nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	rows, rowErrors, err := workers.ParseStockSheet(data)
	if err != nil {
		return nil, nil, err
	}

	intakes := make([]domain.StockIntake, 0, len(rows))
	for _, row := range rows {
		intakes = append(intakes, row.Intake)
	}
	return intakes, rowErrors, nil
}

func demoStock(now time.Time) []domain.StockIntake {
	made := now.AddDate(0, -2, 0).Truncate(24 * time.Hour)
	expires := now.AddDate(2, 0, 0).Truncate(24 * time.Hour)

	strip := func(name, company, batch string, tablets, perStrip int, price string) domain.StockIntake {
		return domain.StockIntake{Name: name, Company: company, Batch: domain.Batch{
			BatchNumber: batch, ManufactureDate: made, ExpiryDate: expires,
			Quantity: tablets, Price: decimal.RequireFromString(price),
			IsStripBased: true, TabletsPerStrip: perStrip,
		}}
	}
	loose := func(name, company, batch string, units int, price string) domain.StockIntake {
		return domain.StockIntake{Name: name, Company: company, Batch: domain.Batch{
			BatchNumber: batch, ManufactureDate: made, ExpiryDate: expires,
			Quantity: units, Price: decimal.RequireFromString(price),
		}}
	}

	return []domain.StockIntake{
		strip("Paracetamol 500mg", "Acme Pharma", "PCM-2401", 500, 10, "25.00"),
		strip("Paracetamol 500mg", "Acme Pharma", "PCM-2402", 300, 10, "26.50"),
		strip("Amoxicillin 250mg", "Medilife", "AMX-1107", 200, 15, "82.00"),
		strip("Cetirizine 10mg", "Nova Labs", "CTZ-0903", 150, 10, "18.00"),
		loose("Cough Syrup 100ml", "Nova Labs", "CSY-0311", 40, "95.00"),
		loose("ORS Sachet", "Medilife", "ORS-0520", 120, "5.00"),
	}
}
