// Command dbtool prepares the postgres site directory: it migrates the sites table
// and bulk-loads a YAML seed file.
//
//	dbtool -seed configs/sites.yaml [-replace] [-migrate-only]
//
// Connection settings come from the same DB_* variables the service reads.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fulfillment/cmd"
	"fulfillment/internal/adapters/out/postgres/siterepo"
	"fulfillment/internal/adapters/out/seed/sitefile"

	"github.com/labstack/gommon/log"
	"github.com/lib/pq"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type options struct {
	seedPath    string
	replace     bool
	migrateOnly bool
	timeout     time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.seedPath, "seed", "configs/sites.yaml", "YAML seed file to load")
	flag.BoolVar(&opts.replace, "replace", false, "delete sites missing from the seed file")
	flag.BoolVar(&opts.migrateOnly, "migrate-only", false, "create or update the schema and exit")
	flag.DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline")
	flag.Parse()

	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: configs.LogLevel}))

	if err = run(configs, opts, logger); err != nil {
		log.Fatalf("dbtool failed: %v", err)
	}
}

func run(configs cmd.Config, opts options, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	connector, err := pq.NewConnector(configs.PostgresDSN())
	if err != nil {
		return fmt.Errorf("invalid postgres settings: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	defer func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close postgres connection", "error", closeErr)
		}
	}()

	gormDB, err := gorm.Open(postgresdriver.New(postgresdriver.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to open postgres: %w", err)
	}

	if err = siterepo.Migrate(gormDB.WithContext(ctx)); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Schema migrated")

	if opts.migrateOnly {
		return nil
	}

	sites, err := sitefile.New(opts.seedPath).LoadSites(ctx)
	if err != nil {
		return fmt.Errorf("seed file rejected: %w", err)
	}

	n, err := siterepo.BulkLoad(ctx, sqlDB, sites, opts.replace)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	logger.Info("Sites loaded", "seed", opts.seedPath, "rows", n, "replace", opts.replace)

	return nil
}
