package migrator

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"competition-ledger/internal/config"
)

//go:embed migrations/*.sql
var fs embed.FS

// RunMigrations applies the embedded migrations to the configured database.
func RunMigrations(cfg config.PostgresConfig, log *slog.Logger) error {
	return RunMigrationsDSN(cfg.DSN(), log)
}

func RunMigrationsDSN(dsn string, log *slog.Logger) error {
	const op = "migrator.RunMigrationsDSN"

	migrationDB, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to connect: %w", op, err)
	}
	defer migrationDB.Close()

	driver, err := postgres.WithInstance(migrationDB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("%s: failed to create driver: %w", op, err)
	}

	source, err := iofs.New(fs, "migrations")
	if err != nil {
		return fmt.Errorf("%s: failed to create source: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("%s: failed to create migrate instance: %w", op, err)
	}
	defer m.Close()

	log.Info("applying database migrations")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: migration failed: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		log.Info("database schema is up to date", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}

	return nil
}
