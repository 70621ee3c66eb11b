package app

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/riskibarqy/matchstats/db"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
)

// ApplyMigrations brings the schema to the latest embedded version. The migrator uses its own connection.
func ApplyMigrations(databaseURL string, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}
	if parsed, err := url.Parse(databaseURL); err != nil || parsed.Scheme == "" {
		return errors.New("apply migrations: DATABASE_URL must be a postgres:// url")
	}

	source, err := iofs.New(db.Migrations, db.MigrationsDir)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("close migrator failed", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("schema up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("schema migrated", "version", version, "dirty", dirty)
	return nil
}
