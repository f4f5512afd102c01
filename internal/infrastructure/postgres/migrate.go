package postgres

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationLogger adapts zap to the migrate.Logger interface
type migrationLogger struct {
	sugar *zap.SugaredLogger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.sugar.Infof(format, v...)
}

func (l migrationLogger) Verbose() bool {
	return false
}

func newMigrate(databaseURL string, logger *zap.Logger) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = migrationLogger{sugar: logger.Sugar()}
	return m, nil
}

// MigrateUp applies every pending migration
func MigrateUp(databaseURL string, logger *zap.Logger) error {
	m, err := newMigrate(databaseURL, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	start := time.Now()
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no new migrations to apply")
			return nil
		}
		version, dirty, _ := m.Version()
		logger.Error("migration failed", zap.Uint("version", version), zap.Bool("dirty", dirty), zap.Error(err))
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("migrations applied", zap.Uint("version", version), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// MigrateDown rolls back every migration
func MigrateDown(databaseURL string, logger *zap.Logger) error {
	m, err := newMigrate(databaseURL, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	logger.Info("migrations rolled back")
	return nil
}
