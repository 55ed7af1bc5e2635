package database

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// RunMigrations brings the fraud schema up to date. Always runs against the
// primary writer; replicas receive the schema through replication.
func RunMigrations(logger *zap.Logger, primaryDSN string) error {
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "pgx5://"+primaryDSN)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("fraud_schema_up_to_date")
			return nil
		}
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("fraud_schema_migrated",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}
