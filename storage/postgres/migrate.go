package pgstore

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun/migrate"

	migrations "github.com/connelaide/connelaide-api/migrations/postgres"
)

// Migrate applies any pending schema migrations.
func (db *DB) Migrate(ctx context.Context, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	migrator := migrate.NewMigrator(db.Bun, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("pgstore: init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	if group.IsZero() {
		log.Debug("database schema up to date")
		return nil
	}
	log.WithField("group", group.String()).Info("applied migrations")
	return nil
}
