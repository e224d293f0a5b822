package migration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// Migration is one idempotent schema step.
type Migration struct {
	Name string
	SQL  string
}

// Migrations are applied in order on every startup.
var Migrations = []Migration{
	{
		Name: "create_profiles",
		SQL: `
		CREATE TABLE IF NOT EXISTS profiles (
			owner_id UUID PRIMARY KEY,
			kind TEXT NOT NULL DEFAULT 'freelancer',
			display_name TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT '',
			cv JSONB,
			committed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	},
	{
		Name: "create_cv_drafts",
		SQL: `
		CREATE TABLE IF NOT EXISTS cv_drafts (
			owner_id UUID PRIMARY KEY,
			document JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	},
	{
		Name: "index_cv_drafts_updated_at",
		SQL:  `CREATE INDEX IF NOT EXISTS cv_drafts_updated_at_idx ON cv_drafts (updated_at);`,
	},
}

// RunMigrations executes all migrations on startup.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	log.Info("starting database migrations", zap.Int("count", len(Migrations)))
	for _, m := range Migrations {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			log.Error("migration failed", zap.String("name", m.Name), zap.Error(err))
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		log.Info("migration completed", zap.String("name", m.Name))
	}
	return nil
}
