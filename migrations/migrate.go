// Schema migrations for the postgres token store
package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Migrate runs every migration that has not been applied yet, in order
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	for i, m := range miglist {
		done, err := m.done(ctx, pool)

		if err != nil {
			return fmt.Errorf("migration %s: check: %w", m.name, err)
		}

		if done {
			continue
		}

		logger.Info("Running migration", zap.String("name", m.name), zap.Int("index", i+1), zap.Int("total", len(miglist)))

		if err := m.fn(ctx, pool); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}

	return nil
}
