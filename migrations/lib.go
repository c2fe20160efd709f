package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

func tableExists(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", name).Scan(&exists)
	return exists, err
}

func colExists(ctx context.Context, pool *pgxpool.Pool, table, col string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = $1 AND column_name = $2)", table, col).Scan(&exists)
	return exists, err
}

// TableEmpty reports whether table has no rows. The name is not escaped, only
// pass constants.
func TableEmpty(ctx context.Context, pool *pgxpool.Pool, table string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+")").Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("check %s empty: %w", table, err)
	}

	return !exists, nil
}

type migrator struct {
	name string
	// done reports whether the migration has already been applied
	done func(context.Context, *pgxpool.Pool) (bool, error)
	fn   func(context.Context, *pgxpool.Pool) error
}
