package migrations

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var miglist = []migrator{
	{
		name: "create_authorized_users",
		done: func(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
			return tableExists(ctx, pool, "authorized_users")
		},
		fn: func(ctx context.Context, pool *pgxpool.Pool) error {
			_, err := pool.Exec(ctx, `CREATE TABLE authorized_users (
				user_id TEXT PRIMARY KEY,
				access_token TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`)
			return err
		},
	},
	{
		// Tables created before updated_at existed only kept the first write time
		name: "add_updated_at",
		done: func(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
			return colExists(ctx, pool, "authorized_users", "updated_at")
		},
		fn: func(ctx context.Context, pool *pgxpool.Pool) error {
			_, err := pool.Exec(ctx, "ALTER TABLE authorized_users ADD COLUMN updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()")
			return err
		},
	},
}
