package store

import (
	"context"
	"errors"

	"guildpass/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps users in the authorized_users table created by migrations
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Get(ctx context.Context, userID string) (string, error) {
	var token string
	err := p.pool.QueryRow(ctx, "SELECT access_token FROM authorized_users WHERE user_id = $1", userID).Scan(&token)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}

	return token, err
}

func (p *PostgresStore) Upsert(ctx context.Context, userID, accessToken string) error {
	_, err := p.pool.Exec(
		ctx,
		`INSERT INTO authorized_users (user_id, access_token) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET access_token = EXCLUDED.access_token, updated_at = NOW()`,
		userID,
		accessToken,
	)

	return err
}

func (p *PostgresStore) All(ctx context.Context) ([]types.AuthorizedUser, error) {
	rows, err := p.pool.Query(ctx, "SELECT user_id, access_token, updated_at FROM authorized_users ORDER BY created_at, user_id")

	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[types.AuthorizedUser])
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
