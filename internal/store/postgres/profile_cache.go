package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"skillswap/internal/domain"
)

type ProfileCache struct {
	db *sql.DB
}

func NewProfileCache(db *sql.DB) *ProfileCache {
	return &ProfileCache{db: db}
}

var _ domain.ProfileCache = (*ProfileCache)(nil)

func (c *ProfileCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached profile: %w", err)
	}
	return value, true, nil
}

func (c *ProfileCache) Set(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("set cached profile: %w", err)
	}
	return nil
}

func (c *ProfileCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete cached profile: %w", err)
	}
	return nil
}
