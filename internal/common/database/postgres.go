package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reading-effort/internal/common/config"

	_ "github.com/lib/pq"
)

const (
	defaultPostgresOpen = 10
	defaultPostgresIdle = 2
)

// PostgresClient holds the pool used to read the reference corpus when it
// lives in Postgres. The corpus is only ever read, so the pool stays small.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	open, idle := poolSize(cfg)
	db.SetMaxOpenConns(open)
	db.SetMaxIdleConns(idle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// poolSize fills in unset limits and keeps idle <= open.
func poolSize(cfg config.PostgresConfig) (open, idle int) {
	open, idle = cfg.MaxConnections, cfg.MaxIdle
	if open <= 0 {
		open = defaultPostgresOpen
	}
	if idle <= 0 {
		idle = defaultPostgresIdle
	}
	return open, min(idle, open)
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
