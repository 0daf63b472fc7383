package database

import (
	"context"
	"errors"
	"fmt"

	"admission-workers/internal/common/config"
)

// Clients groups the stores the workers depend on.
type Clients struct {
	Postgres      *PostgresClient
	Redis         *RedisClient
	Elasticsearch *ElasticsearchClient
}

// Connect opens every store and pings it once. Partially opened clients are closed on failure.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Clients, error) {
	pg, err := NewPostgres(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	clients := &Clients{Postgres: pg, Redis: NewRedis(cfg.Redis)}

	es, err := NewElasticsearch(cfg.Elasticsearch, nil)
	if err != nil {
		clients.Close()
		return nil, err
	}
	clients.Elasticsearch = es

	if err := clients.Ready(ctx); err != nil {
		clients.Close()
		return nil, err
	}
	return clients, nil
}

// Ready pings every configured store and joins the failures.
func (c *Clients) Ready(ctx context.Context) error {
	var errs []error
	if c.Postgres != nil {
		if err := c.Postgres.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Elasticsearch != nil {
		if err := c.Elasticsearch.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Clients) Close() error {
	var errs []error
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
