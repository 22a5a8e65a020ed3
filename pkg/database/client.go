// Package database wraps the mongo-driver client used as the persisted
// store for resources, updates, alerts, permissions and variables. A
// document store fits the polymorphic Resource[Config, Info] model
// directly — no schema migration step is needed per resource kind, unlike
// a relational mapping.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config holds database connection configuration.
type Config struct {
	URI      string
	Database string

	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
}

// Client wraps a mongo.Client scoped to the configured database.
type Client struct {
	mongo *mongo.Client
	db    *mongo.Database
}

// DB returns the underlying mongo database handle, for collection access.
func (c *Client) DB() *mongo.Database {
	return c.db
}

// NewClientFromMongo wraps an existing mongo.Client, useful for tests
// against a test-container or in-memory mongo.
func NewClientFromMongo(client *mongo.Client, dbName string) *Client {
	return &Client{mongo: client, db: client.Database(dbName)}
}

// NewClient connects to mongo with the configured pool settings and
// verifies connectivity with a ping before returning.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Client{mongo: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects the underlying mongo client.
func (c *Client) Close(ctx context.Context) error {
	return c.mongo.Disconnect(ctx)
}
