// Package redis provides Redis persistence implementation for drafts and folders.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/renoflow/renoflow/pkg/persistence"
)

const keyPrefix = "renoflow"

// Persistence implements the persistence layer on top of Redis. Drafts are
// stored as JSON blobs with secondary index sets so the duplicate probe
// ((module_code, client_id), active only) does not scan the keyspace.
type Persistence struct {
	client     *goredis.Client
	logger     *slog.Logger
	draftRepo  *DraftRepository
	folderRepo *FolderRepository
}

// NewPersistence creates a new Redis persistence layer from a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Persistence{
		client:     client,
		logger:     logger,
		draftRepo:  NewDraftRepository(client, logger),
		folderRepo: NewFolderRepository(client, logger),
	}, nil
}

// Close closes the Redis connection.
func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}

	return nil
}

// HealthCheck verifies the Redis connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	return nil
}

// DraftRepository returns the draft repository implementation for Redis.
func (p *Persistence) DraftRepository() persistence.DraftRepository {
	return p.draftRepo
}

// FolderRepository returns the folder repository implementation for Redis.
func (p *Persistence) FolderRepository() persistence.FolderRepository {
	return p.folderRepo
}
