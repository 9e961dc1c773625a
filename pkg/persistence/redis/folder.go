package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/persistence"
)

// FolderRepository handles folder-related Redis operations.
type FolderRepository struct {
	client *goredis.Client
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository.
func NewFolderRepository(client *goredis.Client, logger *slog.Logger) *FolderRepository {
	return &FolderRepository{client: client, logger: logger}
}

func folderKey(id string) string {
	return keyPrefix + ":folder:" + id
}

func folderClientIndexKey(clientID string) string {
	return keyPrefix + ":folders:client:" + clientID
}

// Save inserts a folder. Folders are write-once; conflicts fail.
func (r *FolderRepository) Save(ctx context.Context, folder *models.Folder) error {
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(folder)
	if err != nil {
		return fmt.Errorf("failed to marshal folder %s: %w", folder.ID, err)
	}

	created, err := r.client.SetNX(ctx, folderKey(folder.ID), body, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save folder %s: %w", folder.ID, err)
	}

	if !created {
		return &persistence.FolderError{Op: "Save", FolderID: folder.ID, Err: persistence.ErrFolderAlreadyExists}
	}

	if folder.ClientID != nil {
		err = r.client.SAdd(ctx, folderClientIndexKey(*folder.ClientID), folder.ID).Err()
		if err != nil {
			return fmt.Errorf("failed to index folder %s: %w", folder.ID, err)
		}
	}

	return nil
}

// GetByID retrieves a folder by its ID. Returns (nil, nil) when no folder exists.
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	body, err := r.client.Get(ctx, folderKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch folder %s: %w", id, err)
	}

	var folder models.Folder

	err = json.Unmarshal(body, &folder)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal folder %s: %w", id, err)
	}

	return &folder, nil
}

// ListByClient returns the folders created for a client, newest first.
func (r *FolderRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Folder, error) {
	ids, err := r.client.SMembers(ctx, folderClientIndexKey(clientID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list folder ids: %w", err)
	}

	folders := make([]*models.Folder, 0, len(ids))

	for _, id := range ids {
		folder, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if folder != nil {
			folders = append(folders, folder)
		}
	}

	sort.Slice(folders, func(i, j int) bool {
		return folders[i].CreatedAt.After(folders[j].CreatedAt)
	})

	return folders, nil
}
