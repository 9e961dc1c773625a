package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/renoflow/renoflow/pkg/models"
)

// FolderRepository handles folder-related database operations.
type FolderRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository.
func NewFolderRepository(db *sql.DB, logger *slog.Logger) *FolderRepository {
	return &FolderRepository{db: db, logger: logger}
}

// Save inserts a folder. Folders are write-once; conflicts fail.
func (r *FolderRepository) Save(ctx context.Context, folder *models.Folder) error {
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO folders (id, draft_id, module_code, client_id, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		folder.ID,
		folder.DraftID,
		folder.ModuleCode,
		folder.ClientID,
		folder.Reference,
		folder.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save folder %s: %w", folder.ID, err)
	}

	return nil
}

// GetByID retrieves a folder by its ID. Returns (nil, nil) when no folder exists.
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := `
		SELECT id, draft_id, module_code, client_id, reference, created_at
		FROM folders
		WHERE id = $1
	`

	folder, err := r.scanFolder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan folder: %w", err)
	}

	return folder, nil
}

// ListByClient returns the folders created for a client, newest first.
func (r *FolderRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Folder, error) {
	query := `
		SELECT id, draft_id, module_code, client_id, reference, created_at
		FROM folders
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	folders := make([]*models.Folder, 0)

	for rows.Next() {
		folder, err := r.scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}

		folders = append(folders, folder)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating folders: %w", err)
	}

	return folders, nil
}

func (r *FolderRepository) scanFolder(row rowScanner) (*models.Folder, error) {
	var (
		folder   models.Folder
		clientID sql.NullString
	)

	err := row.Scan(
		&folder.ID,
		&folder.DraftID,
		&folder.ModuleCode,
		&clientID,
		&folder.Reference,
		&folder.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if clientID.Valid {
		folder.ClientID = &clientID.String
	}

	return &folder, nil
}
