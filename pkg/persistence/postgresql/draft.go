package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/persistence"
)

// DraftRepository handles draft-related database operations.
type DraftRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDraftRepository creates a new draft repository.
func NewDraftRepository(db *sql.DB, logger *slog.Logger) *DraftRepository {
	return &DraftRepository{db: db, logger: logger}
}

const draftColumns = `
	id
  , module_code
  , client_id
  , current_step
  , data
  , archived_at
  , created_at
  , updated_at
`

// GetByID retrieves a draft by its ID. Returns (nil, nil) when no draft exists.
func (r *DraftRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	draft, err := r.scanDraft(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan draft: %w", err)
	}

	return draft, nil
}

// Save upserts a draft.
func (r *DraftRepository) Save(ctx context.Context, draft *models.Draft) error {
	now := time.Now().UTC()

	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}

	draft.UpdatedAt = now

	dataJSON, err := json.Marshal(draft.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal draft data: %w", err)
	}

	query := `
		INSERT INTO drafts (id, module_code, client_id, current_step, data, archived_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			current_step = EXCLUDED.current_step,
			data = EXCLUDED.data,
			archived_at = EXCLUDED.archived_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		draft.ID,
		draft.ModuleCode,
		draft.ClientID,
		draft.CurrentStep,
		dataJSON,
		draft.ArchivedAt,
		draft.CreatedAt,
		draft.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save draft %s: %w", draft.ID, err)
	}

	return nil
}

// List returns paginated and filtered drafts.
func (r *DraftRepository) List(ctx context.Context, opts persistence.ListDraftsOptions) (*persistence.DraftListResult, error) {
	query, countQuery, args, err := r.buildListQuery(opts)
	if err != nil {
		return nil, err
	}

	var totalCount int64

	err = r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count drafts: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	drafts := make([]*models.Draft, 0)

	for rows.Next() {
		draft, err := r.scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}

		drafts = append(drafts, draft)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating drafts: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return &persistence.DraftListResult{
		Drafts:      drafts,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+limit) < totalCount,
	}, nil
}

// buildListQuery assembles the listing and count queries. Sort fields are
// validated against an allowlist before being interpolated.
func (r *DraftRepository) buildListQuery(opts persistence.ListDraftsOptions) (string, string, []any, error) {
	allowedSorts := map[string]string{
		"created_at":   "created_at",
		"updated_at":   "updated_at",
		"current_step": "current_step",
	}

	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}

	sortColumn, ok := allowedSorts[sortBy]
	if !ok {
		return "", "", nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	sortOrder := strings.ToUpper(opts.SortOrder)

	switch sortOrder {
	case "":
		sortOrder = "DESC"
	case "ASC", "DESC":
	default:
		return "", "", nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortOrder, opts.SortOrder)
	}

	conditions := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if opts.ModuleCode != "" {
		args = append(args, opts.ModuleCode)
		conditions = append(conditions, fmt.Sprintf("module_code = $%d", len(args)))
	}

	if opts.ClientID != "" {
		args = append(args, opts.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}

	if opts.ActiveOnly {
		conditions = append(conditions, "archived_at IS NULL")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM drafts" + where

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(
		"SELECT %s FROM drafts%s ORDER BY %s %s LIMIT %d OFFSET %d",
		draftColumns, where, sortColumn, sortOrder, limit, offset,
	)

	return query, countQuery, args, nil
}

// Archive sets archived_at on an active draft. Archiving an already-archived
// draft is a no-op.
func (r *DraftRepository) Archive(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE drafts SET archived_at = $2, updated_at = $2 WHERE id = $1 AND archived_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to archive draft: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if existing == nil {
			return persistence.NewDraftError("Archive", id, persistence.ErrDraftNotFound)
		}
	}

	return nil
}

// Delete removes a draft permanently.
func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM drafts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DraftRepository) scanDraft(row rowScanner) (*models.Draft, error) {
	var (
		draft    models.Draft
		clientID sql.NullString
		dataJSON []byte
		archived sql.NullTime
	)

	err := row.Scan(
		&draft.ID,
		&draft.ModuleCode,
		&clientID,
		&draft.CurrentStep,
		&dataJSON,
		&archived,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if clientID.Valid {
		draft.ClientID = &clientID.String
	}

	if archived.Valid {
		archivedAt := archived.Time
		draft.ArchivedAt = &archivedAt
	}

	if len(dataJSON) > 0 {
		err = json.Unmarshal(dataJSON, &draft.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal draft data: %w", err)
		}
	}

	if draft.Data == nil {
		draft.Data = models.StepData{}
	}

	return &draft, nil
}
