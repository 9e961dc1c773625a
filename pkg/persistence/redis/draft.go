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

// DraftRepository handles draft-related Redis operations.
type DraftRepository struct {
	client *goredis.Client
	logger *slog.Logger
}

// NewDraftRepository creates a new draft repository.
func NewDraftRepository(client *goredis.Client, logger *slog.Logger) *DraftRepository {
	return &DraftRepository{client: client, logger: logger}
}

func draftKey(id string) string {
	return keyPrefix + ":draft:" + id
}

func draftIndexKey() string {
	return keyPrefix + ":drafts"
}

// activeIndexKey indexes active draft ids per (module_code, client_id).
func activeIndexKey(moduleCode, clientID string) string {
	return keyPrefix + ":active:" + moduleCode + ":" + clientID
}

// GetByID retrieves a draft by its ID. Returns (nil, nil) when no draft exists.
func (r *DraftRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	body, err := r.client.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch draft %s: %w", id, err)
	}

	var draft models.Draft

	err = json.Unmarshal(body, &draft)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft %s: %w", id, err)
	}

	return &draft, nil
}

// Save upserts a draft and maintains the secondary indexes.
func (r *DraftRepository) Save(ctx context.Context, draft *models.Draft) error {
	now := time.Now().UTC()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}

	draft.UpdatedAt = now

	previous, err := r.GetByID(ctx, draft.ID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft %s: %w", draft.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, draftKey(draft.ID), body, 0)
	pipe.SAdd(ctx, draftIndexKey(), draft.ID)

	// Index membership follows the draft's (module, client, active) state.
	if previous != nil && previous.ClientID != nil {
		pipe.SRem(ctx, activeIndexKey(previous.ModuleCode, *previous.ClientID), draft.ID)
	}

	if draft.Active() && draft.ClientID != nil {
		pipe.SAdd(ctx, activeIndexKey(draft.ModuleCode, *draft.ClientID), draft.ID)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save draft %s: %w", draft.ID, err)
	}

	return nil
}

// List returns paginated and filtered drafts. The narrow duplicate probe
// (module + client) reads its candidate set from the active index; broader
// listings walk the full draft index and filter in memory.
func (r *DraftRepository) List(ctx context.Context, opts persistence.ListDraftsOptions) (*persistence.DraftListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	allowedSorts := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"current_step": true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	var (
		ids []string
		err error
	)

	if opts.ActiveOnly && opts.ModuleCode != "" && opts.ClientID != "" {
		ids, err = r.client.SMembers(ctx, activeIndexKey(opts.ModuleCode, opts.ClientID)).Result()
	} else {
		ids, err = r.client.SMembers(ctx, draftIndexKey()).Result()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list draft ids: %w", err)
	}

	filtered := make([]*models.Draft, 0, len(ids))

	for _, id := range ids {
		draft, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if draft == nil {
			continue
		}

		if opts.ModuleCode != "" && draft.ModuleCode != opts.ModuleCode {
			continue
		}

		if opts.ClientID != "" && (draft.ClientID == nil || *draft.ClientID != opts.ClientID) {
			continue
		}

		if opts.ActiveOnly && !draft.Active() {
			continue
		}

		filtered = append(filtered, draft)
	}

	r.sortDrafts(filtered, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filtered))
	startIdx := opts.Offset
	endIdx := opts.Offset + opts.Limit

	if startIdx >= len(filtered) {
		return &persistence.DraftListResult{
			Drafts:      make([]*models.Draft, 0),
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}

	return &persistence.DraftListResult{
		Drafts:      filtered[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(filtered),
	}, nil
}

func (r *DraftRepository) sortDrafts(drafts []*models.Draft, sortBy, sortOrder string) {
	sort.Slice(drafts, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "created_at":
			less = drafts[i].CreatedAt.Before(drafts[j].CreatedAt)
		case "updated_at":
			less = drafts[i].UpdatedAt.Before(drafts[j].UpdatedAt)
		case "current_step":
			less = drafts[i].CurrentStep < drafts[j].CurrentStep
		default:
			less = drafts[i].CreatedAt.Before(drafts[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}

// Archive marks a draft as archived and drops it from the active index.
func (r *DraftRepository) Archive(ctx context.Context, id string, at time.Time) error {
	draft, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if draft == nil {
		return persistence.NewDraftError("Archive", id, persistence.ErrDraftNotFound)
	}

	if draft.ArchivedAt != nil {
		return nil
	}

	archivedAt := at.UTC()
	draft.ArchivedAt = &archivedAt

	return r.Save(ctx, draft)
}

// Delete removes a draft and its index entries.
func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	draft, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if draft == nil {
		return nil
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, draftKey(id))
	pipe.SRem(ctx, draftIndexKey(), id)

	if draft.ClientID != nil {
		pipe.SRem(ctx, activeIndexKey(draft.ModuleCode, *draft.ClientID), id)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}

	return nil
}
