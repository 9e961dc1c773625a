package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/persistence"
)

// DraftRepository handles draft-related file operations.
type DraftRepository struct {
	root string // File system root for storing drafts
}

// NewDraftRepository creates a new draft repository.
func NewDraftRepository(root string) *DraftRepository {
	return &DraftRepository{root: root}
}

// List returns paginated and filtered drafts with in-memory operations.
func (dr *DraftRepository) List(ctx context.Context, opts persistence.ListDraftsOptions) (*persistence.DraftListResult, error) {
	// Set defaults
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	// Validate sort parameters against allowlist (security)
	allowedSorts := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"current_step": true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	root := os.DirFS(dr.root + "/drafts")

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list draft files: %w", err)
	}

	if len(jsonFiles) == 0 {
		return &persistence.DraftListResult{
			Drafts:      make([]*models.Draft, 0),
			TotalCount:  0,
			HasNextPage: false,
		}, nil
	}

	allDrafts := make([]*models.Draft, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		draftID := file[:len(file)-5] // Remove .json extension

		draft, err := dr.GetByID(ctx, draftID)
		if err != nil {
			return nil, fmt.Errorf("failed to load draft %s: %w", draftID, err)
		}

		if draft != nil {
			allDrafts = append(allDrafts, draft)
		}
	}

	filteredDrafts := make([]*models.Draft, 0)

	for _, draft := range allDrafts {
		if opts.ModuleCode != "" && draft.ModuleCode != opts.ModuleCode {
			continue
		}

		if opts.ClientID != "" && (draft.ClientID == nil || *draft.ClientID != opts.ClientID) {
			continue
		}

		if opts.ActiveOnly && !draft.Active() {
			continue
		}

		filteredDrafts = append(filteredDrafts, draft)
	}

	dr.sortDrafts(filteredDrafts, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filteredDrafts))
	startIdx := opts.Offset
	endIdx := opts.Offset + opts.Limit

	if startIdx >= len(filteredDrafts) {
		return &persistence.DraftListResult{
			Drafts:      make([]*models.Draft, 0),
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	if endIdx > len(filteredDrafts) {
		endIdx = len(filteredDrafts)
	}

	return &persistence.DraftListResult{
		Drafts:      filteredDrafts[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(filteredDrafts),
	}, nil
}

// sortDrafts sorts drafts in-place based on the specified field and order.
func (dr *DraftRepository) sortDrafts(drafts []*models.Draft, sortBy, sortOrder string) {
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

// GetByID retrieves a draft by its ID from the file system.
func (dr *DraftRepository) GetByID(_ context.Context, draftID string) (*models.Draft, error) {
	filePath := filepath.Clean(path.Join(dr.root, "drafts", draftID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch draft %s: %w", draftID, err)
	}

	var draft models.Draft

	err = json.Unmarshal(body, &draft)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft %s: %w", draftID, err)
	}

	return &draft, nil
}

// Save saves a draft to the file system.
func (dr *DraftRepository) Save(_ context.Context, draft *models.Draft) error {
	err := os.MkdirAll(dr.root+"/drafts", 0750)
	if err != nil {
		return fmt.Errorf("failed to create drafts directory: %w", err)
	}

	now := time.Now().UTC()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}

	draft.UpdatedAt = now

	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal draft %s: %w", draft.ID, err)
	}

	filePath := path.Join(dr.root+"/drafts", draft.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// Archive marks a draft as archived without removing its file.
func (dr *DraftRepository) Archive(ctx context.Context, id string, at time.Time) error {
	draft, err := dr.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if draft == nil {
		return persistence.NewDraftError("Archive", id, persistence.ErrDraftNotFound)
	}

	if draft.ArchivedAt != nil {
		return nil
	}

	draft.ArchivedAt = &at

	return dr.Save(ctx, draft)
}

// Delete removes a draft by its ID.
func (dr *DraftRepository) Delete(_ context.Context, id string) error {
	filePath := path.Join(dr.root+"/drafts", id+".json")

	err := os.Remove(filePath)

	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}

	return nil
}
