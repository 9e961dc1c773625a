// Package persistence provides the data storage abstraction layer for
// drafts and folders.
package persistence

import (
	"context"
	"time"

	"github.com/renoflow/renoflow/pkg/models"
)

type Persistence interface {
	DraftRepository() DraftRepository
	FolderRepository() FolderRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// ListDraftsOptions narrows, sorts, and paginates a draft listing. The same
// options serve the duplicate-detection probe (module + client, limit 1,
// active only) and overview listings.
type ListDraftsOptions struct {
	// Pagination
	Limit  int
	Offset int

	// Filtering
	ModuleCode string
	ClientID   string
	ActiveOnly bool

	// Sorting
	SortBy    string
	SortOrder string
}

// DraftListResult is the paginated result of a draft listing.
type DraftListResult struct {
	Drafts      []*models.Draft
	TotalCount  int64
	HasNextPage bool
}

// DraftRepository stores draft records. GetByID returns (nil, nil) when no
// draft exists for the id; callers map that to their own not-found error.
type DraftRepository interface {
	Save(ctx context.Context, draft *models.Draft) error
	GetByID(ctx context.Context, id string) (*models.Draft, error)
	List(ctx context.Context, opts ListDraftsOptions) (*DraftListResult, error)
	Archive(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// FolderRepository stores finalized case files. Folders are write-once.
type FolderRepository interface {
	Save(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	ListByClient(ctx context.Context, clientID string) ([]*models.Folder, error)
}
