package client

import (
	"context"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/persistence"
	"github.com/renoflow/renoflow/pkg/services"
)

// LocalStore adapts the in-process draft service to the store contract, so
// the wizard can run against embedded persistence (tests, the terminal
// wizard on a file store) with the same error semantics as the HTTP store.
type LocalStore struct {
	drafts *services.Drafts
}

// NewLocalStore creates a store backed by the given draft service.
func NewLocalStore(drafts *services.Drafts) *LocalStore {
	return &LocalStore{drafts: drafts}
}

// Create stores a new draft.
func (s *LocalStore) Create(ctx context.Context, moduleCode string, clientID *string, currentStep int, data models.StepData) (*models.Draft, error) {
	draft, err := s.drafts.Create(ctx, services.CreateDraftRequest{
		ModuleCode:  moduleCode,
		ClientID:    clientID,
		CurrentStep: currentStep,
		Data:        data,
	})
	if err != nil {
		return nil, mapServiceError(err, "")
	}

	return draft, nil
}

// Get fetches a draft by id.
func (s *LocalStore) Get(ctx context.Context, draftID string) (*models.Draft, error) {
	draft, err := s.drafts.FetchByID(ctx, draftID)
	if err != nil {
		return nil, mapServiceError(err, draftID)
	}

	return draft, nil
}

// Update applies a partial update.
func (s *LocalStore) Update(ctx context.Context, draftID string, update DraftUpdate) (*models.Draft, error) {
	draft, err := s.drafts.Update(ctx, draftID, services.UpdateDraftRequest{
		Data:        update.Data,
		CurrentStep: update.CurrentStep,
		ClientID:    update.ClientID,
	})
	if err != nil {
		return nil, mapServiceError(err, draftID)
	}

	return draft, nil
}

// List returns one page of drafts matching the filter.
func (s *LocalStore) List(ctx context.Context, filter DraftFilter) (*DraftPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}

	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	result, err := s.drafts.List(ctx, services.ListDraftsRequest{
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
		ModuleCode: filter.ModuleCode,
		ClientID:   filter.ClientID,
		ActiveOnly: filter.ActiveOnly,
	})
	if err != nil {
		return nil, mapServiceError(err, "")
	}

	return &DraftPage{
		Items: result.Drafts,
		Total: result.TotalCount,
	}, nil
}

// Archive marks a draft as archived.
func (s *LocalStore) Archive(ctx context.Context, draftID, reason string) error {
	err := s.drafts.Archive(ctx, draftID, reason)
	if err != nil {
		return mapServiceError(err, draftID)
	}

	return nil
}

// Finalize materializes a completed draft into a folder.
func (s *LocalStore) Finalize(ctx context.Context, draftID string) (*models.Folder, error) {
	folder, err := s.drafts.Finalize(ctx, draftID)
	if err != nil {
		return nil, mapServiceError(err, draftID)
	}

	return folder, nil
}

// mapServiceError translates service-layer errors to the store's typed
// errors, mirroring the HTTP status mapping of the web layer.
func mapServiceError(err error, id string) error {
	switch {
	case persistence.IsDraftNotFound(err) || persistence.IsFolderNotFound(err):
		return &NotFoundError{ID: id}
	case services.IsValidationError(err):
		return &ValidationError{Detail: err.Error()}
	case services.IsConflictError(err):
		return &ConflictError{Detail: err.Error()}
	default:
		return err
	}
}
