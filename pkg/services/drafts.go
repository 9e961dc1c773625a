// Package services implements the business operations between the web layer
// and persistence.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/renoflow/renoflow/pkg/eventbus"
	"github.com/renoflow/renoflow/pkg/events"
	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/otelhelper"
	"github.com/renoflow/renoflow/pkg/persistence"
	"github.com/renoflow/renoflow/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	// ErrDraftNotFound is returned when a draft is not found.
	ErrDraftNotFound = persistence.ErrDraftNotFound

	// ErrFolderNotFound is returned when a folder is not found.
	ErrFolderNotFound = persistence.ErrFolderNotFound
)

// Drafts is the draft service. It owns id assignment, module validation,
// lifecycle transitions, and event publication.
type Drafts struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
}

// NewDrafts creates a new draft service. The event bus may be nil, in which
// case lifecycle events are not published.
func NewDrafts(persistence persistence.Persistence, reg *registry.Registry, eventBus eventbus.EventBus) *Drafts {
	return &Drafts{
		persistence: persistence,
		registry:    reg,
		eventBus:    eventBus,
		tracer:      noop.NewTracerProvider().Tracer("drafts"),
	}
}

// WithTracer replaces the no-op tracer, enabling spans on draft operations.
func (d *Drafts) WithTracer(tracer trace.Tracer) *Drafts {
	d.tracer = tracer

	return d
}

// HealthCheck checks the health of the persistence layer.
func (d *Drafts) HealthCheck(ctx context.Context) (string, bool) {
	if d.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := d.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateDraftRequest contains the fields of a draft creation.
type CreateDraftRequest struct {
	ModuleCode  string
	ClientID    *string
	CurrentStep int
	Data        models.StepData
}

// Create validates the module code and stores a new draft.
func (d *Drafts) Create(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "drafts.create",
		attribute.String(otelhelper.ModuleCodeKey, req.ModuleCode))
	defer span.End()

	stepCount, err := d.registry.StepCount(req.ModuleCode)
	if err != nil {
		return nil, NewValidationError("Create", "UNKNOWN_MODULE",
			fmt.Sprintf("module code %q is not recognized", req.ModuleCode), ErrUnknownModule)
	}

	if req.CurrentStep == 0 {
		req.CurrentStep = 1
	}

	if req.CurrentStep < 1 || req.CurrentStep > stepCount {
		return nil, NewValidationError("Create", "INVALID_STEP",
			fmt.Sprintf("step %d out of range 1..%d", req.CurrentStep, stepCount), ErrInvalidStep)
	}

	if req.Data == nil {
		req.Data = models.StepData{}
	}

	draft := &models.Draft{
		ID:          uuid.New().String(),
		ModuleCode:  req.ModuleCode,
		ClientID:    req.ClientID,
		CurrentStep: req.CurrentStep,
		Data:        req.Data,
	}

	err = d.persistence.DraftRepository().Save(ctx, draft)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	d.publish(ctx, draft.ID, events.DraftCreated{
		BaseEvent: d.baseEvent(events.DraftCreatedEvent, draft),
		ClientID:  draft.ClientID,
	})

	return draft, nil
}

// FetchByID retrieves a draft by its ID.
func (d *Drafts) FetchByID(ctx context.Context, id string) (*models.Draft, error) {
	draft, err := d.persistence.DraftRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if draft == nil {
		return nil, ErrDraftNotFound
	}

	return draft, nil
}

// UpdateDraftRequest is a partial draft update. Nil fields are left
// untouched; in particular an omitted ClientID never nulls out an existing
// client reference.
type UpdateDraftRequest struct {
	Data        models.StepData
	CurrentStep *int
	ClientID    *string
}

// Update applies a partial update. Incoming data step keys overwrite the
// stored keys at the top level; bags are replaced whole, never deep-merged.
func (d *Drafts) Update(ctx context.Context, id string, req UpdateDraftRequest) (*models.Draft, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "drafts.update",
		attribute.String(otelhelper.DraftIDKey, id))
	defer span.End()

	draft, err := d.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !draft.Active() {
		return nil, &ServiceError{Op: "Update", Code: "DRAFT_ARCHIVED",
			Message: "draft is archived", Err: ErrCannotModifyArchived}
	}

	previousStep := draft.CurrentStep

	if req.Data != nil {
		draft.Data = draft.Data.Merge(req.Data)
	}

	if req.CurrentStep != nil {
		stepCount, err := d.registry.StepCount(draft.ModuleCode)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve module %s: %w", draft.ModuleCode, err)
		}

		if *req.CurrentStep < 1 || *req.CurrentStep > stepCount {
			return nil, NewValidationError("Update", "INVALID_STEP",
				fmt.Sprintf("step %d out of range 1..%d", *req.CurrentStep, stepCount), ErrInvalidStep)
		}

		draft.CurrentStep = *req.CurrentStep
	}

	if req.ClientID != nil {
		draft.ClientID = req.ClientID
	}

	err = d.persistence.DraftRepository().Save(ctx, draft)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to update draft %s: %w", id, err)
	}

	if draft.CurrentStep != previousStep {
		d.publish(ctx, draft.ID, events.DraftStepAdvanced{
			BaseEvent: d.baseEvent(events.DraftStepAdvancedEvent, draft),
			FromStep:  previousStep,
			ToStep:    draft.CurrentStep,
		})
	}

	return draft, nil
}

// ListDraftsRequest contains options for listing drafts.
type ListDraftsRequest struct {
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

// ListDraftsResponse contains the result of listing drafts.
type ListDraftsResponse struct {
	Drafts      []*models.Draft `json:"drafts"`
	TotalCount  int64           `json:"total_count"`
	HasNextPage bool            `json:"has_next_page"`
}

// List retrieves drafts with filtering, sorting, and pagination.
func (d *Drafts) List(ctx context.Context, req ListDraftsRequest) (*ListDraftsResponse, error) {
	if err := d.validateListRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	opts := persistence.ListDraftsOptions{
		Limit:      req.Limit,
		Offset:     req.Offset,
		ModuleCode: req.ModuleCode,
		ClientID:   req.ClientID,
		ActiveOnly: req.ActiveOnly,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	}

	result, err := d.persistence.DraftRepository().List(ctx, opts)
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	return &ListDraftsResponse{
		Drafts:      result.Drafts,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// validateListRequest validates and sets defaults for the request.
func (d *Drafts) validateListRequest(req *ListDraftsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "current_step"}

	allowed := false

	for _, field := range allowedSorts {
		if req.SortBy == field {
			allowed = true

			break
		}
	}

	if !allowed {
		return NewValidationError(
			"validateListRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	return nil
}

// Archive marks a draft as archived, removing it from active listings and
// duplicate detection. Archiving an archived draft is a no-op.
func (d *Drafts) Archive(ctx context.Context, id, reason string) error {
	draft, err := d.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	if !draft.Active() {
		return nil
	}

	err = d.persistence.DraftRepository().Archive(ctx, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to archive draft %s: %w", id, err)
	}

	d.publish(ctx, draft.ID, events.DraftArchived{
		BaseEvent: d.baseEvent(events.DraftArchivedEvent, draft),
		Reason:    reason,
	})

	return nil
}

// Finalize materializes a completed draft into a folder and archives the
// draft. Every step bag is re-validated against the module schemas; an
// incomplete or invalid draft cannot be finalized.
func (d *Drafts) Finalize(ctx context.Context, id string) (*models.Folder, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "drafts.finalize",
		attribute.String(otelhelper.DraftIDKey, id))
	defer span.End()

	draft, err := d.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !draft.Active() {
		return nil, &ServiceError{Op: "Finalize", Code: "DRAFT_ARCHIVED",
			Message: "draft is archived", Err: ErrCannotModifyArchived}
	}

	if draft.ClientID == nil {
		return nil, NewValidationError("Finalize", "CLIENT_REQUIRED",
			"draft has no client", ErrClientRequired)
	}

	descriptor, err := d.registry.Module(draft.ModuleCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve module %s: %w", draft.ModuleCode, err)
	}

	for _, step := range descriptor.Steps {
		bag, present := draft.Data[step.Key]
		if !present {
			return nil, NewValidationError("Finalize", "DRAFT_INCOMPLETE",
				fmt.Sprintf("step %d (%s) has no data", step.Number, step.Label), ErrDraftIncomplete)
		}

		result, err := d.registry.ValidateStep(draft.ModuleCode, step.Number, bag)
		if err != nil {
			return nil, err
		}

		if !result.Valid() {
			return nil, NewValidationError("Finalize", "DRAFT_INCOMPLETE",
				fmt.Sprintf("step %d (%s) is invalid: %s", step.Number, step.Label, result.Summary()),
				ErrDraftIncomplete)
		}
	}

	folder := &models.Folder{
		ID:         uuid.New().String(),
		DraftID:    draft.ID,
		ModuleCode: draft.ModuleCode,
		ClientID:   draft.ClientID,
		Reference:  folderReference(draft),
		CreatedAt:  time.Now().UTC(),
	}

	err = d.persistence.FolderRepository().Save(ctx, folder)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save folder for draft %s: %w", id, err)
	}

	err = d.persistence.DraftRepository().Archive(ctx, draft.ID, folder.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to archive finalized draft %s: %w", id, err)
	}

	d.publish(ctx, draft.ID, events.DraftFinalized{
		BaseEvent: d.baseEvent(events.DraftFinalizedEvent, draft),
		FolderID:  folder.ID,
	})

	return folder, nil
}

// FetchFolder retrieves a folder by its ID.
func (d *Drafts) FetchFolder(ctx context.Context, id string) (*models.Folder, error) {
	folder, err := d.persistence.FolderRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if folder == nil {
		return nil, ErrFolderNotFound
	}

	return folder, nil
}

// folderReference derives the human-facing case file reference.
func folderReference(draft *models.Draft) string {
	short := draft.ID
	if len(short) > 8 {
		short = short[:8]
	}

	return fmt.Sprintf("CEE-%d-%s", time.Now().UTC().Year(), strings.ToUpper(short))
}

func (d *Drafts) baseEvent(eventType events.EventType, draft *models.Draft) events.BaseEvent {
	id := ""
	if d.eventBus != nil {
		id = d.eventBus.GenerateID()
	}

	return events.BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		DraftID:    draft.ID,
		ModuleCode: draft.ModuleCode,
	}
}

func (d *Drafts) publish(ctx context.Context, key string, event eventbus.Event) {
	if d.eventBus == nil {
		return
	}

	err := d.eventBus.Publish(ctx, key, event)
	if err != nil {
		// Event publication is best-effort; the draft mutation already succeeded.
		otelhelper.SetError(trace.SpanFromContext(ctx), err)
	}
}
