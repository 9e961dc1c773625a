// Package wizard implements the multi-step, resumable draft submission
// process: the session controller owning draft identity and step data, the
// step orchestrator sequencing a module's steps, and the duplicate-draft
// resolution flow.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/renoflow/renoflow/pkg/client"
	"github.com/renoflow/renoflow/pkg/models"
)

var (
	// ErrSaveInFlight is returned when a save is issued while another save
	// is still running. Callers retry after the first save settles.
	ErrSaveInFlight = errors.New("a save is already in flight")

	// ErrNoDraft is returned by operations that require a loaded draft.
	ErrNoDraft = errors.New("no draft loaded")
)

// DraftStore is the wizard's view of the remote draft resource. Both the
// HTTP store and the in-process store satisfy it.
type DraftStore interface {
	Create(ctx context.Context, moduleCode string, clientID *string, currentStep int, data models.StepData) (*models.Draft, error)
	Get(ctx context.Context, draftID string) (*models.Draft, error)
	Update(ctx context.Context, draftID string, update client.DraftUpdate) (*models.Draft, error)
	List(ctx context.Context, filter client.DraftFilter) (*client.DraftPage, error)
	Archive(ctx context.Context, draftID, reason string) error
	Finalize(ctx context.Context, draftID string) (*models.Folder, error)
}

// Notifier surfaces transient user-facing messages.
type Notifier interface {
	Info(message string)
	Error(message string)
}

// Router records the current draft id in the addressable URL so that a
// reload resumes the same session.
type Router interface {
	SetDraftID(draftID string)
}

type noopNotifier struct{}

func (noopNotifier) Info(string)  {}
func (noopNotifier) Error(string) {}

type noopRouter struct{}

func (noopRouter) SetDraftID(string) {}

// Session is the draft session controller. It owns the current draft
// identity, the local mirror of its step data, and the current step, and it
// implements the lazy-create-then-merge-then-persist save transition.
type Session struct {
	mu sync.Mutex

	store    DraftStore
	notifier Notifier
	router   Router
	logger   *slog.Logger

	moduleCode  string
	draft       *models.Draft
	draftData   models.StepData
	currentStep int
	loading     bool
	saving      bool
}

// SessionOption configures optional session collaborators.
type SessionOption func(*Session)

// WithNotifier injects the toast collaborator.
func WithNotifier(notifier Notifier) SessionOption {
	return func(s *Session) {
		s.notifier = notifier
	}
}

// WithRouter injects the routing collaborator.
func WithRouter(router Router) SessionOption {
	return func(s *Session) {
		s.router = router
	}
}

// WithLogger injects a logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger.With("module", "wizard")
	}
}

// NewSession creates a session for one module's wizard. No draft exists
// until the first successful save.
func NewSession(store DraftStore, moduleCode string, opts ...SessionOption) *Session {
	session := &Session{
		store:       store,
		notifier:    noopNotifier{},
		router:      noopRouter{},
		logger:      slog.Default().With("module", "wizard"),
		moduleCode:  moduleCode,
		draftData:   models.StepData{},
		currentStep: 1,
	}

	for _, opt := range opts {
		opt(session)
	}

	return session
}

// ModuleCode returns the module this session's wizard runs for.
func (s *Session) ModuleCode() string {
	return s.moduleCode
}

// Draft returns the loaded draft, or nil before the first save.
func (s *Session) Draft() *models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.draft
}

// DraftID returns the loaded draft's id, or "" before the first save.
func (s *Session) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return ""
	}

	return s.draft.ID
}

// DraftData returns a copy of the local step data mirror.
func (s *Session) DraftData() models.StepData {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.draftData.Clone()
}

// CurrentStep returns the step the session is on.
func (s *Session) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentStep
}

// IsLoading reports whether a load is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

// IsSaving reports whether a save is in flight.
func (s *Session) IsSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saving
}

// LoadDraft fetches a draft and replaces local state wholesale; the current
// step comes from the persisted draft so the user resumes where they left
// off. The route is updated so a reload restores the session.
func (s *Session) LoadDraft(ctx context.Context, draftID string) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	draft, err := s.store.Get(ctx, draftID)
	if err != nil {
		s.notifier.Error("Impossible de charger le brouillon")

		return fmt.Errorf("failed to load draft %s: %w", draftID, err)
	}

	s.mu.Lock()
	s.draft = draft
	s.draftData = draft.Data.Clone()
	s.currentStep = draft.CurrentStep
	s.mu.Unlock()

	s.router.SetDraftID(draft.ID)

	return nil
}

// CheckExistingDraft probes for an active draft of this module belonging to
// the given client. It is a read-only, best-effort check: fetch failures are
// treated as "no duplicate found" so step 1 is never blocked on it.
func (s *Session) CheckExistingDraft(ctx context.Context, clientID string) *models.Draft {
	if clientID == "" {
		return nil
	}

	page, err := s.store.List(ctx, client.DraftFilter{
		ModuleCode: s.moduleCode,
		ClientID:   clientID,
		ActiveOnly: true,
		Page:       1,
		PageSize:   1,
	})
	if err != nil {
		s.logger.Warn("Duplicate-draft probe failed", "client_id", clientID, "error", err)

		return nil
	}

	for _, draft := range page.Items {
		if draft.Active() {
			return draft
		}
	}

	return nil
}

// CreateNewDraft creates an empty draft at step 1. On success local state is
// replaced and the route updated; on failure local state is left untouched
// and the error returned.
func (s *Session) CreateNewDraft(ctx context.Context, clientID *string) (string, error) {
	return s.createNewDraft(ctx, clientID)
}

func (s *Session) createNewDraft(ctx context.Context, clientID *string) (string, error) {
	draft, err := s.store.Create(ctx, s.moduleCode, clientID, 1, models.StepData{})
	if err != nil {
		s.notifier.Error("Impossible de créer le brouillon")

		return "", fmt.Errorf("failed to create draft: %w", err)
	}

	s.mu.Lock()
	s.draft = draft
	s.draftData = draft.Data.Clone()
	s.currentStep = draft.CurrentStep
	s.mu.Unlock()

	s.router.SetDraftID(draft.ID)

	return draft.ID, nil
}

// SaveDraft is the core state transition: it lazily creates the draft on
// first save, merges the step partial into the local mirror, persists, and
// adopts the store's representation. On a failed update the optimistic merge
// is rolled back and the error re-thrown so callers block navigation.
//
// Only one save may be in flight at a time; concurrent calls fail fast with
// ErrSaveInFlight instead of racing duplicate create or update calls.
func (s *Session) SaveDraft(ctx context.Context, stepData models.StepData, targetStep *int, clientID *string) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()

		return ErrSaveInFlight
	}

	s.saving = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
	}()

	s.mu.Lock()
	draft := s.draft
	s.mu.Unlock()

	if draft == nil || draft.ID == "" {
		draftID, err := s.createNewDraft(ctx, clientID)
		if err != nil {
			return err
		}

		// Defensive re-read: adopt the stored draft, not the create
		// response, as the merge baseline.
		fetched, err := s.store.Get(ctx, draftID)
		if err != nil {
			s.notifier.Error("Impossible de relire le brouillon")

			return fmt.Errorf("failed to re-read draft %s: %w", draftID, err)
		}

		s.mu.Lock()
		s.draft = fetched
		s.draftData = fetched.Data.Clone()
		s.mu.Unlock()
	}

	s.mu.Lock()
	snapshot := s.draftData
	merged := s.draftData.Merge(stepData)
	// Optimistic local mirror update before the network call settles.
	s.draftData = merged
	draftID := s.draft.ID
	s.mu.Unlock()

	update := client.DraftUpdate{Data: merged}

	if targetStep != nil {
		update.CurrentStep = targetStep
	}

	// An omitted clientID must not null out an existing client.
	if clientID != nil {
		update.ClientID = clientID
	}

	updated, err := s.store.Update(ctx, draftID, update)
	if err != nil {
		s.mu.Lock()
		s.draftData = snapshot
		s.mu.Unlock()

		s.notifier.Error("L'enregistrement a échoué, veuillez réessayer")

		return fmt.Errorf("failed to save draft %s: %w", draftID, err)
	}

	s.mu.Lock()
	// The store's representation is the source of truth.
	s.draft = updated
	s.draftData = updated.Data.Clone()

	if targetStep != nil {
		s.currentStep = *targetStep
	}
	s.mu.Unlock()

	return nil
}

// Finalize materializes the loaded draft into a folder. The wizard makes
// exactly one call and does not retry.
func (s *Session) Finalize(ctx context.Context) (*models.Folder, error) {
	draftID := s.DraftID()
	if draftID == "" {
		return nil, ErrNoDraft
	}

	folder, err := s.store.Finalize(ctx, draftID)
	if err != nil {
		s.notifier.Error("La création du dossier a échoué")

		return nil, fmt.Errorf("failed to finalize draft %s: %w", draftID, err)
	}

	s.notifier.Info("Dossier créé : " + folder.Reference)

	return folder, nil
}
