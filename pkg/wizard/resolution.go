package wizard

import (
	"context"

	"github.com/renoflow/renoflow/pkg/models"
)

// Resolution is a pending duplicate-draft decision: an active draft for the
// selected client already exists, and the user chooses between resuming it
// and starting over.
type Resolution struct {
	session  *Session
	clientID string

	// Existing is the active draft found for the selected client.
	Existing *models.Draft
}

// ResolveClientSelection runs the duplicate check after a client is selected
// on the first step. It returns a pending Resolution when an active draft
// for the same module and client exists and is not the one already loaded,
// and nil when the selection can proceed without asking the user.
//
// The probe is best-effort: when it fails the selection proceeds as if no
// duplicate existed.
func (s *Session) ResolveClientSelection(ctx context.Context, clientID string) *Resolution {
	if clientID == "" {
		return nil
	}

	if draft := s.Draft(); draft != nil && draft.ClientID != nil && *draft.ClientID == clientID {
		return nil
	}

	existing := s.CheckExistingDraft(ctx, clientID)
	if existing == nil {
		return nil
	}

	if existing.ID == s.DraftID() {
		return nil
	}

	return &Resolution{
		session:  s,
		clientID: clientID,
		Existing: existing,
	}
}

// Resume loads the existing draft into the session; the user continues where
// that draft left off.
func (r *Resolution) Resume(ctx context.Context) error {
	return r.session.LoadDraft(ctx, r.Existing.ID)
}

// StartNew archives the existing draft and creates a fresh one for the
// client. Archiving is best-effort: a failure there must not block the user
// from starting over.
func (r *Resolution) StartNew(ctx context.Context) (string, error) {
	err := r.session.store.Archive(ctx, r.Existing.ID, "replaced by a new draft")
	if err != nil {
		r.session.logger.Warn("Failed to archive superseded draft",
			"draft_id", r.Existing.ID, "error", err)
	}

	return r.session.CreateNewDraft(ctx, &r.clientID)
}
