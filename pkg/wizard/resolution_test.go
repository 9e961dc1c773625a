package wizard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoflow/renoflow/pkg/models"
)

func TestResolveClientSelection_NoDuplicate(t *testing.T) {
	store := newFakeStore()
	session := NewSession(store, "BAR-TH-171")

	assert.Nil(t, session.ResolveClientSelection(context.Background(), "c1"))
	assert.Nil(t, session.ResolveClientSelection(context.Background(), ""))
}

func TestResolveClientSelection_FindsDuplicate(t *testing.T) {
	store := newFakeStore()

	existing, err := store.Create(context.Background(), "BAR-TH-171", strPtr("c1"), 1, models.StepData{})
	require.NoError(t, err)

	session := NewSession(store, "BAR-TH-171")

	resolution := session.ResolveClientSelection(context.Background(), "c1")
	require.NotNil(t, resolution)
	assert.Equal(t, existing.ID, resolution.Existing.ID)
}

func TestResolveClientSelection_OwnDraftIsNotADuplicate(t *testing.T) {
	store := newFakeStore()
	session := NewSession(store, "BAR-TH-171")

	require.NoError(t, session.SaveDraft(context.Background(),
		models.StepData{"step1": {"client_id": "c1"}}, nil, strPtr("c1")))

	// Re-selecting the same client on the already attached draft must not
	// prompt the user.
	assert.Nil(t, session.ResolveClientSelection(context.Background(), "c1"))
}

func TestResolveClientSelection_ProbeFailureProceeds(t *testing.T) {
	store := newFakeStore()

	_, err := store.Create(context.Background(), "BAR-TH-171", strPtr("c1"), 1, models.StepData{})
	require.NoError(t, err)

	store.failList = true

	session := NewSession(store, "BAR-TH-171")

	assert.Nil(t, session.ResolveClientSelection(context.Background(), "c1"))
}

func TestResolution_Resume(t *testing.T) {
	store := newFakeStore()

	existing, err := store.Create(context.Background(), "BAR-TH-171", strPtr("c1"), 1,
		models.StepData{"step1": {"client_id": "c1"}})
	require.NoError(t, err)

	session := NewSession(store, "BAR-TH-171")

	resolution := session.ResolveClientSelection(context.Background(), "c1")
	require.NotNil(t, resolution)

	require.NoError(t, resolution.Resume(context.Background()))

	assert.Equal(t, existing.ID, session.DraftID())
	assert.Equal(t, "c1", session.DraftData()["step1"]["client_id"])
}

func TestResolution_StartNew_ArchivesSuperseded(t *testing.T) {
	store := newFakeStore()

	existing, err := store.Create(context.Background(), "BAR-TH-171", strPtr("c1"), 1, models.StepData{})
	require.NoError(t, err)

	session := NewSession(store, "BAR-TH-171")

	resolution := session.ResolveClientSelection(context.Background(), "c1")
	require.NotNil(t, resolution)

	draftID, err := resolution.StartNew(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, draftID)
	assert.Equal(t, draftID, session.DraftID())

	// The superseded draft no longer counts as a duplicate.
	store.mu.Lock()
	archived := store.drafts[existing.ID]
	store.mu.Unlock()
	assert.False(t, archived.Active())
}

func TestResolution_StartNew_ArchiveFailureDoesNotBlock(t *testing.T) {
	store := newFakeStore()

	_, err := store.Create(context.Background(), "BAR-TH-171", strPtr("c1"), 1, models.StepData{})
	require.NoError(t, err)

	session := NewSession(store, "BAR-TH-171")

	resolution := session.ResolveClientSelection(context.Background(), "c1")
	require.NotNil(t, resolution)

	store.failArchive = true

	draftID, err := resolution.StartNew(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, draftID)
}
