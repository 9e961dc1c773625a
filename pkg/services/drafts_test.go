package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/persistence/file"
	"github.com/renoflow/renoflow/pkg/registry"
)

func newTestService(t *testing.T) *Drafts {
	t.Helper()

	return NewDrafts(
		file.NewPersistence(t.TempDir()),
		registry.NewDefaultRegistry(slog.Default()),
		nil,
	)
}

func strPtr(s string) *string {
	return &s
}

func intPtr(n int) *int {
	return &n
}

func completeDraftData() models.StepData {
	return models.StepData{
		"step1": {"client_id": "c1"},
		"step2": {
			"housing_type":              "maison",
			"construction_over_2_years": true,
			"heated_surface_m2":         120.0,
		},
		"step3": {
			"etas":            140,
			"heating_energy":  "electricite",
			"regulator_class": "VI",
		},
		"step4": {
			"occupants":               2,
			"fiscal_reference_income": 30000.0,
			"owner_occupant":          true,
		},
		"step5": {"accepted_terms": true},
	}
}

func TestDrafts_Create(t *testing.T) {
	service := newTestService(t)

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
		ClientID:   strPtr("c1"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, 1, draft.CurrentStep)
	assert.NotNil(t, draft.Data)
	assert.True(t, draft.Active())

	fetched, err := service.FetchByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, fetched.ID)
}

func TestDrafts_Create_Validation(t *testing.T) {
	service := newTestService(t)

	_, err := service.Create(context.Background(), CreateDraftRequest{ModuleCode: "BAR-TH-999"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, ErrUnknownModule)

	_, err = service.Create(context.Background(), CreateDraftRequest{
		ModuleCode:  registry.ModuleBARTH171,
		CurrentStep: 9,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestDrafts_FetchByID_NotFound(t *testing.T) {
	service := newTestService(t)

	_, err := service.FetchByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDrafts_Update_MergesTopLevel(t *testing.T) {
	service := newTestService(t)

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
		Data:       models.StepData{"step1": {"client_id": "c1"}},
	})
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), draft.ID, UpdateDraftRequest{
		Data:        models.StepData{"step2": {"housing_type": "maison"}},
		CurrentStep: intPtr(3),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, updated.CurrentStep)
	assert.Contains(t, updated.Data, "step1")
	assert.Contains(t, updated.Data, "step2")
}

func TestDrafts_Update_OmittedClientIDUntouched(t *testing.T) {
	service := newTestService(t)

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
		ClientID:   strPtr("c1"),
	})
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), draft.ID, UpdateDraftRequest{
		Data: models.StepData{"step2": {"housing_type": "maison"}},
	})
	require.NoError(t, err)

	require.NotNil(t, updated.ClientID)
	assert.Equal(t, "c1", *updated.ClientID)
}

func TestDrafts_Update_InvalidStep(t *testing.T) {
	service := newTestService(t)

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
	})
	require.NoError(t, err)

	_, err = service.Update(context.Background(), draft.ID, UpdateDraftRequest{CurrentStep: intPtr(6)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestDrafts_Update_ArchivedDraftRejected(t *testing.T) {
	service := newTestService(t)

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
	})
	require.NoError(t, err)

	require.NoError(t, service.Archive(context.Background(), draft.ID, "test"))

	_, err = service.Update(context.Background(), draft.ID, UpdateDraftRequest{
		Data: models.StepData{"step2": {"housing_type": "maison"}},
	})
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestDrafts_List(t *testing.T) {
	service := newTestService(t)

	for _, clientID := range []string{"c1", "c2"} {
		_, err := service.Create(context.Background(), CreateDraftRequest{
			ModuleCode: registry.ModuleBARTH171,
			ClientID:   strPtr(clientID),
		})
		require.NoError(t, err)
	}

	archived, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH175,
		ClientID:   strPtr("c1"),
	})
	require.NoError(t, err)
	require.NoError(t, service.Archive(context.Background(), archived.ID, "test"))

	result, err := service.List(context.Background(), ListDraftsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalCount)

	result, err = service.List(context.Background(), ListDraftsRequest{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalCount)

	result, err = service.List(context.Background(), ListDraftsRequest{
		ModuleCode: registry.ModuleBARTH175,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalCount)

	result, err = service.List(context.Background(), ListDraftsRequest{ClientID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalCount)
}

func TestDrafts_List_Validation(t *testing.T) {
	service := newTestService(t)

	_, err := service.List(context.Background(), ListDraftsRequest{SortBy: "name"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSortField)

	_, err = service.List(context.Background(), ListDraftsRequest{SortOrder: "sideways"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSortOrder)
}

func TestDrafts_Archive_Idempotent(t *testing.T) {
	service := newTestService(t)

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
	})
	require.NoError(t, err)

	require.NoError(t, service.Archive(context.Background(), draft.ID, "first"))
	require.NoError(t, service.Archive(context.Background(), draft.ID, "second"))

	fetched, err := service.FetchByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Active())
}

func TestDrafts_Archive_NotFound(t *testing.T) {
	service := newTestService(t)

	err := service.Archive(context.Background(), "missing", "test")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDrafts_Finalize(t *testing.T) {
	service := newTestService(t)

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode:  registry.ModuleBARTH171,
		ClientID:    strPtr("c1"),
		CurrentStep: 5,
		Data:        completeDraftData(),
	})
	require.NoError(t, err)

	folder, err := service.Finalize(context.Background(), draft.ID)
	require.NoError(t, err)

	assert.Equal(t, draft.ID, folder.DraftID)
	assert.Equal(t, registry.ModuleBARTH171, folder.ModuleCode)
	assert.Regexp(t, `^CEE-\d{4}-[0-9A-F]{8}$`, folder.Reference)

	// Finalizing archives the draft.
	fetched, err := service.FetchByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Active())

	stored, err := service.FetchFolder(context.Background(), folder.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.Reference, stored.Reference)
}

func TestDrafts_Finalize_Incomplete(t *testing.T) {
	service := newTestService(t)

	data := completeDraftData()
	delete(data, "step3")

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
		ClientID:   strPtr("c1"),
		Data:       data,
	})
	require.NoError(t, err)

	_, err = service.Finalize(context.Background(), draft.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDraftIncomplete)
}

func TestDrafts_Finalize_InvalidStepData(t *testing.T) {
	service := newTestService(t)

	data := completeDraftData()
	data["step5"] = models.StepBag{"accepted_terms": false}

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
		ClientID:   strPtr("c1"),
		Data:       data,
	})
	require.NoError(t, err)

	_, err = service.Finalize(context.Background(), draft.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDraftIncomplete)
}

func TestDrafts_Finalize_RequiresClient(t *testing.T) {
	service := newTestService(t)

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
		Data:       completeDraftData(),
	})
	require.NoError(t, err)

	_, err = service.Finalize(context.Background(), draft.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClientRequired)
}

func TestDrafts_Finalize_ArchivedDraft(t *testing.T) {
	service := newTestService(t)

	draft, err := service.Create(context.Background(), CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
		ClientID:   strPtr("c1"),
		Data:       completeDraftData(),
	})
	require.NoError(t, err)
	require.NoError(t, service.Archive(context.Background(), draft.ID, "test"))

	_, err = service.Finalize(context.Background(), draft.ID)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestDrafts_FetchFolder_NotFound(t *testing.T) {
	service := newTestService(t)

	_, err := service.FetchFolder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrFolderNotFound)
}
