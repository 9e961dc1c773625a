package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/persistence"
)

func strPtr(s string) *string {
	return &s
}

func saveDraft(t *testing.T, repo persistence.DraftRepository, id, moduleCode string, clientID *string, step int) *models.Draft {
	t.Helper()

	draft := &models.Draft{
		ID:          id,
		ModuleCode:  moduleCode,
		ClientID:    clientID,
		CurrentStep: step,
		Data:        models.StepData{},
	}
	require.NoError(t, repo.Save(context.Background(), draft))

	return draft
}

func TestFilePersistence_HealthCheckAndClose(t *testing.T) {
	p := NewPersistence(t.TempDir())

	require.NoError(t, p.HealthCheck(context.Background()))
	require.NoError(t, p.Close(context.Background()))
}

func TestFilePersistence_URLPrefixStripped(t *testing.T) {
	dir := t.TempDir()
	p := NewPersistence("file://" + dir)

	saveDraft(t, p.DraftRepository(), "d1", "BAR-TH-171", nil, 1)

	draft, err := p.DraftRepository().GetByID(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, draft)
}

func TestDraftRepository_SaveAndGetByID(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.DraftRepository()

	draft := &models.Draft{
		ID:          "d1",
		ModuleCode:  "BAR-TH-171",
		ClientID:    strPtr("c1"),
		CurrentStep: 2,
		Data: models.StepData{
			"step1": {"client_id": "c1"},
		},
	}

	require.NoError(t, repo.Save(context.Background(), draft))
	assert.False(t, draft.CreatedAt.IsZero())
	assert.False(t, draft.UpdatedAt.IsZero())

	fetched, err := repo.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "BAR-TH-171", fetched.ModuleCode)
	assert.Equal(t, 2, fetched.CurrentStep)
	assert.Equal(t, "c1", fetched.Data["step1"]["client_id"])
}

func TestDraftRepository_GetByID_MissingReturnsNil(t *testing.T) {
	p := NewPersistence(t.TempDir())

	draft, err := p.DraftRepository().GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestDraftRepository_List(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.DraftRepository()

	saveDraft(t, repo, "d1", "BAR-TH-171", strPtr("c1"), 1)
	saveDraft(t, repo, "d2", "BAR-TH-171", strPtr("c2"), 3)
	saveDraft(t, repo, "d3", "BAR-TH-175", strPtr("c1"), 2)
	require.NoError(t, repo.Archive(context.Background(), "d2", time.Now().UTC()))

	t.Run("no filter", func(t *testing.T) {
		result, err := repo.List(context.Background(), persistence.ListDraftsOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.TotalCount)
		assert.False(t, result.HasNextPage)
	})

	t.Run("module filter", func(t *testing.T) {
		result, err := repo.List(context.Background(), persistence.ListDraftsOptions{
			ModuleCode: "BAR-TH-175",
		})
		require.NoError(t, err)
		require.Len(t, result.Drafts, 1)
		assert.Equal(t, "d3", result.Drafts[0].ID)
	})

	t.Run("client and active filter", func(t *testing.T) {
		result, err := repo.List(context.Background(), persistence.ListDraftsOptions{
			ClientID:   "c2",
			ActiveOnly: true,
		})
		require.NoError(t, err)
		assert.Empty(t, result.Drafts)
	})

	t.Run("sort by current_step asc", func(t *testing.T) {
		result, err := repo.List(context.Background(), persistence.ListDraftsOptions{
			SortBy:    "current_step",
			SortOrder: "asc",
		})
		require.NoError(t, err)
		require.Len(t, result.Drafts, 3)
		assert.Equal(t, 1, result.Drafts[0].CurrentStep)
		assert.Equal(t, 3, result.Drafts[2].CurrentStep)
	})

	t.Run("pagination", func(t *testing.T) {
		result, err := repo.List(context.Background(), persistence.ListDraftsOptions{
			Limit:     2,
			SortBy:    "current_step",
			SortOrder: "asc",
		})
		require.NoError(t, err)
		assert.Len(t, result.Drafts, 2)
		assert.True(t, result.HasNextPage)

		result, err = repo.List(context.Background(), persistence.ListDraftsOptions{
			Limit:     2,
			Offset:    2,
			SortBy:    "current_step",
			SortOrder: "asc",
		})
		require.NoError(t, err)
		assert.Len(t, result.Drafts, 1)
		assert.False(t, result.HasNextPage)
	})

	t.Run("offset past the end", func(t *testing.T) {
		result, err := repo.List(context.Background(), persistence.ListDraftsOptions{Offset: 50})
		require.NoError(t, err)
		assert.Empty(t, result.Drafts)
		assert.Equal(t, int64(3), result.TotalCount)
	})

	t.Run("invalid sort field", func(t *testing.T) {
		_, err := repo.List(context.Background(), persistence.ListDraftsOptions{SortBy: "name"})
		assert.True(t, persistence.IsInvalidSortField(err))
	})
}

func TestDraftRepository_List_EmptyRoot(t *testing.T) {
	p := NewPersistence(t.TempDir())

	result, err := p.DraftRepository().List(context.Background(), persistence.ListDraftsOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Drafts)
	assert.Equal(t, int64(0), result.TotalCount)
}

func TestDraftRepository_Archive(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.DraftRepository()

	saveDraft(t, repo, "d1", "BAR-TH-171", nil, 1)

	at := time.Now().UTC()
	require.NoError(t, repo.Archive(context.Background(), "d1", at))

	draft, err := repo.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, draft.ArchivedAt)

	// Archiving again keeps the first timestamp.
	require.NoError(t, repo.Archive(context.Background(), "d1", at.Add(time.Hour)))

	draft, err = repo.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, draft.ArchivedAt.Equal(at))
}

func TestDraftRepository_Archive_NotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	err := p.DraftRepository().Archive(context.Background(), "missing", time.Now().UTC())
	assert.True(t, persistence.IsDraftNotFound(err))
}

func TestDraftRepository_Delete(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.DraftRepository()

	saveDraft(t, repo, "d1", "BAR-TH-171", nil, 1)

	require.NoError(t, repo.Delete(context.Background(), "d1"))

	draft, err := repo.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Nil(t, draft)

	// Deleting a missing draft is a no-op.
	require.NoError(t, repo.Delete(context.Background(), "d1"))
}

func TestFolderRepository_SaveIsWriteOnce(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.FolderRepository()

	folder := &models.Folder{
		ID:         "f1",
		DraftID:    "d1",
		ModuleCode: "BAR-TH-171",
		ClientID:   strPtr("c1"),
		Reference:  "CEE-2026-ABCDEF12",
		CreatedAt:  time.Now().UTC(),
	}

	require.NoError(t, repo.Save(context.Background(), folder))

	err := repo.Save(context.Background(), folder)
	require.Error(t, err)

	fetched, err := repo.GetByID(context.Background(), "f1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, folder.Reference, fetched.Reference)
}

func TestFolderRepository_ListByClient(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.FolderRepository()

	for i, clientID := range []string{"c1", "c1", "c2"} {
		folder := &models.Folder{
			ID:         "f" + string(rune('1'+i)),
			DraftID:    "d1",
			ModuleCode: "BAR-TH-171",
			ClientID:   strPtr(clientID),
			Reference:  "CEE-2026-TEST",
			CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Save(context.Background(), folder))
	}

	folders, err := repo.ListByClient(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, folders, 2)

	// Newest first.
	assert.False(t, folders[0].CreatedAt.Before(folders[1].CreatedAt))
}
