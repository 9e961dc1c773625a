package janitor

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/persistence/file"
	"github.com/renoflow/renoflow/pkg/registry"
	"github.com/renoflow/renoflow/pkg/services"
)

func newTestJanitor(t *testing.T, retention time.Duration) (*Janitor, *services.Drafts) {
	t.Helper()

	drafts := services.NewDrafts(
		file.NewPersistence(t.TempDir()),
		registry.NewDefaultRegistry(slog.Default()),
		nil,
	)

	return NewJanitor(drafts, slog.Default(), retention), drafts
}

func TestJanitor_Sweep_ArchivesStaleOnly(t *testing.T) {
	janitor, drafts := newTestJanitor(t, time.Hour)

	fresh, err := drafts.Create(context.Background(), services.CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
		Data:       models.StepData{"step1": {"client_id": "c1"}},
	})
	require.NoError(t, err)

	archived, err := janitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, archived)

	fetched, err := drafts.FetchByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Active())
}

func TestJanitor_Sweep_ZeroRetentionArchivesEverything(t *testing.T) {
	janitor, drafts := newTestJanitor(t, 0)

	var ids []string

	for range 3 {
		draft, err := drafts.Create(context.Background(), services.CreateDraftRequest{
			ModuleCode: registry.ModuleBARTH171,
		})
		require.NoError(t, err)

		ids = append(ids, draft.ID)
	}

	// Everything was updated before "now minus zero".
	time.Sleep(10 * time.Millisecond)

	archived, err := janitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, archived)

	for _, id := range ids {
		draft, err := drafts.FetchByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, draft.Active())
	}
}

func TestJanitor_Sweep_SkipsArchived(t *testing.T) {
	janitor, drafts := newTestJanitor(t, 0)

	draft, err := drafts.Create(context.Background(), services.CreateDraftRequest{
		ModuleCode: registry.ModuleBARTH171,
	})
	require.NoError(t, err)
	require.NoError(t, drafts.Archive(context.Background(), draft.ID, "manual"))

	time.Sleep(10 * time.Millisecond)

	archived, err := janitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, archived)
}

func TestJanitor_Sweep_EmptyStore(t *testing.T) {
	janitor, _ := newTestJanitor(t, time.Hour)

	archived, err := janitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, archived)
}
