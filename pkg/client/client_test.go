package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoflow/renoflow/pkg/models"
)

func TestHTTPStore_Create(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/drafts", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "BAR-TH-171", payload["module_code"])
		assert.Equal(t, "c1", payload["client_id"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Draft{ID: "d1", ModuleCode: "BAR-TH-171", CurrentStep: 1})
	}))
	defer server.Close()

	store := NewHTTPStore(server.URL, nil)

	clientID := "c1"
	draft, err := store.Create(context.Background(), "BAR-TH-171", &clientID, 1, models.StepData{})
	require.NoError(t, err)
	assert.Equal(t, "d1", draft.ID)
}

func TestHTTPStore_Update_OmitsNilFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		// Nil CurrentStep and ClientID must not appear in the request at
		// all; a present null client_id would wipe the stored client.
		assert.NotContains(t, payload, "client_id")
		assert.NotContains(t, payload, "current_step")
		assert.Contains(t, payload, "data")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.Draft{ID: "d1"})
	}))
	defer server.Close()

	store := NewHTTPStore(server.URL, nil)

	_, err := store.Update(context.Background(), "d1", DraftUpdate{
		Data: models.StepData{"step2": {"housing_type": "maison"}},
	})
	require.NoError(t, err)
}

func TestHTTPStore_List_QueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "BAR-TH-171", query.Get("module_code"))
		assert.Equal(t, "c1", query.Get("client_id"))
		assert.Equal(t, "true", query.Get("active"))
		assert.Equal(t, "1", query.Get("page"))
		assert.Equal(t, "1", query.Get("pageSize"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(DraftPage{Items: []*models.Draft{{ID: "d1"}}, Total: 1})
	}))
	defer server.Close()

	store := NewHTTPStore(server.URL, nil)

	page, err := store.List(context.Background(), DraftFilter{
		ModuleCode: "BAR-TH-171",
		ClientID:   "c1",
		ActiveOnly: true,
		Page:       1,
		PageSize:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
}

func TestHTTPStore_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		checkError func(t *testing.T, err error)
	}{
		{
			name:   "404 maps to not found",
			status: http.StatusNotFound,
			body:   `{"detail":"Draft not found"}`,
			checkError: func(t *testing.T, err error) {
				t.Helper()
				assert.True(t, IsNotFound(err))
			},
		},
		{
			name:   "400 maps to validation",
			status: http.StatusBadRequest,
			body:   `{"detail":"step 9 out of range"}`,
			checkError: func(t *testing.T, err error) {
				t.Helper()
				assert.True(t, IsValidation(err))
				assert.Contains(t, err.Error(), "step 9 out of range")
			},
		},
		{
			name:   "409 maps to conflict",
			status: http.StatusConflict,
			body:   `{"detail":"draft is archived"}`,
			checkError: func(t *testing.T, err error) {
				t.Helper()
				assert.ErrorIs(t, err, ErrConflict)
			},
		},
		{
			name:   "500 maps to network",
			status: http.StatusInternalServerError,
			body:   `{}`,
			checkError: func(t *testing.T, err error) {
				t.Helper()
				assert.True(t, IsNetwork(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			store := NewHTTPStore(server.URL, nil)

			_, err := store.Get(context.Background(), "d1")
			require.Error(t, err)
			tt.checkError(t, err)
		})
	}
}

func TestHTTPStore_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	store := NewHTTPStore(server.URL, nil)

	_, err := store.Get(context.Background(), "d1")
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

func TestHTTPStore_Archive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drafts/d1/archive", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "stale draft", payload["reason"])

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := NewHTTPStore(server.URL, nil)

	require.NoError(t, store.Archive(context.Background(), "d1", "stale draft"))
}

func TestHTTPStore_Finalize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drafts/d1/finalize", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Folder{ID: "f1", DraftID: "d1", Reference: "CEE-2026-ABCDEF12"})
	}))
	defer server.Close()

	store := NewHTTPStore(server.URL, nil)

	folder, err := store.Finalize(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "CEE-2026-ABCDEF12", folder.Reference)
}
