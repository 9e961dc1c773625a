package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/renoflow/renoflow/pkg/models"
)

// DraftUpdate is a partial draft update. Nil fields are omitted from the
// request, so an absent ClientID never nulls out an existing client.
type DraftUpdate struct {
	Data        models.StepData `json:"data,omitempty"`
	CurrentStep *int            `json:"current_step,omitempty"`
	ClientID    *string         `json:"client_id,omitempty"`
}

// DraftFilter narrows a draft listing.
type DraftFilter struct {
	ModuleCode string
	ClientID   string
	ActiveOnly bool
	Page       int
	PageSize   int
}

// DraftPage is one page of a draft listing.
type DraftPage struct {
	Items []*models.Draft `json:"items"`
	Total int64           `json:"total"`
}

// HTTPStore talks to the draft store REST API. Every call surfaces failures
// synchronously; no retries are performed at this layer.
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPStore creates a store client for the given API base URL. A nil
// httpClient falls back to http.DefaultClient; callers impose timeouts
// through the per-call context.
func NewHTTPStore(baseURL string, httpClient *http.Client) *HTTPStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Create stores a new draft.
func (s *HTTPStore) Create(ctx context.Context, moduleCode string, clientID *string, currentStep int, data models.StepData) (*models.Draft, error) {
	payload := map[string]any{
		"module_code":  moduleCode,
		"current_step": currentStep,
		"data":         data,
	}
	if clientID != nil {
		payload["client_id"] = *clientID
	}

	var draft models.Draft

	err := s.do(ctx, http.MethodPost, "/drafts", payload, &draft)
	if err != nil {
		return nil, err
	}

	return &draft, nil
}

// Get fetches a draft by id.
func (s *HTTPStore) Get(ctx context.Context, draftID string) (*models.Draft, error) {
	var draft models.Draft

	err := s.do(ctx, http.MethodGet, "/drafts/"+url.PathEscape(draftID), nil, &draft)
	if err != nil {
		return nil, err
	}

	return &draft, nil
}

// Update applies a partial update and returns the store's representation.
func (s *HTTPStore) Update(ctx context.Context, draftID string, update DraftUpdate) (*models.Draft, error) {
	var draft models.Draft

	err := s.do(ctx, http.MethodPatch, "/drafts/"+url.PathEscape(draftID), update, &draft)
	if err != nil {
		return nil, err
	}

	return &draft, nil
}

// List returns one page of drafts matching the filter.
func (s *HTTPStore) List(ctx context.Context, filter DraftFilter) (*DraftPage, error) {
	query := url.Values{}

	if filter.ModuleCode != "" {
		query.Set("module_code", filter.ModuleCode)
	}

	if filter.ClientID != "" {
		query.Set("client_id", filter.ClientID)
	}

	if filter.ActiveOnly {
		query.Set("active", "true")
	}

	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}

	if filter.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(filter.PageSize))
	}

	path := "/drafts"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page DraftPage

	err := s.do(ctx, http.MethodGet, path, nil, &page)
	if err != nil {
		return nil, err
	}

	return &page, nil
}

// Archive marks a draft as archived.
func (s *HTTPStore) Archive(ctx context.Context, draftID, reason string) error {
	payload := map[string]any{}
	if reason != "" {
		payload["reason"] = reason
	}

	return s.do(ctx, http.MethodPost, "/drafts/"+url.PathEscape(draftID)+"/archive", payload, nil)
}

// Finalize materializes a completed draft into a folder.
func (s *HTTPStore) Finalize(ctx context.Context, draftID string) (*models.Folder, error) {
	var folder models.Folder

	err := s.do(ctx, http.MethodPost, "/drafts/"+url.PathEscape(draftID)+"/finalize", nil, &folder)
	if err != nil {
		return nil, err
	}

	return &folder, nil
}

// do issues one HTTP request and decodes the response, mapping HTTP error
// statuses to the store's typed errors.
func (s *HTTPStore) do(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}

		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return s.errorFromResponse(resp, path)
	}

	if result == nil {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(result)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// errorFromResponse maps an error response to a typed store error, using
// the problem+json detail when present.
func (s *HTTPStore) errorFromResponse(resp *http.Response, path string) error {
	detail := resp.Status

	var problem struct {
		Detail string `json:"detail"`
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(raw) > 0 {
		if json.Unmarshal(raw, &problem) == nil && problem.Detail != "" {
			detail = problem.Detail
		}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &NotFoundError{ID: path}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Detail: detail}
	case http.StatusConflict:
		return &ConflictError{Detail: detail}
	default:
		return &NetworkError{Op: path, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail)}
	}
}
