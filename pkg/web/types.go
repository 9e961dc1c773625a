// Package web provides HTTP request and response types for the draft API.
package web

import "github.com/renoflow/renoflow/pkg/models"

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreateDraftRequest represents the request body for creating a new draft.
type CreateDraftRequest struct {
	ModuleCode  string          `json:"module_code"            validate:"required"`
	ClientID    *string         `json:"client_id,omitempty"`
	CurrentStep int             `json:"current_step,omitempty" validate:"omitempty,min=1"`
	Data        models.StepData `json:"data,omitempty"`
}

// UpdateDraftRequest represents the request body for partially updating a draft.
// All fields are optional; omitted fields are left untouched.
type UpdateDraftRequest struct {
	Data        models.StepData `json:"data,omitempty"`
	CurrentStep *int            `json:"current_step,omitempty" validate:"omitempty,min=1"`
	ClientID    *string         `json:"client_id,omitempty"`
}

// ArchiveDraftRequest represents the request body for archiving a draft.
type ArchiveDraftRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ListDraftsResponse represents the paginated draft listing payload.
type ListDraftsResponse struct {
	Items []*models.Draft `json:"items"`
	Total int64           `json:"total"`
}

// StepSchemaResponse carries one step's validation schema.
type StepSchemaResponse struct {
	ModuleCode string             `json:"module_code"`
	Step       int                `json:"step"`
	Schema     *models.JSONSchema `json:"schema"`
}
