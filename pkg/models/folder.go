package models

import "time"

// Folder is the finalized case file materialized from a completed draft.
// Folders are immutable once created; the originating draft is archived as
// part of finalization.
type Folder struct {
	ID         string    `json:"id"`
	DraftID    string    `json:"draft_id"`
	ModuleCode string    `json:"module_code"`
	ClientID   *string   `json:"client_id,omitempty"`
	Reference  string    `json:"reference"`
	CreatedAt  time.Time `json:"created_at"`
}
