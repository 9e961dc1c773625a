// Package events defines event types and structures for draft lifecycle notifications.
package events

import (
	"errors"
	"time"
)

type EventType string

// Topic carries all draft lifecycle events.
const Topic = "renoflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Draft lifecycle events.
	DraftCreatedEvent      EventType = "draft.created"
	DraftStepAdvancedEvent EventType = "draft.step_advanced"
	DraftArchivedEvent     EventType = "draft.archived"
	DraftFinalizedEvent    EventType = "draft.finalized"
)

var ErrMissingDraftID = errors.New("event is missing draft id")

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	DraftID    string         `json:"draft_id"`
	ModuleCode string         `json:"module_code"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Validate checks that the event addresses a draft.
func (b BaseEvent) Validate() error {
	if b.DraftID == "" {
		return ErrMissingDraftID
	}

	return nil
}

type DraftCreated struct {
	BaseEvent

	ClientID *string `json:"client_id,omitempty"`
}

func (d DraftCreated) GetType() EventType {
	return DraftCreatedEvent
}

type DraftStepAdvanced struct {
	BaseEvent

	FromStep int `json:"from_step"`
	ToStep   int `json:"to_step"`
}

func (d DraftStepAdvanced) GetType() EventType {
	return DraftStepAdvancedEvent
}

type DraftArchived struct {
	BaseEvent

	Reason string `json:"reason,omitempty"`
}

func (d DraftArchived) GetType() EventType {
	return DraftArchivedEvent
}

type DraftFinalized struct {
	BaseEvent

	FolderID string `json:"folder_id"`
}

func (d DraftFinalized) GetType() EventType {
	return DraftFinalizedEvent
}
