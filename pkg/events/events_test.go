package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseEvent_Validate(t *testing.T) {
	event := BaseEvent{Type: DraftCreatedEvent}
	assert.ErrorIs(t, event.Validate(), ErrMissingDraftID)

	event.DraftID = "d1"
	assert.NoError(t, event.Validate())
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, DraftCreatedEvent, DraftCreated{}.GetType())
	assert.Equal(t, DraftStepAdvancedEvent, DraftStepAdvanced{}.GetType())
	assert.Equal(t, DraftArchivedEvent, DraftArchived{}.GetType())
	assert.Equal(t, DraftFinalizedEvent, DraftFinalized{}.GetType())
}
