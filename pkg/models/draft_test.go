package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepKey(t *testing.T) {
	assert.Equal(t, "step1", StepKey(1))
	assert.Equal(t, "step12", StepKey(12))
}

func TestDraft_Active(t *testing.T) {
	draft := &Draft{ID: "d1"}
	assert.True(t, draft.Active())

	now := time.Now().UTC()
	draft.ArchivedAt = &now
	assert.False(t, draft.Active())
}

func TestStepData_Merge(t *testing.T) {
	tests := []struct {
		name     string
		base     StepData
		partial  StepData
		expected StepData
	}{
		{
			name:     "new step key is added",
			base:     StepData{"step1": {"client_id": "c1"}},
			partial:  StepData{"step2": {"housing_type": "maison"}},
			expected: StepData{"step1": {"client_id": "c1"}, "step2": {"housing_type": "maison"}},
		},
		{
			name:    "existing step bag is replaced whole",
			base:    StepData{"step2": {"housing_type": "maison", "heated_surface_m2": 120.0}},
			partial: StepData{"step2": {"housing_type": "appartement"}},
			// Single-level merge: the incoming bag wins, no deep merge of fields.
			expected: StepData{"step2": {"housing_type": "appartement"}},
		},
		{
			name:     "unrelated step keys are preserved",
			base:     StepData{"step1": {"client_id": "c1"}, "step3": {"etas": 140}},
			partial:  StepData{"step1": {"client_id": "c2"}},
			expected: StepData{"step1": {"client_id": "c2"}, "step3": {"etas": 140}},
		},
		{
			name:     "empty partial changes nothing",
			base:     StepData{"step1": {"client_id": "c1"}},
			partial:  StepData{},
			expected: StepData{"step1": {"client_id": "c1"}},
		},
		{
			name:     "nil base",
			base:     nil,
			partial:  StepData{"step1": {"client_id": "c1"}},
			expected: StepData{"step1": {"client_id": "c1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := tt.base.Merge(tt.partial)
			assert.Equal(t, tt.expected, merged)
		})
	}
}

func TestStepData_MergeDoesNotMutateReceiver(t *testing.T) {
	base := StepData{"step1": {"client_id": "c1"}}
	_ = base.Merge(StepData{"step1": {"client_id": "c2"}})

	assert.Equal(t, "c1", base["step1"]["client_id"])
}

func TestStepData_Clone(t *testing.T) {
	original := StepData{"step1": {"client_id": "c1"}}

	cloned := original.Clone()
	cloned["step1"]["client_id"] = "c2"
	cloned["step2"] = StepBag{"housing_type": "maison"}

	assert.Equal(t, "c1", original["step1"]["client_id"])
	assert.NotContains(t, original, "step2")
}
