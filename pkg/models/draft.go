// Package models defines the core domain models for renovation case-file drafts.
package models

import (
	"fmt"
	"time"
)

// Draft represents one in-progress, not-yet-finalized case file for a
// specific regulatory module. A draft is created on first save, not on
// wizard entry, and keeps one validated data bag per completed step.
type Draft struct {
	ID          string     `json:"id"`
	ModuleCode  string     `json:"module_code"           validate:"required"`
	ClientID    *string    `json:"client_id,omitempty"`
	CurrentStep int        `json:"current_step"          validate:"min=1"`
	Data        StepData   `json:"data"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Active reports whether the draft still counts for "current" listings and
// duplicate detection.
func (d *Draft) Active() bool {
	return d.ArchivedAt == nil
}

// StepBag holds the validated field set of a single wizard step.
type StepBag map[string]any

// StepData maps step keys ("step1", "step2", ...) to their bags.
type StepData map[string]StepBag

// StepKey returns the data key for a step number.
func StepKey(step int) string {
	return fmt.Sprintf("step%d", step)
}

// Merge returns a new StepData with partial's step keys overwriting the
// receiver's. The merge is single-level: a bag present in partial replaces
// the whole bag for that step, unrelated step keys are preserved.
func (sd StepData) Merge(partial StepData) StepData {
	merged := make(StepData, len(sd)+len(partial))
	for key, bag := range sd {
		merged[key] = bag
	}

	for key, bag := range partial {
		merged[key] = bag
	}

	return merged
}

// Clone returns a copy of the step data with copied bags, so callers can
// mutate the result without aliasing the original.
func (sd StepData) Clone() StepData {
	cloned := make(StepData, len(sd))
	for key, bag := range sd {
		bagCopy := make(StepBag, len(bag))
		for field, value := range bag {
			bagCopy[field] = value
		}

		cloned[key] = bagCopy
	}

	return cloned
}
