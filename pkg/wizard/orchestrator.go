package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/registry"
)

var (
	// ErrAlreadyAtFirstStep is returned by Previous on step 1.
	ErrAlreadyAtFirstStep = errors.New("already at the first step")

	// ErrNotAtFinalStep is returned by Finalize before the last step.
	ErrNotAtFinalStep = errors.New("not at the final step")

	// ErrStepNotReached is returned when a jump targets a step the draft has
	// not progressed to. Routes are not authoritative for step position.
	ErrStepNotReached = errors.New("step not reached yet")
)

// StepValidationError carries the field errors that blocked a step
// transition. No persistence happened: the failing step's data stays local.
type StepValidationError struct {
	Step   int
	Result *registry.ValidationResult
}

func (e *StepValidationError) Error() string {
	return fmt.Sprintf("step %d validation failed: %s", e.Step, e.Result.Summary())
}

// Disqualifying reports whether the failure makes the case ineligible for
// the module rather than merely malformed.
func (e *StepValidationError) Disqualifying() bool {
	return e.Result.Disqualifying()
}

// Orchestrator sequences a module's wizard steps over a session: forward
// navigation validates then persists then advances, backward navigation is
// always permitted, and the final step finalizes into a folder.
type Orchestrator struct {
	session  *Session
	registry *registry.Registry
	steps    int
}

// NewOrchestrator creates an orchestrator for the session's module. It fails
// when the module is not registered.
func NewOrchestrator(session *Session, reg *registry.Registry) (*Orchestrator, error) {
	steps, err := reg.StepCount(session.ModuleCode())
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		session:  session,
		registry: reg,
		steps:    steps,
	}, nil
}

// CurrentStep returns the step the wizard is on.
func (o *Orchestrator) CurrentStep() int {
	return o.session.CurrentStep()
}

// StepCount returns the module's total step count.
func (o *Orchestrator) StepCount() int {
	return o.steps
}

// AtFinalStep reports whether the wizard is on the last step.
func (o *Orchestrator) AtFinalStep() bool {
	return o.session.CurrentStep() >= o.steps
}

// Next validates the current step's bag and, only if it passes, persists the
// bag and advances one step in a single save. A validation failure returns a
// StepValidationError before any network call, and the step pointer does not
// move when the save fails.
func (o *Orchestrator) Next(ctx context.Context, bag models.StepBag) error {
	current := o.session.CurrentStep()
	if current >= o.steps {
		return ErrNotAtFinalStep
	}

	result, err := o.registry.ValidateStep(o.session.ModuleCode(), current, bag)
	if err != nil {
		return fmt.Errorf("failed to validate step %d: %w", current, err)
	}

	if !result.Valid() {
		return &StepValidationError{Step: current, Result: result}
	}

	target := current + 1

	return o.session.SaveDraft(ctx, models.StepData{models.StepKey(current): bag}, &target, clientIDFromBag(current, bag))
}

// Previous moves one step back. It is always permitted, never validates, and
// touches no step data: the save only rewinds the persisted step pointer, so
// data entered on later steps survives backward navigation.
func (o *Orchestrator) Previous(ctx context.Context) error {
	current := o.session.CurrentStep()
	if current <= 1 {
		return ErrAlreadyAtFirstStep
	}

	target := current - 1

	return o.session.SaveDraft(ctx, models.StepData{}, &target, nil)
}

// JumpTo moves directly to a previously reached step. Forward jumps past the
// draft's recorded progress are rejected.
func (o *Orchestrator) JumpTo(ctx context.Context, step int) error {
	if step < 1 || step > o.steps {
		return fmt.Errorf("step %d out of range 1..%d", step, o.steps)
	}

	draft := o.session.Draft()
	if draft == nil {
		if step != 1 {
			return ErrStepNotReached
		}

		return nil
	}

	if step > draft.CurrentStep {
		return ErrStepNotReached
	}

	if step == o.session.CurrentStep() {
		return nil
	}

	return o.session.SaveDraft(ctx, models.StepData{}, &step, nil)
}

// Finalize validates and persists the final step's bag, then materializes
// the draft into a folder. Once it succeeds the wizard session is over.
func (o *Orchestrator) Finalize(ctx context.Context, bag models.StepBag) (*models.Folder, error) {
	current := o.session.CurrentStep()
	if current < o.steps {
		return nil, ErrNotAtFinalStep
	}

	result, err := o.registry.ValidateStep(o.session.ModuleCode(), current, bag)
	if err != nil {
		return nil, fmt.Errorf("failed to validate step %d: %w", current, err)
	}

	if !result.Valid() {
		return nil, &StepValidationError{Step: current, Result: result}
	}

	err = o.session.SaveDraft(ctx, models.StepData{models.StepKey(current): bag}, nil, nil)
	if err != nil {
		return nil, err
	}

	return o.session.Finalize(ctx)
}

// clientIDFromBag lifts the client selection out of the first step's bag so
// the save attaches the draft to the chosen client.
func clientIDFromBag(step int, bag models.StepBag) *string {
	if step != 1 {
		return nil
	}

	clientID, ok := bag["client_id"].(string)
	if !ok || clientID == "" {
		return nil
	}

	return &clientID
}
