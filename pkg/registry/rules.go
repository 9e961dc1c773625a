package registry

import "github.com/renoflow/renoflow/pkg/models"

// StepRule is a cross-field check bound to one wizard step, for constraints
// a JSON schema cannot express (conditional requirements, eligibility
// disqualifiers).
type StepRule struct {
	Step  int
	Check func(bag models.StepBag) []FieldError
}

// RequireIfFalse returns a rule requiring dependentField to be present when
// conditionField is false.
func RequireIfFalse(step int, conditionField, dependentField, message string) StepRule {
	return StepRule{
		Step: step,
		Check: func(bag models.StepBag) []FieldError {
			condition, ok := bag[conditionField].(bool)
			if !ok || condition {
				return nil
			}

			if _, present := bag[dependentField]; present {
				return nil
			}

			return []FieldError{{Field: dependentField, Message: message}}
		},
	}
}

// DisqualifyIfFalse returns a rule that marks the case ineligible when
// field is present and false.
func DisqualifyIfFalse(step int, field, message string) StepRule {
	return StepRule{
		Step: step,
		Check: func(bag models.StepBag) []FieldError {
			value, ok := bag[field].(bool)
			if !ok || value {
				return nil
			}

			return []FieldError{{Field: field, Message: message, Disqualifying: true}}
		},
	}
}

// RequireTrue returns a rule requiring field to be present and true.
func RequireTrue(step int, field, message string) StepRule {
	return StepRule{
		Step: step,
		Check: func(bag models.StepBag) []FieldError {
			value, ok := bag[field].(bool)
			if ok && value {
				return nil
			}

			return []FieldError{{Field: field, Message: message}}
		},
	}
}
