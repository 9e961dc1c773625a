// Package registry maps regulatory module codes to their wizard step
// definitions and validation schemas.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ErrModuleNotFound indicates no module is registered for the given code.
var ErrModuleNotFound = errors.New("module not found")

// Registry is an injectable lookup from module code to step schemas and
// cross-field rules. It carries no ambient state; construct one and hand it
// to whoever validates step data.
type Registry struct {
	logger  *slog.Logger
	modules map[string]*models.ModuleDescriptor
	rules   map[string][]StepRule
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger.With("module", "registry"),
		modules: make(map[string]*models.ModuleDescriptor),
		rules:   make(map[string][]StepRule),
	}
}

// RegisterModule adds a module descriptor and its cross-field step rules.
// Registering the same code twice replaces the previous registration.
func (r *Registry) RegisterModule(descriptor *models.ModuleDescriptor, rules ...StepRule) {
	r.modules[descriptor.Code] = descriptor
	r.rules[descriptor.Code] = rules

	r.logger.Debug("Registered module", "code", descriptor.Code, "steps", descriptor.StepCount())
}

// Modules returns all registered module descriptors sorted by code.
func (r *Registry) Modules() []*models.ModuleDescriptor {
	modules := make([]*models.ModuleDescriptor, 0, len(r.modules))
	for _, descriptor := range r.modules {
		modules = append(modules, descriptor)
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Code < modules[j].Code
	})

	return modules
}

// Module returns the descriptor for a module code.
func (r *Registry) Module(code string) (*models.ModuleDescriptor, error) {
	descriptor, exists := r.modules[code]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, code)
	}

	return descriptor, nil
}

// StepCount returns the number of steps for a module code.
func (r *Registry) StepCount(code string) (int, error) {
	descriptor, err := r.Module(code)
	if err != nil {
		return 0, err
	}

	return descriptor.StepCount(), nil
}

// StepSchema returns the validation schema for a module step. When the
// module defines no schema for the step, the base entity-selection schema is
// returned, so every step is validatable.
func (r *Registry) StepSchema(code string, step int) (*models.JSONSchema, error) {
	descriptor, err := r.Module(code)
	if err != nil {
		return nil, err
	}

	for _, definition := range descriptor.Steps {
		if definition.Number == step && definition.Schema != nil {
			return definition.Schema, nil
		}
	}

	return BaseStepSchema(), nil
}

// ValidateStep validates a step bag against the module's step schema and its
// cross-field rules. Schema violations and rule violations are both
// field-scoped; disqualifying rule results block progression like any other
// validation failure but are flagged so the UI can surface them differently.
func (r *Registry) ValidateStep(code string, step int, bag models.StepBag) (*ValidationResult, error) {
	schema, err := r.StepSchema(code, step)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(bag)

	schemaResult, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate step %d of %s: %w", step, code, err)
	}

	if !schemaResult.Valid() {
		for _, desc := range schemaResult.Errors() {
			result.Errors = append(result.Errors, FieldError{
				Field:   fieldFromSchemaError(desc.Field()),
				Message: desc.Description(),
			})
		}
	}

	for _, rule := range r.rules[code] {
		if rule.Step != step {
			continue
		}

		result.Errors = append(result.Errors, rule.Check(bag)...)
	}

	return result, nil
}

// fieldFromSchemaError normalizes gojsonschema's "(root)" context to an
// empty field name.
func fieldFromSchemaError(field string) string {
	if field == "(root)" {
		return ""
	}

	return field
}

// HealthCheck reports whether the registry holds at least one module.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.modules) == 0 {
		return "Module registry is empty", false
	}

	return fmt.Sprintf("Module registry is healthy (%d modules)", len(r.modules)), true
}

// ValidationResult aggregates the field errors of one step validation.
type ValidationResult struct {
	Errors []FieldError
}

// Valid reports whether the step bag passed all checks.
func (v *ValidationResult) Valid() bool {
	return len(v.Errors) == 0
}

// Disqualifying reports whether any error disqualifies the case entirely.
func (v *ValidationResult) Disqualifying() bool {
	for _, fieldError := range v.Errors {
		if fieldError.Disqualifying {
			return true
		}
	}

	return false
}

// Summary joins all error messages for notification display.
func (v *ValidationResult) Summary() string {
	messages := make([]string, 0, len(v.Errors))
	for _, fieldError := range v.Errors {
		messages = append(messages, fieldError.String())
	}

	return strings.Join(messages, "; ")
}

// FieldError is a field-scoped validation failure. Disqualifying errors mean
// the case is ineligible for the module, not merely that the input is malformed.
type FieldError struct {
	Field         string `json:"field"`
	Message       string `json:"message"`
	Disqualifying bool   `json:"disqualifying,omitempty"`
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Message
	}

	return e.Field + ": " + e.Message
}
