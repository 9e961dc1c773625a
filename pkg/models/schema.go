package models

// SchemaProvider defines an interface for components that can provide JSON Schema
type SchemaProvider interface {
	GetSchema() *JSONSchema
}

// JSONSchema represents a JSON Schema for step data validation
type JSONSchema struct {
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Format      string               `json:"format,omitempty"`
	Minimum     *float64             `json:"minimum,omitempty"`
	Maximum     *float64             `json:"maximum,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	MaxLength   *int                 `json:"maxLength,omitempty"`
	Pattern     string               `json:"pattern,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// StepDefinition describes one wizard step of a module: its position, the
// key under which its bag is stored, UI labels, and the schema its bag must
// satisfy.
type StepDefinition struct {
	Number      int         `json:"number"`
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Description string      `json:"description,omitempty"`
	Schema      *JSONSchema `json:"schema"`
}

// ModuleDescriptor represents a regulatory module registered in the system
// with its ordered step definitions.
type ModuleDescriptor struct {
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Steps       []*StepDefinition `json:"steps"`
}

// StepCount returns the number of wizard steps the module defines.
func (m *ModuleDescriptor) StepCount() int {
	return len(m.Steps)
}
