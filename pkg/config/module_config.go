// Package config provides configuration loading for module catalogs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/renoflow/renoflow/pkg/registry"
)

// ModuleConfigFile represents the structure of the modules.yaml file. It
// overrides display texts of built-in modules; step schemas and rules stay
// in code.
type ModuleConfigFile struct {
	Modules []ModuleOverride `yaml:"modules"`
}

// ModuleOverride adjusts one registered module.
type ModuleOverride struct {
	Code        string         `yaml:"code"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []StepOverride `yaml:"steps"`
}

// StepOverride adjusts one step's display texts.
type StepOverride struct {
	Number      int    `yaml:"number"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// LoadModuleConfig loads module overrides from a YAML file.
func LoadModuleConfig(filepath string) (*ModuleConfigFile, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var configFile ModuleConfigFile
	if err := yaml.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &configFile, nil
}

// ValidateModuleConfig rejects overrides that reference nothing.
func ValidateModuleConfig(config *ModuleConfigFile) error {
	for i, module := range config.Modules {
		if module.Code == "" {
			return fmt.Errorf("modules[%d]: code is required", i)
		}

		for j, step := range module.Steps {
			if step.Number < 1 {
				return fmt.Errorf("modules[%d].steps[%d]: number must be positive", i, j)
			}
		}
	}

	return nil
}

// ApplyModuleConfig applies the overrides to registered modules. Overrides
// for unregistered codes or unknown step numbers are errors: a typo in the
// file should fail startup, not silently do nothing.
func ApplyModuleConfig(reg *registry.Registry, config *ModuleConfigFile) error {
	if err := ValidateModuleConfig(config); err != nil {
		return err
	}

	for _, override := range config.Modules {
		descriptor, err := reg.Module(override.Code)
		if err != nil {
			return fmt.Errorf("module override %s: %w", override.Code, err)
		}

		if override.Name != "" {
			descriptor.Name = override.Name
		}

		if override.Description != "" {
			descriptor.Description = override.Description
		}

		for _, stepOverride := range override.Steps {
			applied := false

			for i := range descriptor.Steps {
				if descriptor.Steps[i].Number != stepOverride.Number {
					continue
				}

				if stepOverride.Label != "" {
					descriptor.Steps[i].Label = stepOverride.Label
				}

				if stepOverride.Description != "" {
					descriptor.Steps[i].Description = stepOverride.Description
				}

				applied = true
			}

			if !applied {
				return fmt.Errorf("module override %s: no step %d", override.Code, stepOverride.Number)
			}
		}
	}

	return nil
}
