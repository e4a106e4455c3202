package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// ValidationError describes one schema or semantic problem in a config file
type ValidationError struct {
	File    string
	Path    string
	Message string
}

func (e ValidationError) String() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Validator validates engine config files against the JSON schema
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new validator with the given schema file
func NewValidator(schemaPath string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateFile validates a single config file: schema first, then the
// semantic checks applied by Load.
func (v *Validator) ValidateFile(path string) []ValidationError {
	var errors []ValidationError

	data, err := os.ReadFile(path)
	if err != nil {
		errors = append(errors, ValidationError{
			File:    path,
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
		return errors
	}

	var jsonData interface{}
	if err := yaml.Unmarshal(data, &jsonData); err != nil {
		errors = append(errors, ValidationError{
			File:    path,
			Message: fmt.Sprintf("failed to parse YAML: %v", err),
		})
		return errors
	}

	if err := v.schema.Validate(jsonData); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			errors = append(errors, extractSchemaErrors(path, validationErr)...)
		} else {
			errors = append(errors, ValidationError{
				File:    path,
				Message: err.Error(),
			})
		}
		return errors
	}

	// Schema cannot express cross-field rules (weight sum, timeout
	// ordering), so run the full load path too.
	if _, err := Load(path); err != nil {
		errors = append(errors, ValidationError{
			File:    path,
			Message: err.Error(),
		})
	}

	return errors
}

// extractSchemaErrors converts JSON schema validation errors to ValidationErrors
func extractSchemaErrors(file string, err *jsonschema.ValidationError) []ValidationError {
	var errors []ValidationError

	path := strings.Join(err.InstanceLocation, ".")
	if path == "" {
		path = "(root)"
	}

	errors = append(errors, ValidationError{
		File:    file,
		Path:    path,
		Message: err.Error(),
	})

	for _, cause := range err.Causes {
		errors = append(errors, extractSchemaErrors(file, cause)...)
	}

	return errors
}
