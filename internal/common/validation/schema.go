// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema describes a payload accepted from the portal backend.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        interface{}         `json:"type,omitempty"` // string or []string
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"` // For nested objects
	Required    []string            `json:"required,omitempty"`   // For nested objects
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func intPtr(n int) *int { return &n }

// EventSchema accepts any tagged event; type-specific fields are optional so
// that unrecognised event types still reach the dispatcher.
var EventSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"type":    {Type: "string", MinLength: intPtr(1), Description: "event tag"},
		"status":  {Type: "string"},
		"message": {Type: "string"},
	},
	Required: []string{"type"},
}

// ApplicationEnvelopeSchema matches {application: {...}}.
var ApplicationEnvelopeSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"application": {
			Type: "object",
			Properties: map[string]Property{
				"applicationId": {Type: []string{"string", "number"}},
				"status":        {Type: "string"},
			},
			Required: []string{"status"},
		},
	},
	Required: []string{"application"},
}

// Validator is a compiled schema; safe for concurrent use.
type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile builds a Validator from a schema definition.
func Compile(name string, s JSONSchema) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &Validator{name: name, schema: compiled}, nil
}

// MustCompile is Compile for package-level schemas known to be valid.
func MustCompile(name string, s JSONSchema) *Validator {
	v, err := Compile(name, s)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks a raw JSON document. A document that is not JSON at all is
// reported as a single INVALID_JSON error.
func (v *Validator) Validate(doc []byte) *ValidationResult {
	if !json.Valid(doc) {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: "payload is not valid JSON",
			Code:    "INVALID_JSON",
		}}}
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "INVALID_JSON",
		}}}
	}

	errors := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errors = append(errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errors,
	}
}

// Err returns nil for a valid result and a single error describing every
// violation otherwise.
func (vr *ValidationResult) Err() error {
	if vr.Valid {
		return nil
	}
	return fmt.Errorf("validation failed: %s", strings.Join(vr.GetErrorMessages(), "; "))
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}
