package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"reading-effort/internal/common/errors"
	"reading-effort/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, e := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return messages
}

// Validator checks task input against the JSON schemas of an activity
// registry. Schemas are compiled once.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(reg.Activities))}
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("invalid input schema for %s: %w", a.TaskType, err)
		}
		v.schemas[a.TaskType] = s
	}
	return v, nil
}

// Validate checks document, either raw JSON bytes or a Go value, against the
// schema of taskType. Violations come back as an INVALID_INPUT error.
// Task types without a schema accept anything.
func (v *Validator) Validate(taskType string, document interface{}) error {
	s, ok := v.schemas[taskType]
	if !ok {
		return nil
	}

	var loader gojsonschema.JSONLoader
	switch doc := document.(type) {
	case []byte:
		loader = gojsonschema.NewBytesLoader(doc)
	case string:
		loader = gojsonschema.NewStringLoader(doc)
	default:
		loader = gojsonschema.NewGoLoader(doc)
	}

	result, err := s.Validate(loader)
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("malformed document: %v", err))
	}
	return asError(toResult(result))
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	vr := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return vr
}

func asError(vr *ValidationResult) error {
	if vr.Valid {
		return nil
	}
	fields := make([]string, len(vr.Errors))
	for i, e := range vr.Errors {
		fields[i] = e.Field
	}
	return errors.NewInvalidInputError(strings.Join(vr.GetErrorMessages(), "; ")).
		WithMetadata("fields", fields)
}
