// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError describes one failed schema constraint.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of validating a worker input payload.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidateInput checks a decoded job-variable map against a JSON schema
// expressed as a Go map.
func ValidateInput(input map[string]interface{}, schema map[string]interface{}) (*Result, error) {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(input)

	res, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	out := &Result{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
		})
	}
	return out, nil
}

// MustBeValid is a convenience for handlers: returns a single error when the
// payload fails its schema.
func MustBeValid(input map[string]interface{}, schema map[string]interface{}) error {
	res, err := ValidateInput(input, schema)
	if err != nil {
		return err
	}
	if !res.Valid {
		if len(res.Errors) > 0 {
			return fmt.Errorf("invalid input: %s: %s", res.Errors[0].Field, res.Errors[0].Message)
		}
		return fmt.Errorf("invalid input")
	}
	return nil
}
