package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/opflow/errors"
)

// FieldError is a validation failure for one field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string { return e.Field + ": " + e.Message }

// Validator accumulates field failures. Sub-validators from At share the
// same list and prefix their field names, so nested structures report full
// paths such as "nodes[2].component".
type Validator struct {
	path string
	errs *[]FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{errs: new([]FieldError)}
}

// At returns a validator scoped under field.
func (v *Validator) At(field string) *Validator {
	return &Validator{path: v.join(field), errs: v.errs}
}

// Index formats an indexed path element, e.g. Index("nodes", 2) is "nodes[2]".
func Index(field string, i int) string { return fmt.Sprintf("%s[%d]", field, i) }

func (v *Validator) join(field string) string {
	switch {
	case v.path == "":
		return field
	case field == "":
		return v.path
	}
	return v.path + "." + field
}

// Fail records a failure for field.
func (v *Validator) Fail(field, format string, args ...any) {
	*v.errs = append(*v.errs, FieldError{Field: v.join(field), Message: fmt.Sprintf(format, args...)})
}

// Check records message for field unless ok.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.Fail(field, "%s", message)
	}
	return v
}

// Required fails on blank strings.
func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, "is required")
}

// Min fails when value is below floor.
func (v *Validator) Min(field string, value, floor int) *Validator {
	if value < floor {
		v.Fail(field, "must be at least %d", floor)
	}
	return v
}

// OneOf fails when a non-empty value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		v.Fail(field, "must be one of: %s", strings.Join(allowed, ", "))
	}
	return v
}

// OptionalUUID fails when a non-empty value does not parse as a UUID.
func (v *Validator) OptionalUUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	_, err := uuid.Parse(value)
	return v.Check(err == nil, field, "must be a valid UUID")
}

// Errors returns every recorded failure, including those of sub-validators.
func (v *Validator) Errors() []FieldError { return slices.Clone(*v.errs) }

// Err returns nil, or an INVALID_CONFIG error listing every failure in its
// message and under the "fields" detail.
func (v *Validator) Err() error {
	if len(*v.errs) == 0 {
		return nil
	}
	parts := make([]string, len(*v.errs))
	for i, e := range *v.errs {
		parts[i] = e.String()
	}
	return errors.InvalidConfig(strings.Join(parts, "; ")).WithDetail("fields", v.Errors())
}
