// Package validation validates stored documents and user input using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	domainerrors "github.com/tubevault/tubevault/internal/errors"
)

// colorPattern is the accepted tag color format, case-insensitive.
var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Violation describes a single failed rule.
type Violation struct {
	Field   string `json:"field"`   // Path such as videos[0].title
	Rule    string `json:"rule"`    // Tag that failed, e.g. "required"
	Message string `json:"message"` // Human-readable explanation
}

func (v Violation) String() string {
	return v.Field + " " + v.Message
}

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	// Registration only fails for empty or restricted tag names.
	_ = v.RegisterValidation("entityid", isEntityID)
	_ = v.RegisterValidation("rgbhex", isRGBHex)
	_ = v.RegisterValidation("present", isPresent, true)
	_ = v.RegisterValidation("epochms", isEpochMillis)

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors carrying []Violation.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	violations := make([]Violation, 0, len(validationErrs))
	for _, e := range validationErrs {
		violations = append(violations, Violation{
			Field:   fieldPath(e.Namespace()),
			Rule:    e.Tag(),
			Message: v.friendlyMessage(e),
		})
	}

	return domainerrors.ValidationWithDetails(summarize(violations), violations)
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "present":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "entityid":
		return "must be a valid UUID"
	case "rgbhex":
		return "must be a #RRGGBB color"
	case "epochms":
		return "must be a millisecond timestamp within the int64 range"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}

// Violations extracts the violation list from a validation error.
// Returns nil for any other error.
func Violations(err error) []Violation {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code != domainerrors.CodeValidation {
		return nil
	}
	violations, _ := domainErr.Details.([]Violation)
	return violations
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func summarize(violations []Violation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// isEntityID accepts canonical 36-character UUID strings.
func isEntityID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isRGBHex(fl validator.FieldLevel) bool {
	return colorPattern.MatchString(fl.Field().String())
}

// isPresent fails only for nil pointers, so empty strings and zero numbers pass.
func isPresent(fl validator.FieldLevel) bool {
	f := fl.Field()
	if !f.IsValid() {
		return false
	}
	switch f.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return !f.IsNil()
	default:
		return true
	}
}

// isEpochMillis accepts finite numbers that fit in an int64 millisecond count.
// Fractional milliseconds are allowed and truncated on conversion.
func isEpochMillis(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float32 && f.Kind() != reflect.Float64 {
		return false
	}
	n := f.Float()
	return !math.IsNaN(n) && n >= math.MinInt64 && n < math.MaxInt64
}
