package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Validation reasons. The first failing rule wins.
const (
	ReasonMissingFields   = "missing required fields"
	ReasonInvalidModel    = "invalid model"
	ReasonInvalidDuration = "invalid duration"
	ReasonPromptTooLong   = "prompt too long"
)

var resolutionPattern = regexp.MustCompile(`^[1-9][0-9]*x[1-9][0-9]*$`)

var shapeValidator = newShapeValidator()

// ValidationError describes why a GenerationRequest was rejected.
type ValidationError struct {
	Field  string
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrInvalidRequest, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRequest, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// Validate checks req against the static rules of the generation endpoint.
// It performs no I/O and returns nil or a *ValidationError.
func Validate(req GenerationRequest) error {
	if req.Model == "" || req.Prompt == "" {
		return &ValidationError{Field: "model,prompt", Reason: ReasonMissingFields}
	}
	if !IsSupportedModel(req.Model) {
		return &ValidationError{Field: "model", Reason: ReasonInvalidModel, Detail: req.Model}
	}
	if req.Duration != nil {
		bound := MaxDuration(req.Model)
		if d := *req.Duration; d < 1 || d > bound {
			return &ValidationError{
				Field:  "duration",
				Reason: ReasonInvalidDuration,
				Detail: fmt.Sprintf("%d (max: %d)", d, bound),
			}
		}
	}
	if n := PromptLength(req.Prompt); n > MaxPromptLength {
		return &ValidationError{
			Field:  "prompt",
			Reason: ReasonPromptTooLong,
			Detail: fmt.Sprintf("%d chars", n),
		}
	}
	if err := shapeValidator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{
				Field:  fe.Field(),
				Reason: "invalid " + fe.Field(),
				Detail: fmt.Sprintf("%v", fe.Value()),
			}
		}
		return &ValidationError{Reason: err.Error()}
	}
	return nil
}

// PromptLength counts Unicode code points as written, without
// normalization, so a decomposed accent counts as two.
func PromptLength(prompt string) int {
	return utf8.RuneCountInString(prompt)
}

func newShapeValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("resolution", func(fl validator.FieldLevel) bool {
		return resolutionPattern.MatchString(fl.Field().String())
	})
	return v
}
