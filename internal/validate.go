package contact

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Submission is one contact-form payload.
type Submission struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,max=254,email"`
	Subject string `json:"subject" validate:"required,min=5,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (s Submission) Trimmed() Submission {
	return Submission{
		Name:    strings.TrimSpace(s.Name),
		Email:   strings.TrimSpace(s.Email),
		Subject: strings.TrimSpace(s.Subject),
		Message: strings.TrimSpace(s.Message),
	}
}

type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed the submission schema.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// ValidateSubmission trims s and checks it against the schema. It returns the
// trimmed submission, or a *ValidationError.
func ValidateSubmission(s Submission) (Submission, error) {
	s = s.Trimmed()
	err := validate.Struct(s)
	if err == nil {
		return s, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Submission{}, err
	}
	out := &ValidationError{Violations: make([]FieldViolation, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Violations = append(out.Violations, FieldViolation{
			Field:   jsonField(fe.Field()),
			Message: violationMessage(fe),
		})
	}
	return Submission{}, out
}

func jsonField(structField string) string {
	return strings.ToLower(structField)
}

func violationMessage(fe validator.FieldError) string {
	label := fe.Field()
	if fe.Field() == "Email" {
		label = "Email address"
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		if fe.Field() == "Email" {
			return "Email address too long"
		}
		return fmt.Sprintf("%s must not exceed %s characters", label, fe.Param())
	case "email":
		return "Please enter a valid email address"
	default:
		return label + " is invalid"
	}
}
