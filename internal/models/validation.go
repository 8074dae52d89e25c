package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`(?i)^[^\s@]+@nitj\.ac\.in$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("nitjemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidationError collects the rule violations of a single row.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// IsValidEmail reports whether email has the form localpart@nitj.ac.in.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Validate checks s against its field rules and returns a *ValidationError
// listing every violation.
func Validate(s *Submission) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Messages = append(verr.Messages, fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() + "." + fe.Tag() {
	case "Email.required":
		return "Email is required"
	case "Email.nitjemail":
		return "Please provide a valid NITJ email address"
	case "Answer.required":
		return "Answer is required"
	case "Answer.min":
		return fmt.Sprintf("Answer must be at least %d characters", AnswerMinLength)
	case "Answer.max":
		return fmt.Sprintf("Answer cannot exceed %d characters", AnswerMaxLength)
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
