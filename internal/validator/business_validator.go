package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a single field-level failure. Bulk ingestion and single
// submissions both report these as a list, never first-failure-only.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// GraduationDateLayout is the accepted wire format for graduation dates.
const GraduationDateLayout = "2006-01-02"

// BusinessValidator handles degree-domain rule validation on top of tag
// validation.
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator(validate *validator.Validate) *BusinessValidator {
	return &BusinessValidator{validate: validate}
}

// Validate validates a struct against its tags and returns field errors.
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	return toValidationErrors(bv.validate.Struct(s))
}

// ValidateDomainMatch checks that the email's domain part (from and
// including the first '@') equals the university's registered domain.
// Purely string-level, case-insensitive, no side effects.
func ValidateDomainMatch(email, universityDomain string) bool {
	at := strings.Index(email, "@")
	if at < 0 {
		return false
	}
	emailDomain := strings.ToLower(email[at:])
	return emailDomain == strings.ToLower(universityDomain)
}

// ValidateDegreeSubmission validates one degree submission's fields and
// collects every violation rather than stopping at the first, so the bulk
// path can report each row completely.
func (bv *BusinessValidator) ValidateDegreeSubmission(degreeType, major, graduationDate, studentEmail string) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(degreeType) == "" {
		errs = append(errs, ValidationError{Field: "degree_type", Message: "is required", Rule: "required"})
	}
	if strings.TrimSpace(major) == "" {
		errs = append(errs, ValidationError{Field: "major", Message: "is required", Rule: "required"})
	}

	if strings.TrimSpace(graduationDate) == "" {
		errs = append(errs, ValidationError{Field: "graduation_date", Message: "is required", Rule: "required"})
	} else if _, err := time.Parse(GraduationDateLayout, graduationDate); err != nil {
		errs = append(errs, ValidationError{
			Field:   "graduation_date",
			Message: fmt.Sprintf("must be a date in %s format", GraduationDateLayout),
			Value:   graduationDate,
			Rule:    "date",
		})
	}

	if strings.TrimSpace(studentEmail) == "" {
		errs = append(errs, ValidationError{Field: "student_email", Message: "is required", Rule: "required"})
	} else if bv.validate.Var(studentEmail, "email") != nil {
		errs = append(errs, ValidationError{
			Field:   "student_email",
			Message: "must be a valid email address",
			Value:   studentEmail,
			Rule:    "email",
		})
	}

	return errs
}

func toValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var errs ValidationErrors
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
