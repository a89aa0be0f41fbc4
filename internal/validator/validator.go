package validator

import (
	"github.com/go-playground/validator/v10"
)

// Validator wraps struct-tag validation and the business validator behind a
// single dependency handed to services and handlers.
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	validate := validator.New()

	return &Validator{
		validate: validate,
		business: NewBusinessValidator(validate),
	}
}

// ValidateStruct runs tag-level validation and converts failures into the
// field-level error list used across the service layer.
func (v *Validator) ValidateStruct(s interface{}) ValidationErrors {
	return toValidationErrors(v.validate.Struct(s))
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}
