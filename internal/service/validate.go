package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/raphaelgruber/zerosrv/internal/models"
)

// validate is the shared validator for submissions and match requests.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("seed", validateSeed)
}

// validateSeed accepts decimal 64-bit seeds in signed or unsigned form.
func validateSeed(fl validator.FieldLevel) bool {
	_, err := models.ParseSeed(fl.Field().String())
	return err == nil
}

// validateStruct runs the validator and folds field errors into ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("no %s provided", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s (%s)", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, ", "))
}
