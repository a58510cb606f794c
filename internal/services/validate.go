package services

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/timeriffic/timeriffic/internal/schedule"
)

var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New()
	_ = inputValidate.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		return schedule.TimeOfDay(fl.Field().Int()).Valid()
	})
	_ = inputValidate.RegisterValidation("weekdays", func(fl validator.FieldLevel) bool {
		return schedule.Weekdays(fl.Field().Int()).Valid()
	})
}

func validateInput(v any) error {
	if err := inputValidate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}
