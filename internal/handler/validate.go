package handler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"attendtrack/internal/attendance"
)

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// registerValidators adds the "isodate" and "attstatus" tags to gin's binder.
func registerValidators() error {
	validatorsOnce.Do(func() {
		validatorsErr = registerTags(binding.Validator.Engine())
	})
	return validatorsErr
}

func registerTags(engine any) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return fmt.Errorf("binding validator is %T, want *validator.Validate", engine)
	}
	return errors.Join(
		v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := attendance.ParseDate(fl.Field().String())
			return err == nil
		}),
		v.RegisterValidation("attstatus", func(fl validator.FieldLevel) bool {
			_, err := attendance.ParseStatus(fl.Field().String())
			return err == nil
		}),
	)
}
