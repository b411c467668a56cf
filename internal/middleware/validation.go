package middleware

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinicare-api/internal/model"
)

// RegisterValidators installs the custom binding tags on gin's validator
// and reports fields by their json name.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	if err := v.RegisterValidation("isodate", isoDate); err != nil {
		return fmt.Errorf("failed to register isodate: %w", err)
	}
	if err := v.RegisterValidation("weekday", weekday); err != nil {
		return fmt.Errorf("failed to register weekday: %w", err)
	}
	return nil
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}

func weekday(fl validator.FieldLevel) bool {
	return model.Weekday(fl.Field().String()).Valid()
}
