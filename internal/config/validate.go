package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"studycal/internal/schedule"
)

var validate = NewValidator()

// NewValidator returns a validator that also understands the "day" tag
// (YYYY-MM-DD).
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("day", validateDay)
	return v
}

func validateDay(fl validator.FieldLevel) bool {
	_, err := schedule.ParseDay(fl.Field().String())
	return err == nil
}

// Validate checks c after Normalize. It reports every failing field in one
// error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
}
