// Package validation checks option and configuration structs declared with
// go-playground/validator tags and reports failures as domain ConfigErrors.
package validation

import (
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/neon-files/preview-sdk/domain/errors"
)

// validate is a package-level singleton; validator caches struct metadata.
var validate = validator.New()

// Struct validates v. The returned error is a *errors.ConfigError naming the
// first offending field; its message lists every failed rule.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stdErrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &errors.ConfigError{Err: err}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return &errors.ConfigError{
		Field: fieldErrs[0].Field(),
		Err:   stdErrors.New(strings.Join(msgs, "; ")),
	}
}

func describe(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s must satisfy %s (got %v)", fe.Field(), fe.Tag(), fe.Value())
}
