package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func (in *CreatePartInput) Validate() error {
	if in == nil {
		return apperror.Validation("part input is required")
	}
	return translate(validate.Struct(in))
}

func (p *PartPatch) Validate() error {
	if p == nil {
		return apperror.Validation("patch is required")
	}
	return translate(validate.Struct(p))
}

// translate folds validator output into a single ErrValidation so callers
// only ever match on apperror kinds.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperror.Validation("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must not be empty", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
