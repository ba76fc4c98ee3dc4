package attendance

import (
	"github.com/go-playground/validator/v10"
)

func (nr NewRecord) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

func (ur UpdateRecord) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}
