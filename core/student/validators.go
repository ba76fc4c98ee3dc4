package student

import (
	"github.com/go-playground/validator/v10"
)

func (ns NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

func (us UpdateStudent) Validate(validate *validator.Validate) error {
	us.Clean()
	return validate.Struct(us)
}
