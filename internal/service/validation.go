package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks struct tags and returns a ValidationError naming the first bad field
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return ValidationError(fieldMessage(verrs[0]))
	}
	return ValidationError("Dados inválidos.")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório.", fe.Field())
	case "email":
		return "Informe um e-mail válido."
	case "eqfield":
		return "As senhas não coincidem."
	case "min", "max", "gt":
		return fmt.Sprintf("O campo %s está fora do intervalo permitido.", fe.Field())
	case "datetime":
		return fmt.Sprintf("O campo %s deve estar no formato AAAA-MM-DD.", fe.Field())
	default:
		return fmt.Sprintf("O campo %s é inválido.", fe.Field())
	}
}
