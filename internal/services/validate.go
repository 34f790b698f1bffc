package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validate      = newValidator()
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	return v
}

var messages = map[string]string{
	"notblank": "Обязательное поле.",
	"required": "Обязательное поле.",
	"max":      "Слишком длинное значение.",
	"min":      "Слишком короткое значение.",
	"email":    "Введите правильный адрес электронной почты.",
	"username": "Допустимы только буквы, цифры и символы @/./+/-/_.",
	"eqfield":  "Введённые пароли не совпадают.",
}

// validateStruct runs the struct's validate tags and reports the first
// failure as a *ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg, ok := messages[fe.Tag()]
	if !ok {
		msg = "Некорректное значение."
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}
