package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate é a instância única (o validator faz cache das tags por tipo).
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// mensagens usam o nome json do campo, que é o que o cliente enviou
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Check aplica as tags `validate` de v e devolve a primeira falha como *ValidationError.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	return fieldError(fields[0])
}

func fieldError(fe validator.FieldError) error {
	field := fe.Field()
	// "Tournament.leaderboard[1].player" -> "leaderboard[1].player"
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		field = rest
	}
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return Invalid(field, "is required")
	case "required_if":
		return Invalid(field, "is required when %s", condition(p))
	case "required_without":
		return Invalid(field, "is required when %s is empty", strings.ToLower(p))
	case "excluded_if":
		return Invalid(field, "must be empty when %s", condition(p))
	case "oneof":
		return Invalid(field, "must be one of: %s", strings.ReplaceAll(p, " ", ", "))
	case "email":
		return Invalid(field, "invalid email")
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return Invalid(field, "must have at least %s characters", p)
		}
		if fe.Kind() == reflect.Slice {
			return Invalid(field, "must have at least %s items", p)
		}
		return Invalid(field, "must be at least %s", p)
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return Invalid(field, "must have at most %s characters", p)
		}
		return Invalid(field, "must be at most %s", p)
	case "ltefield":
		return Invalid(field, "must not exceed %s", lowerFirst(p))
	case "unique":
		return Invalid(field, "must not repeat %s", strings.ToLower(p))
	}
	return Invalid(field, "failed %s validation", fe.Tag())
}

// condition traduz o parâmetro "Type tennis" em "type is tennis".
func condition(param string) string {
	f, v, _ := strings.Cut(param, " ")
	return lowerFirst(f) + " is " + v
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
