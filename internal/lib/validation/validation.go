// Package validation настраивает общий валидатор входных структур.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

// New создаёт валидатор, который в ошибках использует имена полей из тега json.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}
