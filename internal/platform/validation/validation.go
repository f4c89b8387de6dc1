// Package validation centraliza el validator compartido por handlers y cliente.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"vet-clinic/internal/platform/apperr"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Enums registrados como reglas custom. Los paquetes de dominio los completan
// con RegisterEnum en init para no importar dominio desde acá.
var (
	enumsMu sync.RWMutex
	enums   = map[string]map[string]struct{}{}
)

// RegisterEnum registra (o reemplaza) los valores permitidos para una regla tag.
func RegisterEnum(tag string, values ...string) {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	enumsMu.Lock()
	enums[tag] = set
	enumsMu.Unlock()
}

// Default devuelve el validator singleton con las reglas custom.
func Default() *validator.Validate {
	once.Do(func() {
		instance = New()
	})
	return instance
}

func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Nombres de campo = tag json (más útil para el cliente que el nombre Go).
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	for _, tag := range []string{"visittype", "species", "gender", "role"} {
		tag := tag
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return inEnum(tag, fl.Field().String())
		})
	}
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func inEnum(tag, value string) bool {
	enumsMu.RLock()
	defer enumsMu.RUnlock()
	set, ok := enums[tag]
	if !ok {
		return false
	}
	_, ok = set[value]
	return ok
}

// Struct valida s y traduce el resultado a *apperr.ValidationError.
func Struct(s any) error {
	err := Default().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.ErrInvalidInput
	}
	out := &apperr.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "required_if":
		return "is required when " + strings.Fields(fe.Param())[0] + " is set"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "visittype", "species", "gender", "role":
		return "is not a valid " + fe.Tag()
	default:
		return "failed " + fe.Tag()
	}
}
