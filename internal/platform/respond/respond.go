// Package respond reúne los helpers HTTP que antes se duplicaban por módulo
// (writeJSON en pets/events). Con cinco módulos ya conviene tenerlos en un solo lugar.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/validation"
)

// ErrorBody es el contrato de error: el cliente lee "message" y cae a un
// mensaje genérico si falta.
type ErrorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Message: msg})
}

// Error traduce errores de dominio a status + body.
func Error(w http.ResponseWriter, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, ErrorBody{Message: "validation failed", Errors: verr.Fields})
	case errors.Is(err, apperr.ErrInvalidInput):
		Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		Message(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperr.ErrForbidden):
		Message(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, apperr.ErrNotFound):
		Message(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		Message(w, http.StatusConflict, err.Error())
	default:
		Message(w, http.StatusInternalServerError, "internal error")
	}
}

// Decode lee JSON estricto (campos desconocidos = 400) y valida con tags.
func Decode(r *http.Request, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return err
	}
	return validation.Struct(dst)
}

// DecodeJSON es Decode sin validar; para requests con su propio Validate.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.NewValidation("body", "is required")
		}
		return apperr.NewValidation("body", "invalid json")
	}
	return nil
}
