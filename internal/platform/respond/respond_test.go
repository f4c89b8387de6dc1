package respond

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic/internal/platform/apperr"
)

type body struct {
	Name string `json:"name" validate:"required"`
}

func post(payload string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
}

func TestDecodeJSON_DoesNotValidate(t *testing.T) {
	var b body
	require.NoError(t, DecodeJSON(post(`{}`), &b))
	assert.Empty(t, b.Name)

	err := Decode(post(`{}`), &b)
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
}

func TestDecodeJSON_StrictBody(t *testing.T) {
	var b body
	for payload, field := range map[string]string{
		``:                          "body",
		`{"name":`:                  "body",
		`{"name":"a","bogus":true}`: "body",
	} {
		err := DecodeJSON(post(payload), &b)
		var verr *apperr.ValidationError
		require.True(t, errors.As(err, &verr), "payload %q", payload)
		assert.Contains(t, verr.Fields, field)
	}
}

func TestError_ValidationIs400(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperr.NewValidation("name", "is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"is required"`)
}
