package patch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Name  Optional[string] `json:"name"`
	Notes Optional[string] `json:"notes"`
	Birth Optional[Date]   `json:"birthDate"`
}

func TestOptional_PresenceAndNull(t *testing.T) {
	var b body
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Milo","notes":null}`), &b))

	assert.True(t, b.Name.Set)
	require.NotNil(t, b.Name.Value)
	assert.Equal(t, "Milo", *b.Name.Value)

	assert.True(t, b.Notes.Set)
	assert.Nil(t, b.Notes.Value)

	assert.False(t, b.Birth.Set)
}

func TestOptional_Apply(t *testing.T) {
	cur := "old"
	dst := &cur

	Optional[string]{}.Apply(&dst)
	assert.Equal(t, "old", *dst)

	Some("new").Apply(&dst)
	assert.Equal(t, "new", *dst)

	Null[string]().Apply(&dst)
	assert.Nil(t, dst)
}

func TestDate(t *testing.T) {
	var b body
	require.NoError(t, json.Unmarshal([]byte(`{"birthDate":"2020-05-17"}`), &b))
	require.NotNil(t, b.Birth.Value)
	assert.Equal(t, time.Date(2020, 5, 17, 0, 0, 0, 0, time.UTC), b.Birth.Value.Time)

	d, err := ParseDate("2026-10-14T18:30:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", d.Format(DateLayout))

	_, err = ParseDate("14/10/2026")
	assert.ErrorIs(t, err, ErrBadDate)

	out, err := json.Marshal(NewDate(time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2026-01-02"`, string(out))

	assert.Nil(t, DateOf(nil))
	assert.Nil(t, (*Date)(nil).Ptr())
}

func TestOptional_OmitZero(t *testing.T) {
	type out struct {
		Name  Optional[string] `json:"name,omitzero"`
		Notes Optional[string] `json:"notes,omitzero"`
		Phone Optional[string] `json:"phone,omitzero"`
	}
	b, err := json.Marshal(out{Name: Some("Rex"), Notes: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Rex","notes":null}`, string(b))
}
