package pagination

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic/internal/platform/apperr"
)

func TestWindow(t *testing.T) {
	cases := []struct {
		name           string
		current, total int
		want           []int
	}{
		{"first page of 10", 1, 10, []int{1, 2, 3, 4, 5}},
		{"third page sticks to start", 3, 10, []int{1, 2, 3, 4, 5}},
		{"last page of 10", 10, 10, []int{6, 7, 8, 9, 10}},
		{"total-2 sticks to end", 8, 10, []int{6, 7, 8, 9, 10}},
		{"middle", 5, 10, []int{3, 4, 5, 6, 7}},
		{"few pages, first", 1, 3, []int{1, 2, 3}},
		{"few pages, last", 3, 3, []int{1, 2, 3}},
		{"exactly five", 4, 5, []int{1, 2, 3, 4, 5}},
		{"no pages", 1, 0, []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Window(tc.current, tc.total)); diff != "" {
				t.Fatalf("Window(%d, %d) mismatch (-want +got):\n%s", tc.current, tc.total, diff)
			}
		})
	}
}

func TestValues_DropsUnsetFilters(t *testing.T) {
	q := Query{
		Page:    2,
		Search:  "",
		Filters: map[string]string{"status": FilterAll, "role": "", "species": "dog"},
	}
	got := q.Values()

	want := url.Values{"page": {"2"}, "species": {"dog"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("serialized query mismatch (-want +got):\n%s", diff)
	}
}

func TestValues_OnlyPage(t *testing.T) {
	q := Query{Page: 2, Filters: map[string]string{"status": "ALL"}}
	assert.Equal(t, "page=2", q.Values().Encode())

	// page siempre presente aunque no se haya seteado
	assert.Equal(t, "1", Query{}.Values().Get("page"))
}

func TestWithFilter_ResetsPage(t *testing.T) {
	q := New().WithFilter("status", "ACTIVE").WithPage(4)
	require.Equal(t, 4, q.Page)

	next := q.WithFilter("role", "STAFF")
	assert.Equal(t, 1, next.Page)
	assert.Equal(t, "ACTIVE", next.Filter("status"))
	assert.Equal(t, "STAFF", next.Filter("role"))

	// el original no se muta
	assert.Equal(t, 4, q.Page)
	assert.Equal(t, "", q.Filter("role"))

	cleared := next.WithPage(3).WithFilter("role", FilterAll)
	assert.Equal(t, 1, cleared.Page)
	assert.Equal(t, "", cleared.Filter("role"))

	assert.Equal(t, 1, q.WithSearch("milo").Page)
	assert.Equal(t, 1, q.WithLimit(50).Page)
}

func TestWithPage_PreservesFilters(t *testing.T) {
	q := New().WithSearch("rex").WithFilter("species", "dog")
	next := q.WithPage(3)

	assert.Equal(t, 3, next.Page)
	assert.Equal(t, "rex", next.Search)
	assert.Equal(t, "dog", next.Filter("species"))
}

func TestFromValues(t *testing.T) {
	q, err := FromValues(url.Values{
		"page":    {"3"},
		"limit":   {"20"},
		"search":  {"  luna "},
		"status":  {"ALL"},
		"species": {"cat"},
		"ignored": {"x"},
	}, "status", "species")
	require.NoError(t, err)

	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, "luna", q.Search)
	assert.Equal(t, []string{"species"}, q.FilterKeys())
	assert.Equal(t, 40, q.Offset())
}

func TestFromValues_Defaults(t *testing.T) {
	q, err := FromValues(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
}

func TestFromValues_Rejects(t *testing.T) {
	for _, v := range []url.Values{
		{"page": {"0"}},
		{"page": {"abc"}},
		{"limit": {"25"}},
	} {
		_, err := FromValues(v)
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "values %v", v)
	}
}

func TestEnvelopes(t *testing.T) {
	q := New().WithLimit(10).WithPage(2)

	p := NewPage([]string{"a"}, 11, q)
	assert.Equal(t, Meta{CurrentPage: 2, TotalPages: 2, TotalCount: 11, ItemsPerPage: 10}, p.Meta)

	lp := NewLegacyPage[string](nil, 0, q)
	assert.Equal(t, []string{}, lp.Data)
	assert.Equal(t, LegacyMeta{Page: 2, Limit: 10, TotalPages: 0, TotalCount: 0}, lp.Pagination)
}

func TestSlice(t *testing.T) {
	all := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	r := Slice(all, New().WithPage(2))
	assert.Equal(t, []int{11, 12}, r.Items)
	assert.Equal(t, 12, r.TotalCount)

	r = Slice(all, New().WithPage(9))
	assert.Empty(t, r.Items)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 1, TotalPages(5, 0))
}
