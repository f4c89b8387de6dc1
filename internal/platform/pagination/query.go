// Package pagination implementa el contrato de listas compartido por todos los
// recursos: page/limit/search/filtros de entrada y data+meta de salida.
package pagination

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"vet-clinic/internal/platform/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10

	// FilterAll es el valor "sin filtro" que manda la UI en los selects.
	FilterAll = "ALL"
)

// AllowedLimits son los tamaños de página aceptados.
var AllowedLimits = []int{10, 20, 50, 100}

type Query struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

func New() Query {
	return Query{Page: DefaultPage, Limit: DefaultLimit, Filters: map[string]string{}}
}

// FromRequest parsea el query string. Solo se leen los filtros listados en keys;
// "ALL" y "" se tratan como ausentes.
func FromRequest(r *http.Request, keys ...string) (Query, error) {
	return FromValues(r.URL.Query(), keys...)
}

func FromValues(v url.Values, keys ...string) (Query, error) {
	q := New()

	if raw := strings.TrimSpace(v.Get("page")); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			return Query{}, apperr.NewValidation("page", "must be an integer >= 1")
		}
		q.Page = p
	}
	if raw := strings.TrimSpace(v.Get("limit")); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || !IsAllowedLimit(l) {
			return Query{}, apperr.NewValidation("limit", "must be one of 10, 20, 50, 100")
		}
		q.Limit = l
	}
	q.Search = strings.TrimSpace(v.Get("search"))

	for _, k := range keys {
		if val := strings.TrimSpace(v.Get(k)); isSet(val) {
			q.Filters[k] = val
		}
	}
	return q, nil
}

func IsAllowedLimit(l int) bool {
	for _, a := range AllowedLimits {
		if a == l {
			return true
		}
	}
	return false
}

func isSet(v string) bool {
	return v != "" && v != FilterAll
}

// Filter devuelve el filtro o "" si no está seteado.
func (q Query) Filter(key string) string {
	if q.Filters == nil {
		return ""
	}
	return q.Filters[key]
}

func (q Query) Offset() int {
	p := q.Page
	if p < 1 {
		p = DefaultPage
	}
	return (p - 1) * q.EffectiveLimit()
}

func (q Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Values serializa la query para transmitirla. page siempre va; filtros en
// "ALL" o vacíos no se mandan.
func (q Query) Values() url.Values {
	out := url.Values{}
	page := q.Page
	if page < 1 {
		page = DefaultPage
	}
	out.Set("page", strconv.Itoa(page))
	if q.Limit > 0 {
		out.Set("limit", strconv.Itoa(q.Limit))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		out.Set("search", s)
	}
	for k, v := range q.Filters {
		if v = strings.TrimSpace(v); isSet(v) {
			out.Set(k, v)
		}
	}
	return out
}

// Key identifica la query para cache/last-request-wins.
func (q Query) Key() string {
	return q.Values().Encode()
}

func (q Query) clone() Query {
	c := q
	c.Filters = make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		c.Filters[k] = v
	}
	return c
}

// WithPage cambia solo la página; el resto de filtros se conserva.
func (q Query) WithPage(page int) Query {
	c := q.clone()
	if page < 1 {
		page = DefaultPage
	}
	c.Page = page
	return c
}

// WithFilter setea (o limpia con ""/"ALL") un filtro y vuelve a página 1.
func (q Query) WithFilter(key, value string) Query {
	c := q.clone()
	value = strings.TrimSpace(value)
	if isSet(value) {
		c.Filters[key] = value
	} else {
		delete(c.Filters, key)
	}
	c.Page = DefaultPage
	return c
}

func (q Query) WithSearch(s string) Query {
	c := q.clone()
	c.Search = strings.TrimSpace(s)
	c.Page = DefaultPage
	return c
}

func (q Query) WithLimit(l int) Query {
	c := q.clone()
	c.Limit = l
	c.Page = DefaultPage
	return c
}

// FilterKeys devuelve las keys seteadas en orden estable.
func (q Query) FilterKeys() []string {
	keys := make([]string, 0, len(q.Filters))
	for k, v := range q.Filters {
		if isSet(v) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
