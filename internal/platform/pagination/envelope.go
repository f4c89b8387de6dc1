package pagination

// Meta es la forma actual de metadata de paginación.
type Meta struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalCount   int `json:"totalCount"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Page es el envelope {data, meta} (owners, pets, visits).
type Page[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// LegacyMeta es la forma histórica que siguen devolviendo clinics y users.
type LegacyMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
	TotalCount int `json:"totalCount"`
}

// LegacyPage es el envelope {data, pagination}.
type LegacyPage[T any] struct {
	Data       []T        `json:"data"`
	Pagination LegacyMeta `json:"pagination"`
}

// Result es lo que devuelven los repositorios: items de la página + total.
type Result[T any] struct {
	Items      []T
	TotalCount int
}

func TotalPages(totalCount, limit int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if totalCount <= 0 {
		return 0
	}
	return (totalCount + limit - 1) / limit
}

func NewPage[T any](items []T, totalCount int, q Query) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Data: items,
		Meta: Meta{
			CurrentPage:  q.WithPage(q.Page).Page,
			TotalPages:   TotalPages(totalCount, q.EffectiveLimit()),
			TotalCount:   totalCount,
			ItemsPerPage: q.EffectiveLimit(),
		},
	}
}

func NewLegacyPage[T any](items []T, totalCount int, q Query) LegacyPage[T] {
	p := NewPage(items, totalCount, q)
	return LegacyPage[T]{
		Data: p.Data,
		Pagination: LegacyMeta{
			Page:       p.Meta.CurrentPage,
			Limit:      p.Meta.ItemsPerPage,
			TotalPages: p.Meta.TotalPages,
			TotalCount: p.Meta.TotalCount,
		},
	}
}

// Map convierte los items de un Result (modelo -> response) sin tocar el total.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	out := make([]U, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, f(it))
	}
	return Result[U]{Items: out, TotalCount: r.TotalCount}
}

// Slice aplica offset/limit sobre un slice ya filtrado y ordenado (repos in-memory).
func Slice[T any](all []T, q Query) Result[T] {
	total := len(all)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.EffectiveLimit()
	if end > total {
		end = total
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	return Result[T]{Items: items, TotalCount: total}
}
