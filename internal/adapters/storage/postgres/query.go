package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vet-clinic/internal/platform/pagination"
)

// where arma condiciones con placeholders $N en orden.
type where struct {
	conds []string
	args  []any
}

// arg agrega un valor y devuelve su placeholder.
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

// add agrega una condición; cada "?" se reemplaza por el placeholder del valor.
func (w *where) add(cond string, vals ...any) {
	for _, v := range vals {
		cond = strings.Replace(cond, "?", w.arg(v), 1)
	}
	w.conds = append(w.conds, cond)
}

// in agrega "col IN (...)". Con la lista vacía no filtra.
func (w *where) in(col string, vals []string) {
	if len(vals) == 0 {
		return
	}
	ph := make([]string, 0, len(vals))
	for _, v := range vals {
		ph = append(ph, w.arg(v))
	}
	w.conds = append(w.conds, col+" IN ("+strings.Join(ph, ",")+")")
}

// search agrega un ILIKE sobre varias columnas con un único argumento.
func (w *where) search(q string, cols ...string) {
	q = strings.TrimSpace(q)
	if q == "" || len(cols) == 0 {
		return
	}
	ph := w.arg("%" + q + "%")
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, c+" ILIKE "+ph)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page devuelve " LIMIT $n OFFSET $m" sin mutar w (args extra aparte).
func (w *where) page(q pagination.Query) (string, []any) {
	args := append([]any{}, w.args...)
	n := len(args)
	args = append(args, q.EffectiveLimit(), q.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

type scanner interface {
	Scan(dest ...any) error
}

// listPage corre COUNT(*) + SELECT paginado con el mismo WHERE.
func listPage[T any](
	ctx context.Context,
	db *sql.DB,
	selectSQL, fromSQL string,
	w *where,
	orderBy string,
	q pagination.Query,
	scan func(scanner) (T, error),
) (pagination.Result[T], error) {
	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) "+fromSQL+w.sql(), w.args...).Scan(&total); err != nil {
		return pagination.Result[T]{}, fmt.Errorf("count: %w", err)
	}

	limitSQL, args := w.page(q)
	rows, err := db.QueryContext(ctx, selectSQL+" "+fromSQL+w.sql()+" ORDER BY "+orderBy+limitSQL, args...)
	if err != nil {
		return pagination.Result[T]{}, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return pagination.Result[T]{}, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return pagination.Result[T]{}, err
	}
	return pagination.Result[T]{Items: out, TotalCount: total}, nil
}
