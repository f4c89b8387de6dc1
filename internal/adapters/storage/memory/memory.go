// Package memory implementa los repositorios en memoria (dev y tests).
package memory

import (
	"fmt"
	"strings"

	"vet-clinic/internal/platform/apperr"
)

var (
	ErrNotFound  = apperr.ErrNotFound
	ErrDuplicate = fmt.Errorf("already exists: %w", apperr.ErrConflict)
)

// containsFold: búsqueda simple case-insensitive sobre varios campos.
func containsFold(needle string, fields ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func inSet(v string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
