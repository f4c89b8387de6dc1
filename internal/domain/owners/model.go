package owners

import (
	"strings"
	"time"

	"vet-clinic/internal/platform/pagination"
)

type Owner struct {
	ID       string
	ClinicID string

	FirstName string
	LastName  string
	Phone     string // requerido
	Email     string
	Address   string

	// AllowAutomatedReminders es el opt-in del dueño. Se guarda aunque la
	// clínica tenga los recordatorios apagados.
	AllowAutomatedReminders bool

	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o Owner) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

type ListFilter struct {
	Page     pagination.Query
	Search   string // nombre, teléfono o email
	ClinicID string // vacío = todas (solo ADMIN)
}
