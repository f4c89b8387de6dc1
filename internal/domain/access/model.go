// Package access define roles, scopes y el alcance por clínica (tenant) de cada request.
package access

import (
	"strings"

	"vet-clinic/internal/platform/validation"
)

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleClinicAdmin Role = "CLINIC_ADMIN"
	RoleStaff       Role = "STAFF"
)

type Scope string

const (
	ScopeClinicsRead      Scope = "clinics:read"
	ScopeClinicsManage    Scope = "clinics:manage"    // alta/baja/edición de clínicas
	ScopeClinicsReminders Scope = "clinics:reminders" // kill switch y límite mensual
	ScopeClinicsProfile   Scope = "clinics:profile"   // datos de contacto de la propia clínica
	ScopeUsersManage      Scope = "users:manage"
	ScopeOwnersWrite      Scope = "owners:write"
	ScopeOwnersDelete     Scope = "owners:delete"
	ScopePetsWrite        Scope = "pets:write"
	ScopeVisitsWrite      Scope = "visits:write"
	ScopeDashboardRead    Scope = "dashboard:read"
)

var roleScopes = map[Role][]Scope{
	RoleAdmin: {
		ScopeClinicsRead, ScopeClinicsManage, ScopeClinicsReminders, ScopeClinicsProfile,
		ScopeUsersManage, ScopeOwnersWrite, ScopeOwnersDelete, ScopePetsWrite, ScopeVisitsWrite,
		ScopeDashboardRead,
	},
	RoleClinicAdmin: {
		ScopeClinicsRead, ScopeClinicsProfile, ScopeUsersManage,
		ScopeOwnersWrite, ScopeOwnersDelete, ScopePetsWrite, ScopeVisitsWrite, ScopeDashboardRead,
	},
	RoleStaff: {
		ScopeClinicsRead, ScopeOwnersWrite, ScopePetsWrite, ScopeVisitsWrite, ScopeDashboardRead,
	},
}

func init() {
	validation.RegisterEnum("role", string(RoleAdmin), string(RoleClinicAdmin), string(RoleStaff))
}

// ParseRole normaliza (trim + upper) y valida.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := roleScopes[r]
	return r, ok
}

// HasScope valida si el rol incluye un scope.
func HasScope(role Role, scope Scope) bool {
	for _, s := range roleScopes[role] {
		if s == scope {
			return true
		}
	}
	return false
}

// ScopesOf devuelve una copia de los scopes del rol.
func ScopesOf(role Role) []Scope {
	src := roleScopes[role]
	out := make([]Scope, len(src))
	copy(out, src)
	return out
}
