package access

import (
	"context"
	"strings"

	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/ports/auth"
)

// Principal es el usuario autenticado ya tipado.
type Principal struct {
	UserID   string
	Email    string
	Role     Role
	ClinicID string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

func (p Principal) Can(scope Scope) bool { return HasScope(p.Role, scope) }

// FromClaims valida rol y tenant. ADMIN no necesita clínica; el resto sí.
func FromClaims(c auth.Claims) (Principal, error) {
	uid := strings.TrimSpace(c.UserID)
	if uid == "" {
		return Principal{}, apperr.ErrUnauthorized
	}
	role, ok := ParseRole(c.Role)
	if !ok {
		return Principal{}, apperr.ErrForbidden
	}
	p := Principal{
		UserID:   uid,
		Email:    strings.TrimSpace(c.Email),
		Role:     role,
		ClinicID: strings.TrimSpace(c.ClinicID),
	}
	if role != RoleAdmin && p.ClinicID == "" {
		return Principal{}, apperr.ErrForbidden
	}
	return p, nil
}

// FromContext lee claims del middleware.
func FromContext(ctx context.Context) (Principal, error) {
	c, ok := middleware.GetClaims(ctx)
	if !ok {
		return Principal{}, apperr.ErrUnauthorized
	}
	return FromClaims(c)
}

// Require = FromContext + scope.
func Require(ctx context.Context, scope Scope) (Principal, error) {
	p, err := FromContext(ctx)
	if err != nil {
		return Principal{}, err
	}
	if !p.Can(scope) {
		return Principal{}, apperr.ErrForbidden
	}
	return p, nil
}

// ResolveClinic decide sobre qué clínica opera el request.
//   - ADMIN: la pedida (vacío = todas, solo válido en listados)
//   - resto: siempre la propia; pedir otra es forbidden
func (p Principal) ResolveClinic(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if p.IsAdmin() {
		return requested, nil
	}
	if requested != "" && requested != p.ClinicID {
		return "", apperr.ErrForbidden
	}
	return p.ClinicID, nil
}

// RequireClinic es ResolveClinic pero exige una clínica concreta (altas).
func (p Principal) RequireClinic(requested string) (string, error) {
	id, err := p.ResolveClinic(requested)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", apperr.NewValidation("clinicId", "is required")
	}
	return id, nil
}

// CanAccessClinic valida acceso a un recurso que pertenece a clinicID.
func (p Principal) CanAccessClinic(clinicID string) bool {
	return p.IsAdmin() || (clinicID != "" && clinicID == p.ClinicID)
}
