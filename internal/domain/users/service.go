package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/clinics"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrEmailTaken   = fmt.Errorf("email already in use: %w", apperr.ErrConflict)
	ErrSelfDelete   = fmt.Errorf("cannot delete yourself: %w", apperr.ErrForbidden)
)

const MinPasswordLen = 8

// ClinicReader es lo que users necesita de clinics (inyectado).
type ClinicReader interface {
	GetByID(ctx context.Context, id string) (clinics.Clinic, error)
}

type Service struct {
	repo    Repository
	clinics ClinicReader
	now     func() time.Time
	cost    int
}

func NewService(repo Repository, clinicReader ClinicReader) *Service {
	return &Service{
		repo:    repo,
		clinics: clinicReader,
		now:     time.Now,
		cost:    bcrypt.DefaultCost,
	}
}

type CreateInput struct {
	Email    string
	Name     string
	Password string
	Role     access.Role
	ClinicID string
	IsActive *bool
}

func (s *Service) Create(ctx context.Context, actor access.Principal, in CreateInput) (User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return User{}, apperr.NewValidation("email", "is required")
	}
	if len(in.Password) < MinPasswordLen {
		return User{}, apperr.NewValidation("password", fmt.Sprintf("must have at least %d characters", MinPasswordLen))
	}

	role, clinicID, err := s.resolveRoleAndClinic(ctx, actor, in.Role, in.ClinicID)
	if err != nil {
		return User{}, err
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     in.IsActive == nil || *in.IsActive,
		ClinicID:     clinicID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, actor access.Principal, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return User{}, notFound(err)
	}
	// Para no filtrar existencia entre clínicas, fuera de tenant es 404.
	if !canSee(actor, u) {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, actor access.Principal, f ListFilter) (pagination.Result[User], error) {
	clinicID, err := actor.ResolveClinic(f.ClinicID)
	if err != nil {
		return pagination.Result[User]{}, err
	}
	f.ClinicID = clinicID
	return s.repo.List(ctx, f)
}

type UpdateInput struct {
	Email    *string
	Name     *string
	Password *string
	Role     *access.Role
	ClinicID *string
	IsActive *bool
}

func (s *Service) Update(ctx context.Context, actor access.Principal, id string, in UpdateInput) (User, error) {
	u, err := s.Get(ctx, actor, id)
	if err != nil {
		return User{}, err
	}
	if u.Role == access.RoleAdmin && !actor.IsAdmin() {
		return User{}, apperr.ErrForbidden
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return User{}, apperr.NewValidation("email", "is required")
		}
		if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
			return User{}, err
		}
		u.Email = email
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Password != nil {
		if len(*in.Password) < MinPasswordLen {
			return User{}, apperr.NewValidation("password", fmt.Sprintf("must have at least %d characters", MinPasswordLen))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.cost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	if in.Role != nil || in.ClinicID != nil {
		role, clinicID := u.Role, u.ClinicID
		if in.Role != nil {
			role = *in.Role
		}
		if in.ClinicID != nil {
			clinicID = *in.ClinicID
		}
		// Pasar a ADMIN limpia la clínica.
		if role == access.RoleAdmin && in.ClinicID == nil {
			clinicID = ""
		}
		role, clinicID, err = s.resolveRoleAndClinic(ctx, actor, role, clinicID)
		if err != nil {
			return User{}, err
		}
		u.Role, u.ClinicID = role, clinicID
	}
	if in.IsActive != nil {
		if u.ID == actor.UserID && !*in.IsActive {
			return User{}, apperr.NewValidation("isActive", "cannot deactivate yourself")
		}
		u.IsActive = *in.IsActive
	}

	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, actor access.Principal, id string) error {
	u, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if u.ID == actor.UserID {
		return ErrSelfDelete
	}
	if u.Role == access.RoleAdmin && !actor.IsAdmin() {
		return apperr.ErrForbidden
	}
	return notFound(s.repo.Delete(ctx, u.ID))
}

// DeleteByClinic borra los usuarios de una clínica (la clínica se está borrando).
func (s *Service) DeleteByClinic(ctx context.Context, clinicID string) error {
	page := pagination.New().WithLimit(100)
	for {
		res, err := s.repo.List(ctx, ListFilter{Page: page, ClinicID: clinicID})
		if err != nil {
			return err
		}
		if len(res.Items) == 0 {
			return nil
		}
		for _, u := range res.Items {
			if err := notFound(s.repo.Delete(ctx, u.ID)); err != nil {
				return err
			}
		}
	}
}

// CheckPassword compara contra el hash guardado.
func CheckPassword(u User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// MeClinic y Me son la vista de sesión que consume la UI.
type MeClinic struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	CanSendReminders bool   `json:"canSendReminders"`
}

type Me struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Role     access.Role    `json:"role"`
	ClinicID *string        `json:"clinicId"`
	Clinic   *MeClinic      `json:"clinic"`
	Scopes   []access.Scope `json:"scopes"`
}

// Me arma la vista del usuario actual desde el principal. No exige que el
// usuario exista en el repo (modo dev con headers).
func (s *Service) Me(ctx context.Context, p access.Principal) (Me, error) {
	out := Me{
		ID:     p.UserID,
		Email:  p.Email,
		Role:   p.Role,
		Scopes: access.ScopesOf(p.Role),
	}
	if u, err := s.repo.GetByID(ctx, p.UserID); err == nil && out.Email == "" {
		out.Email = u.Email
	}
	if p.ClinicID == "" {
		return out, nil
	}

	id := p.ClinicID
	out.ClinicID = &id
	c, err := s.clinics.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Me{}, apperr.ErrForbidden
		}
		return Me{}, err
	}
	out.Clinic = &MeClinic{ID: c.ID, Name: c.Name, CanSendReminders: c.CanSendReminders}
	return out, nil
}

// resolveRoleAndClinic aplica las reglas de alta/edición:
//   - ADMIN no tiene clínica
//   - CLINIC_ADMIN/STAFF necesitan una clínica existente
//   - CLINIC_ADMIN solo opera sobre su clínica y no crea ADMIN
func (s *Service) resolveRoleAndClinic(ctx context.Context, actor access.Principal, role access.Role, clinicID string) (access.Role, string, error) {
	role, ok := access.ParseRole(string(role))
	if !ok {
		return "", "", apperr.NewValidation("role", "must be ADMIN, CLINIC_ADMIN or STAFF")
	}
	if role == access.RoleAdmin {
		if !actor.IsAdmin() {
			return "", "", apperr.ErrForbidden
		}
		if strings.TrimSpace(clinicID) != "" {
			return "", "", apperr.NewValidation("clinicId", "must be empty for ADMIN")
		}
		return role, "", nil
	}

	id, err := actor.RequireClinic(clinicID)
	if err != nil {
		return "", "", err
	}
	if _, err := s.clinics.GetByID(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", "", apperr.NewValidation("clinicId", "clinic does not exist")
		}
		return "", "", err
	}
	return role, id, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return ErrEmailTaken
	case err == nil, errors.Is(err, apperr.ErrNotFound):
		return nil
	default:
		return err
	}
}

func canSee(actor access.Principal, u User) bool {
	if actor.IsAdmin() {
		return true
	}
	return u.ClinicID != "" && u.ClinicID == actor.ClinicID
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func notFound(err error) error {
	if err != nil && errors.Is(err, apperr.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
