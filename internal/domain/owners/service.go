package owners

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/reminders"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = fmt.Errorf("owner %w", apperr.ErrNotFound)
)

// ClinicCapabilities expone el kill switch de la clínica sin importar clinics.
type ClinicCapabilities interface {
	CanSendReminders(ctx context.Context, clinicID string) (bool, error)
}

// PetRemover borra las mascotas (y en cascada sus visitas) de un dueño.
type PetRemover interface {
	DeleteByOwner(ctx context.Context, ownerID string) error
}

type Service struct {
	repo    Repository
	clinics ClinicCapabilities
	pets    PetRemover
	now     func() time.Time
}

func NewService(repo Repository, caps ClinicCapabilities) *Service {
	return &Service{
		repo:    repo,
		clinics: caps,
		now:     time.Now,
	}
}

// SetPetRemover se inyecta después porque pets depende de owners.
func (s *Service) SetPetRemover(p PetRemover) {
	s.pets = p
}

type CreateInput struct {
	ClinicID                string
	FirstName               string
	LastName                string
	Phone                   string
	Email                   string
	Address                 string
	AllowAutomatedReminders bool
}

func (s *Service) Create(ctx context.Context, actor access.Principal, in CreateInput) (Owner, error) {
	clinicID, err := actor.RequireClinic(in.ClinicID)
	if err != nil {
		return Owner{}, err
	}
	if _, err := s.clinics.CanSendReminders(ctx, clinicID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Owner{}, apperr.NewValidation("clinicId", "clinic does not exist")
		}
		return Owner{}, err
	}
	first := strings.TrimSpace(in.FirstName)
	if first == "" {
		return Owner{}, apperr.NewValidation("firstName", "is required")
	}
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return Owner{}, apperr.NewValidation("phone", "is required")
	}

	now := s.now().UTC()
	o := Owner{
		ID:                      uuid.NewString(),
		ClinicID:                clinicID,
		FirstName:               first,
		LastName:                strings.TrimSpace(in.LastName),
		Phone:                   phone,
		Email:                   strings.ToLower(strings.TrimSpace(in.Email)),
		Address:                 strings.TrimSpace(in.Address),
		AllowAutomatedReminders: in.AllowAutomatedReminders,
		CreatedBy:               actor.UserID,
		UpdatedBy:               actor.UserID,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

// Get devuelve 404 también cuando el dueño es de otra clínica.
func (s *Service) Get(ctx context.Context, actor access.Principal, id string) (Owner, error) {
	o, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Owner{}, notFound(err)
	}
	if !actor.CanAccessClinic(o.ClinicID) {
		return Owner{}, ErrNotFound
	}
	return o, nil
}

// GetByID sin chequeo de tenant (uso interno: job de recordatorios, pets).
func (s *Service) GetByID(ctx context.Context, id string) (Owner, error) {
	o, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Owner{}, notFound(err)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, actor access.Principal, f ListFilter) (pagination.Result[Owner], error) {
	clinicID, err := actor.ResolveClinic(f.ClinicID)
	if err != nil {
		return pagination.Result[Owner]{}, err
	}
	f.ClinicID = clinicID
	return s.repo.List(ctx, f)
}

type UpdateInput struct {
	FirstName               *string
	LastName                *string
	Phone                   *string
	Email                   *string
	Address                 *string
	AllowAutomatedReminders *bool
}

func (s *Service) Update(ctx context.Context, actor access.Principal, id string, in UpdateInput) (Owner, error) {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return Owner{}, err
	}

	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if v == "" {
			return Owner{}, apperr.NewValidation("firstName", "is required")
		}
		o.FirstName = v
	}
	if in.LastName != nil {
		o.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		v := strings.TrimSpace(*in.Phone)
		if v == "" {
			return Owner{}, apperr.NewValidation("phone", "is required")
		}
		o.Phone = v
	}
	if in.Email != nil {
		o.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Address != nil {
		o.Address = strings.TrimSpace(*in.Address)
	}
	if in.AllowAutomatedReminders != nil {
		o.AllowAutomatedReminders = *in.AllowAutomatedReminders
	}

	o.UpdatedBy = actor.UserID
	o.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, o); err != nil {
		return Owner{}, notFound(err)
	}
	return o, nil
}

// Delete borra primero las mascotas (y sus visitas), después el dueño.
func (s *Service) Delete(ctx context.Context, actor access.Principal, id string) error {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, o.ID)
}

// DeleteByClinic borra todos los dueños de una clínica con sus mascotas y visitas.
func (s *Service) DeleteByClinic(ctx context.Context, clinicID string) error {
	page := pagination.New().WithLimit(100)
	for {
		// Siempre página 1: cada vuelta borra lo que trajo.
		res, err := s.repo.List(ctx, ListFilter{Page: page, ClinicID: clinicID})
		if err != nil {
			return err
		}
		if len(res.Items) == 0 {
			return nil
		}
		for _, o := range res.Items {
			if err := s.delete(ctx, o.ID); err != nil {
				return err
			}
		}
	}
}

func (s *Service) delete(ctx context.Context, id string) error {
	if s.pets != nil {
		if err := s.pets.DeleteByOwner(ctx, id); err != nil {
			return fmt.Errorf("delete pets of owner %s: %w", id, err)
		}
	}
	return notFound(s.repo.Delete(ctx, id))
}

func (s *Service) Count(ctx context.Context, clinicID string) (int, error) {
	return s.repo.Count(ctx, clinicID)
}

// RemindersEffective resuelve el opt-in contra el kill switch de la clínica.
func (s *Service) RemindersEffective(ctx context.Context, o Owner) (bool, error) {
	if !o.AllowAutomatedReminders {
		return false, nil
	}
	canSend, err := s.clinics.CanSendReminders(ctx, o.ClinicID)
	if err != nil {
		return false, err
	}
	return reminders.OwnerEffective(canSend, o.AllowAutomatedReminders), nil
}

// EffectiveResolver cachea el flag de clínica dentro de un listado.
type EffectiveResolver struct {
	svc   *Service
	cache map[string]bool
}

func (s *Service) NewEffectiveResolver() *EffectiveResolver {
	return &EffectiveResolver{svc: s, cache: map[string]bool{}}
}

func (r *EffectiveResolver) Resolve(ctx context.Context, o Owner) (bool, error) {
	canSend, ok := r.cache[o.ClinicID]
	if !ok {
		var err error
		canSend, err = r.svc.clinics.CanSendReminders(ctx, o.ClinicID)
		if err != nil {
			return false, err
		}
		r.cache[o.ClinicID] = canSend
	}
	return reminders.OwnerEffective(canSend, o.AllowAutomatedReminders), nil
}

func notFound(err error) error {
	if err != nil && errors.Is(err, apperr.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
