package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/patch"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = fmt.Errorf("pet %w", apperr.ErrNotFound)
)

// OwnerLookup resuelve dueños sin depender del handler de owners.
type OwnerLookup interface {
	GetByID(ctx context.Context, id string) (owners.Owner, error)
}

// VisitRemover borra las visitas de una mascota.
type VisitRemover interface {
	DeleteByPet(ctx context.Context, petID string) error
}

type Service struct {
	repo   Repository
	owners OwnerLookup
	visits VisitRemover
	now    func() time.Time
}

func NewService(repo Repository, ownerLookup OwnerLookup) *Service {
	return &Service{
		repo:   repo,
		owners: ownerLookup,
		now:    time.Now,
	}
}

// SetVisitRemover se inyecta después porque visits depende de pets.
func (s *Service) SetVisitRemover(v VisitRemover) {
	s.visits = v
}

type CreateInput struct {
	OwnerID   string
	Name      string
	Species   Species
	Breed     string
	Gender    Gender
	BirthDate *time.Time
	Notes     string
}

func (s *Service) Create(ctx context.Context, actor access.Principal, in CreateInput) (Pet, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Pet{}, apperr.NewValidation("name", "is required")
	}
	if _, ok := ParseSpecies(string(in.Species)); !ok {
		return Pet{}, apperr.NewValidation("species", "is invalid")
	}
	owner, err := s.ownerFor(ctx, actor, in.OwnerID)
	if err != nil {
		return Pet{}, err
	}
	if err := s.validateBirthDate(in.BirthDate); err != nil {
		return Pet{}, err
	}

	gender := in.Gender
	if gender == "" {
		gender = GenderUnknown
	}

	now := s.now().UTC()
	p := Pet{
		ID:        uuid.NewString(),
		ClinicID:  owner.ClinicID,
		OwnerID:   owner.ID,
		Name:      name,
		Species:   in.Species,
		Breed:     strings.TrimSpace(in.Breed),
		Gender:    gender,
		BirthDate: in.BirthDate,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// GetByID sin chequeo de tenant (uso interno).
func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Pet{}, notFound(err)
	}
	return p, nil
}

// Get es la búsqueda directa por id con chequeo de tenant.
func (s *Service) Get(ctx context.Context, actor access.Principal, id string) (Pet, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if !actor.CanAccessClinic(p.ClinicID) {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, actor access.Principal, f ListFilter) (pagination.Result[Pet], error) {
	clinicID, err := actor.ResolveClinic(f.ClinicID)
	if err != nil {
		return pagination.Result[Pet]{}, err
	}
	f.ClinicID = clinicID
	return s.repo.List(ctx, f)
}

// ListByOwner valida el dueño (tenant) y lista sus mascotas.
func (s *Service) ListByOwner(ctx context.Context, actor access.Principal, ownerID string, f ListFilter) (pagination.Result[Pet], error) {
	owner, err := s.ownerFor(ctx, actor, ownerID)
	if err != nil {
		return pagination.Result[Pet]{}, err
	}
	f.OwnerID = owner.ID
	f.ClinicID = owner.ClinicID
	return s.repo.List(ctx, f)
}

type UpdateInput struct {
	OwnerID   *string
	Name      *string
	Species   *Species
	Breed     *string
	Gender    *Gender
	BirthDate patch.Optional[time.Time]
	Notes     *string
}

func (s *Service) Update(ctx context.Context, actor access.Principal, id string, in UpdateInput) (Pet, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return Pet{}, err
	}

	if in.OwnerID != nil && *in.OwnerID != p.OwnerID {
		owner, err := s.ownerFor(ctx, actor, *in.OwnerID)
		if err != nil {
			return Pet{}, err
		}
		if owner.ClinicID != p.ClinicID {
			return Pet{}, apperr.NewValidation("ownerId", "must belong to the same clinic")
		}
		p.OwnerID = owner.ID
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, apperr.NewValidation("name", "is required")
		}
		p.Name = name
	}
	if in.Species != nil {
		if _, ok := ParseSpecies(string(*in.Species)); !ok {
			return Pet{}, apperr.NewValidation("species", "is invalid")
		}
		p.Species = *in.Species
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	in.BirthDate.Apply(&p.BirthDate)
	if err := s.validateBirthDate(p.BirthDate); err != nil {
		return Pet{}, err
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, notFound(err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, actor access.Principal, id string) error {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, p.ID)
}

// DeleteByOwner es la cascada que usa owners al borrar un dueño.
func (s *Service) DeleteByOwner(ctx context.Context, ownerID string) error {
	ids, err := s.repo.ListIDsByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *Service) Count(ctx context.Context, clinicID string) (int, error) {
	return s.repo.Count(ctx, clinicID)
}

func (s *Service) delete(ctx context.Context, id string) error {
	if s.visits != nil {
		if err := s.visits.DeleteByPet(ctx, id); err != nil {
			return fmt.Errorf("delete visits of pet %s: %w", id, err)
		}
	}
	return notFound(s.repo.Delete(ctx, id))
}

func (s *Service) ownerFor(ctx context.Context, actor access.Principal, ownerID string) (owners.Owner, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return owners.Owner{}, apperr.NewValidation("ownerId", "is required")
	}
	o, err := s.owners.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return owners.Owner{}, owners.ErrNotFound
		}
		return owners.Owner{}, err
	}
	if !actor.CanAccessClinic(o.ClinicID) {
		return owners.Owner{}, owners.ErrNotFound
	}
	return o, nil
}

func (s *Service) validateBirthDate(bd *time.Time) error {
	if bd != nil && bd.After(s.now()) {
		return apperr.NewValidation("birthDate", "cannot be in the future")
	}
	return nil
}

func notFound(err error) error {
	if err != nil && errors.Is(err, apperr.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
