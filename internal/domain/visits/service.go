package visits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/domain/reminders"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/patch"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = fmt.Errorf("visit %w", apperr.ErrNotFound)
)

// PetLookup resuelve la mascota (y su clínica) de una visita.
type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type Service struct {
	repo Repository
	pets PetLookup
	now  func() time.Time
}

func NewService(repo Repository, petLookup PetLookup) *Service {
	return &Service{
		repo: repo,
		pets: petLookup,
		now:  time.Now,
	}
}

type CreateInput struct {
	PetID     string
	VisitDate time.Time
	VisitType VisitType
	Notes     string
	Price     *float64
	Vitals    Vitals

	IsReminderEnabled bool
	NextReminderDate  *time.Time
}

func (s *Service) Create(ctx context.Context, actor access.Principal, in CreateInput) (Visit, error) {
	pet, err := s.petFor(ctx, actor, in.PetID)
	if err != nil {
		return Visit{}, err
	}

	now := s.now().UTC()
	v := Visit{
		ID:                uuid.NewString(),
		ClinicID:          pet.ClinicID,
		PetID:             pet.ID,
		VisitDate:         in.VisitDate.UTC(),
		VisitType:         in.VisitType,
		Notes:             strings.TrimSpace(in.Notes),
		Price:             in.Price,
		Vitals:            in.Vitals,
		IsReminderEnabled: in.IsReminderEnabled,
		NextReminderDate:  in.NextReminderDate,
		CreatedBy:         actor.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := validateVisit(v); err != nil {
		return Visit{}, err
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return Visit{}, err
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, actor access.Principal, id string) (Visit, error) {
	v, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Visit{}, notFound(err)
	}
	if !actor.CanAccessClinic(v.ClinicID) {
		return Visit{}, ErrNotFound
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, actor access.Principal, f ListFilter) (pagination.Result[Visit], error) {
	clinicID, err := actor.ResolveClinic(f.ClinicID)
	if err != nil {
		return pagination.Result[Visit]{}, err
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return pagination.Result[Visit]{}, apperr.NewValidation("dateTo", "must be after dateFrom")
	}
	f.ClinicID = clinicID
	return s.repo.List(ctx, f)
}

// ListByPet valida la mascota (tenant) y lista sus visitas.
func (s *Service) ListByPet(ctx context.Context, actor access.Principal, petID string, f ListFilter) (pagination.Result[Visit], error) {
	pet, err := s.petFor(ctx, actor, petID)
	if err != nil {
		return pagination.Result[Visit]{}, err
	}
	f.PetID = pet.ID
	f.ClinicID = pet.ClinicID
	return s.repo.List(ctx, f)
}

type UpdateInput struct {
	VisitDate *time.Time
	VisitType *VisitType
	Notes     *string

	Price           patch.Optional[float64]
	WeightKg        patch.Optional[float64]
	TemperatureC    patch.Optional[float64]
	HeartRate       patch.Optional[int]
	RespiratoryRate patch.Optional[int]

	IsReminderEnabled *bool
	NextReminderDate  patch.Optional[time.Time]
}

// Update aplica el patch y valida el estado resultante: el par de recordatorio
// se chequea sobre lo mergeado, no sobre lo enviado.
func (s *Service) Update(ctx context.Context, actor access.Principal, id string, in UpdateInput) (Visit, error) {
	v, err := s.Get(ctx, actor, id)
	if err != nil {
		return Visit{}, err
	}

	if in.VisitDate != nil {
		v.VisitDate = in.VisitDate.UTC()
	}
	if in.VisitType != nil {
		v.VisitType = *in.VisitType
	}
	if in.Notes != nil {
		v.Notes = strings.TrimSpace(*in.Notes)
	}
	in.Price.Apply(&v.Price)
	in.WeightKg.Apply(&v.Vitals.WeightKg)
	in.TemperatureC.Apply(&v.Vitals.TemperatureC)
	in.HeartRate.Apply(&v.Vitals.HeartRate)
	in.RespiratoryRate.Apply(&v.Vitals.RespiratoryRate)

	if in.IsReminderEnabled != nil {
		v.IsReminderEnabled = *in.IsReminderEnabled
	}
	if in.NextReminderDate.Set {
		prev := v.NextReminderDate
		in.NextReminderDate.Apply(&v.NextReminderDate)
		// Fecha nueva => recordatorio pendiente otra vez.
		if !sameDate(prev, v.NextReminderDate) {
			v.ReminderSent = false
		}
	}

	if err := validateVisit(v); err != nil {
		return Visit{}, err
	}

	v.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, v); err != nil {
		return Visit{}, notFound(err)
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, actor access.Principal, id string) error {
	v, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	return notFound(s.repo.Delete(ctx, v.ID))
}

// DeleteByPet es la cascada que usa pets.
func (s *Service) DeleteByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}

// ListDue devuelve una página de visitas con recordatorio vencido de una
// clínica, a partir de after (cero = desde el principio).
func (s *Service) ListDue(ctx context.Context, clinicID string, now time.Time, after DueCursor, limit int) ([]Visit, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListDue(ctx, clinicID, now, after, limit)
}

func (s *Service) MarkReminderSent(ctx context.Context, id string) error {
	return notFound(s.repo.MarkReminderSent(ctx, id))
}

// Count cuenta visitas de la clínica; since != nil filtra por visitDate >= since.
func (s *Service) Count(ctx context.Context, clinicID string, since *time.Time) (int, error) {
	return s.repo.Count(ctx, clinicID, since)
}

func (s *Service) CountPendingReminders(ctx context.Context, clinicID string) (int, error) {
	return s.repo.CountPendingReminders(ctx, clinicID)
}

func (s *Service) petFor(ctx context.Context, actor access.Principal, petID string) (pets.Pet, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return pets.Pet{}, apperr.NewValidation("petId", "is required")
	}
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	if !actor.CanAccessClinic(p.ClinicID) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

func validateVisit(v Visit) error {
	fields := map[string]string{}
	if v.VisitDate.IsZero() {
		fields["visitDate"] = "is required"
	}
	if _, ok := ParseVisitType(string(v.VisitType)); !ok {
		fields["visitType"] = "is not a valid visittype"
	}
	if v.Price != nil && *v.Price < 0 {
		fields["price"] = "must be >= 0"
	}
	if w := v.Vitals.WeightKg; w != nil && (*w <= 0 || *w > 1000) {
		fields["weightKg"] = "must be in (0, 1000]"
	}
	if t := v.Vitals.TemperatureC; t != nil && (*t < 25 || *t > 45) {
		fields["temperatureC"] = "must be in [25, 45]"
	}
	if hr := v.Vitals.HeartRate; hr != nil && (*hr <= 0 || *hr > 400) {
		fields["heartRate"] = "must be in (0, 400]"
	}
	if rr := v.Vitals.RespiratoryRate; rr != nil && (*rr <= 0 || *rr > 200) {
		fields["respiratoryRate"] = "must be in (0, 200]"
	}
	if err := reminders.ValidateVisitReminder(v.IsReminderEnabled, v.NextReminderDate); err != nil {
		fields["nextReminderDate"] = err.Error()
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func notFound(err error) error {
	if err != nil && errors.Is(err, apperr.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
