package clinics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-clinic/internal/domain/reminders"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/patch"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = fmt.Errorf("clinic %w", apperr.ErrNotFound)

	// ErrQuotaExhausted: la clínica no puede mandar más en este ciclo.
	ErrQuotaExhausted = fmt.Errorf("reminder quota exhausted: %w", apperr.ErrConflict)
)

// DataRemover borra lo que cuelga de una clínica (usuarios, dueños y en cascada
// mascotas y visitas).
type DataRemover interface {
	DeleteByClinic(ctx context.Context, clinicID string) error
}

type Service struct {
	repo     Repository
	removers []DataRemover
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// SetRemovers se llama después de armar users y owners (ambos dependen de clinics).
func (s *Service) SetRemovers(rs ...DataRemover) {
	s.removers = append(s.removers, rs...)
}

type CreateInput struct {
	Name    string
	Email   string
	Phone   string
	Address string

	IsActive             *bool // default true
	CanSendReminders     *bool // default false
	ReminderMonthlyLimit *int  // nil => ilimitado

	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Clinic, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Clinic{}, apperr.NewValidation("name", "is required")
	}

	limit := reminders.NormalizeLimit(in.ReminderMonthlyLimit)
	if err := reminders.ValidateLimit(limit); err != nil {
		return Clinic{}, apperr.NewValidation("reminderMonthlyLimit", err.Error())
	}
	if err := validateSubscription(in.SubscriptionStartDate, in.SubscriptionEndDate); err != nil {
		return Clinic{}, err
	}

	now := s.now().UTC()
	c := Clinic{
		ID:                    uuid.NewString(),
		Name:                  name,
		Email:                 strings.TrimSpace(in.Email),
		Phone:                 strings.TrimSpace(in.Phone),
		Address:               strings.TrimSpace(in.Address),
		IsActive:              boolOr(in.IsActive, true),
		CanSendReminders:      boolOr(in.CanSendReminders, false),
		ReminderMonthlyLimit:  limit,
		CurrentCycleStartDate: startOfDay(now),
		SubscriptionStartDate: in.SubscriptionStartDate,
		SubscriptionEndDate:   in.SubscriptionEndDate,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Clinic{}, err
	}
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Clinic, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Clinic{}, ErrNotFound
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Clinic{}, notFound(err)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) (pagination.Result[Clinic], error) {
	return s.repo.List(ctx, f)
}

// UpdateInput: nil/Set=false => no tocar.
type UpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Address  *string
	IsActive *bool

	SubscriptionStartDate patch.Optional[time.Time]
	SubscriptionEndDate   patch.Optional[time.Time]
}

// TouchesAdminFields indica si el patch cambia campos reservados a ADMIN.
func (in UpdateInput) TouchesAdminFields() bool {
	return in.IsActive != nil || in.SubscriptionStartDate.Set || in.SubscriptionEndDate.Set
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Clinic, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return Clinic{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Clinic{}, apperr.NewValidation("name", "is required")
		}
		c.Name = name
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	in.SubscriptionStartDate.Apply(&c.SubscriptionStartDate)
	in.SubscriptionEndDate.Apply(&c.SubscriptionEndDate)

	if err := validateSubscription(c.SubscriptionStartDate, c.SubscriptionEndDate); err != nil {
		return Clinic{}, err
	}

	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return Clinic{}, notFound(err)
	}
	return c, nil
}

// ReminderSettings es lo que solo ADMIN puede cambiar.
type ReminderSettings struct {
	CanSendReminders     *bool
	ReminderMonthlyLimit *int
}

// UpdateReminderSettings no toca el opt-in de los dueños: ese flag vive en owners
// y se evalúa junto al de la clínica al momento de enviar.
func (s *Service) UpdateReminderSettings(ctx context.Context, id string, in ReminderSettings) (Clinic, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return Clinic{}, err
	}
	if in.CanSendReminders == nil && in.ReminderMonthlyLimit == nil {
		return Clinic{}, apperr.NewValidation("body", "nothing to update")
	}
	if in.CanSendReminders != nil {
		c.CanSendReminders = *in.CanSendReminders
	}
	if in.ReminderMonthlyLimit != nil {
		if err := reminders.ValidateLimit(*in.ReminderMonthlyLimit); err != nil {
			return Clinic{}, apperr.NewValidation("reminderMonthlyLimit", err.Error())
		}
		c.ReminderMonthlyLimit = *in.ReminderMonthlyLimit
	}

	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return Clinic{}, notFound(err)
	}
	return c, nil
}

// Delete borra primero los datos de la clínica; si algo falla la clínica queda
// y el borrado se puede reintentar.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	for _, r := range s.removers {
		if err := r.DeleteByClinic(ctx, id); err != nil {
			return fmt.Errorf("delete clinic data: %w", err)
		}
	}
	return notFound(s.repo.Delete(ctx, id))
}

// Usage es el resumen de cuota para la UI.
type Usage struct {
	reminders.Usage
	CanSend    bool      `json:"canSend"`
	Remaining  int       `json:"remaining"`
	CycleStart time.Time `json:"cycleStart"`
	CycleEnd   time.Time `json:"cycleEnd"`
}

func (s *Service) Usage(ctx context.Context, id string) (Usage, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return Usage{}, err
	}
	return UsageOf(c), nil
}

func UsageOf(c Clinic) Usage {
	q := c.Quota()
	return Usage{
		Usage:      reminders.Summarize(q),
		CanSend:    reminders.CanSend(q),
		Remaining:  reminders.Remaining(q),
		CycleStart: q.CycleStart,
		CycleEnd:   reminders.CycleEnd(q.CycleStart),
	}
}

// CanSendReminders expone el kill switch (owners lo usa para remindersEffective).
func (s *Service) CanSendReminders(ctx context.Context, id string) (bool, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return c.CanSendReminders, nil
}

// RecordReminderSent consume una unidad de cuota.
func (s *Service) RecordReminderSent(ctx context.Context, id string) (Clinic, error) {
	c, err := s.repo.IncrementReminderSent(ctx, id)
	if err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			return Clinic{}, ErrQuotaExhausted
		}
		return Clinic{}, notFound(err)
	}
	return c, nil
}

// RefundReminder devuelve una unidad de cuota reservada que no llegó a enviarse.
// El contador nunca baja de 0.
func (s *Service) RefundReminder(ctx context.Context, id string) (Clinic, error) {
	c, err := s.repo.DecrementReminderSent(ctx, id)
	if err != nil {
		return Clinic{}, notFound(err)
	}
	return c, nil
}

// RolloverIfNeeded reinicia el ciclo si now cruzó el borde. Devuelve la clínica
// (posiblemente actualizada) y si este llamado aplicó el rollover: si otra
// instancia ya lo hizo, rolled es false.
func (s *Service) RolloverIfNeeded(ctx context.Context, c Clinic) (Clinic, bool, error) {
	now := s.now().UTC()
	if !reminders.NeedsRollover(c.CurrentCycleStartDate, now) {
		return c, false, nil
	}
	next := reminders.NextCycleStart(c.CurrentCycleStartDate, now)
	updated, applied, err := s.repo.ResetCycle(ctx, c.ID, c.CurrentCycleStartDate, next)
	if err != nil {
		return c, false, notFound(err)
	}
	return updated, applied, nil
}

// ResetCycle fuerza un ciclo nuevo desde hoy (acción manual de ADMIN).
func (s *Service) ResetCycle(ctx context.Context, id string) (Clinic, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return Clinic{}, err
	}
	c, _, err := s.repo.ResetCycle(ctx, id, time.Time{}, startOfDay(s.now().UTC()))
	if err != nil {
		return Clinic{}, notFound(err)
	}
	return c, nil
}

func validateSubscription(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperr.NewValidation("subscriptionEndDate", "must be after subscriptionStartDate")
	}
	return nil
}

func notFound(err error) error {
	if err != nil && errors.Is(err, apperr.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
