// Package jobs corre el trabajo periódico del servicio: rollover de ciclos de
// cuota y despacho de recordatorios vencidos.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"vet-clinic/internal/domain/clinics"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/domain/reminders"
	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/ports/notify"
)

type ClinicStore interface {
	List(ctx context.Context, f clinics.ListFilter) (pagination.Result[clinics.Clinic], error)
	RolloverIfNeeded(ctx context.Context, c clinics.Clinic) (clinics.Clinic, bool, error)
	RecordReminderSent(ctx context.Context, id string) (clinics.Clinic, error)
	RefundReminder(ctx context.Context, id string) (clinics.Clinic, error)
}

type DueVisits interface {
	ListDue(ctx context.Context, clinicID string, now time.Time, after visits.DueCursor, limit int) ([]visits.Visit, error)
	MarkReminderSent(ctx context.Context, id string) error
}

type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type OwnerLookup interface {
	GetByID(ctx context.Context, id string) (owners.Owner, error)
}

const (
	clinicPageSize = 100
	dueBatchSize   = 100
)

type ReminderJob struct {
	clinics  ClinicStore
	visits   DueVisits
	pets     PetLookup
	owners   OwnerLookup
	notifier notify.Notifier
	log      logger.Logger
	now      func() time.Time
}

func NewReminderJob(c ClinicStore, v DueVisits, p PetLookup, o OwnerLookup, n notify.Notifier, log logger.Logger) *ReminderJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ReminderJob{clinics: c, visits: v, pets: p, owners: o, notifier: n, log: log, now: time.Now}
}

// Summary de una pasada.
type Summary struct {
	Clinics     int
	RolledOver  int
	Sent        int
	Skipped     int
	Failed      int
	QuotaCapped int // clínicas que cortaron por cuota
}

// RunOnce recorre las clínicas activas. Un error en una visita se loguea y no
// corta la pasada; solo falla si no se pueden listar clínicas.
func (j *ReminderJob) RunOnce(ctx context.Context) (Summary, error) {
	var sum Summary
	active := true
	q := pagination.New().WithLimit(clinicPageSize)

	for page := 1; ; page++ {
		res, err := j.clinics.List(ctx, clinics.ListFilter{Page: q.WithPage(page), Active: &active})
		if err != nil {
			return sum, fmt.Errorf("list clinics: %w", err)
		}
		for _, c := range res.Items {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			j.runClinic(ctx, c, &sum)
		}
		if page >= pagination.TotalPages(res.TotalCount, clinicPageSize) {
			break
		}
	}

	j.log.Info("reminder run finished", map[string]any{
		"clinics":      sum.Clinics,
		"rolled_over":  sum.RolledOver,
		"sent":         sum.Sent,
		"skipped":      sum.Skipped,
		"failed":       sum.Failed,
		"quota_capped": sum.QuotaCapped,
	})
	return sum, nil
}

func (j *ReminderJob) runClinic(ctx context.Context, c clinics.Clinic, sum *Summary) {
	log := j.log.With(map[string]any{"clinic_id": c.ID})
	sum.Clinics++

	c, rolled, err := j.clinics.RolloverIfNeeded(ctx, c)
	if err != nil {
		log.Error("cycle rollover failed", map[string]any{"err": err})
		sum.Failed++
		return
	}
	if rolled {
		sum.RolledOver++
		log.Info("cycle rolled over", map[string]any{"cycle_start": c.CurrentCycleStartDate})
	}

	// Chequeo barato antes de tocar visitas.
	if !reminders.CanSend(c.Quota()) {
		return
	}

	// Las visitas salteadas (dueño sin consentimiento) siguen vencidas: se avanza
	// con cursor para que no tapen a las siguientes.
	now := j.now().UTC()
	var after visits.DueCursor
	for {
		due, err := j.visits.ListDue(ctx, c.ID, now, after, dueBatchSize)
		if err != nil {
			log.Error("list due visits failed", map[string]any{"err": err})
			sum.Failed++
			return
		}
		for _, v := range due {
			if err := ctx.Err(); err != nil {
				return
			}
			next, stop := j.dispatch(ctx, log, c, v, now, sum)
			c = next
			if stop {
				sum.QuotaCapped++
				return
			}
		}
		if len(due) < dueBatchSize {
			return
		}
		after = visits.CursorOf(due[len(due)-1])
	}
}

// dispatch decide y envía un recordatorio. stop=true cuando la clínica ya no
// puede mandar más en este ciclo.
func (j *ReminderJob) dispatch(ctx context.Context, log logger.Logger, c clinics.Clinic, v visits.Visit, now time.Time, sum *Summary) (clinics.Clinic, bool) {
	log = log.With(map[string]any{"visit_id": v.ID})

	pet, err := j.pets.GetByID(ctx, v.PetID)
	if err != nil {
		log.Warn("pet lookup failed", map[string]any{"err": err})
		sum.Failed++
		return c, false
	}
	owner, err := j.owners.GetByID(ctx, pet.OwnerID)
	if err != nil {
		log.Warn("owner lookup failed", map[string]any{"err": err})
		sum.Failed++
		return c, false
	}

	d := reminders.Evaluate(reminders.Candidate{
		Quota:        c.Quota(),
		OwnerAllows:  owner.AllowAutomatedReminders,
		VisitEnabled: v.IsReminderEnabled,
		NextDate:     v.NextReminderDate,
		AlreadySent:  v.ReminderSent,
	}, now)
	if !d.Send {
		switch d.Reason {
		case reminders.DecisionClinicOff, reminders.DecisionLimitOff, reminders.DecisionQuotaReached:
			return c, true
		}
		log.Debug("reminder skipped", map[string]any{"reason": string(d.Reason)})
		sum.Skipped++
		return c, false
	}

	// Primero se reserva la unidad de cuota (atómico en el repo) y después se envía:
	// así el límite nunca se pasa aunque corran dos instancias.
	updated, err := j.clinics.RecordReminderSent(ctx, c.ID)
	if err != nil {
		if errors.Is(err, clinics.ErrQuotaExhausted) {
			return c, true
		}
		log.Error("record reminder failed", map[string]any{"err": err})
		sum.Failed++
		return c, false
	}

	err = j.notifier.Notify(ctx, notify.Reminder{
		ClinicID:   c.ID,
		ClinicName: c.Name,
		VisitID:    v.ID,
		VisitType:  string(v.VisitType),
		DueDate:    *v.NextReminderDate,
		PetName:    pet.Name,
		OwnerName:  owner.FullName(),
		OwnerPhone: owner.Phone,
		OwnerEmail: owner.Email,
	})
	if err != nil {
		log.Error("notify failed", map[string]any{"err": err})
		sum.Failed++
		// La unidad reservada vuelve a la cuota; la visita queda pendiente.
		refunded, rerr := j.clinics.RefundReminder(ctx, c.ID)
		if rerr != nil {
			log.Error("refund reminder failed", map[string]any{"err": rerr})
			return updated, false
		}
		return refunded, false
	}

	if err := j.visits.MarkReminderSent(ctx, v.ID); err != nil {
		log.Error("mark reminder sent failed", map[string]any{"err": err})
		sum.Failed++
		return updated, false
	}
	sum.Sent++
	return updated, false
}

// Scheduler envuelve gocron con una sola tarea en modo singleton.
type Scheduler struct {
	s *gocron.Scheduler
}

// Start agenda RunOnce cada interval (la primera corrida es inmediata).
func Start(ctx context.Context, job *ReminderJob, interval time.Duration) (*Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(interval).SingletonMode().Do(func() {
		if _, err := job.RunOnce(ctx); err != nil {
			job.log.Error("reminder run failed", map[string]any{"err": err})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}
	s.StartAsync()
	return &Scheduler{s: s}, nil
}

func (s *Scheduler) Stop() {
	if s != nil && s.s != nil {
		s.s.Stop()
	}
}
