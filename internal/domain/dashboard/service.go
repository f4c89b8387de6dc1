// Package dashboard arma los contadores de la pantalla principal.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/clinics"
)

type OwnerCounter interface {
	Count(ctx context.Context, clinicID string) (int, error)
}

type PetCounter interface {
	Count(ctx context.Context, clinicID string) (int, error)
}

type VisitCounter interface {
	Count(ctx context.Context, clinicID string, since *time.Time) (int, error)
	CountPendingReminders(ctx context.Context, clinicID string) (int, error)
}

type ClinicUsage interface {
	Usage(ctx context.Context, id string) (clinics.Usage, error)
}

type Stats struct {
	ClinicID         string         `json:"clinicId,omitempty"`
	Owners           int            `json:"owners"`
	Pets             int            `json:"pets"`
	Visits           int            `json:"visits"`
	VisitsThisMonth  int            `json:"visitsThisMonth"`
	PendingReminders int            `json:"pendingReminders"`
	ReminderUsage    *clinics.Usage `json:"reminderUsage,omitempty"`
}

type Service struct {
	owners  OwnerCounter
	pets    PetCounter
	visits  VisitCounter
	clinics ClinicUsage
	now     func() time.Time
}

func NewService(o OwnerCounter, p PetCounter, v VisitCounter, c ClinicUsage) *Service {
	return &Service{owners: o, pets: p, visits: v, clinics: c, now: time.Now}
}

// Stats corre los conteos en paralelo. ADMIN sin clinicId ve el total del sistema
// (sin uso de cuota, que es por clínica).
func (s *Service) Stats(ctx context.Context, actor access.Principal, requestedClinic string) (Stats, error) {
	clinicID, err := actor.ResolveClinic(requestedClinic)
	if err != nil {
		return Stats{}, err
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := Stats{ClinicID: clinicID}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.Owners, err = s.owners.Count(gctx, clinicID)
		return err
	})
	g.Go(func() (err error) {
		out.Pets, err = s.pets.Count(gctx, clinicID)
		return err
	})
	g.Go(func() (err error) {
		out.Visits, err = s.visits.Count(gctx, clinicID, nil)
		return err
	})
	g.Go(func() (err error) {
		out.VisitsThisMonth, err = s.visits.Count(gctx, clinicID, &monthStart)
		return err
	})
	g.Go(func() (err error) {
		out.PendingReminders, err = s.visits.CountPendingReminders(gctx, clinicID)
		return err
	})
	if clinicID != "" {
		g.Go(func() error {
			u, err := s.clinics.Usage(gctx, clinicID)
			if err != nil {
				return err
			}
			out.ReminderUsage = &u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return out, nil
}
