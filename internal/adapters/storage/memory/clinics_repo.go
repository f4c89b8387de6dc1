package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"vet-clinic/internal/domain/clinics"
	"vet-clinic/internal/domain/reminders"
	"vet-clinic/internal/platform/pagination"
)

type clinicRepo struct {
	mu   sync.RWMutex
	byID map[string]clinics.Clinic
}

func NewClinicRepo() clinics.Repository {
	return &clinicRepo{
		byID: make(map[string]clinics.Clinic),
	}
}

func (r *clinicRepo) Create(ctx context.Context, c clinics.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("clinic id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return ErrDuplicate
	}
	r.byID[c.ID] = c
	return nil
}

func (r *clinicRepo) Update(ctx context.Context, c clinics.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[c.ID]
	if !exists {
		return ErrNotFound
	}
	// El contador y el ciclo solo se mueven por IncrementReminderSent/ResetCycle.
	c.ReminderSentThisCycle = cur.ReminderSentThisCycle
	c.CurrentCycleStartDate = cur.CurrentCycleStartDate
	r.byID[c.ID] = c
	return nil
}

func (r *clinicRepo) GetByID(ctx context.Context, id string) (clinics.Clinic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return clinics.Clinic{}, ErrNotFound
	}
	return c, nil
}

func (r *clinicRepo) List(ctx context.Context, f clinics.ListFilter) (pagination.Result[clinics.Clinic], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]clinics.Clinic, 0)
	for _, c := range r.byID {
		if !inSet(c.ID, f.IDs) {
			continue
		}
		if f.Active != nil && c.IsActive != *f.Active {
			continue
		}
		if !containsFold(f.Search, c.Name, c.Email) {
			continue
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return pagination.Slice(out, f.Page), nil
}

func (r *clinicRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *clinicRepo) IncrementReminderSent(ctx context.Context, id string) (clinics.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return clinics.Clinic{}, ErrNotFound
	}
	if !reminders.CanSend(c.Quota()) {
		return clinics.Clinic{}, clinics.ErrQuotaExhausted
	}
	c.ReminderSentThisCycle++
	r.byID[id] = c
	return c, nil
}

func (r *clinicRepo) DecrementReminderSent(ctx context.Context, id string) (clinics.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return clinics.Clinic{}, ErrNotFound
	}
	if c.ReminderSentThisCycle > 0 {
		c.ReminderSentThisCycle--
		r.byID[id] = c
	}
	return c, nil
}

func (r *clinicRepo) ResetCycle(ctx context.Context, id string, expectStart, newStart time.Time) (clinics.Clinic, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return clinics.Clinic{}, false, ErrNotFound
	}
	if !expectStart.IsZero() && !c.CurrentCycleStartDate.Equal(expectStart) {
		// Otro proceso ya hizo el rollover.
		return c, false, nil
	}
	c.ReminderSentThisCycle = 0
	c.CurrentCycleStartDate = newStart
	r.byID[id] = c
	return c, true, nil
}
