package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/pagination"
)

type visitRepo struct {
	mu   sync.RWMutex
	byID map[string]visits.Visit
}

func NewVisitRepo() visits.Repository {
	return &visitRepo{byID: make(map[string]visits.Visit)}
}

func (r *visitRepo) Create(ctx context.Context, v visits.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(v.ID) == "" {
		return errors.New("visit id required")
	}
	if _, exists := r.byID[v.ID]; exists {
		return ErrDuplicate
	}
	r.byID[v.ID] = v
	return nil
}

func (r *visitRepo) Update(ctx context.Context, v visits.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[v.ID]; !exists {
		return ErrNotFound
	}
	r.byID[v.ID] = v
	return nil
}

func (r *visitRepo) GetByID(ctx context.Context, id string) (visits.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return visits.Visit{}, ErrNotFound
	}
	return v, nil
}

func (r *visitRepo) List(ctx context.Context, f visits.ListFilter) (pagination.Result[visits.Visit], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]visits.Visit, 0)
	for _, v := range r.byID {
		if f.ClinicID != "" && v.ClinicID != f.ClinicID {
			continue
		}
		if f.PetID != "" && v.PetID != f.PetID {
			continue
		}
		if f.VisitType != "" && v.VisitType != f.VisitType {
			continue
		}
		if f.From != nil && v.VisitDate.Before(*f.From) {
			continue
		}
		if f.To != nil && !v.VisitDate.Before(*f.To) {
			continue
		}
		if !containsFold(f.Search, v.Notes, string(v.VisitType)) {
			continue
		}
		out = append(out, v)
	}

	// más recientes primero
	sort.Slice(out, func(i, j int) bool {
		if !out[i].VisitDate.Equal(out[j].VisitDate) {
			return out[i].VisitDate.After(out[j].VisitDate)
		}
		return out[i].ID < out[j].ID
	})
	return pagination.Slice(out, f.Page), nil
}

func (r *visitRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *visitRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, v := range r.byID {
		if v.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *visitRepo) ListDue(ctx context.Context, clinicID string, now time.Time, after visits.DueCursor, limit int) ([]visits.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]visits.Visit, 0)
	for _, v := range r.byID {
		if clinicID != "" && v.ClinicID != clinicID {
			continue
		}
		if isDue(v, now) && afterCursor(v, after) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextReminderDate.Equal(*out[j].NextReminderDate) {
			return out[i].NextReminderDate.Before(*out[j].NextReminderDate)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *visitRepo) MarkReminderSent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	v.ReminderSent = true
	r.byID[id] = v
	return nil
}

func (r *visitRepo) Count(ctx context.Context, clinicID string, since *time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, v := range r.byID {
		if clinicID != "" && v.ClinicID != clinicID {
			continue
		}
		if since != nil && v.VisitDate.Before(*since) {
			continue
		}
		n++
	}
	return n, nil
}

func (r *visitRepo) CountPendingReminders(ctx context.Context, clinicID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, v := range r.byID {
		if clinicID != "" && v.ClinicID != clinicID {
			continue
		}
		if v.IsReminderEnabled && !v.ReminderSent && v.NextReminderDate != nil {
			n++
		}
	}
	return n, nil
}

func afterCursor(v visits.Visit, c visits.DueCursor) bool {
	if c.IsZero() {
		return true
	}
	d := *v.NextReminderDate
	if !d.Equal(c.Date) {
		return d.After(c.Date)
	}
	return v.ID > c.ID
}

func isDue(v visits.Visit, now time.Time) bool {
	return v.IsReminderEnabled && !v.ReminderSent &&
		v.NextReminderDate != nil && !v.NextReminderDate.After(now)
}
