package visits

import (
	"context"
	"time"

	"vet-clinic/internal/platform/pagination"
)

// DueCursor marca la última visita vista al paginar ListDue.
type DueCursor struct {
	Date time.Time
	ID   string
}

func (c DueCursor) IsZero() bool { return c.ID == "" && c.Date.IsZero() }

// CursorOf posiciona el cursor en v.
func CursorOf(v Visit) DueCursor {
	c := DueCursor{ID: v.ID}
	if v.NextReminderDate != nil {
		c.Date = *v.NextReminderDate
	}
	return c
}

type Repository interface {
	Create(ctx context.Context, v Visit) error
	Update(ctx context.Context, v Visit) error
	GetByID(ctx context.Context, id string) (Visit, error)
	List(ctx context.Context, f ListFilter) (pagination.Result[Visit], error)
	Delete(ctx context.Context, id string) error
	DeleteByPet(ctx context.Context, petID string) error

	// ListDue: recordatorio habilitado, no enviado y nextReminderDate <= now,
	// ordenado por (nextReminderDate, id) y estrictamente después de after.
	ListDue(ctx context.Context, clinicID string, now time.Time, after DueCursor, limit int) ([]Visit, error)
	// MarkReminderSent es idempotente; ErrNotFound si no existe.
	MarkReminderSent(ctx context.Context, id string) error

	Count(ctx context.Context, clinicID string, since *time.Time) (int, error)
	CountPendingReminders(ctx context.Context, clinicID string) (int, error)
}
