package clinics

import (
	"context"
	"time"

	"vet-clinic/internal/platform/pagination"
)

type Repository interface {
	Create(ctx context.Context, c Clinic) error
	Update(ctx context.Context, c Clinic) error
	GetByID(ctx context.Context, id string) (Clinic, error)
	List(ctx context.Context, f ListFilter) (pagination.Result[Clinic], error)
	Delete(ctx context.Context, id string) error

	// IncrementReminderSent suma 1 al contador solo si la cuota lo permite,
	// de forma atómica. Si no, ErrQuotaExhausted.
	IncrementReminderSent(ctx context.Context, id string) (Clinic, error)
	// DecrementReminderSent resta 1 sin bajar de 0.
	DecrementReminderSent(ctx context.Context, id string) (Clinic, error)

	// ResetCycle pone el contador en 0 y mueve el inicio de ciclo. Si expectStart
	// no es cero, solo aplica si el ciclo guardado sigue siendo ese (evita doble reset).
	// applied indica si se escribió; la clínica devuelta es siempre la guardada.
	ResetCycle(ctx context.Context, id string, expectStart, newStart time.Time) (c Clinic, applied bool, err error)
}
