package pets

import (
	"context"

	"vet-clinic/internal/platform/pagination"
)

type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context, f ListFilter) (pagination.Result[Pet], error)
	ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, clinicID string) (int, error)
}
