package owners

import (
	"context"

	"vet-clinic/internal/platform/pagination"
)

type Repository interface {
	Create(ctx context.Context, o Owner) error
	Update(ctx context.Context, o Owner) error
	GetByID(ctx context.Context, id string) (Owner, error)
	List(ctx context.Context, f ListFilter) (pagination.Result[Owner], error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, clinicID string) (int, error)
}
