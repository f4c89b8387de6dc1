package users

import (
	"context"

	"vet-clinic/internal/platform/pagination"
)

type Repository interface {
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	// GetByEmail compara sin distinguir mayúsculas.
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, f ListFilter) (pagination.Result[User], error)
	Delete(ctx context.Context, id string) error
}
