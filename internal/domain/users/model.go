package users

import (
	"time"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/platform/pagination"
)

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string

	Role     access.Role
	IsActive bool

	// ClinicID vacío solo para ADMIN.
	ClinicID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListFilter struct {
	Page     pagination.Query
	Search   string
	Role     access.Role
	Active   *bool
	ClinicID string // vacío = todas (solo ADMIN)
}
