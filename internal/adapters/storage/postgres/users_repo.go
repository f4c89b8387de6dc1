package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/platform/pagination"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	SELECT
		id, email, name, password_hash,
		role, is_active, clinic_id,
		created_at, updated_at`

// uniqueViolation es el SQLSTATE de índice único (users_email_uq).
const uniqueViolation = "23505"

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, name, password_hash,
			role, is_active, clinic_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		u.ID, u.Email, u.Name, u.PasswordHash,
		string(u.Role), u.IsActive, nullString(u.ClinicID),
		u.CreatedAt, u.UpdatedAt,
	)
	return mapUserErr(err)
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			email = $2,
			name = $3,
			password_hash = $4,
			role = $5,
			is_active = $6,
			clinic_id = $7,
			updated_at = $8
		WHERE id = $1
	`,
		u.ID, u.Email, u.Name, u.PasswordHash,
		string(u.Role), u.IsActive, nullString(u.ClinicID),
		u.UpdatedAt,
	)
	if err != nil {
		return mapUserErr(err)
	}
	return checkAffected(res)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, ErrNotFound
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return users.User{}, notFoundIfNoRows(err)
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	if err != nil {
		return users.User{}, notFoundIfNoRows(err)
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, f users.ListFilter) (pagination.Result[users.User], error) {
	w := &where{}
	if f.ClinicID != "" {
		w.add("clinic_id = ?", f.ClinicID)
	}
	if f.Role != "" {
		w.add("role = ?", string(f.Role))
	}
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	w.search(f.Search, "email", "name")

	return listPage(ctx, r.db, userColumns, "FROM users", w, "email ASC", f.Page, scanUser)
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func scanUser(s scanner) (users.User, error) {
	var u users.User
	var role string
	var clinicID sql.NullString
	if err := s.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash,
		&role, &u.IsActive, &clinicID,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return users.User{}, err
	}
	u.Role = access.Role(role)
	u.ClinicID = clinicID.String
	return u, nil
}

func mapUserErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return users.ErrEmailTaken
	}
	return err
}
