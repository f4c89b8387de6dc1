package postgres

import (
	"context"
	"database/sql"
	"strings"

	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/platform/pagination"
)

type OwnersRepo struct {
	db *sql.DB
}

func NewOwnersRepo(db *sql.DB) *OwnersRepo {
	return &OwnersRepo{db: db}
}

const ownerColumns = `
	SELECT
		id, clinic_id,
		first_name, last_name, phone, email, address,
		allow_automated_reminders,
		created_by, updated_by, created_at, updated_at`

func (r *OwnersRepo) Create(ctx context.Context, o owners.Owner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO owners (
			id, clinic_id,
			first_name, last_name, phone, email, address,
			allow_automated_reminders,
			created_by, updated_by, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		o.ID, o.ClinicID,
		o.FirstName, o.LastName, o.Phone, o.Email, o.Address,
		o.AllowAutomatedReminders,
		o.CreatedBy, o.UpdatedBy, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *OwnersRepo) Update(ctx context.Context, o owners.Owner) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE owners
		SET
			first_name = $2,
			last_name = $3,
			phone = $4,
			email = $5,
			address = $6,
			allow_automated_reminders = $7,
			updated_by = $8,
			updated_at = $9
		WHERE id = $1
	`,
		o.ID,
		o.FirstName, o.LastName, o.Phone, o.Email, o.Address,
		o.AllowAutomatedReminders,
		o.UpdatedBy, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *OwnersRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return owners.Owner{}, ErrNotFound
	}
	o, err := scanOwner(r.db.QueryRowContext(ctx, ownerColumns+` FROM owners WHERE id = $1`, id))
	if err != nil {
		return owners.Owner{}, notFoundIfNoRows(err)
	}
	return o, nil
}

func (r *OwnersRepo) List(ctx context.Context, f owners.ListFilter) (pagination.Result[owners.Owner], error) {
	w := &where{}
	if f.ClinicID != "" {
		w.add("clinic_id = ?", f.ClinicID)
	}
	w.search(f.Search, "first_name", "last_name", "(first_name || ' ' || last_name)", "phone", "email")

	return listPage(ctx, r.db, ownerColumns, "FROM owners", w, "last_name ASC, first_name ASC, id ASC", f.Page, scanOwner)
}

// Delete: pets y visits caen por ON DELETE CASCADE.
func (r *OwnersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *OwnersRepo) Count(ctx context.Context, clinicID string) (int, error) {
	w := &where{}
	if clinicID != "" {
		w.add("clinic_id = ?", clinicID)
	}
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM owners"+w.sql(), w.args...).Scan(&n)
	return n, err
}

func scanOwner(s scanner) (owners.Owner, error) {
	var o owners.Owner
	err := s.Scan(
		&o.ID, &o.ClinicID,
		&o.FirstName, &o.LastName, &o.Phone, &o.Email, &o.Address,
		&o.AllowAutomatedReminders,
		&o.CreatedBy, &o.UpdatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}
