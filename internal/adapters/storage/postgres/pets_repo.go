package postgres

import (
	"context"
	"database/sql"
	"strings"

	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/platform/pagination"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	SELECT
		id, clinic_id, owner_id,
		name, species, breed, gender,
		birth_date, notes,
		created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (
			id, clinic_id, owner_id,
			name, species, breed, gender,
			birth_date, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		p.ClinicID,
		p.OwnerID,
		p.Name,
		string(p.Species),
		p.Breed,
		string(p.Gender),
		nullTime(p.BirthDate),
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			owner_id = $2,
			name = $3,
			species = $4,
			breed = $5,
			gender = $6,
			birth_date = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1
	`,
		p.ID,
		p.OwnerID,
		p.Name,
		string(p.Species),
		p.Breed,
		string(p.Gender),
		nullTime(p.BirthDate),
		p.Notes,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, ErrNotFound
	}
	p, err := scanPet(r.db.QueryRowContext(ctx, petColumns+` FROM pets WHERE id = $1`, id))
	if err != nil {
		return pets.Pet{}, notFoundIfNoRows(err)
	}
	return p, nil
}

func (r *PetsRepo) List(ctx context.Context, f pets.ListFilter) (pagination.Result[pets.Pet], error) {
	w := &where{}
	if f.ClinicID != "" {
		w.add("clinic_id = ?", f.ClinicID)
	}
	if f.OwnerID != "" {
		w.add("owner_id = ?", f.OwnerID)
	}
	if f.Species != "" {
		w.add("species = ?", string(f.Species))
	}
	w.search(f.Search, "name", "breed")

	return listPage(ctx, r.db, petColumns, "FROM pets", w, "name ASC, id ASC", f.Page, scanPet)
}

func (r *PetsRepo) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM pets WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PetsRepo) Count(ctx context.Context, clinicID string) (int, error) {
	w := &where{}
	if clinicID != "" {
		w.add("clinic_id = ?", clinicID)
	}
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pets"+w.sql(), w.args...).Scan(&n)
	return n, err
}

func scanPet(s scanner) (pets.Pet, error) {
	var p pets.Pet
	var species, gender string
	var bd sql.NullTime
	if err := s.Scan(
		&p.ID,
		&p.ClinicID,
		&p.OwnerID,
		&p.Name,
		&species,
		&p.Breed,
		&gender,
		&bd,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	p.Species = pets.Species(species)
	p.Gender = pets.Gender(gender)
	// birth_date es DATE: pgx lo mapea a medianoche UTC
	p.BirthDate = timePtr(bd)
	return p, nil
}
