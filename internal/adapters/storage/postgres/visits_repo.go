package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/pagination"
)

type VisitsRepo struct {
	db *sql.DB
}

func NewVisitsRepo(db *sql.DB) *VisitsRepo {
	return &VisitsRepo{db: db}
}

const visitColumns = `
	SELECT
		id, clinic_id, pet_id,
		visit_date, visit_type, notes, price,
		weight, temperature, heart_rate, respiratory_rate,
		is_reminder_enabled, next_reminder_date, reminder_sent,
		created_by, created_at, updated_at`

func (r *VisitsRepo) Create(ctx context.Context, v visits.Visit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO visits (
			id, clinic_id, pet_id,
			visit_date, visit_type, notes, price,
			weight, temperature, heart_rate, respiratory_rate,
			is_reminder_enabled, next_reminder_date, reminder_sent,
			created_by, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		v.ID,
		v.ClinicID,
		v.PetID,
		v.VisitDate,
		string(v.VisitType),
		v.Notes,
		nullFloat(v.Price),
		nullFloat(v.Vitals.WeightKg),
		nullFloat(v.Vitals.TemperatureC),
		nullInt(v.Vitals.HeartRate),
		nullInt(v.Vitals.RespiratoryRate),
		v.IsReminderEnabled,
		nullTime(v.NextReminderDate),
		v.ReminderSent,
		v.CreatedBy,
		v.CreatedAt,
		v.UpdatedAt,
	)
	return err
}

func (r *VisitsRepo) Update(ctx context.Context, v visits.Visit) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE visits
		SET
			visit_date = $2,
			visit_type = $3,
			notes = $4,
			price = $5,
			weight = $6,
			temperature = $7,
			heart_rate = $8,
			respiratory_rate = $9,
			is_reminder_enabled = $10,
			next_reminder_date = $11,
			reminder_sent = $12,
			updated_at = $13
		WHERE id = $1
	`,
		v.ID,
		v.VisitDate,
		string(v.VisitType),
		v.Notes,
		nullFloat(v.Price),
		nullFloat(v.Vitals.WeightKg),
		nullFloat(v.Vitals.TemperatureC),
		nullInt(v.Vitals.HeartRate),
		nullInt(v.Vitals.RespiratoryRate),
		v.IsReminderEnabled,
		nullTime(v.NextReminderDate),
		v.ReminderSent,
		v.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *VisitsRepo) GetByID(ctx context.Context, id string) (visits.Visit, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return visits.Visit{}, ErrNotFound
	}
	v, err := scanVisit(r.db.QueryRowContext(ctx, visitColumns+` FROM visits WHERE id = $1`, id))
	if err != nil {
		return visits.Visit{}, notFoundIfNoRows(err)
	}
	return v, nil
}

func (r *VisitsRepo) List(ctx context.Context, f visits.ListFilter) (pagination.Result[visits.Visit], error) {
	w := &where{}
	if f.ClinicID != "" {
		w.add("clinic_id = ?", f.ClinicID)
	}
	if f.PetID != "" {
		w.add("pet_id = ?", f.PetID)
	}
	if f.VisitType != "" {
		w.add("visit_type = ?", string(f.VisitType))
	}
	if f.From != nil {
		w.add("visit_date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("visit_date < ?", *f.To)
	}
	w.search(f.Search, "notes", "visit_type")

	return listPage(ctx, r.db, visitColumns, "FROM visits", w, "visit_date DESC, id ASC", f.Page, scanVisit)
}

func (r *VisitsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *VisitsRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE pet_id = $1`, petID)
	return err
}

func (r *VisitsRepo) ListDue(ctx context.Context, clinicID string, now time.Time, after visits.DueCursor, limit int) ([]visits.Visit, error) {
	w := &where{}
	w.add("is_reminder_enabled")
	w.add("NOT reminder_sent")
	w.add("next_reminder_date <= ?", now.UTC())
	if clinicID != "" {
		w.add("clinic_id = ?", clinicID)
	}
	if !after.IsZero() {
		w.add("(next_reminder_date, id) > (?, ?)", after.Date.UTC(), after.ID)
	}
	q := visitColumns + " FROM visits" + w.sql() + " ORDER BY next_reminder_date ASC, id ASC"
	args := w.args
	if limit > 0 {
		q += " LIMIT " + w.arg(limit)
		args = w.args
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]visits.Visit, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VisitsRepo) MarkReminderSent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE visits SET reminder_sent = TRUE, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *VisitsRepo) Count(ctx context.Context, clinicID string, since *time.Time) (int, error) {
	w := &where{}
	if clinicID != "" {
		w.add("clinic_id = ?", clinicID)
	}
	if since != nil {
		w.add("visit_date >= ?", *since)
	}
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits"+w.sql(), w.args...).Scan(&n)
	return n, err
}

func (r *VisitsRepo) CountPendingReminders(ctx context.Context, clinicID string) (int, error) {
	w := &where{}
	w.add("is_reminder_enabled")
	w.add("NOT reminder_sent")
	w.add("next_reminder_date IS NOT NULL")
	if clinicID != "" {
		w.add("clinic_id = ?", clinicID)
	}
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits"+w.sql(), w.args...).Scan(&n)
	return n, err
}

func scanVisit(s scanner) (visits.Visit, error) {
	var v visits.Visit
	var visitType string
	var price, weight, temp sql.NullFloat64
	var hr, rr sql.NullInt32
	var next sql.NullTime
	if err := s.Scan(
		&v.ID,
		&v.ClinicID,
		&v.PetID,
		&v.VisitDate,
		&visitType,
		&v.Notes,
		&price,
		&weight,
		&temp,
		&hr,
		&rr,
		&v.IsReminderEnabled,
		&next,
		&v.ReminderSent,
		&v.CreatedBy,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return visits.Visit{}, err
	}
	v.VisitType = visits.VisitType(visitType)
	v.VisitDate = v.VisitDate.UTC()
	v.Price = floatPtr(price)
	v.Vitals = visits.Vitals{
		WeightKg:        floatPtr(weight),
		TemperatureC:    floatPtr(temp),
		HeartRate:       intPtr(hr),
		RespiratoryRate: intPtr(rr),
	}
	v.NextReminderDate = timePtr(next)
	return v, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func nullInt(i *int) sql.NullInt32 {
	if i == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*i), Valid: true}
}

func intPtr(n sql.NullInt32) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int32)
	return &i
}
