package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"vet-clinic/internal/domain/clinics"
	"vet-clinic/internal/platform/pagination"
)

type ClinicsRepo struct {
	db *sql.DB
}

func NewClinicsRepo(db *sql.DB) *ClinicsRepo {
	return &ClinicsRepo{db: db}
}

const clinicColumns = `
	SELECT
		id, name, email, phone, address,
		is_active, can_send_reminders,
		reminder_monthly_limit, reminder_sent_this_cycle, current_cycle_start_date,
		subscription_start_date, subscription_end_date,
		created_at, updated_at`

func (r *ClinicsRepo) Create(ctx context.Context, c clinics.Clinic) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clinics (
			id, name, email, phone, address,
			is_active, can_send_reminders,
			reminder_monthly_limit, reminder_sent_this_cycle, current_cycle_start_date,
			subscription_start_date, subscription_end_date,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		c.ID, c.Name, c.Email, c.Phone, c.Address,
		c.IsActive, c.CanSendReminders,
		c.ReminderMonthlyLimit, c.ReminderSentThisCycle, c.CurrentCycleStartDate,
		nullTime(c.SubscriptionStartDate), nullTime(c.SubscriptionEndDate),
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// Update no toca contador ni ciclo: eso es de IncrementReminderSent/ResetCycle.
func (r *ClinicsRepo) Update(ctx context.Context, c clinics.Clinic) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clinics
		SET
			name = $2,
			email = $3,
			phone = $4,
			address = $5,
			is_active = $6,
			can_send_reminders = $7,
			reminder_monthly_limit = $8,
			subscription_start_date = $9,
			subscription_end_date = $10,
			updated_at = $11
		WHERE id = $1
	`,
		c.ID, c.Name, c.Email, c.Phone, c.Address,
		c.IsActive, c.CanSendReminders, c.ReminderMonthlyLimit,
		nullTime(c.SubscriptionStartDate), nullTime(c.SubscriptionEndDate),
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *ClinicsRepo) GetByID(ctx context.Context, id string) (clinics.Clinic, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return clinics.Clinic{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, clinicColumns+` FROM clinics WHERE id = $1`, id)
	c, err := scanClinic(row)
	if err != nil {
		return clinics.Clinic{}, notFoundIfNoRows(err)
	}
	return c, nil
}

func (r *ClinicsRepo) List(ctx context.Context, f clinics.ListFilter) (pagination.Result[clinics.Clinic], error) {
	w := &where{}
	w.in("id", f.IDs)
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	w.search(f.Search, "name", "email")

	return listPage(ctx, r.db, clinicColumns, "FROM clinics", w, "name ASC, id ASC", f.Page, scanClinic)
}

func (r *ClinicsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clinics WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// IncrementReminderSent aplica la regla de CanSend en el mismo UPDATE para que
// dos envíos concurrentes no pasen el tope.
func (r *ClinicsRepo) IncrementReminderSent(ctx context.Context, id string) (clinics.Clinic, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE clinics
		SET reminder_sent_this_cycle = reminder_sent_this_cycle + 1
		WHERE id = $1
		  AND can_send_reminders
		  AND (reminder_monthly_limit = -1
		       OR (reminder_monthly_limit > 0 AND reminder_sent_this_cycle < reminder_monthly_limit))
		RETURNING
			id, name, email, phone, address,
			is_active, can_send_reminders,
			reminder_monthly_limit, reminder_sent_this_cycle, current_cycle_start_date,
			subscription_start_date, subscription_end_date,
			created_at, updated_at
	`, id)
	c, err := scanClinic(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return clinics.Clinic{}, err
	}
	// Sin filas: o no existe o la cuota no lo permite.
	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return clinics.Clinic{}, gerr
	}
	return clinics.Clinic{}, clinics.ErrQuotaExhausted
}

// DecrementReminderSent devuelve una unidad reservada; GREATEST evita negativos.
func (r *ClinicsRepo) DecrementReminderSent(ctx context.Context, id string) (clinics.Clinic, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clinics
		SET reminder_sent_this_cycle = GREATEST(reminder_sent_this_cycle - 1, 0)
		WHERE id = $1
	`, id)
	if err != nil {
		return clinics.Clinic{}, err
	}
	if err := checkAffected(res); err != nil {
		return clinics.Clinic{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *ClinicsRepo) ResetCycle(ctx context.Context, id string, expectStart, newStart time.Time) (clinics.Clinic, bool, error) {
	w := &where{}
	w.add("id = ?", id)
	if !expectStart.IsZero() {
		w.add("current_cycle_start_date = ?", expectStart)
	}
	set := "SET reminder_sent_this_cycle = 0, current_cycle_start_date = " + w.arg(newStart)

	res, err := r.db.ExecContext(ctx, "UPDATE clinics "+set+w.sql(), w.args...)
	if err != nil {
		return clinics.Clinic{}, false, err
	}
	// 0 filas con expectStart => otro proceso ya hizo el rollover; devolvemos el estado actual.
	n, err := res.RowsAffected()
	if err != nil {
		return clinics.Clinic{}, false, err
	}
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return clinics.Clinic{}, false, err
	}
	return c, n > 0, nil
}

func scanClinic(s scanner) (clinics.Clinic, error) {
	var c clinics.Clinic
	var subStart, subEnd sql.NullTime
	if err := s.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.IsActive, &c.CanSendReminders,
		&c.ReminderMonthlyLimit, &c.ReminderSentThisCycle, &c.CurrentCycleStartDate,
		&subStart, &subEnd,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return clinics.Clinic{}, err
	}
	c.CurrentCycleStartDate = c.CurrentCycleStartDate.UTC()
	c.SubscriptionStartDate = timePtr(subStart)
	c.SubscriptionEndDate = timePtr(subEnd)
	return c, nil
}
