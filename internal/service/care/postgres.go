package care

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zhouzirui/medibot/backend/internal/model/care"
)

// PostgresStore persists records in the reminders and appointments tables.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool. The schema comes from database.Migrate.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const reminderColumns = `id, user_id, title, description, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI')`

func (p *PostgresStore) InsertReminder(ctx context.Context, r care.Reminder) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO reminders (id, user_id, title, description, date, time) VALUES ($1, $2, $3, $4, $5::date, $6::time)`,
		r.ID, r.UserID, r.Title, r.Description, r.Date, r.Time,
	)
	return err
}

func (p *PostgresStore) GetReminder(ctx context.Context, id string) (care.Reminder, error) {
	var r care.Reminder
	err := p.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id).
		Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.Date, &r.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return care.Reminder{}, ErrNotFound
	}
	return r, err
}

func (p *PostgresStore) ListReminders(ctx context.Context, userID string) ([]care.Reminder, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = $1 ORDER BY date, time, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	out := make([]care.Reminder, 0)
	for rows.Next() {
		var r care.Reminder
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.Date, &r.Time); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) DeleteReminder(ctx context.Context, id string) error {
	return execDelete(ctx, p.db, `DELETE FROM reminders WHERE id = $1`, id)
}

const appointmentColumns = `id, user_id, doctor_name, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI')`

func (p *PostgresStore) InsertAppointment(ctx context.Context, a care.Appointment) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO appointments (id, user_id, doctor_name, date, time) VALUES ($1, $2, $3, $4::date, $5::time)`,
		a.ID, a.UserID, a.DoctorName, a.Date, a.Time,
	)
	return err
}

func (p *PostgresStore) GetAppointment(ctx context.Context, id string) (care.Appointment, error) {
	var a care.Appointment
	err := p.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id).
		Scan(&a.ID, &a.UserID, &a.DoctorName, &a.Date, &a.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return care.Appointment{}, ErrNotFound
	}
	return a, err
}

func (p *PostgresStore) ListAppointments(ctx context.Context, userID string) ([]care.Appointment, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE user_id = $1 ORDER BY date, time, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	out := make([]care.Appointment, 0)
	for rows.Next() {
		var a care.Appointment
		if err := rows.Scan(&a.ID, &a.UserID, &a.DoctorName, &a.Date, &a.Time); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *PostgresStore) DeleteAppointment(ctx context.Context, id string) error {
	return execDelete(ctx, p.db, `DELETE FROM appointments WHERE id = $1`, id)
}

func execDelete(ctx context.Context, db *sql.DB, query, id string) error {
	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
