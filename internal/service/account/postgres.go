package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/zhouzirui/medibot/backend/internal/model/account"
)

// uniqueViolation is the Postgres error code for a duplicate key.
const uniqueViolation = "23505"

// PostgresStore persists users in the users table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool. The schema comes from database.Migrate.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, username, email, password_hash, phone, address, dob, disease, caretaker_name, caretaker_phone, created_at`

func (p *PostgresStore) Insert(ctx context.Context, u account.User) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Phone, u.Address, u.DOB, u.Disease, u.CaretakerName, u.CaretakerPhone, u.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetByEmail(ctx context.Context, email string) (account.User, error) {
	return p.scanOne(p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (account.User, error) {
	return p.scanOne(p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *PostgresStore) scanOne(row *sql.Row) (account.User, error) {
	var (
		u   account.User
		dob sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &dob, &u.Disease, &u.CaretakerName, &u.CaretakerPhone, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return account.User{}, ErrUserNotFound
	}
	if err != nil {
		return account.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	if dob.Valid {
		day := dob.Time
		u.DOB = &day
	}
	return u, nil
}
