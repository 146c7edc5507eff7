package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookstore/pkg/utils"
)

// Repository is the credential store. Insert must reject a duplicate email
// atomically with ErrEmailTaken whatever the caller checked beforehand.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	Insert(ctx context.Context, u User) (int64, error)
}

// PostgresRepository assumes the users table created by internal/database,
// including the UNIQUE index on email.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password, firstname, lastname, created_at, updated_at`

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1
`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepository) Insert(ctx context.Context, u User) (int64, error) {
	const q = `
INSERT INTO users (email, password, firstname, lastname, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING id
`
	now := u.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, q, u.Email, u.PasswordHash, u.Firstname, u.Lastname, now).Scan(&id); err != nil {
		if utils.IsUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return id, nil
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Firstname,
		&u.Lastname,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}
