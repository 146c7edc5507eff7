package authors

import (
	"context"
	"database/sql"
	"errors"

	"bookstore/pkg/utils"
)

type Repository interface {
	List(ctx context.Context) ([]Author, error)
	Get(ctx context.Context, id int64) (Author, error)
	Create(ctx context.Context, a Author) (Author, error)
	Update(ctx context.Context, a Author) (Author, error)
	Delete(ctx context.Context, id int64) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const authorColumns = `id, user_id, firstname, lastname, bio, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAuthor(row scanner) (Author, error) {
	var a Author
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Firstname,
		&a.Lastname,
		&a.Bio,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, err
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Author, error) {
	const q = `
SELECT ` + authorColumns + `
FROM authors
ORDER BY updated_at DESC, id DESC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Author, error) {
	const q = `
SELECT ` + authorColumns + `
FROM authors
WHERE id = $1
`
	return scanAuthor(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepository) Create(ctx context.Context, a Author) (Author, error) {
	const q = `
INSERT INTO authors (user_id, firstname, lastname, bio, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING ` + authorColumns
	return scanAuthor(r.db.QueryRowContext(ctx, q, a.UserID, a.Firstname, a.Lastname, a.Bio, a.CreatedAt))
}

func (r *PostgresRepository) Update(ctx context.Context, a Author) (Author, error) {
	const q = `
UPDATE authors
SET firstname = $2, lastname = $3, bio = $4, updated_at = $5
WHERE id = $1
RETURNING ` + authorColumns
	return scanAuthor(r.db.QueryRowContext(ctx, q, a.ID, a.Firstname, a.Lastname, a.Bio, a.UpdatedAt))
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		if utils.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
