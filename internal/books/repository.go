package books

import (
	"context"
	"database/sql"
	"errors"

	"bookstore/pkg/utils"
)

type Repository interface {
	List(ctx context.Context) ([]Book, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]Book, error)
	Get(ctx context.Context, id int64) (Book, error)
	Create(ctx context.Context, b Book) (Book, error)
	Update(ctx context.Context, b Book) (Book, error)
	Delete(ctx context.Context, id int64) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const bookColumns = `id, user_id, author_id, title, year, cover, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (Book, error) {
	var b Book
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.AuthorID,
		&b.Title,
		&b.Year,
		&b.Cover,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepository) query(ctx context.Context, q string, args ...any) ([]Book, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) List(ctx context.Context) ([]Book, error) {
	return r.query(ctx, `
SELECT `+bookColumns+`
FROM books
ORDER BY updated_at DESC, id DESC
`)
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID int64) ([]Book, error) {
	return r.query(ctx, `
SELECT `+bookColumns+`
FROM books
WHERE author_id = $1
ORDER BY updated_at DESC, id DESC
`, authorID)
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Book, error) {
	const q = `
SELECT ` + bookColumns + `
FROM books
WHERE id = $1
`
	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepository) Create(ctx context.Context, b Book) (Book, error) {
	const q = `
INSERT INTO books (user_id, author_id, title, year, cover, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING ` + bookColumns
	out, err := scanBook(r.db.QueryRowContext(ctx, q, b.UserID, b.AuthorID, b.Title, b.Year, b.Cover, b.CreatedAt))
	if utils.IsForeignKeyViolation(err) {
		return Book{}, ErrUnknownAuthor
	}
	return out, err
}

func (r *PostgresRepository) Update(ctx context.Context, b Book) (Book, error) {
	const q = `
UPDATE books
SET author_id = $2, title = $3, year = $4, cover = $5, updated_at = $6
WHERE id = $1
RETURNING ` + bookColumns
	out, err := scanBook(r.db.QueryRowContext(ctx, q, b.ID, b.AuthorID, b.Title, b.Year, b.Cover, b.UpdatedAt))
	if utils.IsForeignKeyViolation(err) {
		return Book{}, ErrUnknownAuthor
	}
	return out, err
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
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
