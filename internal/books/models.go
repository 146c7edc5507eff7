package books

import "time"

type Book struct {
	ID       int64  `json:"id" db:"id"`
	UserID   int64  `json:"-" db:"user_id"`
	AuthorID int64  `json:"author_id" db:"author_id"`
	Title    string `json:"title" db:"title"`
	// Year is free text ("1969", "c. 1400").
	Year      string    `json:"year" db:"year"`
	Cover     string    `json:"cover" db:"cover"`
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

type Input struct {
	AuthorID int64  `json:"author_id"`
	Title    string `json:"title"`
	Year     string `json:"year"`
	Cover    string `json:"cover"`
}

type List struct {
	Total int    `json:"total"`
	Books []Book `json:"books"`
}
