package authors

import "time"

// Author is owned by the user who created it; ownership is recorded but not
// enforced on reads or writes.
type Author struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"-" db:"user_id"`
	Firstname string    `json:"firstname" db:"firstname"`
	Lastname  string    `json:"lastname" db:"lastname"`
	Bio       string    `json:"bio" db:"bio"`
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

type Input struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Bio       string `json:"bio"`
}

type List struct {
	Total   int      `json:"total"`
	Authors []Author `json:"authors"`
}
