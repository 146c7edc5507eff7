package users

import "time"

// User is a credential record. PasswordHash is a bcrypt hash and is never
// serialized.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	Firstname    string    `json:"firstname" db:"firstname"`
	Lastname     string    `json:"lastname" db:"lastname"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
}

// Profile is the public view of a user returned by /auth/me.
type Profile struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Firstname: u.Firstname, Lastname: u.Lastname}
}
