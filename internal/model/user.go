package model

import (
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Tokens       int       `json:"tokens"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateUserParams struct {
	Email        string
	Username     string
	PasswordHash string
	Tokens       int
}

// PublicProfile is the user shape returned by the API. The password
// hash never leaves the server.
type PublicProfile struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Tokens   int    `json:"tokens"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		Email:    u.Email,
		Username: u.Username,
		Tokens:   u.Tokens,
	}
}
