package model

import (
	"time"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Public returns a copy safe to put in a response.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.HashedPassword = ""
	return &cp
}
