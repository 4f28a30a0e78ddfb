package model

import (
	"database/sql"
	"time"
)

// User is an account that can sign in. Admin users get access to the
// CMS endpoints (release/track CRUD and the lyrics editor).
type User struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	IsAdmin      bool           `json:"isAdmin"`
	Phone        sql.NullString `json:"phone,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
