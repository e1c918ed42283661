package models

import "time"

// Admin is a credential row in the admins table. Rows are seeded once at
// startup and never mutated by the API.
type Admin struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RefreshToken is a server-side login artifact. It is created at login,
// rotated on refresh and revoked at logout.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	AdminID   int64      `db:"admin_id" json:"admin_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}
