package users

import (
	"time"

	"github.com/uptrace/bun"
)

// CreatedAtDisplay is the timestamp layout used by the profile endpoint.
const CreatedAtDisplay = "2006-01-02 15:04"

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Username      string    `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	Active        bool      `bun:"active,notnull" json:"active"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
}

// PublicUser is the read projection served by the list and detail endpoints.
// The password hash never travels through it.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public returns the projection of the record safe to serialize.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// Profile is the authenticated self view: public fields plus the active flag
// and a formatted creation timestamp.
func (u *User) Profile() map[string]any {
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"active":     u.Active,
		"created_at": u.CreatedAt.Format(CreatedAtDisplay),
	}
}
