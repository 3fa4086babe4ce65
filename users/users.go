package users

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the capability a host application's user type exposes to the grant handlers.
// Host applications adapt their own user model to it.
type User interface {
	GetID() string
	GetUserName() string
	GetDisplayName() string
	GetEmail() string
}

// Activatable is implemented by users that can be deactivated without being deleted.
type Activatable interface {
	IsActive() bool
}

// Account is the user model of the in-memory identity store.
type Account struct {
	ID            string    `json:"id,omitempty"`         // Unique identifier, becomes the sub claim
	Email         string    `json:"email,omitempty"`      // User's email address
	Username      string    `json:"username,omitempty"`   // Unique username used by the password grant
	PasswordHash  string    `json:"-"`                    // Hashed version of the user's password - never serialize
	FirstName     string    `json:"first_name,omitempty"` // First name of the user
	LastName      string    `json:"last_name,omitempty"`  // Last name of the user
	Roles         []string  `json:"roles,omitempty"`
	SecurityStamp string    `json:"-"`
	DateJoined    time.Time `json:"date_joined,omitempty"`

	Verified bool `json:"verified,omitempty"` // Verified, has the user confirmed their email
	Blocked  bool `json:"blocked,omitempty"`  // Blocked, the account is disabled

	AccessFailedCount int       `json:"-"`
	LockoutEnd        time.Time `json:"-"`
}

var (
	_ User        = (*Account)(nil)
	_ Activatable = (*Account)(nil)
)

func (a *Account) GetID() string       { return a.ID }
func (a *Account) GetUserName() string { return a.Username }
func (a *Account) GetEmail() string    { return a.Email }

// GetDisplayName returns the full name, falling back to the username.
func (a *Account) GetDisplayName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Username
	}
	return name
}

// IsActive reports whether the account has not been blocked.
func (a *Account) IsActive() bool {
	return !a.Blocked
}

// IsLockedOut reports whether the lockout window is still open at now.
func (a *Account) IsLockedOut(now time.Time) bool {
	return !a.LockoutEnd.IsZero() && now.Before(a.LockoutEnd)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
