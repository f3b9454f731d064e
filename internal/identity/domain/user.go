package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingUserID = errors.New("user id is required")
	ErrUserNotFound  = errors.New("user not found")
)

// Profile is the identity provider's view of a user, mirrored into the
// users table. ID is the provider's subject and doubles as the owner
// identifier of jobs and subscriptions.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	ImageURL  string    `json:"imageUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize trims the fields and lower-cases a valid e-mail. An invalid
// e-mail is dropped rather than stored.
func (p Profile) Normalize() (Profile, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return Profile{}, ErrMissingUserID
	}
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	if email, err := ParseEmail(p.Email); err == nil {
		p.Email = string(email)
	} else {
		p.Email = ""
	}
	return p, nil
}

// Equal compares the synced fields, ignoring timestamps.
func (p Profile) Equal(other Profile) bool {
	return p.ID == other.ID &&
		p.Email == other.Email &&
		p.FirstName == other.FirstName &&
		p.LastName == other.LastName &&
		p.ImageURL == other.ImageURL
}
