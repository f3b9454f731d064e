package domain

import (
	"errors"
	"net/mail"
	"strings"
)

var ErrInvalidEmail = errors.New("invalid email address")

// Email is a lower-cased bare address such as "jane@example.com".
type Email string

// ParseEmail accepts a bare address only. Display-name forms and domains
// without a dot are rejected.
func ParseEmail(raw string) (Email, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	if !strings.Contains(Email(raw).Domain(), ".") {
		return "", ErrInvalidEmail
	}
	return Email(raw), nil
}

// Domain is the part after the last "@".
func (e Email) Domain() string {
	at := strings.LastIndexByte(string(e), '@')
	if at < 0 {
		return ""
	}
	return string(e[at+1:])
}
