package job

import (
	"errors"
	"strings"
)

// ErrInvalidStatus is returned for tokens outside the status enumeration.
var ErrInvalidStatus = errors.New("invalid job status")

// Status is the application pipeline stage. The underlying value is the
// token stored in the database.
type Status string

const (
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusRejected  Status = "Rejected"
	StatusWithdrawn Status = "Withdrawn"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusWithdrawn}

// ParseStatus accepts the stored or the upper-case client spelling of a
// status, ignoring case and surrounding space.
func ParseStatus(token string) (Status, error) {
	token = strings.TrimSpace(token)
	for _, s := range Statuses {
		if strings.EqualFold(token, string(s)) {
			return s, nil
		}
	}
	return "", ErrInvalidStatus
}

// ParseStatusOrDefault treats an empty token as Applied. Any other token
// must be valid.
func ParseStatusOrDefault(token string) (Status, error) {
	if strings.TrimSpace(token) == "" {
		return StatusApplied, nil
	}
	return ParseStatus(token)
}

// String returns the storage token.
func (s Status) String() string { return string(s) }

// Token returns the client-facing token, e.g. APPLIED.
func (s Status) Token() string { return strings.ToUpper(string(s)) }

// IsValid reports whether s is exactly one of the stored tokens.
func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}
