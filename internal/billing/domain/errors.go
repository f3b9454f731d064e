package domain

import "errors"

var (
	// ErrQuotaExceeded is shown to the caller verbatim. Clients look for the
	// word "subscription" to offer an upgrade.
	ErrQuotaExceeded = errors.New("You've reached the free plan limit of 5 jobs. Upgrade your subscription to Pro for unlimited job tracking.")

	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrInvalidPlan            = errors.New("invalid plan")
	ErrMissingReference       = errors.New("payment reference is required")
	ErrPaymentNotSuccessful   = errors.New("payment was not successful")
	ErrMissingPaymentMetadata = errors.New("payment metadata is missing the user or plan")
	ErrMissingEmail           = errors.New("an e-mail address is required for checkout")
)
