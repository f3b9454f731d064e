package domain

// Reasons reported by a denied Decision.
const (
	ReasonNotAuthenticated = "not authenticated"
	ReasonQuotaReached     = "free plan limit of 5 jobs reached"
)

// Decision answers whether an owner may create another job.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// EvaluateEntitlement applies the quota rule. Pro owners are never limited;
// everyone else may hold fewer than FreeJobLimit jobs.
func EvaluateEntitlement(ownerID string, sub *Subscription, jobCount int) Decision {
	if ownerID == "" {
		return Decision{Reason: ReasonNotAuthenticated}
	}
	if sub.IsPro() {
		return Decision{Allowed: true}
	}
	if jobCount >= FreeJobLimit {
		return Decision{Reason: ReasonQuotaReached}
	}
	return Decision{Allowed: true}
}

// IsAtLimit reports whether a free owner has used the whole quota.
func IsAtLimit(sub *Subscription, jobCount int) bool {
	return !sub.IsPro() && jobCount >= FreeJobLimit
}
