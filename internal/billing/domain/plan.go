package domain

import (
	"math"
	"strings"
)

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// UnlimitedJobs is the JobLimit of plans without a quota.
const UnlimitedJobs = -1

// FreeJobLimit is the number of jobs a free owner may hold.
const FreeJobLimit = 5

// Plan is an entry of the static plan catalog.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Interval string   `json:"interval"`
	Features []string `json:"features"`
	JobLimit int      `json:"jobLimit"`
}

// IsUnlimited reports whether the plan has no job quota.
func (p Plan) IsUnlimited() bool { return p.JobLimit == UnlimitedJobs }

// AmountMinor returns the price in the currency's minor unit.
func (p Plan) AmountMinor() int64 {
	return int64(math.Round(p.Price * 100))
}

var plans = []Plan{
	{
		ID:       PlanFree,
		Name:     "Free",
		Price:    0,
		Currency: "USD",
		Interval: "month",
		Features: []string{"Up to 5 job applications", "Basic tracking", "Email support"},
		JobLimit: FreeJobLimit,
	},
	{
		ID:       PlanPro,
		Name:     "Pro",
		Price:    5,
		Currency: "USD",
		Interval: "month",
		Features: []string{"Unlimited job applications", "Advanced analytics", "Priority support", "Export data"},
		JobLimit: UnlimitedJobs,
	},
}

// Plans returns a copy of the catalog.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	for i, p := range plans {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// FindPlan looks a plan up by ID.
func FindPlan(id string) (Plan, bool) {
	id = strings.TrimSpace(id)
	for _, p := range Plans() {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// PurchasablePlan returns the plan for a checkout. The free plan and
// unknown IDs are rejected with ErrInvalidPlan.
func PurchasablePlan(id string) (Plan, error) {
	p, ok := FindPlan(id)
	if !ok || p.Price <= 0 {
		return Plan{}, ErrInvalidPlan
	}
	return p, nil
}
