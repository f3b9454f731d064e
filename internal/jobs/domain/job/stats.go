package job

// Stats summarises an owner's jobs by status.
type Stats struct {
	Total     int `json:"total"`
	Applied   int `json:"applied"`
	Interview int `json:"interview"`
	Offer     int `json:"offer"`
	Rejected  int `json:"rejected"`
	Withdrawn int `json:"withdrawn"`
}

// ComputeStats folds per-status counts keyed by stored token. Tokens that
// are not an exact match for a known status only add to Total.
func ComputeStats(counts map[string]int) Stats {
	var s Stats
	for token, n := range counts {
		s.Total += n
		switch Status(token) {
		case StatusApplied:
			s.Applied += n
		case StatusInterview:
			s.Interview += n
		case StatusOffer:
			s.Offer += n
		case StatusRejected:
			s.Rejected += n
		case StatusWithdrawn:
			s.Withdrawn += n
		}
	}
	return s
}
