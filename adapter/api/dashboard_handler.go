package api

import (
	"log/slog"
	"net/http"

	billing "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/queries"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"golang.org/x/sync/errgroup"
)

// DashboardHandler assembles the dashboard in one round trip.
type DashboardHandler struct {
	jobs          JobService
	subscriptions SubscriptionService
	profiles      ProfileService
	logger        *slog.Logger
}

type dashboardResponse struct {
	Jobs         []queries.JobDTO      `json:"jobs"`
	Stats        job.Stats             `json:"stats"`
	Subscription *billing.Subscription `json:"subscription"`
	Plan         billing.Plan          `json:"plan"`
	JobCount     int                   `json:"jobCount"`
	IsAtLimit    bool                  `json:"isAtLimit"`
	ShowUpgrade  bool                  `json:"showUpgrade"`
}

// Get handles GET /api/dashboard. The four reads run concurrently and any
// failure fails the page; the profile sync is best effort.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(ctx)

	var resp dashboardResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobs, err := h.jobs.List(gctx, queries.ListJobsQuery{OwnerID: owner})
		resp.Jobs = jobs
		return err
	})
	g.Go(func() error {
		stats, err := h.jobs.Stats(gctx, queries.GetJobStatsQuery{OwnerID: owner})
		resp.Stats = stats
		return err
	})
	g.Go(func() error {
		sub, err := h.subscriptions.GetSubscription(gctx, owner)
		resp.Subscription = sub
		return err
	})
	g.Go(func() error {
		count, err := h.subscriptions.GetJobCount(gctx, owner)
		resp.JobCount = count
		return err
	})

	if h.profiles != nil {
		g.Go(func() error {
			if _, err := h.profiles.Sync(gctx, owner, false); err != nil {
				h.logger.WarnContext(ctx, "profile sync failed", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	if resp.Jobs == nil {
		resp.Jobs = []queries.JobDTO{}
	}
	resp.Plan = currentPlan(resp.Subscription)
	resp.IsAtLimit = billing.IsAtLimit(resp.Subscription, resp.JobCount)
	resp.ShowUpgrade = !resp.Subscription.IsPro()
	writeJSON(w, http.StatusOK, resp)
}
