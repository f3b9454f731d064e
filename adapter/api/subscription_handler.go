package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	billingApp "github.com/felixgeelhaar/jobtrack/internal/billing/application"
	billing "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/felixgeelhaar/jobtrack/internal/billing/infrastructure/paystack"
)

// Dashboard markers set by the checkout redirect.
const (
	checkoutSuccessURL = "/dashboard?subscription=success"
	checkoutErrorURL   = "/dashboard?subscription=error"
)

// SubscriptionHandler serves plans, checkout and the payment callbacks.
type SubscriptionHandler struct {
	subscriptions SubscriptionService
	profiles      ProfileService
	limiter       *ownerLimiter
	webhookSecret string
	logger        *slog.Logger
}

type checkoutRequest struct {
	PlanID string `json:"planId"`
}

type checkoutResponse struct {
	Success     bool   `json:"success"`
	CheckoutURL string `json:"checkoutUrl"`
	Reference   string `json:"reference"`
}

type subscriptionResponse struct {
	Subscription *billing.Subscription `json:"subscription"`
	Plan         billing.Plan          `json:"plan"`
	JobCount     int                   `json:"jobCount"`
	CanCreateJob billing.Decision      `json:"canCreateJob"`
}

// ListPlans handles GET /api/plans
func (h *SubscriptionHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, billing.Plans())
}

// GetSubscription handles GET /api/subscription. A missing row is the
// free plan; a failed lookup is a 500.
func (h *SubscriptionHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(ctx)

	sub, err := h.subscriptions.GetSubscription(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load subscription")
		return
	}
	count, err := h.subscriptions.GetJobCount(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load subscription")
		return
	}

	writeJSON(w, http.StatusOK, subscriptionResponse{
		Subscription: sub,
		Plan:         currentPlan(sub),
		JobCount:     count,
		CanCreateJob: billing.EvaluateEntitlement(owner, sub, count),
	})
}

// Checkout handles POST /api/subscription/checkout
func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(ctx)

	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.PlanID) == "" {
		writeError(w, http.StatusBadRequest, "Plan ID is required")
		return
	}
	if h.limiter != nil && !h.limiter.Allow(owner) {
		writeError(w, http.StatusTooManyRequests, "Too many checkout attempts, try again shortly")
		return
	}

	profile, err := h.profiles.Profile(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load profile for checkout", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	session, err := h.subscriptions.CreateCheckoutSession(ctx, owner, profile.Email, req.PlanID)
	if err != nil {
		if billingApp.IsClientError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "failed to create checkout session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Success:     true,
		CheckoutURL: session.AuthorizationURL,
		Reference:   session.Reference,
	})
}

// CheckoutSuccess handles GET /api/subscription/success. It only ever
// redirects; failures land on the dashboard with an error marker.
func (h *SubscriptionHandler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	reference, trxref := q.Get("reference"), q.Get("trxref")

	if reference == "" || trxref == "" {
		h.logger.WarnContext(ctx, "checkout callback without references")
		http.Redirect(w, r, checkoutErrorURL, http.StatusFound)
		return
	}

	if _, err := h.subscriptions.CompleteCheckout(ctx, reference, trxref); err != nil {
		h.logger.ErrorContext(ctx, "checkout verification failed",
			"reference", reference,
			"error", err,
		)
		http.Redirect(w, r, checkoutErrorURL, http.StatusFound)
		return
	}
	http.Redirect(w, r, checkoutSuccessURL, http.StatusFound)
}

// Webhook handles POST /api/webhook/paystack. Requests without a valid
// signature are rejected before the body is parsed.
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	event, err := paystack.ParseWebhook(h.webhookSecret, body, r.Header.Get(paystack.SignatureHeader))
	if err != nil {
		if errors.Is(err, paystack.ErrInvalidSignature) {
			writeError(w, http.StatusUnauthorized, "Invalid signature")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	err = h.subscriptions.HandleWebhook(ctx, event.Event, event.Reference)
	switch {
	case err == nil:
	case isFinalPaymentError(err):
		// Redelivery cannot change the outcome.
		h.logger.WarnContext(ctx, "webhook not applied",
			"event", event.Event,
			"reference", event.Reference,
			"error", err,
		)
	default:
		h.logger.ErrorContext(ctx, "failed to process webhook",
			"event", event.Event,
			"reference", event.Reference,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Failed to process webhook")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func isFinalPaymentError(err error) bool {
	return errors.Is(err, billing.ErrPaymentNotSuccessful) ||
		errors.Is(err, billing.ErrMissingPaymentMetadata) ||
		errors.Is(err, billing.ErrInvalidPlan) ||
		errors.Is(err, billing.ErrMissingReference)
}

func currentPlan(sub *billing.Subscription) billing.Plan {
	id := billing.PlanFree
	if sub.IsPro() {
		id = sub.PlanID
	}
	plan, ok := billing.FindPlan(id)
	if !ok {
		plan, _ = billing.FindPlan(billing.PlanPro)
	}
	return plan
}
