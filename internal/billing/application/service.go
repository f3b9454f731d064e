package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	sharedApplication "github.com/felixgeelhaar/jobtrack/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "jobtrack/billing"

// EventChargeSuccess is the webhook event that confirms a payment.
const EventChargeSuccess = "charge.success"

// JobCounter counts an owner's jobs.
type JobCounter interface {
	Count(ctx context.Context, ownerID string) (int, error)
}

// ServiceConfig wires the subscription service.
type ServiceConfig struct {
	Subscriptions domain.SubscriptionRepository
	Jobs          JobCounter
	Gateway       domain.PaymentGateway
	Outbox        outbox.Writer
	UnitOfWork    sharedApplication.UnitOfWork
	// CallbackURL is where the gateway sends the browser after payment.
	CallbackURL string
	Logger      *slog.Logger
	Metrics     observability.Metrics
	Now         func() time.Time
}

// Service answers entitlement questions and drives the upgrade flow.
type Service struct {
	subscriptions domain.SubscriptionRepository
	jobs          JobCounter
	gateway       domain.PaymentGateway
	outbox        outbox.Writer
	uow           sharedApplication.UnitOfWork
	callbackURL   string
	logger        *slog.Logger
	metrics       observability.Metrics
	now           func() time.Time
}

// NewService creates the subscription service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		subscriptions: cfg.Subscriptions,
		jobs:          cfg.Jobs,
		gateway:       cfg.Gateway,
		outbox:        cfg.Outbox,
		uow:           cfg.UnitOfWork,
		callbackURL:   cfg.CallbackURL,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		now:           cfg.Now,
	}
}

// GetSubscription returns the owner's subscription, (nil, nil) when there is none.
func (s *Service) GetSubscription(ctx context.Context, ownerID string) (*domain.Subscription, error) {
	if ownerID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.subscriptions.FindByOwner(ctx, ownerID)
}

// GetJobCount returns how many jobs the owner holds.
func (s *Service) GetJobCount(ctx context.Context, ownerID string) (int, error) {
	if ownerID == "" {
		return 0, domain.ErrNotAuthenticated
	}
	return s.jobs.Count(ctx, ownerID)
}

// CanCreateJob evaluates the quota from fresh reads. A failed lookup is
// returned as an error rather than treated as the free tier.
func (s *Service) CanCreateJob(ctx context.Context, ownerID string) (decision domain.Decision, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "Service.CanCreateJob")
	defer func() { observability.EndSpan(span, err) }()

	if ownerID == "" {
		return domain.EvaluateEntitlement("", nil, 0), nil
	}

	sub, err := s.subscriptions.FindByOwner(ctx, ownerID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("load subscription: %w", err)
	}
	if sub.IsPro() {
		return domain.EvaluateEntitlement(ownerID, sub, 0), nil
	}

	count, err := s.jobs.Count(ctx, ownerID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("count jobs: %w", err)
	}

	decision = domain.EvaluateEntitlement(ownerID, sub, count)
	if !decision.Allowed {
		s.metrics.Counter(observability.MetricQuotaRejections, 1)
	}
	return decision, nil
}

// CreateCheckoutSession starts a hosted checkout for a paid plan.
func (s *Service) CreateCheckoutSession(ctx context.Context, ownerID, email, planID string) (session *domain.CheckoutSession, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "Service.CreateCheckoutSession",
		attribute.String("plan.id", planID))
	timer := observability.StartTimer("billing.create_checkout").WithLogger(s.logger).WithMetrics(s.metrics)
	defer func() {
		timer.Stop(ctx, err)
		observability.EndSpan(span, err)
	}()

	if ownerID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	plan, err := domain.PurchasablePlan(planID)
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrMissingEmail
	}

	session, err = s.gateway.InitializeTransaction(ctx, domain.CheckoutRequest{
		OwnerID:     ownerID,
		PlanID:      plan.ID,
		Email:       email,
		AmountMinor: plan.AmountMinor(),
		Currency:    plan.Currency,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize checkout: %w", err)
	}

	s.metrics.Counter(observability.MetricCheckoutsStarted, 1, observability.T("plan", plan.ID))
	s.logger.InfoContext(ctx, "checkout session created",
		"plan_id", plan.ID,
		"reference", session.Reference,
	)
	return session, nil
}

// VerifyPayment fetches the gateway's record for reference. It does not
// judge the payment status.
func (s *Service) VerifyPayment(ctx context.Context, reference string) (tx *domain.Transaction, err error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.ErrMissingReference
	}

	timer := observability.StartTimer("billing.verify_payment").WithLogger(s.logger).WithMetrics(s.metrics)
	defer func() { timer.Stop(ctx, err) }()

	tx, err = s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	return tx, nil
}

// UpdateUserSubscription upserts the owner's pro subscription for a
// verified payment. Replaying the same payment reference is a no-op.
func (s *Service) UpdateUserSubscription(ctx context.Context, ownerID, planID string, payment *domain.Transaction) (*domain.Subscription, error) {
	if ownerID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if payment == nil || payment.Reference == "" {
		return nil, domain.ErrMissingReference
	}

	return sharedApplication.InUnitOfWork(ctx, s.uow, func(txCtx context.Context) (*domain.Subscription, error) {
		// The redirect and the webhook can race on the same reference.
		if err := s.subscriptions.LockOwner(txCtx, ownerID); err != nil {
			return nil, fmt.Errorf("lock subscription: %w", err)
		}
		existing, err := s.subscriptions.FindByOwner(txCtx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("load subscription: %w", err)
		}
		if existing.IsPro() && existing.PaymentReference != nil && *existing.PaymentReference == payment.Reference {
			return existing, nil
		}

		sub := domain.ActivatePro(existing, ownerID, planID, payment.Reference, s.now())
		if err := s.subscriptions.Upsert(txCtx, sub); err != nil {
			return nil, fmt.Errorf("upsert subscription: %w", err)
		}

		events := []sharedDomain.DomainEvent{domain.NewSubscriptionActivated(sub)}
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ownerID, observability.CorrelationUUID(ctx)))
		msgs, err := outbox.NewMessages(events)
		if err != nil {
			return nil, err
		}
		if err := s.outbox.SaveBatch(txCtx, msgs); err != nil {
			return nil, err
		}

		s.metrics.Counter(observability.MetricSubscriptionsPaid, 1, observability.T("plan", planID))
		return sub, nil
	})
}

// CompleteCheckout handles the gateway redirect: both references must be
// present, the payment must have succeeded and its metadata must name the
// owner and plan.
func (s *Service) CompleteCheckout(ctx context.Context, reference, trxref string) (sub *domain.Subscription, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "Service.CompleteCheckout")
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(reference) == "" || strings.TrimSpace(trxref) == "" {
		return nil, domain.ErrMissingReference
	}
	return s.activate(ctx, reference)
}

// HandleWebhook processes a verified gateway notification. Only successful
// charges are acted on, and the payment is re-verified with the gateway.
func (s *Service) HandleWebhook(ctx context.Context, event, reference string) error {
	if event != EventChargeSuccess {
		s.logger.DebugContext(ctx, "ignoring webhook event", "event", event)
		return nil
	}
	if strings.TrimSpace(reference) == "" {
		return domain.ErrMissingReference
	}
	_, err := s.activate(ctx, reference)
	return err
}

func (s *Service) activate(ctx context.Context, reference string) (*domain.Subscription, error) {
	payment, err := s.VerifyPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	s.metrics.Counter(observability.MetricPaymentsVerified, 1, observability.T("status", payment.Status))
	if !payment.IsSuccessful() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrPaymentNotSuccessful, payment.Status)
	}
	if payment.Reference == "" {
		payment.Reference = reference
	}

	ownerID := payment.CustomField(domain.FieldUserID)
	planID := payment.CustomField(domain.FieldPlanID)
	if ownerID == "" || planID == "" {
		return nil, domain.ErrMissingPaymentMetadata
	}
	if _, err := domain.PurchasablePlan(planID); err != nil {
		return nil, err
	}

	sub, err := s.UpdateUserSubscription(observability.WithOwnerID(ctx, ownerID), ownerID, planID, payment)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "subscription activated",
		"owner_id", ownerID,
		"plan_id", planID,
		"reference", payment.Reference,
	)
	return sub, nil
}

// IsClientError reports whether err stems from caller input rather than
// an upstream failure.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidPlan) ||
		errors.Is(err, domain.ErrMissingReference) ||
		errors.Is(err, domain.ErrMissingEmail) ||
		errors.Is(err, domain.ErrNotAuthenticated)
}
