package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	sharedApplication "github.com/felixgeelhaar/jobtrack/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

const tracerName = "jobtrack/identity"

// invalidator is implemented by caching profile sources.
type invalidator interface {
	Invalidate(ctx context.Context, id string)
}

// SyncService mirrors identity provider profiles into the users table.
type SyncService struct {
	profiles domain.ProfileSource
	users    domain.UserRepository
	outbox   outbox.Writer
	uow      sharedApplication.UnitOfWork
	logger   *slog.Logger
	now      func() time.Time
}

// NewSyncService creates a SyncService.
func NewSyncService(
	profiles domain.ProfileSource,
	users domain.UserRepository,
	outboxRepo outbox.Writer,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		profiles: profiles,
		users:    users,
		outbox:   outboxRepo,
		uow:      uow,
		logger:   logger,
		now:      time.Now,
	}
}

// Profile returns the caller's provider profile.
func (s *SyncService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, domain.ErrMissingUserID
	}
	return s.profiles.GetProfile(ctx, userID)
}

// Sync fetches the profile and stores it when it differs from the stored
// copy. With fresh set, any cached profile is dropped first.
func (s *SyncService) Sync(ctx context.Context, userID string, fresh bool) (p *domain.Profile, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "SyncService.Sync")
	defer func() { observability.EndSpan(span, err) }()

	if userID == "" {
		return nil, domain.ErrMissingUserID
	}
	if inv, ok := s.profiles.(invalidator); ok && fresh {
		inv.Invalidate(ctx, userID)
	}

	fetched, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	profile, err := fetched.Normalize()
	if err != nil {
		return nil, err
	}
	if profile.ID != userID {
		return nil, fmt.Errorf("profile id %q does not match caller", profile.ID)
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = s.now().UTC()
	}

	return sharedApplication.InUnitOfWork(ctx, s.uow, func(txCtx context.Context) (*domain.Profile, error) {
		stored, err := s.users.FindByID(txCtx, userID)
		if err != nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		if stored != nil && stored.Equal(profile) {
			return stored, nil
		}

		if err := s.users.Upsert(txCtx, profile); err != nil {
			return nil, fmt.Errorf("store user: %w", err)
		}

		events := []sharedDomain.DomainEvent{domain.NewUserSynced(profile, stored == nil)}
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(userID, observability.CorrelationUUID(ctx)))
		msgs, err := outbox.NewMessages(events)
		if err != nil {
			return nil, err
		}
		if err := s.outbox.SaveBatch(txCtx, msgs); err != nil {
			return nil, err
		}

		s.logger.InfoContext(ctx, "user profile synced", "created", stored == nil)
		return &profile, nil
	})
}
