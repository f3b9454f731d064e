package outbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/sony/gobreaker/v2"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	RetentionDays    int
	CleanupInterval  time.Duration

	// BreakerThreshold consecutive publish failures open the breaker for
	// BreakerCooldown. While open, batches stop early and messages keep
	// their retry budget.
	BreakerThreshold uint32
	BreakerCooldown  time.Duration
}

// DefaultProcessorConfig returns sensible defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     5 * time.Second,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: 1 * time.Second,
		RetryBackoffMax:  1 * time.Minute,
		RetentionDays:    14,
		CleanupInterval:  24 * time.Hour,
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
	}
}

// Processor polls the outbox and hands each message to the publisher.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	breaker   *gobreaker.CircuitBreaker[struct{}]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	stats  Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger, metrics observability.Metrics) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if config.BreakerThreshold == 0 {
		config.BreakerThreshold = 5
	}
	if config.BreakerCooldown <= 0 {
		config.BreakerCooldown = 30 * time.Second
	}

	p := &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   metrics,
	}
	p.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "outbox-publisher",
		MaxRequests: 1,
		Timeout:     config.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return p
}

// Start runs the polling loop until ctx ends or Stop is called. Starting a
// running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop cancels the loop and waits for the batch in flight.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Processor) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()

	cleanupInterval := p.config.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = 24 * time.Hour
	}
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		case <-cleanup.C:
			p.cleanup(ctx)
		}
	}
}

func (p *Processor) cleanup(ctx context.Context) {
	if p.config.RetentionDays <= 0 {
		return
	}
	deleted, err := p.repo.DeleteOld(ctx, p.config.RetentionDays)
	if err != nil {
		p.logger.Error("outbox cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		p.logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", p.config.RetentionDays)
	}
}

// ProcessOnce processes a single batch synchronously.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	return p.processBatch(ctx)
}

func (p *Processor) processBatch(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.record(outcomeError, err)
		return err
	}
	p.observeLag(messages)

	for i, msg := range messages {
		_, err := p.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
		})
		switch {
		case err == nil:
			p.markPublished(ctx, msg)
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			// The broker is down; leave the rest for a later poll.
			p.record(outcomeError, err)
			p.logger.Warn("publisher unavailable, deferring batch", "deferred", len(messages)-i, "error", err)
			return nil
		default:
			p.markFailed(ctx, msg, err)
		}
	}
	return nil
}

func (p *Processor) markPublished(ctx context.Context, msg *Message) {
	if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
		p.logger.Error("failed to mark message as published", "id", msg.ID, "event_id", msg.EventID, "error", err)
		return
	}
	p.record(outcomePublished, nil)
	p.metrics.Counter(observability.MetricOutboxPublished, 1, observability.T("event_type", msg.EventType))
}

func (p *Processor) markFailed(ctx context.Context, msg *Message, cause error) {
	meta := msg.EventMetadata()
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"correlation_id", meta.CorrelationID,
		"causation_id", meta.CausationID,
		"owner_id", meta.OwnerID,
		"error", cause,
	)

	var err error
	if p.exhausted(msg) {
		p.record(outcomeDead, cause)
		p.metrics.Counter(observability.MetricOutboxFailed, 1, observability.T("outcome", "dead"))
		err = p.repo.MarkDead(ctx, msg.ID, cause.Error())
	} else {
		p.record(outcomeFailed, cause)
		p.metrics.Counter(observability.MetricOutboxFailed, 1, observability.T("outcome", "retry"))
		err = p.repo.MarkFailed(ctx, msg.ID, cause.Error(), time.Now().Add(p.retryBackoff(msg.RetryCount+1)))
	}
	if err != nil {
		p.logger.Error("failed to record publish failure", "id", msg.ID, "error", err)
	}
}

func (p *Processor) exhausted(msg *Message) bool {
	return p.config.MaxRetries <= 0 || msg.RetryCount+1 >= p.config.MaxRetries
}

// retryBackoff doubles from RetryBackoffBase per attempt, capped at
// RetryBackoffMax.
func (p *Processor) retryBackoff(attempt int) time.Duration {
	base, ceiling := p.config.RetryBackoffBase, p.config.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}

	backoff := base
	for i := 1; i < attempt; i++ {
		if backoff >= ceiling/2 {
			return ceiling
		}
		backoff *= 2
	}
	return min(backoff, ceiling)
}

// Stats is a snapshot of processor activity since start.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

type outcome int

const (
	outcomePublished outcome = iota
	outcomeFailed
	outcomeDead
	outcomeError
)

// GetStats returns current processor statistics.
func (p *Processor) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := p.stats
	stats.IsRunning = p.cancel != nil
	return stats
}

func (p *Processor) record(o outcome, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch o {
	case outcomePublished:
		p.stats.PublishedCount++
	case outcomeFailed:
		p.stats.FailedCount++
	case outcomeDead:
		p.stats.DeadCount++
	}
	if err != nil {
		now := time.Now()
		p.stats.LastError = err.Error()
		p.stats.LastErrorAt = &now
	}
}

func (p *Processor) observeLag(messages []*Message) {
	now := time.Now()
	var oldest *time.Time
	for _, msg := range messages {
		if oldest == nil || msg.CreatedAt.Before(*oldest) {
			created := msg.CreatedAt
			oldest = &created
		}
	}

	lag := 0.0
	if oldest != nil {
		lag = now.Sub(*oldest).Seconds()
	}

	p.mu.Lock()
	p.stats.LastProcessedAt = &now
	p.stats.OldestMessageAt = oldest
	p.stats.LagSeconds = lag
	p.mu.Unlock()

	p.metrics.Gauge(observability.MetricOutboxLag, lag)
}
