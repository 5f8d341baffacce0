// Package worker scores requests arriving on the event bus.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/lendscore/internal/domain"
	"github.com/opensource-finance/lendscore/internal/intake"
	"github.com/opensource-finance/lendscore/internal/metrics"
	"github.com/opensource-finance/lendscore/internal/offer"
	"github.com/opensource-finance/lendscore/internal/scoring"
)

// Worker consumes TopicScoreRequested, stores each assessment in the cache
// and publishes the outcome.
type Worker struct {
	bus       domain.EventBus
	cache     domain.Cache
	processor *offer.Processor
	metrics   *metrics.Metrics
	ttl       time.Duration

	mu            sync.Mutex
	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = global subscription)
	TenantIDs []string

	// AssessmentTTL is how long assessments stay in the cache
	AssessmentTTL time.Duration
}

// NewWorker creates a worker. The cache and metrics may be nil.
func NewWorker(bus domain.EventBus, cache domain.Cache, processor *offer.Processor, m *metrics.Metrics) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	if processor == nil {
		processor = offer.NewProcessor(nil)
	}
	return &Worker{
		bus:       bus,
		cache:     cache,
		processor: processor,
		metrics:   m,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start subscribes for the configured tenants, or globally when none are
// given. A tenant that fails to subscribe is logged and skipped.
func (w *Worker) Start(cfg Config) error {
	w.ttl = cfg.AssessmentTTL
	if w.ttl <= 0 {
		w.ttl = 15 * time.Minute
	}

	if len(cfg.TenantIDs) == 0 {
		if err := w.subscribe(domain.GlobalTenantID); err != nil {
			return fmt.Errorf("start global worker: %w", err)
		}
		slog.Info("global worker started", "topic", domain.TopicScoreRequested)
		return nil
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.subscribe(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
		"topic", domain.TopicScoreRequested,
	)
	return nil
}

func (w *Worker) subscribe(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicScoreRequested, w.handleMessage)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.subscriptions = append(w.subscriptions, sub)
	w.mu.Unlock()
	return nil
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var req domain.ScoreRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("failed to parse score request",
			"message_id", msg.ID,
			"error", err,
		)
		return w.reject(ctx, msg, domain.Rejection{
			RequestID: msg.ID,
			TenantID:  msg.TenantID,
			Errors:    []string{"malformed request: " + err.Error()},
		})
	}

	// Scope by the envelope tenant, which the bus routes on, not the payload.
	req.TenantID = msg.TenantID
	if req.RequestID == "" {
		req.RequestID = msg.ID
	}
	if req.TraceID == "" {
		req.TraceID = req.RequestID
	}

	wallet, err := intake.NormalizeWallet(req.WalletAddress)
	if err != nil {
		return w.fail(ctx, msg, req, err)
	}

	a, err := w.processor.Process(ctx, &offer.AssessmentInput{
		TenantID:      req.TenantID,
		TraceID:       req.TraceID,
		WalletAddress: wallet,
		Source:        domain.SourceEvent,
		Profiles:      req.Profiles,
		StartTime:     start,
	})
	if err != nil {
		return w.fail(ctx, msg, req, err)
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return w.fail(ctx, msg, req, fmt.Errorf("encode assessment: %w", err))
	}

	if w.cache != nil {
		if err := w.cache.SetAssessment(ctx, req.TenantID, a, w.ttl); err != nil {
			slog.Error("failed to cache assessment",
				"assessment_id", a.ID,
				"error", err,
			)
		}
	}
	if w.metrics != nil {
		w.metrics.ObserveAssessment(a)
	}

	if err := w.bus.Publish(ctx, req.TenantID, domain.TopicAssessmentCompleted, payload); err != nil {
		slog.Error("failed to publish assessment",
			"assessment_id", a.ID,
			"error", err,
		)
	}
	w.reply(ctx, msg, domain.ScoreReply{Assessment: a})

	slog.Info("score request processed",
		"request_id", req.RequestID,
		"assessment_id", a.ID,
		"tenant_id", req.TenantID,
		"tier", a.Result.Tier,
		"loan_capacity", a.Analysis.LoanCapacity,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// fail counts a rejected request and reports err to the requester.
func (w *Worker) fail(ctx context.Context, msg *domain.Message, req domain.ScoreRequest, err error) error {
	if w.metrics != nil {
		w.metrics.ObserveRejection(domain.SourceEvent)
	}
	return w.reject(ctx, msg, domain.Rejection{
		RequestID: req.RequestID,
		TenantID:  req.TenantID,
		Errors:    rejectionErrors(err),
	})
}

func (w *Worker) reject(ctx context.Context, msg *domain.Message, r domain.Rejection) error {
	slog.Warn("score request rejected",
		"request_id", r.RequestID,
		"tenant_id", r.TenantID,
		"errors", r.Errors,
	)

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode rejection: %w", err)
	}
	if err := w.bus.Publish(ctx, r.TenantID, domain.TopicAssessmentRejected, payload); err != nil {
		slog.Error("failed to publish rejection",
			"request_id", r.RequestID,
			"error", err,
		)
	}
	w.reply(ctx, msg, domain.ScoreReply{Rejection: &r})
	return nil
}

func (w *Worker) reply(ctx context.Context, msg *domain.Message, r domain.ScoreReply) {
	if msg.Metadata[domain.MetadataReplyTo] == "" {
		return
	}
	payload, err := json.Marshal(r)
	if err != nil {
		slog.Error("failed to encode reply", "message_id", msg.ID, "error", err)
		return
	}
	if err := w.bus.Reply(ctx, msg, payload); err != nil && !errors.Is(err, domain.ErrNoReplyTo) {
		slog.Error("failed to reply",
			"message_id", msg.ID,
			"error", err,
		)
	}
}

// rejectionErrors lists one entry per invalid field, or the error itself
// when it is not a validation failure.
func rejectionErrors(err error) []string {
	fields := scoring.FieldErrors(err)
	if len(fields) == 0 {
		return []string{err.Error()}
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Error()
	}
	return out
}

// Stop unsubscribes all workers.
func (w *Worker) Stop() error {
	w.cancel()

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
