package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
	"github.com/wholesaledesk/ordering-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

const (
	outcomePublished = "published"
	outcomeRetry     = "retry"
	outcomeParked    = "parked"

	reasonUndeliverable = "undeliverable"
	reasonMaxAttempts   = "max_attempts"
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	ClaimBatch(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(tx *gorm.DB, id uuid.UUID) error
	RecordFailure(tx *gorm.DB, id uuid.UUID, cause error) error
	Park(tx *gorm.DB, id uuid.UUID, reason string, cause error) error
}

type messageResolver interface {
	Resolve(models.OutboxEvent) (*registry.Message, error)
}

type outcomeRecorder interface {
	OutboxHandled(outcome string, n int)
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	Stop()
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type publisherFactory func(topic string) publisher

type RelayParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         messageResolver
	PublisherFactory publisherFactory
	Metrics          outcomeRecorder
}

// Relay drains committed outbox rows to Pub/Sub. Delivery is at least once:
// a row is only marked after its publish result is known, and a rolled back
// batch is picked up again.
type Relay struct {
	logg           *logger.Logger
	db             dbClient
	pubsub         pubSubClient
	repo           outboxRepository
	registry       messageResolver
	metrics        outcomeRecorder
	newPublisher   publisherFactory
	publishers     map[string]publisher
	batchSize      int
	maxAttempts    int
	pollInterval   time.Duration
	publishTimeout time.Duration
}

func NewRelay(params RelayParams) (*Relay, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			return newGCPPublisher(params.PubSub.Publisher(topic))
		}
	}

	cfg := params.Config.Outbox
	relay := &Relay{
		logg:           params.Logger,
		db:             params.DB,
		pubsub:         params.PubSub,
		repo:           params.Repository,
		registry:       params.Registry,
		metrics:        params.Metrics,
		newPublisher:   factory,
		publishers:     map[string]publisher{},
		batchSize:      cfg.BatchSize,
		maxAttempts:    cfg.MaxAttempts,
		pollInterval:   time.Duration(cfg.PollIntervalMS) * time.Millisecond,
		publishTimeout: cfg.PublishTimeout,
	}
	if relay.batchSize <= 0 {
		relay.batchSize = defaultBatchSize
	}
	if relay.maxAttempts <= 0 {
		relay.maxAttempts = defaultMaxAttempts
	}
	if relay.pollInterval <= 0 {
		relay.pollInterval = defaultPollInterval
	}
	if relay.publishTimeout <= 0 {
		relay.publishTimeout = defaultPublishTimeout
	}
	return relay, nil
}

// batchStats counts what happened to the rows of one committed batch.
type batchStats struct {
	fetched   int
	published int
	retried   int
	parked    int
}

func (b *batchStats) add(outcome string) {
	switch outcome {
	case outcomePublished:
		b.published++
	case outcomeRetry:
		b.retried++
	case outcomeParked:
		b.parked++
	}
}

// stalled reports a batch where every row failed transiently.
func (b batchStats) stalled() bool {
	return b.fetched > 0 && b.retried == b.fetched
}

func (r *Relay) Run(ctx context.Context) error {
	if err := r.ensureReadiness(ctx); err != nil {
		return err
	}
	defer r.stopPublishers()

	var backoff time.Duration
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "outbox relay context canceled")
			return err
		}

		stats, err := r.processBatch(ctx)
		if err != nil {
			r.logg.Error(ctx, "outbox.batch_failed", err)
		} else if stats.fetched > 0 {
			r.logg.Debug(r.logg.WithFields(ctx, map[string]any{
				"fetched":   stats.fetched,
				"published": stats.published,
				"retried":   stats.retried,
				"parked":    stats.parked,
			}), "outbox.batch_done")
		}

		var wait time.Duration
		wait, backoff = r.pace(stats, err != nil, backoff)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// pace picks the delay before the next batch and the backoff to carry.
// A full batch loops straight away; failures back off exponentially.
func (r *Relay) pace(stats batchStats, failed bool, backoff time.Duration) (time.Duration, time.Duration) {
	switch {
	case failed || stats.stalled():
		next := nextBackoff(backoff, r.pollInterval, maxBackoff)
		return withJitter(next), next
	case stats.fetched >= r.batchSize:
		return 0, 0
	default:
		return withJitter(r.pollInterval), 0
	}
}

func (r *Relay) ensureReadiness(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := r.pubsub.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping failed: %w", err)
	}
	return nil
}

// delivery tracks one row between dispatch and settle.
type delivery struct {
	event   models.OutboxEvent
	message *registry.Message
	result  publishResult
	err     error
}

// processBatch locks a batch, publishes every row without waiting, then
// settles each row from its publish result inside the same transaction.
func (r *Relay) processBatch(ctx context.Context) (batchStats, error) {
	var stats batchStats
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		stats = batchStats{}
		events, err := r.repo.ClaimBatch(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		stats.fetched = len(events)
		if len(events) == 0 {
			return nil
		}

		publishCtx, cancel := context.WithTimeout(ctx, r.publishTimeout)
		defer cancel()

		deliveries := make([]delivery, 0, len(events))
		for _, event := range events {
			deliveries = append(deliveries, r.dispatch(publishCtx, event))
		}

		var markErr error
		for _, d := range deliveries {
			outcome, err := r.settle(publishCtx, tx, d)
			if err != nil {
				markErr = multierr.Append(markErr, err)
				continue
			}
			stats.add(outcome)
		}
		return markErr
	})
	if err != nil {
		return stats, err
	}
	r.record(stats)
	return stats, nil
}

func (r *Relay) dispatch(ctx context.Context, event models.OutboxEvent) delivery {
	d := delivery{event: event}
	msg, err := r.registry.Resolve(event)
	if err != nil {
		d.err = err
		return d
	}
	d.message = msg

	pub := r.publisherFor(msg.Topic)
	if pub == nil {
		d.err = fmt.Errorf("%w: no publisher for topic %s", registry.ErrUndeliverable, msg.Topic)
		return d
	}
	d.result = pub.Publish(ctx, &gcppubsub.Message{
		Data:       msg.Body,
		Attributes: msg.Attributes,
	})
	if d.result == nil {
		d.err = fmt.Errorf("%w: topic %s returned no publish result", registry.ErrUndeliverable, msg.Topic)
	}
	return d
}

func (r *Relay) settle(ctx context.Context, tx *gorm.DB, d delivery) (string, error) {
	err := d.err
	if err == nil {
		_, err = d.result.Get(ctx)
	}
	fields := r.eventFields(d)

	switch {
	case err == nil:
		if markErr := r.repo.MarkPublished(tx, d.event.ID); markErr != nil {
			return "", fmt.Errorf("mark published %s: %w", d.event.ID, markErr)
		}
		r.logg.Info(r.logg.WithFields(ctx, fields), "outbox.published")
		return outcomePublished, nil

	case errors.Is(err, registry.ErrUndeliverable):
		return r.park(ctx, tx, d.event, reasonUndeliverable, err, fields)

	case d.event.AttemptCount+1 >= r.maxAttempts:
		return r.park(ctx, tx, d.event, reasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", err), fields)

	default:
		if markErr := r.repo.RecordFailure(tx, d.event.ID, err); markErr != nil {
			return "", fmt.Errorf("mark failed %s: %w", d.event.ID, markErr)
		}
		fields["attempt_count"] = d.event.AttemptCount + 1
		fields["error"] = err.Error()
		r.logg.Warn(r.logg.WithFields(ctx, fields), "outbox.publish_retry")
		return outcomeRetry, nil
	}
}

func (r *Relay) park(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason string, cause error, fields map[string]any) (string, error) {
	if err := r.repo.Park(tx, event.ID, reason, cause); err != nil {
		return "", fmt.Errorf("park %s: %w", event.ID, err)
	}
	fields["park_reason"] = reason
	fields["error"] = cause.Error()
	r.logg.Warn(r.logg.WithFields(ctx, fields), "outbox.parked")
	return outcomeParked, nil
}

func (r *Relay) publisherFor(topic string) publisher {
	if pub, ok := r.publishers[topic]; ok {
		return pub
	}
	pub := r.newPublisher(topic)
	if pub != nil {
		r.publishers[topic] = pub
	}
	return pub
}

func (r *Relay) stopPublishers() {
	for topic, pub := range r.publishers {
		pub.Stop()
		delete(r.publishers, topic)
	}
}

func (r *Relay) record(stats batchStats) {
	if r.metrics == nil {
		return
	}
	if stats.published > 0 {
		r.metrics.OutboxHandled(outcomePublished, stats.published)
	}
	if stats.retried > 0 {
		r.metrics.OutboxHandled(outcomeRetry, stats.retried)
	}
	if stats.parked > 0 {
		r.metrics.OutboxHandled(outcomeParked, stats.parked)
	}
}

func (r *Relay) eventFields(d delivery) map[string]any {
	fields := map[string]any{
		"outbox_id":     d.event.ID.String(),
		"event_type":    d.event.EventType,
		"aggregate_id":  d.event.AggregateID.String(),
		"attempt_count": d.event.AttemptCount,
	}
	if d.message != nil {
		fields["event_id"] = d.message.EventID
		fields["topic"] = d.message.Topic
	}
	return fields
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}

type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{inner: p}
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}

func (p *gcpPublisher) Stop() {
	p.inner.Stop()
}
