package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	"github.com/wholesaledesk/ordering-backend/pkg/enums"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
	"github.com/wholesaledesk/ordering-backend/pkg/outbox/registry"
)

func TestProcessBatchSettlesEachRow(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{newOrderEvent(0), newOrderEvent(0)}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	recorder := &fakeRecorder{}
	relay := newTestRelay(t, repo, pub, &fakeRegistry{}, recorder, nil)

	stats, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, batchStats{fetched: 2, published: 1, retried: 1}, stats)
	assert.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{repo.events[1].ID}, repo.published)
	assert.Empty(t, repo.parked)
	assert.Equal(t, map[string]int{outcomeRetry: 1, outcomePublished: 1}, recorder.counts)
}

func TestProcessBatchPublishesBeforeAwaiting(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{newOrderEvent(0), newOrderEvent(0), newOrderEvent(0)}}
	pub := &fakePublisher{}
	relay := newTestRelay(t, repo, pub, &fakeRegistry{}, nil, &config.OutboxConfig{BatchSize: 3})

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, pub.calls)
	assert.Equal(t, 3, pub.publishedBeforeFirstGet)
	assert.Len(t, repo.published, 3)
}

func TestProcessBatchEmpty(t *testing.T) {
	recorder := &fakeRecorder{}
	relay := newTestRelay(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, recorder, nil)

	stats, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.fetched)
	assert.Empty(t, recorder.counts)
}

func TestProcessBatchParksUndeliverable(t *testing.T) {
	event := newOrderEvent(0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	resolver := &fakeRegistry{err: fmt.Errorf("%w: bad payload", registry.ErrUndeliverable)}
	recorder := &fakeRecorder{}
	relay := newTestRelay(t, repo, &fakePublisher{}, resolver, recorder, nil)

	stats, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.parked)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.parked)
	assert.Equal(t, []string{reasonUndeliverable}, repo.parkReasons)
	assert.Empty(t, repo.published)
	assert.Equal(t, 1, recorder.counts[outcomeParked])
}

func TestProcessBatchParksAtMaxAttempts(t *testing.T) {
	event := newOrderEvent(1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	relay := newTestRelay(t, repo, pub, &fakeRegistry{}, nil, &config.OutboxConfig{BatchSize: 1, MaxAttempts: 2})

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.parked)
	assert.Equal(t, []string{reasonMaxAttempts}, repo.parkReasons)
	assert.Empty(t, repo.failed)
}

func TestProcessBatchWithoutPublisherParks(t *testing.T) {
	event := newOrderEvent(0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	relay := newTestRelay(t, repo, nil, &fakeRegistry{}, nil, nil)
	relay.newPublisher = func(string) publisher { return nil }

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.parked)
}

func TestProcessBatchPropagatesFetchError(t *testing.T) {
	relay := newTestRelay(t, &fakeRepo{fetchErr: errors.New("db down")}, &fakePublisher{}, &fakeRegistry{}, nil, nil)

	_, err := relay.processBatch(context.Background())
	require.Error(t, err)
}

func TestProcessBatchAggregatesMarkErrors(t *testing.T) {
	repo := &fakeRepo{
		events:  []models.OutboxEvent{newOrderEvent(0), newOrderEvent(0)},
		markErr: errors.New("conn reset"),
	}
	recorder := &fakeRecorder{}
	relay := newTestRelay(t, repo, &fakePublisher{}, &fakeRegistry{}, recorder, nil)

	_, err := relay.processBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), repo.events[0].ID.String())
	assert.Contains(t, err.Error(), repo.events[1].ID.String())
	assert.Empty(t, recorder.counts)
}

func TestPublishersAreCachedAndStopped(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{newOrderEvent(0), newOrderEvent(0)}}
	pub := &fakePublisher{}
	relay := newTestRelay(t, repo, nil, &fakeRegistry{}, nil, nil)
	built := 0
	relay.newPublisher = func(string) publisher {
		built++
		return pub
	}

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, built)

	relay.stopPublishers()
	assert.True(t, pub.stopped)
	assert.Empty(t, relay.publishers)
}

func TestPace(t *testing.T) {
	relay := newTestRelay(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, nil, &config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100})
	poll := 100 * time.Millisecond

	wait, backoff := relay.pace(batchStats{fetched: 2, published: 2}, false, 0)
	assert.Zero(t, wait)
	assert.Zero(t, backoff)

	wait, backoff = relay.pace(batchStats{fetched: 1, published: 1}, false, time.Second)
	assert.GreaterOrEqual(t, wait, poll)
	assert.Less(t, wait, poll+jitterWindow)
	assert.Zero(t, backoff)

	_, backoff = relay.pace(batchStats{}, true, 0)
	assert.Equal(t, 2*poll, backoff)
	_, backoff = relay.pace(batchStats{fetched: 2, retried: 2}, false, backoff)
	assert.Equal(t, 4*poll, backoff)
}

func TestNewRelayDefaults(t *testing.T) {
	relay := newTestRelay(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, nil, &config.OutboxConfig{})
	assert.Equal(t, defaultBatchSize, relay.batchSize)
	assert.Equal(t, defaultMaxAttempts, relay.maxAttempts)
	assert.Equal(t, defaultPollInterval, relay.pollInterval)
	assert.Equal(t, defaultPublishTimeout, relay.publishTimeout)
}

func TestNewRelayRequiresDependencies(t *testing.T) {
	_, err := NewRelay(RelayParams{})
	require.Error(t, err)
}

func TestNextBackoffCapsAtMax(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second, time.Second, 10*time.Second))
	assert.Equal(t, 10*time.Second, nextBackoff(8*time.Second, time.Second, 10*time.Second))
	assert.Equal(t, 2*time.Second, nextBackoff(0, time.Second, 10*time.Second))
}

func TestRunStopsOnCancel(t *testing.T) {
	relay := newTestRelay(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, relay.Run(ctx), context.Canceled)
}

func TestRunFailsWhenDatabaseUnreachable(t *testing.T) {
	relay := newTestRelay(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, nil, nil)
	relay.db = &fakeDB{pingErr: errors.New("refused")}

	err := relay.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database ping failed")
}

func newTestRelay(t *testing.T, repo outboxRepository, pub publisher, resolver messageResolver, recorder outcomeRecorder, override *config.OutboxConfig) *Relay {
	t.Helper()
	outboxCfg := config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}
	if override != nil {
		outboxCfg = *override
	}
	params := RelayParams{
		Config:           &config.Config{Outbox: outboxCfg},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		Registry:         resolver,
		PublisherFactory: func(string) publisher { return pub },
	}
	if recorder != nil {
		params.Metrics = recorder
	}
	relay, err := NewRelay(params)
	require.NoError(t, err)
	return relay
}

func newOrderEvent(attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		AttemptCount:  attempts,
		CreatedAt:     time.Now().UTC(),
	}
}

type fakeRepo struct {
	events      []models.OutboxEvent
	fetchErr    error
	markErr     error
	published   []uuid.UUID
	failed      []uuid.UUID
	parked      []uuid.UUID
	parkReasons []string
}

func (f *fakeRepo) ClaimBatch(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, f.fetchErr
}

func (f *fakeRepo) MarkPublished(_ *gorm.DB, id uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) RecordFailure(_ *gorm.DB, id uuid.UUID, _ error) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) Park(_ *gorm.DB, id uuid.UUID, reason string, _ error) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.parked = append(f.parked, id)
	f.parkReasons = append(f.parkReasons, reason)
	return nil
}

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error {
	return nil
}

func (f *fakePubSubClient) Publisher(string) *gcppubsub.Publisher {
	return nil
}

// fakePublisher hands out queued results, or successes once the queue is empty.
type fakePublisher struct {
	results                 []publishResult
	calls                   int
	publishedBeforeFirstGet int
	stopped                 bool
}

func (f *fakePublisher) Publish(context.Context, *gcppubsub.Message) publishResult {
	f.calls++
	if len(f.results) == 0 {
		return &trackedResult{pub: f}
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

func (f *fakePublisher) Stop() {
	f.stopped = true
}

type trackedResult struct {
	pub *fakePublisher
}

func (r *trackedResult) Get(context.Context) (string, error) {
	if r.pub.publishedBeforeFirstGet == 0 {
		r.pub.publishedBeforeFirstGet = r.pub.calls
	}
	return "server-id", nil
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "server-id", f.err
}

type fakeRegistry struct {
	err error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &registry.Message{
		Topic:      "orders-topic",
		EventID:    event.ID.String(),
		OccurredAt: event.CreatedAt,
		Attributes: map[string]string{"event_type": string(event.EventType)},
		Body:       event.Payload,
	}, nil
}

type fakeRecorder struct {
	counts map[string]int
}

func (f *fakeRecorder) OutboxHandled(outcome string, n int) {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[outcome] += n
}
