package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/pkg/db/dbtest"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	"github.com/wholesaledesk/ordering-backend/pkg/enums"
)

func TestEmitWritesEnvelopeInTransaction(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	aggregateID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   aggregateID,
			Actor:         &ActorRef{UserID: aggregateID},
			Data:          map[string]any{"order_number": 7},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, aggregateID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.JSONEq(t, `{"order_number":7}`, string(envelope.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          map[string]any{},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	pending, err := NewRepository(db).CountPending()
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	assert.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
}

func TestEmitRejectsIncompleteEvents(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)
	valid := DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]any{"order_number": 1},
	}

	cases := map[string]func(*DomainEvent){
		"unknown event type": func(e *DomainEvent) { e.EventType = "order_shipped" },
		"unknown aggregate":  func(e *DomainEvent) { e.AggregateType = "cart" },
		"nil aggregate id":   func(e *DomainEvent) { e.AggregateID = uuid.Nil },
		"nil data":           func(e *DomainEvent) { e.Data = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			event := valid
			mutate(&event)
			err := db.Transaction(func(tx *gorm.DB) error {
				return svc.Emit(context.Background(), tx, event)
			})
			assert.Error(t, err)
		})
	}

	pending, err := NewRepository(db).CountPending()
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestDecodeEnvelope(t *testing.T) {
	envelope, err := DecodeEnvelope([]byte(`{"version":1,"event_id":"e-1","occurred_at":"2026-03-01T10:00:00Z","data":{"order_number":3}}`))
	require.NoError(t, err)
	assert.Equal(t, "e-1", envelope.EventID)
	assert.JSONEq(t, `{"order_number":3}`, string(envelope.Data))

	_, err = DecodeEnvelope([]byte(`{"version":1,"event_id":"e-1","data":null}`))
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = DecodeEnvelope([]byte(`{"version":1,"data":{}}`))
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`{broken`))
	assert.Error(t, err)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.Emit(context.Background(), tx, DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
				Data:          map[string]any{"n": i},
			})
		}))
	}

	var fetched []models.OutboxEvent
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		fetched, err = repo.ClaimBatch(tx, 10, 3)
		if err != nil {
			return err
		}
		if err := repo.MarkPublished(tx, fetched[0].ID); err != nil {
			return err
		}
		if err := repo.RecordFailure(tx, fetched[1].ID, errors.New("transient")); err != nil {
			return err
		}
		return repo.Park(tx, fetched[2].ID, "undeliverable", errors.New("bad payload"))
	}))
	require.Len(t, fetched, 3)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		remaining, err = repo.ClaimBatch(tx, 10, 3)
		return err
	}))
	require.Len(t, remaining, 1)
	assert.Equal(t, fetched[1].ID, remaining[0].ID)
	assert.Equal(t, 1, remaining[0].AttemptCount)
	require.NotNil(t, remaining[0].LastError)
	assert.Equal(t, "transient", *remaining[0].LastError)

	pending, err := repo.CountPending()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	parked, err := repo.CountParked()
	require.NoError(t, err)
	assert.Equal(t, int64(1), parked)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", fetched[2].ID).Error)
	assert.False(t, row.Pending())
	require.NotNil(t, row.ParkReason)
	assert.Equal(t, "undeliverable", *row.ParkReason)
	assert.Equal(t, 1, row.AttemptCount)

	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.MarkPublished(tx, fetched[2].ID)
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
