package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/wholesaledesk/ordering-backend/pkg/enums"
)

// OutboxEvent is an append-only row written in the same transaction as the
// change it announces. A row is pending until PublishedAt or ParkedAt is set.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:text;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:text;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`

	AttemptCount  int        `gorm:"column:attempt_count;not null;default:0"`
	LastAttemptAt *time.Time `gorm:"column:last_attempt_at"`
	LastError     *string    `gorm:"column:last_error"`
	PublishedAt   *time.Time `gorm:"column:published_at"`
	ParkedAt      *time.Time `gorm:"column:parked_at"`
	ParkReason    *string    `gorm:"column:park_reason"`
}

// Pending reports whether the relay still owes this row a delivery.
func (e OutboxEvent) Pending() bool {
	return e.PublishedAt == nil && e.ParkedAt == nil
}
