package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
)

var errNoTx = errors.New("outbox: transaction required")

// pendingRows filters to rows that are neither published nor parked.
func pendingRows(q *gorm.DB) *gorm.DB {
	return q.Where("published_at IS NULL AND parked_at IS NULL")
}

// Repository reads and settles outbox rows. Every write takes the caller's
// transaction so row state changes commit with the work around them.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errNoTx
	}
	return tx.Create(&event).Error
}

// ClaimBatch row-locks up to limit pending rows, oldest first, that have
// fewer than maxAttempts failed deliveries. Rows held by another relay are
// skipped rather than waited on.
func (r *Repository) ClaimBatch(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errNoTx
	}
	var rows []models.OutboxEvent
	err := pendingRows(tx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("attempt_count < ?", maxAttempts).
		Order("created_at, id").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(tx *gorm.DB, id uuid.UUID) error {
	now := r.now()
	return r.settle(tx, id, map[string]any{
		"published_at":    now,
		"last_attempt_at": now,
	})
}

// RecordFailure counts one failed delivery and keeps the row pending.
func (r *Repository) RecordFailure(tx *gorm.DB, id uuid.UUID, cause error) error {
	return r.settle(tx, id, map[string]any{
		"attempt_count":   gorm.Expr("attempt_count + 1"),
		"last_attempt_at": r.now(),
		"last_error":      cause.Error(),
	})
}

// Park takes the row out of rotation for good. Parked rows stay in the
// table for an operator to inspect or requeue.
func (r *Repository) Park(tx *gorm.DB, id uuid.UUID, reason string, cause error) error {
	now := r.now()
	return r.settle(tx, id, map[string]any{
		"attempt_count":   gorm.Expr("attempt_count + 1"),
		"last_attempt_at": now,
		"last_error":      cause.Error(),
		"parked_at":       now,
		"park_reason":     reason,
	})
}

func (r *Repository) settle(tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	if tx == nil {
		return errNoTx
	}
	res := pendingRows(tx.Model(&models.OutboxEvent{})).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountPending reports rows still owed a delivery.
func (r *Repository) CountPending() (int64, error) {
	var count int64
	err := pendingRows(r.db.Model(&models.OutboxEvent{})).Count(&count).Error
	return count, err
}

// CountParked reports rows the relay gave up on.
func (r *Repository) CountParked() (int64, error) {
	var count int64
	err := r.db.Model(&models.OutboxEvent{}).Where("parked_at IS NOT NULL").Count(&count).Error
	return count, err
}
