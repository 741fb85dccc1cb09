package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/internal/cart"
	"github.com/wholesaledesk/ordering-backend/internal/discounts"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	"github.com/wholesaledesk/ordering-backend/pkg/enums"
	"github.com/wholesaledesk/ordering-backend/pkg/outbox"
	"github.com/wholesaledesk/ordering-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, int64, error)
}

// ListFilter narrows an order listing. Empty CreatorIDs with Unrestricted false matches nothing.
type ListFilter struct {
	Unrestricted  bool
	CreatorIDs    []uuid.UUID
	From          *time.Time
	To            *time.Time
	OrderType     *enums.OrderType
	PaymentMethod *enums.PaymentMethod
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type sequence interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

type userLoader interface {
	managedLister
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type discountLoader interface {
	LoadCatalog(ctx context.Context, user *models.User) (discounts.Catalog, error)
}

type cartReplacer interface {
	ReplaceItems(ctx context.Context, userID uuid.UUID, lines []cart.LineInput) (*cart.View, []uuid.UUID, error)
}

type conversionRecorder interface {
	ConversionFinished(err error, duration time.Duration)
	OrderNumberCollision()
}
