package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/pkg/db"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
)

// Repository persists carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUserID loads the user's cart with items in display order.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the user's cart, inserting an empty one on first use.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Cart{ID: uuid.New(), UserID: userID}
	if err := r.db.WithContext(ctx).Omit("Items").Create(created).Error; err != nil {
		// another request created it between the read and the insert
		if db.IsUniqueViolation(err, "user_id") {
			return r.FindByUserID(ctx, userID)
		}
		return nil, err
	}
	return created, nil
}

// FindItem loads an item together with the cart that owns it.
func (r *Repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, *models.Cart, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, nil, err
	}
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "id = ?", item.CartID).Error; err != nil {
		return nil, nil, err
	}
	return &item, &cart, nil
}

func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem appends the item after the cart's current last position.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	var last int64
	if err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ?", item.CartID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&last).Error; err != nil {
		return err
	}
	item.Position = int(last) + 1
	return r.db.WithContext(ctx).Create(item).Error
}

// SaveItem writes the quantity and captured prices of an existing item.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":                 item.Quantity,
			"unit_price":               item.UnitPrice,
			"unit_price_with_discount": item.UnitPriceWithDiscount,
			"discount_percent":         item.DiscountPercent,
			"updated_at":               time.Now().UTC(),
		}).Error
}

func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// DeleteItems removes every item of the cart and reports how many went.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// BumpVersion increments the cart version and returns the new value.
func (r *Repository) BumpVersion(ctx context.Context, cartID uuid.UUID) (int64, error) {
	if err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return 0, err
	}
	var version int64
	if err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Select("version").
		Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}
