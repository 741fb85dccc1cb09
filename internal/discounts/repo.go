package discounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
)

// Repository reads discount data maintained by admin tooling.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// LoadCatalog gathers the user's profile defaults and active special discounts.
func (r *Repository) LoadCatalog(ctx context.Context, user *models.User) (Catalog, error) {
	if user == nil {
		return Catalog{}, errors.New("user required")
	}

	defaults := map[uuid.UUID]decimal.Decimal{}
	if user.DiscountProfileID != nil {
		var entries []models.DiscountProfileEntry
		if err := r.db.WithContext(ctx).
			Where("profile_id = ?", *user.DiscountProfileID).
			Find(&entries).Error; err != nil {
			return Catalog{}, err
		}
		for _, entry := range entries {
			defaults[entry.ProductGroupID] = entry.Percent
		}
	}

	var overrides []models.SpecialDiscount
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", user.ID, true).
		Order("created_at ASC").
		Find(&overrides).Error; err != nil {
		return Catalog{}, err
	}
	specials := make(map[uuid.UUID]decimal.Decimal, len(overrides))
	for _, override := range overrides {
		// newest wins if legacy data still holds more than one active row
		specials[override.ProductGroupID] = override.Percent
	}

	return NewCatalog(defaults, specials), nil
}
