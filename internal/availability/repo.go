package availability

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
)

// Repository reads branches and the stock rows written by ingestion.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListBranches(ctx context.Context) ([]models.Branch, error) {
	var rows []models.Branch
	if err := r.db.WithContext(ctx).Order("display_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRowsForGroup returns every stock row of the group's products.
func (r *Repository) ListRowsForGroup(ctx context.Context, groupID uuid.UUID) ([]models.AvailabilityRow, error) {
	var rows []models.AvailabilityRow
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = availability_rows.product_id").
		Where("products.group_id = ?", groupID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert writes the latest figure for a product at a branch. Ingestion owns this table;
// it serves seeding and tests.
func (r *Repository) Upsert(ctx context.Context, row models.AvailabilityRow) error {
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *Repository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	if branch.ID == uuid.Nil {
		branch.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(branch).Error
}
