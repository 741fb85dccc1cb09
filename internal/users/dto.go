package users

import (
	"github.com/google/uuid"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	"github.com/wholesaledesk/ordering-backend/pkg/visibility"
)

// AccessDTO describes what the caller may see, for clients deciding what to render.
type AccessDTO struct {
	UserID                uuid.UUID   `json:"user_id"`
	Roles                 []string    `json:"roles"`
	HasFullAccess         bool        `json:"has_full_access"`
	ProductGroupAccessIDs []uuid.UUID `json:"product_group_access_ids"`
	CanSeePricingAndStock bool        `json:"can_see_pricing_and_stock"`
}

func AccessFromModel(u *models.User) AccessDTO {
	if u == nil {
		return AccessDTO{}
	}
	groups := make([]uuid.UUID, 0, len(u.ProductGroupAccessIDs))
	groups = append(groups, u.ProductGroupAccessIDs...)
	roles := make([]string, 0, len(u.Roles))
	roles = append(roles, u.Roles...)
	return AccessDTO{
		UserID:                u.ID,
		Roles:                 roles,
		HasFullAccess:         u.HasFullAccess,
		ProductGroupAccessIDs: groups,
		CanSeePricingAndStock: visibility.CanSeePricingAndStock(u),
	}
}
