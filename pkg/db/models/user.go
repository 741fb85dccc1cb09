package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dbtypes "github.com/wholesaledesk/ordering-backend/pkg/db/types"
	"github.com/wholesaledesk/ordering-backend/pkg/enums"
)

// User is the identity row as maintained by admin tooling. The engine only reads it.
type User struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email                 string            `gorm:"column:email;type:text;not null;uniqueIndex"`
	DisplayName           string            `gorm:"column:display_name;not null"`
	Roles                 pq.StringArray    `gorm:"column:roles;type:text[];not null"`
	DiscountProfileID     *uuid.UUID        `gorm:"column:discount_profile_id;type:uuid"`
	ManagerUserID         *uuid.UUID        `gorm:"column:manager_user_id;type:uuid"`
	ShippingDepartmentID  *uuid.UUID        `gorm:"column:shipping_department_id;type:uuid"`
	HasFullAccess         bool              `gorm:"column:has_full_access;not null;default:false"`
	ProductGroupAccessIDs dbtypes.UUIDArray `gorm:"column:product_group_access_ids;type:uuid[];not null;default:'{}'"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// RoleSet returns the recognised roles, ignoring unknown values.
func (u User) RoleSet() []enums.Role {
	roles := make([]enums.Role, 0, len(u.Roles))
	for _, raw := range u.Roles {
		if role, err := enums.ParseRole(raw); err == nil {
			roles = append(roles, role)
		}
	}
	return roles
}
