package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	dbtypes "github.com/wholesaledesk/ordering-backend/pkg/db/types"
	"github.com/wholesaledesk/ordering-backend/pkg/enums"
)

// UserOption tweaks a fixture user before insert.
type UserOption func(*models.User)

func WithRoles(roles ...enums.Role) UserOption {
	return func(u *models.User) {
		u.Roles = pq.StringArray{}
		for _, role := range roles {
			u.Roles = append(u.Roles, role.String())
		}
	}
}

func WithFullAccess() UserOption {
	return func(u *models.User) { u.HasFullAccess = true }
}

func WithGroupAccess(groups ...uuid.UUID) UserOption {
	return func(u *models.User) { u.ProductGroupAccessIDs = dbtypes.UUIDArray(groups) }
}

func WithManager(managerID uuid.UUID) UserOption {
	return func(u *models.User) { u.ManagerUserID = &managerID }
}

func WithDepartment(departmentID uuid.UUID) UserOption {
	return func(u *models.User) { u.ShippingDepartmentID = &departmentID }
}

func WithDiscountProfile(profileID uuid.UUID) UserOption {
	return func(u *models.User) { u.DiscountProfileID = &profileID }
}

// CreateUser inserts a customer with the gate closed unless options say otherwise.
func CreateUser(t testing.TB, db *gorm.DB, opts ...UserOption) *models.User {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:                    id,
		Email:                 fmt.Sprintf("user_%s@example.com", id),
		DisplayName:           "Test User",
		Roles:                 pq.StringArray{enums.RoleCustomer.String()},
		ProductGroupAccessIDs: dbtypes.UUIDArray{},
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateGroup(t testing.TB, db *gorm.DB, name string) *models.ProductGroup {
	t.Helper()
	group := &models.ProductGroup{ID: uuid.New(), Name: name}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}
	return group
}

// CreateProduct inserts a product priced at basePrice with weight 1 and volume 0.1 per unit.
func CreateProduct(t testing.TB, db *gorm.DB, groupID uuid.UUID, code, basePrice string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		Code:      code,
		Name:      "Product " + code,
		GroupID:   groupID,
		BasePrice: decimal.RequireFromString(basePrice),
		Weight:    decimal.NewFromInt(1),
		Volume:    decimal.RequireFromString("0.1"),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// CreateProfile inserts a discount profile with one entry per group.
func CreateProfile(t testing.TB, db *gorm.DB, entries map[uuid.UUID]string) uuid.UUID {
	t.Helper()
	profile := models.DiscountProfile{ID: uuid.New(), Tier: enums.DiscountTierWholesale, Name: "Wholesale"}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	for group, pct := range entries {
		entry := models.DiscountProfileEntry{
			ID:             uuid.New(),
			ProfileID:      profile.ID,
			ProductGroupID: group,
			Percent:        decimal.RequireFromString(pct),
		}
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("create profile entry: %v", err)
		}
	}
	return profile.ID
}

func CreateSpecial(t testing.TB, db *gorm.DB, userID, groupID uuid.UUID, pct string) {
	t.Helper()
	special := models.SpecialDiscount{
		ID:             uuid.New(),
		UserID:         userID,
		ProductGroupID: groupID,
		Percent:        decimal.RequireFromString(pct),
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.Create(&special).Error; err != nil {
		t.Fatalf("create special discount: %v", err)
	}
}
