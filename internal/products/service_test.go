package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/internal/discounts"
	"github.com/wholesaledesk/ordering-backend/pkg/db/dbtest"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), discounts.NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestListGroupAppliesCallerDiscounts(t *testing.T) {
	db := dbtest.Open(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	group := dbtest.CreateGroup(t, db, "Fasteners")
	dbtest.CreateProduct(t, db, group.ID, "A-100", "100.00")
	profileID := dbtest.CreateProfile(t, db, map[uuid.UUID]string{group.ID: "25"})
	user := dbtest.CreateUser(t, db, dbtest.WithFullAccess(), dbtest.WithDiscountProfile(profileID))
	dbtest.CreateSpecial(t, db, user.ID, group.ID, "30")

	listing, err := svc.ListGroup(ctx, user, group.ID)
	require.NoError(t, err)
	assert.True(t, listing.PricingVisible)
	assert.Equal(t, "Fasteners", listing.GroupName)
	require.Len(t, listing.Products, 1)

	price := listing.Products[0].Price
	require.NotNil(t, price)
	assert.Equal(t, "70.00", price.Discounted.StringFixed(2))
	assert.Equal(t, "100.00", price.Base.StringFixed(2))
	assert.Equal(t, discounts.SourceSpecial, price.DiscountSource)
}

func TestListGroupHidesPricesWhenGateClosed(t *testing.T) {
	db := dbtest.Open(t)
	svc := newTestService(t, db)

	group := dbtest.CreateGroup(t, db, "Fasteners")
	dbtest.CreateProduct(t, db, group.ID, "A-100", "100.00")
	user := dbtest.CreateUser(t, db)

	listing, err := svc.ListGroup(context.Background(), user, group.ID)
	require.NoError(t, err)
	assert.False(t, listing.PricingVisible)
	require.Len(t, listing.Products, 1)
	assert.Nil(t, listing.Products[0].Price)
	assert.Equal(t, "A-100", listing.Products[0].Code)
}

func TestListGroupUnknownGroup(t *testing.T) {
	db := dbtest.Open(t)
	svc := newTestService(t, db)
	user := dbtest.CreateUser(t, db, dbtest.WithFullAccess())

	_, err := svc.ListGroup(context.Background(), user, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetProductWithGroupAccessOnly(t *testing.T) {
	db := dbtest.Open(t)
	svc := newTestService(t, db)

	group := dbtest.CreateGroup(t, db, "Fasteners")
	product := dbtest.CreateProduct(t, db, group.ID, "A-100", "19.99")
	user := dbtest.CreateUser(t, db, dbtest.WithGroupAccess(uuid.New()))

	dto, err := svc.GetProduct(context.Background(), user, product.ID)
	require.NoError(t, err)
	require.NotNil(t, dto.Price)
	assert.Equal(t, discounts.SourceNone, dto.Price.DiscountSource)
	assert.Equal(t, "19.99", dto.Price.Discounted.StringFixed(2))

	_, err = svc.GetProduct(context.Background(), user, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, discounts.NewRepository(nil))
	assert.Error(t, err)
}
