package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wholesaledesk/ordering-backend/pkg/db/dbtest"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	dbtypes "github.com/wholesaledesk/ordering-backend/pkg/db/types"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

func ptr[T any](v T) *T {
	return &v
}

func TestRepositoryRoundTripsArrays(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	group := uuid.New()
	user := &models.User{
		Email:                 "buyer@example.com",
		DisplayName:           "Buyer",
		Roles:                 pq.StringArray{"customer", "manager"},
		ProductGroupAccessIDs: dbtypes.UUIDArray{group},
	}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEqual(t, uuid.Nil, user.ID)

	loaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"customer", "manager"}, []string(loaded.Roles))
	assert.True(t, loaded.ProductGroupAccessIDs.Contains(group))
	assert.Len(t, loaded.RoleSet(), 2)
}

func TestListManagedIDs(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	manager := &models.User{Email: "m@example.com", DisplayName: "M", Roles: pq.StringArray{"manager"}}
	require.NoError(t, repo.Create(ctx, manager))

	var reports []uuid.UUID
	for _, email := range []string{"a@example.com", "b@example.com"} {
		u := &models.User{Email: email, DisplayName: email, Roles: pq.StringArray{"customer"}, ManagerUserID: ptr(manager.ID)}
		require.NoError(t, repo.Create(ctx, u))
		reports = append(reports, u.ID)
	}
	require.NoError(t, repo.Create(ctx, &models.User{Email: "c@example.com", DisplayName: "C", Roles: pq.StringArray{"customer"}}))

	ids, err := repo.ListManagedIDs(ctx, manager.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, reports, ids)

	none, err := repo.ListManagedIDs(ctx, reports[0])
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDirectoryMapsErrors(t *testing.T) {
	dir, err := NewDirectory(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)

	_, err = dir.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = dir.Get(context.Background(), uuid.Nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAccessFromModel(t *testing.T) {
	dto := AccessFromModel(&models.User{ID: uuid.New(), HasFullAccess: true, Roles: pq.StringArray{"admin"}})
	assert.True(t, dto.CanSeePricingAndStock)
	assert.Equal(t, []string{"admin"}, dto.Roles)
	assert.NotNil(t, dto.ProductGroupAccessIDs)

	closed := AccessFromModel(&models.User{ID: uuid.New()})
	assert.False(t, closed.CanSeePricingAndStock)
}
