package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderScope(t *testing.T) {
	scope, err := ParseOrderScope("")
	require.NoError(t, err)
	assert.Equal(t, OrderScopeMy, scope)

	scope, err = ParseOrderScope("my-and-managed")
	require.NoError(t, err)
	assert.Equal(t, OrderScopeMyAndManaged, scope)

	_, err = ParseOrderScope("everyone")
	assert.Error(t, err)
}

func TestRoleHelpers(t *testing.T) {
	roles := []Role{RoleCustomer, RoleManager}
	assert.True(t, HasRole(roles, RoleManager))
	assert.False(t, HasRole(roles, RoleAdmin))
	assert.False(t, Role("owner").IsValid())

	_, err := ParseRole("department_staff")
	assert.NoError(t, err)
}

func TestOrderTypeAndPaymentMethod(t *testing.T) {
	assert.True(t, OrderTypeUrgent.IsValid())
	assert.False(t, OrderType("express").IsValid())
	_, err := ParsePaymentMethod("card")
	assert.Error(t, err)
	pm, err := ParsePaymentMethod("deferred")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodDeferred, pm)
}

func TestOutboxEnums(t *testing.T) {
	assert.True(t, EventOrderCreated.IsValid())
	assert.True(t, AggregateOrder.IsValid())
	_, err := ParseOutboxEventType("order_paid")
	assert.Error(t, err)
}

func TestDiscountTier(t *testing.T) {
	tier, err := ParseDiscountTier("wholesale")
	require.NoError(t, err)
	assert.Equal(t, DiscountTierWholesale, tier)
	assert.False(t, DiscountTier("mega").IsValid())
}

func TestParseErrorsNameTheVocabulary(t *testing.T) {
	_, err := ParseOrderType("express")
	require.Error(t, err)
	assert.Equal(t, `invalid order type "express"`, err.Error())
	assert.Equal(t, "standard, urgent, pickup", OrderTypeValues())
	assert.Equal(t, "bank_transfer, deferred, cash", PaymentMethodValues())
}
