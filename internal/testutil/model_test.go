package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopModel(t *testing.T) {
	m := ShopModel()

	require.Len(t, m.Entities, 4)
	assert.Equal(t, "Shop", m.DefaultContainer)

	order := MustEntity(m, "Order")
	assert.Equal(t, "Orders", order.Table)
	assert.Equal(t, "Shop", order.Container)

	customer := MustEntity(m, "Customer")
	email, ok := customer.Property("Email")
	require.True(t, ok)
	assert.Equal(t, "email_address", email.Column)

	name, ok := customer.Property("Name")
	require.True(t, ok)
	assert.Equal(t, "Name", name.Column)
}

func TestShopModel_FreshCopies(t *testing.T) {
	a := MustEntity(ShopModel(), "Customer")
	b := MustEntity(ShopModel(), "Customer")
	assert.NotSame(t, a, b)
}

func TestMustEntity_Panics(t *testing.T) {
	assert.Panics(t, func() { MustEntity(ShopModel(), "Nope") })
}
