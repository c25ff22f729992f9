package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/query"
	"github.com/roach88/qshape/internal/sqlexpr"
	"github.com/roach88/qshape/internal/testutil"
)

type fixture struct {
	model    *ir.Model
	sel      *query.Select
	customer *ir.EntityType
	order    *ir.EntityType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := testutil.ShopModel()
	customer := testutil.MustEntity(m, "Customer")
	return &fixture{
		model:    m,
		sel:      query.NewSelect(sqlexpr.NewFactory(nil), customer, query.NewFixedGenerator("sel-1")),
		customer: customer,
		order:    testutil.MustEntity(m, "Order"),
	}
}

func (fx *fixture) nav(t *testing.T, entity *ir.EntityType, name string) ir.Navigation {
	t.Helper()
	for _, nav := range entity.Navigations {
		if nav.Name == name {
			return nav
		}
	}
	t.Fatalf("no navigation %s.%s", entity.Name, name)
	return ir.Navigation{}
}

func (fx *fixture) join(t *testing.T, outer *query.EntityProjection, name string, target *ir.EntityType) *query.EntityProjection {
	t.Helper()
	ep, err := fx.sel.AddNavigationJoin(outer, fx.nav(t, outer.Entity, name), target, expr.NewProjectionMember(outer.Table, name))
	require.NoError(t, err)
	return ep
}

func TestBind_DeduplicatesByBacking(t *testing.T) {
	fx := newFixture(t)
	s := New()

	a := s.Bind(fx.customer, fx.sel.Root(), nil)
	b := s.Bind(fx.customer, fx.sel.Root(), nil)

	assert.Same(t, a, b)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Lookup(fx.sel.Root())
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestBind_SameEntityDifferentRows(t *testing.T) {
	fx := newFixture(t)
	s := New()
	referrer := fx.join(t, fx.sel.Root(), "Referrer", fx.customer)

	a := s.Bind(fx.customer, fx.sel.Root(), nil)
	b := s.Bind(fx.customer, referrer, nil)

	assert.NotSame(t, a, b, "two backing rows are two instances")
	assert.Equal(t, []*Descriptor{a, b}, s.Descriptors())

	_, ok := New().Lookup(referrer)
	assert.False(t, ok)
}

func TestBind_Includes(t *testing.T) {
	fx := newFixture(t)
	s := New()
	orders := fx.join(t, fx.sel.Root(), "Orders", fx.order)
	buyer := fx.join(t, orders, "Customer", fx.customer)

	d := s.Bind(fx.customer, fx.sel.Root(), []IncludeTree{{
		Navigation: fx.nav(t, fx.customer, "Orders"),
		Entity:     fx.order,
		Backing:    orders,
		Includes: []IncludeTree{{
			Navigation: fx.nav(t, fx.order, "Customer"),
			Entity:     fx.customer,
			Backing:    buyer,
		}},
	}})

	require.Len(t, d.Includes, 1)
	inc, ok := d.Include("Orders")
	require.True(t, ok)
	assert.True(t, inc.Collection)
	assert.Same(t, orders, inc.Target.Backing)

	nested, ok := inc.Target.Include("Customer")
	require.True(t, ok)
	assert.False(t, nested.Collection)
	assert.Same(t, buyer, nested.Target.Backing)

	_, ok = d.Include("Referrer")
	assert.False(t, ok)

	assert.Equal(t, 3, s.Len())
	target, ok := s.Lookup(orders)
	require.True(t, ok)
	assert.Same(t, inc.Target, target, "include targets are shared descriptors")
}

func TestBind_MergesIncludesOnRebind(t *testing.T) {
	fx := newFixture(t)
	s := New()
	orders := fx.join(t, fx.sel.Root(), "Orders", fx.order)
	referrer := fx.join(t, fx.sel.Root(), "Referrer", fx.customer)

	ordersTree := IncludeTree{Navigation: fx.nav(t, fx.customer, "Orders"), Entity: fx.order, Backing: orders}
	referrerTree := IncludeTree{Navigation: fx.nav(t, fx.customer, "Referrer"), Entity: fx.customer, Backing: referrer}

	first := s.Bind(fx.customer, fx.sel.Root(), []IncludeTree{ordersTree})
	second := s.Bind(fx.customer, fx.sel.Root(), []IncludeTree{ordersTree, referrerTree})

	assert.Same(t, first, second)
	require.Len(t, second.Includes, 2)
	assert.Equal(t, "Orders", second.Includes[0].Navigation.Name)
	assert.Equal(t, "Referrer", second.Includes[1].Navigation.Name)
	assert.Equal(t, 3, s.Len())
}

func TestDescriptors_IsACopy(t *testing.T) {
	fx := newFixture(t)
	s := New()
	s.Bind(fx.customer, fx.sel.Root(), nil)

	list := s.Descriptors()
	list[0] = nil
	assert.NotNil(t, s.Descriptors()[0])
}
