package testutil

import (
	"fmt"

	"github.com/roach88/qshape/internal/ir"
)

// ShopModel returns a fresh copy of the model used across package tests:
//
//	Customer 1──* Order 1──* OrderLine
//	Customer *──1 Customer (Referrer)
//	Region (geometry columns)
//
// It mirrors harness/testdata/models/shop. A fresh model is built on every
// call, so tests may hold on to entity pointers without sharing them.
func ShopModel() *ir.Model {
	customer := &ir.EntityType{
		Name: "Customer",
		Key:  []string{"Id"},
		Properties: []ir.Property{
			{Name: "Id", Type: ir.TypeInt},
			{Name: "Name", Type: ir.TypeString},
			{Name: "Email", Type: ir.TypeString, Column: "email_address", Nullable: true},
			{Name: "Created", Type: ir.TypeDateTime},
			{Name: "ReferrerId", Type: ir.TypeInt, Nullable: true},
		},
		Navigations: []ir.Navigation{
			{Name: "Orders", Target: "Order", Collection: true, ForeignKey: []string{"CustomerId"}},
			{Name: "Referrer", Target: "Customer", ForeignKey: []string{"ReferrerId"}},
		},
	}
	order := &ir.EntityType{
		Name:  "Order",
		Table: "Orders",
		Key:   []string{"Id"},
		Properties: []ir.Property{
			{Name: "Id", Type: ir.TypeInt},
			{Name: "CustomerId", Type: ir.TypeInt},
			{Name: "Placed", Type: ir.TypeDateTime},
			{Name: "Total", Type: ir.TypeDecimal},
			{Name: "Shipped", Type: ir.TypeBool},
		},
		Navigations: []ir.Navigation{
			{Name: "Customer", Target: "Customer", ForeignKey: []string{"CustomerId"}},
			{Name: "Lines", Target: "OrderLine", Collection: true, ForeignKey: []string{"OrderId"}},
		},
	}
	line := &ir.EntityType{
		Name: "OrderLine",
		Key:  []string{"Id"},
		Properties: []ir.Property{
			{Name: "Id", Type: ir.TypeInt},
			{Name: "OrderId", Type: ir.TypeInt},
			{Name: "Product", Type: ir.TypeString},
			{Name: "Quantity", Type: ir.TypeInt},
		},
	}
	region := &ir.EntityType{
		Name: "Region",
		Key:  []string{"Id"},
		Properties: []ir.Property{
			{Name: "Id", Type: ir.TypeInt},
			{Name: "Name", Type: ir.TypeString},
			{Name: "Boundary", Type: ir.TypeGeometry},
			{Name: "Parts", Type: ir.TypeGeometryCollection, Nullable: true},
		},
	}

	m, err := ir.NewModel("Shop", customer, order, line, region)
	if err != nil {
		panic(fmt.Sprintf("testutil: shop model: %v", err))
	}
	return m
}

// MustEntity returns the named entity of m or panics.
func MustEntity(m *ir.Model, name string) *ir.EntityType {
	e, ok := m.Entity(name)
	if !ok {
		panic(fmt.Sprintf("testutil: no entity %q", name))
	}
	return e
}
