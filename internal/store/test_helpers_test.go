package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/qshape/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestModel builds a two-entity Shop model.
func createTestModel(t *testing.T) *ir.Model {
	t.Helper()
	customer := &ir.EntityType{
		Name: "Customer",
		Key:  []string{"Id"},
		Properties: []ir.Property{
			{Name: "Id", Type: ir.TypeInt},
			{Name: "Name", Type: ir.TypeString},
			{Name: "Email", Type: ir.TypeString, Column: "email_address", Nullable: true},
		},
		Navigations: []ir.Navigation{
			{Name: "Orders", Target: "Order", Collection: true, ForeignKey: []string{"CustomerId"}},
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
			{Name: "Shape", Type: ir.TypeGeometry, Nullable: true},
		},
	}
	m, err := ir.NewModel("Shop", customer, order)
	if err != nil {
		t.Fatalf("NewModel() failed: %v", err)
	}
	return m
}

func createTestPlan(fingerprint, sql string) Plan {
	return Plan{
		Fingerprint: fingerprint,
		Dialect:     "sqlite",
		Mode:        "server_only",
		SQL:         sql,
		Params:      `[1,"x"]`,
		Report:      `{"mode":"server_only"}`,
	}
}
