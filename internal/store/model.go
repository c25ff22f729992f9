package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/qshape/internal/dialect/sqlite"
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
)

// ApplyModel creates one table per entity of m, if missing. Column types
// follow the SQLite dialect's type mappings; types it does not map are
// stored as BLOB.
//
// This function is idempotent.
func (s *Store) ApplyModel(ctx context.Context, m *ir.Model) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply model: %w", err)
	}
	defer tx.Rollback()

	for _, e := range m.Entities {
		if _, err := tx.ExecContext(ctx, createTableSQL(e)); err != nil {
			return fmt.Errorf("apply model: create table for %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply model: %w", err)
	}
	return nil
}

// TableColumns returns the column names of table in declaration order.
func (s *Store) TableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid ASC", table)
	if err != nil {
		return nil, fmt.Errorf("table columns %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("table columns %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table columns %s: %w", table, err)
	}
	return cols, nil
}

func createTableSQL(e *ir.EntityType) string {
	q := sqlite.SQL{}
	var defs []string
	for _, p := range e.Properties {
		storeType := "BLOB"
		if m := sqlite.Mappings.FindMapping(expr.Scalar(p.Type)); m != nil {
			storeType = m.StoreType
		}
		def := q.QuoteIdentifier(p.Column) + " " + storeType
		if !p.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if len(e.Key) > 0 {
		keys := make([]string, len(e.Key))
		for i, k := range e.Key {
			column := k
			if p, ok := e.Property(k); ok {
				column = p.Column
			}
			keys[i] = q.QuoteIdentifier(column)
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", q.QuoteIdentifier(e.Table), strings.Join(defs, ", "))
}
