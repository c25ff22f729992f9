package store

import (
	"context"
	"fmt"
)

// CheckError reports query text SQLite refused to prepare.
type CheckError struct {
	SQL string
	Err error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("prepare %q: %v", e.SQL, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// Check prepares query without executing it. Syntax errors, unknown
// tables or columns and wrong function arities are reported as
// *CheckError.
func (s *Store) Check(ctx context.Context, query string) error {
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return &CheckError{SQL: query, Err: err}
	}
	return stmt.Close()
}
