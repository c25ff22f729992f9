package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/qshape/internal/ir"
)

// ErrPlanNotFound is returned by ReadPlan for an unknown fingerprint.
var ErrPlanNotFound = errors.New("plan not found")

// Plan is a compiled query plan.
type Plan struct {
	Fingerprint string
	Seq         int64
	Dialect     string
	Mode        string
	SQL         string
	Params      string // canonical JSON array
	Report      string // canonical JSON
}

// WritePlan inserts a plan. Uses ON CONFLICT(fingerprint) DO NOTHING for
// idempotency - a plan already cached under the same fingerprint is kept
// and the write is silently ignored. Seq is assigned by the store.
//
// An empty Params is stored as [].
func (s *Store) WritePlan(ctx context.Context, p Plan) error {
	params := p.Params
	if params == "" {
		params = "[]"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans
		(fingerprint, seq, dialect, mode, query_text, params, report)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM plans), ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		p.Fingerprint,
		p.Dialect,
		p.Mode,
		p.SQL,
		params,
		p.Report,
	)
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// ReadPlan returns the plan cached under fingerprint.
func (s *Store) ReadPlan(ctx context.Context, fingerprint string) (Plan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, seq, dialect, mode, query_text, params, report
		FROM plans
		WHERE fingerprint = ?
	`, fingerprint)

	var p Plan
	err := row.Scan(&p.Fingerprint, &p.Seq, &p.Dialect, &p.Mode, &p.SQL, &p.Params, &p.Report)
	if errors.Is(err, sql.ErrNoRows) {
		return Plan{}, fmt.Errorf("read plan %s: %w", fingerprint, ErrPlanNotFound)
	}
	if err != nil {
		return Plan{}, fmt.Errorf("read plan %s: %w", fingerprint, err)
	}
	return p, nil
}

// ListPlans returns every cached plan in insertion order.
func (s *Store) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, seq, dialect, mode, query_text, params, report
		FROM plans
		ORDER BY seq ASC, fingerprint COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.Fingerprint, &p.Seq, &p.Dialect, &p.Mode, &p.SQL, &p.Params, &p.Report); err != nil {
			return nil, fmt.Errorf("list plans: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// MarshalParams converts bound query values to canonical JSON TEXT.
func MarshalParams(params []any) (string, error) {
	values := make([]any, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case nil, string, bool, int64:
			values[i] = v
		case int:
			values[i] = int64(v)
		case []byte:
			values[i] = ir.IRBytes(v)
		default:
			return "", fmt.Errorf("marshal params: unsupported value %T at %d", p, i)
		}
	}
	data, err := ir.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}
