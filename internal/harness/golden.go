package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/qshape/internal/ir"
)

// toCanonicalMap converts a Report to a map[string]any for canonical JSON
// serialization. This is required because ir.MarshalCanonical only handles
// IR types and primitives.
func (r *Report) toCanonicalMap() map[string]any {
	m := map[string]any{
		"scenario":    r.Scenario,
		"dialect":     r.Dialect,
		"projections": r.Projections,
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	if r.Mode != "" {
		m["mode"] = r.Mode
	}
	if len(r.Passes) > 0 {
		m["passes"] = r.Passes
	}
	if r.Fallback != "" {
		m["fallback"] = r.Fallback
	}
	if r.Shape != "" {
		m["shape"] = r.Shape
	}
	if len(r.Slots) > 0 {
		slots := make([]any, len(r.Slots))
		for i, s := range r.Slots {
			cols := make([]any, len(s.Columns))
			for j, c := range s.Columns {
				cols[j] = c
			}
			slots[i] = map[string]any{"slot": s.Slot, "columns": cols}
		}
		m["slots"] = slots
	}
	if len(r.Entities) > 0 {
		entities := make([]any, len(r.Entities))
		for i, e := range r.Entities {
			em := map[string]any{"entity": e.Entity, "table": e.Table}
			if len(e.Includes) > 0 {
				em["includes"] = e.Includes
			}
			entities[i] = em
		}
		m["entities"] = entities
	}
	if r.SQL != "" {
		m["sql"] = r.SQL
		m["fingerprint"] = r.Fingerprint
		params := make([]any, len(r.Params))
		for i, p := range r.Params {
			if b, ok := p.([]byte); ok {
				p = ir.IRBytes(b)
			}
			params[i] = p
		}
		m["params"] = params
	}
	if len(r.Parameters) > 0 {
		params := make(map[string]any, len(r.Parameters))
		for k, v := range r.Parameters {
			params[k] = v
		}
		m["parameters"] = params
	}
	if r.Checked {
		m["checked"] = true
	}
	return m
}

// MarshalReport renders a report as canonical JSON.
func MarshalReport(r *Report) ([]byte, error) {
	return ir.MarshalCanonical(r.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the report against a
// golden file. The golden file is stored in
// testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the report doesn't match the golden
// file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's report against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalReport(result.Report)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
