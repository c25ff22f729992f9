package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/qshape/internal/store"
)

// AssertionError is returned when an expectation fails.
// It includes the generated SQL to help debug the failure.
type AssertionError struct {
	Type     string // Expectation field for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Generated query text, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.SQL != "" {
		fmt.Fprintf(&buf, "\nSQL:\n  %s\n", e.SQL)
	}

	return buf.String()
}

// checkExpectations compares the result's report with expect and records
// every mismatch on the result.
func checkExpectations(result *Result, expect Expectation) {
	for _, err := range EvaluateExpectations(result.Report, expect) {
		result.AddError(err.Error())
	}
}

// EvaluateExpectations returns one error per expectation the report does
// not meet. Unset expectation fields are skipped.
func EvaluateExpectations(r *Report, expect Expectation) []error {
	var errs []error
	fail := func(typ, expected, actual string) {
		errs = append(errs, &AssertionError{Type: typ, Expected: expected, Actual: actual, SQL: r.SQL})
	}

	if expect.Error != "" || r.Error != "" {
		if expect.Error != "" && r.Error != expect.Error {
			actual := r.Error
			if actual == "" {
				actual = "binding succeeded"
			}
			fail("error", expect.Error, actual)
		}
		return errs
	}

	if expect.Mode != "" && r.Mode != expect.Mode {
		fail("mode", expect.Mode, r.Mode)
	}
	if expect.Passes != nil && !cmp.Equal(expect.Passes, r.Passes) {
		fail("passes", fmt.Sprint(expect.Passes), fmt.Sprint(r.Passes))
	}
	if expect.ProjectionCount != nil && r.Projections != *expect.ProjectionCount {
		fail("projection_count", fmt.Sprint(*expect.ProjectionCount), fmt.Sprint(r.Projections))
	}
	if expect.Slots != nil {
		actual := make([]string, len(r.Slots))
		for i, s := range r.Slots {
			actual[i] = s.Slot
		}
		if diff := cmp.Diff(expect.Slots, actual, cmpopts.EquateEmpty()); diff != "" {
			fail("slots", fmt.Sprint(expect.Slots), fmt.Sprintf("%v (-want +got):\n%s", actual, diff))
		}
	}
	if expect.SQL != "" && r.SQL != expect.SQL {
		fail("sql", expect.SQL, r.SQL)
	}
	if expect.Params != nil {
		if err := compareParams(expect.Params, r.Params); err != nil {
			fail("params", fmt.Sprint(expect.Params), err.Error())
		}
	}
	if expect.Entities != nil && len(r.Entities) != *expect.Entities {
		fail("entities", fmt.Sprint(*expect.Entities), fmt.Sprint(len(r.Entities)))
	}
	if expect.Shape != "" && r.Shape != expect.Shape {
		fail("shape", expect.Shape, r.Shape)
	}

	return errs
}

// compareParams compares bound values by their canonical JSON form, so
// YAML ints match driver int64s.
func compareParams(expected, actual []any) error {
	want, err := store.MarshalParams(expected)
	if err != nil {
		return fmt.Errorf("expected params: %w", err)
	}
	got, err := store.MarshalParams(actual)
	if err != nil {
		return fmt.Errorf("actual params: %w", err)
	}
	if want != got {
		return fmt.Errorf("%s", got)
	}
	return nil
}
