package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matches.
	Pass bool `json:"pass"`

	// Report describes the compilation. Used for expectation checks and
	// golden comparison.
	Report *Report `json:"report"`

	// Errors contains expectation failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Report: &Report{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Report is the deterministic summary of one compilation.
type Report struct {
	Scenario string `json:"scenario"`
	Dialect  string `json:"dialect"`

	// Error is the invariant violation code when binding failed; the
	// remaining fields are then empty.
	Error string `json:"error,omitempty"`

	Mode        string         `json:"mode,omitempty"`
	Passes      []string       `json:"passes,omitempty"`
	Fallback    string         `json:"fallback,omitempty"`
	Shape       string         `json:"shape,omitempty"`
	Slots       []SlotReport   `json:"slots,omitempty"`
	Projections int            `json:"projections"`
	Entities    []EntityReport `json:"entities,omitempty"`

	SQL         string `json:"sql,omitempty"`
	Params      []any  `json:"params,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	// Parameters are the resolved values of the runtime parameter lookups
	// left in a mixed shape, formatted.
	Parameters map[string]string `json:"parameters,omitempty"`

	// Checked is true when the SQL was prepared against SQLite.
	Checked bool `json:"checked,omitempty"`
}

// SlotReport gives the result columns of one mapped slot.
type SlotReport struct {
	Slot    string `json:"slot"`
	Columns []int  `json:"columns"`
}

// EntityReport summarizes one entity materialization descriptor.
type EntityReport struct {
	Entity   string   `json:"entity"`
	Table    string   `json:"table"`
	Includes []string `json:"includes,omitempty"`
}
