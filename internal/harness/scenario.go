package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qshape/internal/projection"
)

// Scenario defines a compilation scenario: a model, a select over one root
// entity, an output shape to bind, and the expected compilation outcome.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the directory of the CUE entity model.
	// Relative paths are resolved from the scenario file location.
	Model string `yaml:"model"`

	// Dialect names the store dialect. Defaults to "sqlite".
	Dialect string `yaml:"dialect,omitempty"`

	// Root is the entity the select reads.
	Root string `yaml:"root"`

	// Joins add navigation joins before the shape is bound.
	Joins []JoinStep `yaml:"joins,omitempty"`

	// Predicate is an optional filter expression (see decode.go).
	Predicate yaml.Node `yaml:"predicate,omitempty"`

	// Orderings are ORDER BY terms, applied before the key tiebreaker.
	Orderings []OrderingStep `yaml:"orderings,omitempty"`

	// Limit and Offset page the select.
	Limit  *int `yaml:"limit,omitempty"`
	Offset *int `yaml:"offset,omitempty"`

	// Parameters are runtime values for captured parameters, looked up by
	// the client-evaluated parts of a mixed shape.
	Parameters map[string]any `yaml:"parameters,omitempty"`

	// Shape is the output shape to bind.
	Shape yaml.Node `yaml:"shape"`

	// Check prepares the generated SQL against an SQLite database created
	// from the model. Only valid with the sqlite dialect.
	Check bool `yaml:"check,omitempty"`

	// Expect is the expected compilation outcome.
	Expect Expectation `yaml:"expect"`
}

// JoinStep joins a navigation of the entity mapped at From (default: the
// root) and maps the joined entity at Member.
type JoinStep struct {
	Member     string `yaml:"member"`
	From       string `yaml:"from,omitempty"`
	Navigation string `yaml:"navigation"`
}

// OrderingStep is one ORDER BY term.
type OrderingStep struct {
	Expr       yaml.Node `yaml:"expr"`
	Descending bool      `yaml:"descending,omitempty"`
}

// Expectation lists the checked parts of a compilation. Unset fields are
// not checked.
type Expectation struct {
	// Mode is the final translation mode ("server_only" or "mixed").
	Mode string `yaml:"mode,omitempty"`

	// Passes lists the attempted modes in order.
	Passes []string `yaml:"passes,omitempty"`

	// ProjectionCount is the length of the select's projection list.
	ProjectionCount *int `yaml:"projection_count,omitempty"`

	// Slots are the mapped slot paths in registration order.
	Slots []string `yaml:"slots,omitempty"`

	// SQL is the exact generated query text.
	SQL string `yaml:"sql,omitempty"`

	// Params are the bound query values.
	Params []any `yaml:"params,omitempty"`

	// Entities is the number of distinct entity descriptors.
	Entities *int `yaml:"entities,omitempty"`

	// Shape is the printed rewritten shape.
	Shape string `yaml:"shape,omitempty"`

	// Error is the expected invariant violation code. When set, binding
	// must fail with this code.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file, resolving the model
// path relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the model path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) && basePath != "" {
		scenario.Model = filepath.Join(basePath, scenario.Model)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. The model path is left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "joins:" vs "join:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Dialect == "" {
		scenario.Dialect = DefaultDialect
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.Root == "" {
		return fmt.Errorf("root is required")
	}
	if s.Shape.Kind == 0 {
		return fmt.Errorf("shape is required")
	}
	if _, ok := Dialects[s.Dialect]; !ok {
		return fmt.Errorf("unknown dialect %q (known: %v)", s.Dialect, Dialects.Names())
	}
	if s.Check && s.Dialect != DefaultDialect {
		return fmt.Errorf("check requires the %s dialect, got %q", DefaultDialect, s.Dialect)
	}
	if s.Limit != nil && *s.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if s.Offset != nil && *s.Offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}

	for i, j := range s.Joins {
		if j.Member == "" {
			return fmt.Errorf("joins[%d]: member is required", i)
		}
		if j.Navigation == "" {
			return fmt.Errorf("joins[%d]: navigation is required", i)
		}
	}
	for i, o := range s.Orderings {
		if o.Expr.Kind == 0 {
			return fmt.Errorf("orderings[%d]: expr is required", i)
		}
	}

	return validateExpectation(&s.Expect)
}

func validateExpectation(e *Expectation) error {
	if e.Mode != "" {
		if _, ok := projection.ParseMode(e.Mode); !ok {
			return fmt.Errorf("expect.mode: unknown mode %q", e.Mode)
		}
	}
	for i, p := range e.Passes {
		if _, ok := projection.ParseMode(p); !ok {
			return fmt.Errorf("expect.passes[%d]: unknown mode %q", i, p)
		}
	}
	if e.ProjectionCount != nil && *e.ProjectionCount < 0 {
		return fmt.Errorf("expect.projection_count must be non-negative")
	}
	if e.Entities != nil && *e.Entities < 0 {
		return fmt.Errorf("expect.entities must be non-negative")
	}
	if e.Error != "" && (e.Mode != "" || e.SQL != "" || len(e.Slots) > 0) {
		return fmt.Errorf("expect.error cannot be combined with mode, sql or slots")
	}
	return nil
}
