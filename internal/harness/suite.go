package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/projection"
)

// SuiteResult contains results from running a directory of scenarios.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
	Reports        []*Report         `json:"reports,omitempty"`
}

// ScenarioFailure represents a failed scenario.
type ScenarioFailure struct {
	Scenario     string `json:"scenario"`
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// FindScenarios returns the .yaml and .yml files under dir in lexical
// order.
func FindScenarios(dir string) ([]string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// RunDir runs every scenario found under dir.
//
// For each scenario file:
// 1. Load the scenario (model path relative to the file)
// 2. Run it via RunContext
// 3. Collect pass/fail and the report
func RunDir(ctx context.Context, dir string) (*SuiteResult, error) {
	paths, err := FindScenarios(dir)
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	result := &SuiteResult{}
	for _, path := range paths {
		result.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail("", path, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		runResult, err := RunContext(ctx, scenario)
		if err != nil {
			result.fail(scenario.Name, path, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}
		result.Reports = append(result.Reports, runResult.Report)

		if !runResult.Pass {
			result.fail(scenario.Name, path, fmt.Sprintf("scenario expectations failed: %s", strings.Join(runResult.Errors, "; ")))
			continue
		}

		result.Passed++
	}

	return result, nil
}

func (r *SuiteResult) fail(name, path, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{Scenario: name, ScenarioPath: path, Error: msg})
}

// CheckProperties verifies the structural guarantees every compilation
// must meet, independent of scenario expectations:
//   - each mode is attempted at most once, ServerOnly first, and the last
//     attempted mode is the reported one
//   - slot paths are unique and no slot is the proper prefix of another
//   - a mixed compilation leaves no slot mapped
func CheckProperties(r *Report) []string {
	if r.Error != "" {
		return nil
	}
	var problems []string

	seen := make(map[string]bool, len(r.Passes))
	for i, p := range r.Passes {
		if seen[p] {
			problems = append(problems, fmt.Sprintf("mode %s attempted twice", p))
		}
		seen[p] = true
		if i == 0 && p != projection.ModeServerOnly.String() {
			problems = append(problems, fmt.Sprintf("first pass is %s, want %s", p, projection.ModeServerOnly))
		}
	}
	if n := len(r.Passes); n == 0 || r.Passes[n-1] != r.Mode {
		problems = append(problems, fmt.Sprintf("passes %v do not end in mode %s", r.Passes, r.Mode))
	}

	slots := make([]expr.ProjectionMember, len(r.Slots))
	for i, s := range r.Slots {
		slots[i] = ParseSlot(s.Slot)
	}
	for i := range slots {
		for j := range slots {
			if i == j {
				continue
			}
			if slots[i].Equal(slots[j]) {
				if i < j {
					problems = append(problems, fmt.Sprintf("slot %s mapped twice", slots[i]))
				}
			} else if slots[i].IsPrefixOf(slots[j]) {
				problems = append(problems, fmt.Sprintf("slot %s is a prefix of slot %s", slots[i], slots[j]))
			}
		}
	}

	if r.Mode == projection.ModeMixed.String() && len(r.Slots) > 0 {
		problems = append(problems, fmt.Sprintf("mixed compilation left %d slots mapped", len(r.Slots)))
	}
	return problems
}
