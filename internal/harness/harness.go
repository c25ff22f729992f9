package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qshape/internal/compiler"
	"github.com/roach88/qshape/internal/dialect"
	"github.com/roach88/qshape/internal/dialect/sqlite"
	"github.com/roach88/qshape/internal/dialect/sqlserver"
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/projection"
	"github.com/roach88/qshape/internal/query"
	"github.com/roach88/qshape/internal/querysql"
	"github.com/roach88/qshape/internal/shaper"
	"github.com/roach88/qshape/internal/sqlexpr"
	"github.com/roach88/qshape/internal/store"
	"github.com/roach88/qshape/internal/testutil"
)

// Dialects are the store providers a scenario can name.
var Dialects = dialect.Set{
	sqlite.Name:    sqlite.New,
	sqlserver.Name: sqlserver.New,
}

// DefaultDialect is used when a scenario names none.
const DefaultDialect = sqlite.Name

// Harness compiles one scenario with deterministic select IDs.
type Harness struct {
	model    *ir.Model
	provider *dialect.Provider
	ids      *testutil.SequenceGenerator
	logger   *slog.Logger
	foreign  *query.Select
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Load and validate the CUE model
// 2. Build the select: root, joins, predicate, orderings, paging
// 3. Bind the shape with the projection binder
// 4. Generate SQL (and prepare it against SQLite when check is set)
// 5. Compare the report with the scenario's expectations
//
// An error is returned when the scenario cannot be compiled at all;
// mismatched expectations are reported through Result.Pass and
// Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for store access.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, err := compiler.LoadModel(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	if len(loaded.Problems) > 0 {
		return nil, fmt.Errorf("invalid model: %s", loaded.Problems[0].Error())
	}

	provider, err := Dialects.Lookup(scenario.Dialect)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		model:    loaded.Model,
		provider: provider,
		ids:      testutil.NewSequenceGenerator(""),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	result := NewResult()
	report := result.Report
	report.Scenario = s.Name
	report.Dialect = h.provider.Name

	root, ok := h.model.Entity(s.Root)
	if !ok {
		return nil, fmt.Errorf("unknown root entity %q", s.Root)
	}
	sel := query.NewSelect(h.provider.Factory, root, h.ids)
	d := &decoder{model: h.model, sel: sel, foreign: func() *query.Select {
		if h.foreign == nil {
			h.foreign = query.NewSelect(h.provider.Factory, root, h.ids)
		}
		return h.foreign
	}}

	if err := h.applyJoins(sel, s.Joins); err != nil {
		return nil, err
	}
	if err := h.applyClauses(sel, d, s); err != nil {
		return nil, err
	}

	shape, err := d.node(&s.Shape)
	if err != nil {
		return nil, fmt.Errorf("shape: %w", err)
	}

	h.logger.Debug("binding scenario shape", "scenario", s.Name, "select", sel.ID())
	bound, err := projection.NewBinder(h.provider.Translator()).Translate(sel, shape)
	if err != nil {
		var inv *query.InvariantError
		if !errors.As(err, &inv) {
			return nil, err
		}
		report.Error = string(inv.Code)
		checkExpectations(result, s.Expect)
		if s.Expect.Error == "" {
			result.AddError(fmt.Sprintf("binding failed: %v", err))
		}
		return result, nil
	}

	stmt, err := h.provider.Generator().Generate(sel)
	if err != nil {
		return nil, fmt.Errorf("generate SQL: %w", err)
	}
	h.fillReport(report, sel, bound, stmt)
	for _, problem := range CheckProperties(report) {
		result.AddError("property violated: " + problem)
	}

	if err := resolveParameters(report, bound.Shape, s.Parameters); err != nil {
		result.AddError(err.Error())
	}

	if s.Check {
		if err := h.check(ctx, stmt.SQL); err != nil {
			var checkErr *store.CheckError
			if !errors.As(err, &checkErr) {
				return nil, err
			}
			result.AddError(err.Error())
		} else {
			report.Checked = true
		}
	}

	checkExpectations(result, s.Expect)
	return result, nil
}

func (h *Harness) applyJoins(sel *query.Select, joins []JoinStep) error {
	for i, j := range joins {
		mapped, err := sel.MappedProjection(ParseSlot(j.From))
		if err != nil {
			return fmt.Errorf("joins[%d]: %w", i, err)
		}
		outer, ok := mapped.(*query.EntityProjection)
		if !ok {
			return fmt.Errorf("joins[%d]: slot %q does not hold an entity", i, j.From)
		}
		nav, ok := outer.Entity.Navigation(j.Navigation)
		if !ok {
			return fmt.Errorf("joins[%d]: entity %s has no navigation %q", i, outer.Entity.Name, j.Navigation)
		}
		target, ok := h.model.Entity(nav.Target)
		if !ok {
			return fmt.Errorf("joins[%d]: unknown navigation target %q", i, nav.Target)
		}
		if _, err := sel.AddNavigationJoin(outer, nav, target, ParseSlot(j.Member)); err != nil {
			return fmt.Errorf("joins[%d]: %w", i, err)
		}
	}
	return nil
}

// applyClauses translates the predicate and orderings. Unlike the shape,
// these have no client-side fallback: an untranslatable clause fails the
// scenario.
func (h *Harness) applyClauses(sel *query.Select, d *decoder, s *Scenario) error {
	translator := h.provider.Translator()
	clause := func(name string, n *yaml.Node) (sqlexpr.Expr, error) {
		node, err := d.node(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		translated, ok := translator.Translate(sel, node)
		if !ok {
			return nil, fmt.Errorf("%s does not translate: %s", name, expr.Print(node))
		}
		return translated, nil
	}

	if s.Predicate.Kind != 0 {
		predicate, err := clause("predicate", &s.Predicate)
		if err != nil {
			return err
		}
		sel.SetPredicate(predicate)
	}
	for i := range s.Orderings {
		ordering, err := clause(fmt.Sprintf("orderings[%d]", i), &s.Orderings[i].Expr)
		if err != nil {
			return err
		}
		sel.AddOrdering(ordering, !s.Orderings[i].Descending)
	}
	if s.Limit != nil {
		sel.SetLimit(*s.Limit)
	}
	if s.Offset != nil {
		sel.SetOffset(*s.Offset)
	}
	return nil
}

func (h *Harness) fillReport(r *Report, sel *query.Select, bound *projection.Result, stmt *querysql.Statement) {
	r.Mode = bound.Mode.String()
	for _, m := range bound.Passes {
		r.Passes = append(r.Passes, m.String())
	}
	r.Fallback = bound.Fallback
	r.Shape = expr.Print(bound.Shape)
	for _, slot := range stmt.Layout.Slots {
		r.Slots = append(r.Slots, SlotReport{Slot: slot.Member.String(), Columns: slot.Columns})
	}
	r.Projections = len(sel.Projections())
	for _, d := range bound.Entities {
		r.Entities = append(r.Entities, entityReport(d))
	}
	r.SQL = stmt.SQL
	r.Params = stmt.Params
	r.Fingerprint = stmt.Fingerprint
}

func entityReport(d *shaper.Descriptor) EntityReport {
	er := EntityReport{Entity: d.Entity.Name, Table: d.Backing.Table}
	for _, inc := range d.Includes {
		er.Includes = append(er.Includes, inc.Navigation.Name)
	}
	return er
}

// check prepares query against a fresh in-memory SQLite database holding
// the model's tables.
func (h *Harness) check(ctx context.Context, query string) error {
	st, err := store.Open(store.Memory)
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.ApplyModel(ctx, h.model); err != nil {
		return err
	}
	return st.Check(ctx, query)
}

// resolveParameters looks up every runtime parameter read left in shape.
func resolveParameters(r *Report, shape expr.Node, values map[string]any) error {
	var reads []*expr.ParameterValue
	collectParameterValues(shape, &reads)
	if len(reads) == 0 {
		return nil
	}

	lookup := query.ParameterValues{}
	for name, raw := range values {
		v, err := ir.FromGo(raw)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		lookup[name] = v
	}

	sort.Slice(reads, func(i, j int) bool { return reads[i].Name < reads[j].Name })
	r.Parameters = make(map[string]string, len(reads))
	for _, pv := range reads {
		v, err := query.Resolve(lookup, pv)
		if err != nil {
			return err
		}
		r.Parameters[pv.Name] = ir.Format(v)
	}
	return nil
}

func collectParameterValues(n expr.Node, out *[]*expr.ParameterValue) {
	if n == nil {
		return
	}
	if pv, ok := n.(*expr.ParameterValue); ok {
		*out = append(*out, pv)
		return
	}
	expr.VisitChildren(n, func(child expr.Node) expr.Node {
		collectParameterValues(child, out)
		return child
	})
}
