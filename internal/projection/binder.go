package projection

import (
	"fmt"
	"log/slog"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/query"
	"github.com/roach88/qshape/internal/shaper"
	"github.com/roach88/qshape/internal/translate"
)

// Result is the outcome of binding one shape.
type Result struct {
	// Shape is the rewritten shape root.
	Shape expr.Node

	// Mode is the mode of the pass that completed.
	Mode Mode

	// Passes lists the modes attempted, in order.
	Passes []Mode

	// Fallback prints the node that aborted the server-only pass; empty
	// when no fallback happened.
	Fallback string

	// Entities lists the distinct entity descriptors in bind order.
	Entities []*shaper.Descriptor
}

// Binder binds shapes to query sources. A Binder holds no per-call state
// and may be reused for any number of independent calls; concurrent calls
// must use distinct query sources.
type Binder struct {
	translator *translate.SQLTranslator
}

// NewBinder creates a binder translating leaves with t.
func NewBinder(t *translate.SQLTranslator) *Binder {
	return &Binder{translator: t}
}

// Translate binds shape to sel. It fails only on invariant violations
// (*query.InvariantError); an untranslatable shape completes in ModeMixed.
// Every projection binding in shape is resolved against sel before the
// first pass, so a binding into another select, to an unmapped slot or past
// the projection list fails without a mixed retry. On error sel is left as
// it was.
func (b *Binder) Translate(sel *query.Select, shape expr.Node) (*Result, error) {
	if sel == nil {
		return nil, fmt.Errorf("cannot bind shape to nil select")
	}
	if shape == nil {
		return nil, fmt.Errorf("cannot bind nil shape")
	}

	w := b.newWalk(sel, ModeServerOnly)
	if err := w.verify(shape); err != nil {
		return nil, err
	}

	slog.Debug("binding projection", "select", sel.ID(), "mode", ModeServerOnly)
	out, ok, err := w.visit(shape)
	if err != nil {
		return nil, err
	}
	res := &Result{Passes: []Mode{ModeServerOnly}}

	if !ok {
		res.Fallback = expr.Print(w.failed)
		slog.Info("projection falls back to mixed evaluation",
			"select", sel.ID(),
			"reason", res.Fallback,
		)
		w = b.newWalk(sel, ModeMixed)
		res.Passes = append(res.Passes, ModeMixed)
		out, _, err = w.visit(shape)
		if err != nil {
			return nil, err
		}
		w.mapping = query.NewProjectionMapping()
	}

	sel.ReplaceProjectionMapping(w.mapping)
	res.Shape = out
	res.Mode = w.mode
	res.Entities = w.shaper.Descriptors()

	slog.Debug("projection bound",
		"select", sel.ID(),
		"mode", res.Mode,
		"slots", w.mapping.Len(),
		"projections", len(sel.Projections()),
		"entities", len(res.Entities),
	)
	return res, nil
}

// walk is the state of one pass. A fresh walk is created for every pass,
// so nothing from an aborted pass leaks into the next.
type walk struct {
	translator *translate.SQLTranslator
	sel        *query.Select
	mode       Mode
	members    []expr.ProjectionMember
	mapping    *query.ProjectionMapping
	shaper     *shaper.Shaper
	failed     expr.Node
}

func (b *Binder) newWalk(sel *query.Select, mode Mode) *walk {
	return &walk{
		translator: b.translator,
		sel:        sel,
		mode:       mode,
		members:    []expr.ProjectionMember{{}},
		mapping:    query.NewProjectionMapping(),
		shaper:     shaper.New(),
	}
}

func (w *walk) current() expr.ProjectionMember {
	return w.members[len(w.members)-1]
}

func (w *walk) push(id string) {
	w.members = append(w.members, w.current().Append(id))
}

func (w *walk) pop() {
	w.members = w.members[:len(w.members)-1]
}

// register maps the current slot to p, failing on a slot claimed twice.
func (w *walk) register(p query.Projectable) error {
	member := w.current()
	if w.mapping.Has(member) {
		return query.NewInvariantError(query.ErrCodeAmbiguousSlot,
			"two shape leaves claim the same slot",
			"select", w.sel.ID(), "slot", member.String())
	}
	w.mapping.Set(member, p)
	return nil
}

// visit returns the rewritten node. ok is false only in ModeServerOnly,
// when n (or something under it) does not translate.
func (w *walk) visit(n expr.Node) (expr.Node, bool, error) {
	switch node := n.(type) {
	case nil:
		return nil, true, nil
	case *expr.New:
		return w.visitNew(node)
	case *expr.MemberInit:
		return w.visitMemberInit(node)
	case *expr.EntityShaper:
		out, err := w.visitEntityShaper(node)
		return out, err == nil, err
	case *expr.Include:
		if w.mode == ModeServerOnly {
			return node, true, nil
		}
		return w.visitInclude(node)
	case *expr.Parameter:
		if node.Typ.Collection {
			return node, true, nil
		}
	}

	if w.mode == ModeMixed {
		return w.visitMixedLeaf(n)
	}

	translation, ok := w.translator.Translate(w.sel, n)
	if !ok {
		w.failed = n
		return nil, false, nil
	}
	if err := w.register(translation); err != nil {
		return nil, false, err
	}
	return expr.BindMember(w.sel, w.current(), n.Type()), true, nil
}

func (w *walk) visitMixedLeaf(n expr.Node) (expr.Node, bool, error) {
	switch node := n.(type) {
	case *expr.Constant:
		return node, true, nil
	case *expr.Parameter:
		return &expr.ParameterValue{Name: node.Name, Typ: node.Typ}, true, nil
	}

	if translation, ok := w.translator.Translate(w.sel, n); ok {
		return expr.BindIndex(w.sel, w.sel.AddToProjection(translation), n.Type()), true, nil
	}

	// Children are kept individually: a child that translates stays
	// translated even when a sibling does not.
	var firstErr error
	out := expr.VisitChildren(n, func(child expr.Node) expr.Node {
		visited, _, err := w.visit(child)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return child
		}
		return visited
	})
	if firstErr != nil {
		return nil, false, firstErr
	}
	return out, true, nil
}

func (w *walk) visitNew(n *expr.New) (expr.Node, bool, error) {
	if len(n.Args) == 0 {
		return n, true, nil
	}
	args := make([]expr.Node, len(n.Args))
	for i, arg := range n.Args {
		if w.mode == ModeMixed {
			visited, _, err := w.visit(arg)
			if err != nil {
				return nil, false, err
			}
			args[i] = visited
			continue
		}

		id := expr.PositionalMember(i)
		if n.Members != nil {
			id = n.Members[i]
		}
		w.push(id)
		visited, ok, err := w.visit(arg)
		w.pop()
		if err != nil || !ok {
			return nil, ok, err
		}
		args[i] = visited
	}
	return n.Update(args), true, nil
}

func (w *walk) visitMemberInit(n *expr.MemberInit) (expr.Node, bool, error) {
	visitedNew, ok, err := w.visitNew(n.New)
	if err != nil || !ok {
		return nil, ok, err
	}
	bindings := make([]expr.MemberBinding, len(n.Bindings))
	for i, b := range n.Bindings {
		if w.mode == ModeServerOnly {
			w.push(b.Member)
		}
		visited, ok, err := w.visit(b.Expr)
		if w.mode == ModeServerOnly {
			w.pop()
		}
		if err != nil || !ok {
			return nil, ok, err
		}
		bindings[i] = expr.MemberBinding{Member: b.Member, Expr: visited}
	}
	return n.Update(visitedNew.(*expr.New), bindings), true, nil
}

// verify resolves every projection binding under n. Shaper value buffers
// get the full backing checks.
func (w *walk) verify(n expr.Node) error {
	var err error
	var check func(expr.Node) expr.Node
	check = func(n expr.Node) expr.Node {
		if err != nil || n == nil {
			return n
		}
		switch node := n.(type) {
		case *expr.EntityShaper:
			_, err = w.backing(node)
			return n
		case *expr.ProjectionBinding:
			_, err = w.sel.Resolve(node)
			return n
		}
		return expr.VisitChildren(n, check)
	}
	check(n)
	return err
}

// backing resolves the entity projection behind a shaper's value buffer.
func (w *walk) backing(n *expr.EntityShaper) (*query.EntityProjection, error) {
	binding, ok := n.ValueBuffer.(*expr.ProjectionBinding)
	if !ok {
		return nil, query.NewInvariantError(query.ErrCodeBadValueBuffer,
			"entity shaper value buffer is not a projection binding",
			"entity", n.Entity.Name, "value_buffer", expr.Print(n.ValueBuffer))
	}
	if err := w.sel.VerifySource(binding); err != nil {
		return nil, err
	}
	if binding.ByIndex {
		return nil, query.NewInvariantError(query.ErrCodeBadValueBuffer,
			"entity shaper must bind its backing row by slot",
			"entity", n.Entity.Name, "index", fmt.Sprint(binding.Index))
	}
	p, err := w.sel.MappedProjection(binding.Member)
	if err != nil {
		return nil, err
	}
	ep, ok := p.(*query.EntityProjection)
	if !ok {
		return nil, query.NewInvariantError(query.ErrCodeNotEntityProjection,
			"entity shaper slot does not hold an entity projection",
			"entity", n.Entity.Name, "slot", binding.Member.String())
	}
	return ep, nil
}

func (w *walk) visitEntityShaper(n *expr.EntityShaper) (expr.Node, error) {
	ep, err := w.backing(n)
	if err != nil {
		return nil, err
	}
	w.shaper.Bind(n.Entity, ep, nil)

	if w.mode == ModeMixed {
		index := w.sel.AddToProjection(ep)
		return n.Update(expr.BindIndex(w.sel, index, n.ValueBuffer.Type())), nil
	}
	if err := w.register(ep); err != nil {
		return nil, err
	}
	return n.Update(expr.BindMember(w.sel, w.current(), n.ValueBuffer.Type())), nil
}

// visitInclude walks an include in mixed mode and binds the include tree
// to the descriptor of the entity it decorates.
func (w *walk) visitInclude(n *expr.Include) (expr.Node, bool, error) {
	entity, _, err := w.visit(n.Entity)
	if err != nil {
		return nil, false, err
	}
	related, _, err := w.visit(n.Related)
	if err != nil {
		return nil, false, err
	}

	owner, ok := w.includeTree(n)
	if ok {
		w.shaper.Bind(owner.Entity, owner.Backing, owner.Includes)
	}
	return n.Update(entity, related), true, nil
}

// includeTree collects the entity decorated by n together with the
// relations loaded by n and by any includes nested on its entity side.
func (w *walk) includeTree(n expr.Node) (shaper.IncludeTree, bool) {
	switch node := n.(type) {
	case *expr.EntityShaper:
		ep, err := w.backing(node)
		if err != nil {
			return shaper.IncludeTree{}, false
		}
		return shaper.IncludeTree{Entity: node.Entity, Backing: ep}, true
	case *expr.Include:
		owner, ok := w.includeTree(node.Entity)
		if !ok {
			return shaper.IncludeTree{}, false
		}
		if target, ok := w.relatedTree(node.Related); ok {
			target.Navigation = node.Navigation
			owner.Includes = append(owner.Includes, target)
		}
		return owner, true
	default:
		return shaper.IncludeTree{}, false
	}
}

// relatedTree finds the entity loaded on the related side of an include,
// looking through collection materialization.
func (w *walk) relatedTree(n expr.Node) (shaper.IncludeTree, bool) {
	if mc, ok := n.(*expr.MaterializeCollection); ok {
		return w.relatedTree(mc.Subquery)
	}
	return w.includeTree(n)
}
