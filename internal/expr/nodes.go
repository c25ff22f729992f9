package expr

import (
	"github.com/roach88/qshape/internal/ir"
)

// Constant is a literal value. A null literal carries ir.IRNull.
type Constant struct {
	Value ir.IRValue
	Typ   Type
}

func (*Constant) Kind() Kind   { return KindConstant }
func (c *Constant) Type() Type { return c.Typ }
func (*Constant) exprNode()    {}

// Parameter references a captured variable or a lambda parameter.
// Its value is known only at execution time.
type Parameter struct {
	Name string
	Typ  Type
}

func (*Parameter) Kind() Kind   { return KindParameter }
func (p *Parameter) Type() Type { return p.Typ }
func (*Parameter) exprNode()    {}

// Member is a field or property access. Instance is nil for static members.
type Member struct {
	Instance  Node
	Declaring string
	Name      string
	Typ       Type
}

func (*Member) Kind() Kind   { return KindMember }
func (m *Member) Type() Type { return m.Typ }
func (*Member) exprNode()    {}

// Update returns a Member over instance, or m itself if unchanged.
func (m *Member) Update(instance Node) *Member {
	if instance == m.Instance {
		return m
	}
	return &Member{Instance: instance, Declaring: m.Declaring, Name: m.Name, Typ: m.Typ}
}

// Call is a method invocation. Object is nil for static methods.
type Call struct {
	Object    Node
	Declaring string
	Method    string
	Args      []Node
	Typ       Type
}

func (*Call) Kind() Kind   { return KindCall }
func (c *Call) Type() Type { return c.Typ }
func (*Call) exprNode()    {}

// Update returns a Call with the given object and arguments, or c itself if
// unchanged.
func (c *Call) Update(object Node, args []Node) *Call {
	if object == c.Object && sameNodes(args, c.Args) {
		return c
	}
	return &Call{Object: object, Declaring: c.Declaring, Method: c.Method, Args: args, Typ: c.Typ}
}

// UnaryOp is a unary operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
	OpConvert
)

// Unary applies a unary operator. OpConvert converts Operand to Typ.
type Unary struct {
	Op      UnaryOp
	Operand Node
	Typ     Type
}

func (*Unary) Kind() Kind   { return KindUnary }
func (u *Unary) Type() Type { return u.Typ }
func (*Unary) exprNode()    {}

// Update returns a Unary over operand, or u itself if unchanged.
func (u *Unary) Update(operand Node) *Unary {
	if operand == u.Operand {
		return u
	}
	return &Unary{Op: u.Op, Operand: operand, Typ: u.Typ}
}

// BinaryOp is a binary operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpAndAlso
	OpOrElse
	OpCoalesce
)

// Binary applies a binary operator.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
	Typ   Type
}

func (*Binary) Kind() Kind   { return KindBinary }
func (b *Binary) Type() Type { return b.Typ }
func (*Binary) exprNode()    {}

// Update returns a Binary over left and right, or b itself if unchanged.
func (b *Binary) Update(left, right Node) *Binary {
	if left == b.Left && right == b.Right {
		return b
	}
	return &Binary{Op: b.Op, Left: left, Right: right, Typ: b.Typ}
}

// New constructs a record or tuple. Members names the field each argument
// initializes; it is nil for positional constructors.
type New struct {
	Members []string
	Args    []Node
	Typ     Type
}

func (*New) Kind() Kind   { return KindNew }
func (n *New) Type() Type { return n.Typ }
func (*New) exprNode()    {}

// Update returns a New with the given arguments, or n itself if unchanged.
func (n *New) Update(args []Node) *New {
	if sameNodes(args, n.Args) {
		return n
	}
	return &New{Members: n.Members, Args: args, Typ: n.Typ}
}

// MemberBinding assigns Expr to the field Member of a MemberInit.
type MemberBinding struct {
	Member string
	Expr   Node
}

// MemberInit constructs a record through New and then assigns fields.
type MemberInit struct {
	New      *New
	Bindings []MemberBinding
}

func (*MemberInit) Kind() Kind   { return KindMemberInit }
func (m *MemberInit) Type() Type { return m.New.Typ }
func (*MemberInit) exprNode()    {}

// Update returns a MemberInit with the given constructor and bindings, or m
// itself if unchanged.
func (m *MemberInit) Update(newExpr *New, bindings []MemberBinding) *MemberInit {
	if newExpr == m.New && sameBindings(bindings, m.Bindings) {
		return m
	}
	return &MemberInit{New: newExpr, Bindings: bindings}
}

// Conditional is a ternary choice.
type Conditional struct {
	Test    Node
	IfTrue  Node
	IfFalse Node
	Typ     Type
}

func (*Conditional) Kind() Kind   { return KindConditional }
func (c *Conditional) Type() Type { return c.Typ }
func (*Conditional) exprNode()    {}

// Update returns a Conditional over the given branches, or c itself if
// unchanged.
func (c *Conditional) Update(test, ifTrue, ifFalse Node) *Conditional {
	if test == c.Test && ifTrue == c.IfTrue && ifFalse == c.IfFalse {
		return c
	}
	return &Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse, Typ: c.Typ}
}

// MaterializeCollection marks a collection navigation that is materialized
// from a correlated subquery.
type MaterializeCollection struct {
	Subquery   Node
	Navigation ir.Navigation
	Typ        Type
}

func (*MaterializeCollection) Kind() Kind   { return KindMaterializeCollection }
func (m *MaterializeCollection) Type() Type { return m.Typ }
func (*MaterializeCollection) exprNode()    {}

// Update returns a MaterializeCollection over subquery, or m itself if
// unchanged.
func (m *MaterializeCollection) Update(subquery Node) *MaterializeCollection {
	if subquery == m.Subquery {
		return m
	}
	return &MaterializeCollection{Subquery: subquery, Navigation: m.Navigation, Typ: m.Typ}
}

// EntityShaper marks a place in the shape where an entity instance is
// materialized. ValueBuffer is a ProjectionBinding to the row fragment that
// backs the entity.
type EntityShaper struct {
	Entity      *ir.EntityType
	ValueBuffer Node
	Nullable    bool
}

func (*EntityShaper) Kind() Kind   { return KindEntityShaper }
func (e *EntityShaper) Type() Type { return Scalar(e.Entity.Name) }
func (*EntityShaper) exprNode()    {}

// Update returns an EntityShaper over valueBuffer, or e itself if unchanged.
func (e *EntityShaper) Update(valueBuffer Node) *EntityShaper {
	if valueBuffer == e.ValueBuffer {
		return e
	}
	return &EntityShaper{Entity: e.Entity, ValueBuffer: valueBuffer, Nullable: e.Nullable}
}

// Include marks an eagerly loaded relation: Related is loaded through
// Navigation and attached to the entity produced by Entity.
type Include struct {
	Entity     Node
	Navigation ir.Navigation
	Related    Node
}

func (*Include) Kind() Kind   { return KindInclude }
func (i *Include) Type() Type { return i.Entity.Type() }
func (*Include) exprNode()    {}

// Update returns an Include over entity and related, or i itself if
// unchanged.
func (i *Include) Update(entity, related Node) *Include {
	if entity == i.Entity && related == i.Related {
		return i
	}
	return &Include{Entity: entity, Navigation: i.Navigation, Related: related}
}

// ProjectionBinding references a value the remote query returns: by slot
// path (Member) when ByIndex is false, by projection-list position (Index)
// when ByIndex is true.
type ProjectionBinding struct {
	Source  Source
	Member  ProjectionMember
	Index   int
	ByIndex bool
	Typ     Type
}

// BindMember returns a binding to the slot at member.
func BindMember(source Source, member ProjectionMember, typ Type) *ProjectionBinding {
	return &ProjectionBinding{Source: source, Member: member, Typ: typ}
}

// BindIndex returns a binding to projection-list entry index.
func BindIndex(source Source, index int, typ Type) *ProjectionBinding {
	return &ProjectionBinding{Source: source, Index: index, ByIndex: true, Typ: typ}
}

func (*ProjectionBinding) Kind() Kind   { return KindProjectionBinding }
func (p *ProjectionBinding) Type() Type { return p.Typ }
func (*ProjectionBinding) exprNode()    {}

// ParameterValue reads a captured parameter's value at execution time.
type ParameterValue struct {
	Name string
	Typ  Type
}

func (*ParameterValue) Kind() Kind   { return KindParameterValue }
func (p *ParameterValue) Type() Type { return p.Typ }
func (*ParameterValue) exprNode()    {}

func sameNodes(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameBindings(a, b []MemberBinding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Member != b[i].Member || a[i].Expr != b[i].Expr {
			return false
		}
	}
	return true
}
