package harness

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/query"
)

// Shape nodes are YAML mappings with exactly one discriminating key:
//
//	{const: 5, type: int}
//	{param: name, type: string}                      # "[]Order" for collections
//	{member: Name, of: <node>, declaring: T, type: string}
//	{call: Method, on: <node>, declaring: T, args: [<node>...], type: T}
//	{unary: not|negate|convert, operand: <node>, type: T}
//	{binary: "==", left: <node>, right: <node>, type: T}
//	{new: T, fields: {A: <node>, ...}}              # or args: [<node>...]
//	{init: T, fields: {A: <node>, ...}}
//	{cond: <node>, then: <node>, else: <node>, type: T}
//	{entity: Customer, slot: "Orders", index: 0, foreign: true, buffer: <node>}
//	{include: Orders, owner: <node>, related: <node>}
//	{collection: Orders, of: Customer, subquery: <node>}
//
// Field order of fields mappings is kept.
var nodeKinds = map[string][]string{
	"const":      {"type"},
	"param":      {"type"},
	"member":     {"of", "declaring", "type"},
	"call":       {"on", "declaring", "args", "type"},
	"unary":      {"operand", "type"},
	"binary":     {"left", "right", "type"},
	"new":        {"fields", "args"},
	"init":       {"fields", "args"},
	"cond":       {"then", "else", "type"},
	"entity":     {"slot", "index", "foreign", "nullable", "buffer"},
	"include":    {"owner", "related"},
	"collection": {"of", "subquery"},
}

var binaryOps = map[string]expr.BinaryOp{
	"+":  expr.OpAdd,
	"-":  expr.OpSubtract,
	"*":  expr.OpMultiply,
	"/":  expr.OpDivide,
	"%":  expr.OpModulo,
	"==": expr.OpEqual,
	"!=": expr.OpNotEqual,
	"<":  expr.OpLessThan,
	"<=": expr.OpLessThanOrEqual,
	">":  expr.OpGreaterThan,
	">=": expr.OpGreaterThanOrEqual,
	"&&": expr.OpAndAlso,
	"||": expr.OpOrElse,
	"??": expr.OpCoalesce,
}

// declaringTypes names the rule-table declaring type of model scalar types.
var declaringTypes = map[string]string{
	ir.TypeDateTime:           "DateTime",
	ir.TypeGeometry:           "Geometry",
	ir.TypeGeometryCollection: "GeometryCollection",
}

// declaringOf returns the declaring type of members and methods called on
// an instance of t.
func declaringOf(t expr.Type) string {
	if name, ok := declaringTypes[t.Name]; ok {
		return name
	}
	return t.Name
}

var unaryOps = map[string]expr.UnaryOp{
	"not":     expr.OpNot,
	"negate":  expr.OpNegate,
	"convert": expr.OpConvert,
}

// decoder turns YAML shape nodes into expression trees bound to one
// select.
type decoder struct {
	model   *ir.Model
	sel     *query.Select
	foreign func() *query.Select
}

// DecodeError reports a malformed shape node.
type DecodeError struct {
	Line    int
	Column  int
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func errorAt(n *yaml.Node, format string, args ...any) error {
	return &DecodeError{Line: n.Line, Column: n.Column, Message: fmt.Sprintf(format, args...)}
}

// ParseSlot parses a dotted slot path. "" and "<root>" are the root.
func ParseSlot(s string) expr.ProjectionMember {
	if s == "" || s == "<root>" {
		return expr.ProjectionMember{}
	}
	return expr.NewProjectionMember(strings.Split(s, ".")...)
}

// ParseType parses a type name; a "[]" prefix marks a collection.
func ParseType(s string) expr.Type {
	if name, ok := strings.CutPrefix(s, "[]"); ok {
		return expr.CollectionOf(name)
	}
	return expr.Scalar(s)
}

// fields indexes a mapping node's values by key, keeping key order.
type fields struct {
	keys   []string
	values map[string]*yaml.Node
}

func mappingFields(n *yaml.Node) (*fields, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errorAt(n, "expected a mapping, got %s", kindName(n.Kind))
	}
	f := &fields{values: make(map[string]*yaml.Node, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if _, dup := f.values[key]; dup {
			return nil, errorAt(n.Content[i], "duplicate key %q", key)
		}
		f.keys = append(f.keys, key)
		f.values[key] = n.Content[i+1]
	}
	return f, nil
}

func (f *fields) get(key string) (*yaml.Node, bool) {
	v, ok := f.values[key]
	return v, ok
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "nothing"
	}
}

// node decodes one shape node.
func (d *decoder) node(n *yaml.Node) (expr.Node, error) {
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = n.Content[0]
	}
	f, err := mappingFields(n)
	if err != nil {
		return nil, err
	}

	var kind string
	for _, k := range f.keys {
		if _, ok := nodeKinds[k]; ok {
			if kind != "" {
				return nil, errorAt(n, "node has both %q and %q", kind, k)
			}
			kind = k
		}
	}
	if kind == "" {
		return nil, errorAt(n, "node needs one of %v", knownKinds())
	}
	allowed := map[string]bool{kind: true}
	for _, k := range nodeKinds[kind] {
		allowed[k] = true
	}
	for _, k := range f.keys {
		if !allowed[k] {
			return nil, errorAt(f.values[k], "field %q is not valid on a %s node", k, kind)
		}
	}

	switch kind {
	case "const":
		return d.constant(f)
	case "param":
		return d.parameter(f)
	case "member":
		return d.member(f)
	case "call":
		return d.call(f)
	case "unary":
		return d.unary(f)
	case "binary":
		return d.binary(f)
	case "new":
		return d.newNode(f)
	case "init":
		return d.memberInit(f)
	case "cond":
		return d.conditional(f)
	case "entity":
		return d.entity(f)
	case "include":
		return d.include(f)
	default:
		return d.collection(f)
	}
}

func knownKinds() []string {
	kinds := make([]string, 0, len(nodeKinds))
	for k := range nodeKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (d *decoder) str(f *fields, key string) (string, error) {
	v, ok := f.get(key)
	if !ok {
		return "", nil
	}
	if v.Kind != yaml.ScalarNode {
		return "", errorAt(v, "%s must be a scalar", key)
	}
	return v.Value, nil
}

func (d *decoder) typ(f *fields) (expr.Type, error) {
	s, err := d.str(f, "type")
	if err != nil || s == "" {
		return expr.Type{}, err
	}
	return ParseType(s), nil
}

func (d *decoder) child(f *fields, key string) (expr.Node, error) {
	v, ok := f.get(key)
	if !ok {
		return nil, nil
	}
	return d.node(v)
}

func (d *decoder) required(f *fields, key, kind string) (expr.Node, error) {
	if _, ok := f.get(key); !ok {
		return nil, fmt.Errorf("%s node requires %q", kind, key)
	}
	return d.child(f, key)
}

func (d *decoder) list(f *fields, key string) ([]expr.Node, error) {
	v, ok := f.get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != yaml.SequenceNode {
		return nil, errorAt(v, "%s must be a sequence", key)
	}
	out := make([]expr.Node, 0, len(v.Content))
	for _, item := range v.Content {
		n, err := d.node(item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (d *decoder) constant(f *fields) (expr.Node, error) {
	v, _ := f.get("const")
	var raw any
	if err := v.Decode(&raw); err != nil {
		return nil, errorAt(v, "const: %v", err)
	}
	value, err := ir.FromGo(raw)
	if err != nil {
		return nil, errorAt(v, "const: %v", err)
	}
	t, err := d.typ(f)
	if err != nil {
		return nil, err
	}
	return &expr.Constant{Value: value, Typ: t}, nil
}

func (d *decoder) parameter(f *fields) (expr.Node, error) {
	name, err := d.str(f, "param")
	if err != nil {
		return nil, err
	}
	t, err := d.typ(f)
	if err != nil {
		return nil, err
	}
	return &expr.Parameter{Name: name, Typ: t}, nil
}

func (d *decoder) member(f *fields) (expr.Node, error) {
	name, err := d.str(f, "member")
	if err != nil {
		return nil, err
	}
	instance, err := d.child(f, "of")
	if err != nil {
		return nil, err
	}
	declaring, err := d.str(f, "declaring")
	if err != nil {
		return nil, err
	}
	if declaring == "" && instance != nil {
		declaring = declaringOf(instance.Type())
	}
	t, err := d.typ(f)
	if err != nil {
		return nil, err
	}
	if t.IsZero() && instance != nil {
		// Entity properties default to their model type.
		if e, ok := d.model.Entity(instance.Type().Name); ok {
			if p, ok := e.Property(name); ok {
				t = expr.Scalar(p.Type)
			}
		}
	}
	return &expr.Member{Instance: instance, Declaring: declaring, Name: name, Typ: t}, nil
}

func (d *decoder) call(f *fields) (expr.Node, error) {
	method, err := d.str(f, "call")
	if err != nil {
		return nil, err
	}
	object, err := d.child(f, "on")
	if err != nil {
		return nil, err
	}
	declaring, err := d.str(f, "declaring")
	if err != nil {
		return nil, err
	}
	if declaring == "" {
		if object == nil {
			return nil, fmt.Errorf("static call %s requires declaring", method)
		}
		declaring = declaringOf(object.Type())
	}
	args, err := d.list(f, "args")
	if err != nil {
		return nil, err
	}
	t, err := d.typ(f)
	if err != nil {
		return nil, err
	}
	return &expr.Call{Object: object, Declaring: declaring, Method: method, Args: args, Typ: t}, nil
}

func (d *decoder) unary(f *fields) (expr.Node, error) {
	opName, err := d.str(f, "unary")
	if err != nil {
		return nil, err
	}
	op, ok := unaryOps[opName]
	if !ok {
		return nil, fmt.Errorf("unknown unary operator %q", opName)
	}
	operand, err := d.required(f, "operand", "unary")
	if err != nil {
		return nil, err
	}
	t, err := d.typ(f)
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		switch op {
		case expr.OpNot:
			t = expr.BoolType
		case expr.OpConvert:
			return nil, fmt.Errorf("convert requires a type")
		default:
			t = operand.Type()
		}
	}
	return &expr.Unary{Op: op, Operand: operand, Typ: t}, nil
}

func (d *decoder) binary(f *fields) (expr.Node, error) {
	opName, err := d.str(f, "binary")
	if err != nil {
		return nil, err
	}
	op, ok := binaryOps[opName]
	if !ok {
		return nil, fmt.Errorf("unknown binary operator %q", opName)
	}
	left, err := d.required(f, "left", "binary")
	if err != nil {
		return nil, err
	}
	right, err := d.required(f, "right", "binary")
	if err != nil {
		return nil, err
	}
	t, err := d.typ(f)
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		switch op {
		case expr.OpEqual, expr.OpNotEqual, expr.OpLessThan, expr.OpLessThanOrEqual,
			expr.OpGreaterThan, expr.OpGreaterThanOrEqual, expr.OpAndAlso, expr.OpOrElse:
			t = expr.BoolType
		default:
			t = left.Type()
		}
	}
	return &expr.Binary{Op: op, Left: left, Right: right, Typ: t}, nil
}

// constructor decodes the fields or args of a new/init node. Members is
// nil for positional arguments.
func (d *decoder) constructor(f *fields, typeKey string) (*expr.New, []expr.MemberBinding, error) {
	typeName, err := d.str(f, typeKey)
	if err != nil {
		return nil, nil, err
	}
	n := &expr.New{Typ: expr.Scalar(typeName)}
	if n.Args, err = d.list(f, "args"); err != nil {
		return nil, nil, err
	}

	v, ok := f.get("fields")
	if !ok {
		return n, nil, nil
	}
	named, err := mappingFields(v)
	if err != nil {
		return nil, nil, err
	}
	bindings := make([]expr.MemberBinding, 0, len(named.keys))
	for _, key := range named.keys {
		child, err := d.node(named.values[key])
		if err != nil {
			return nil, nil, fmt.Errorf("%s.%s: %w", typeName, key, err)
		}
		bindings = append(bindings, expr.MemberBinding{Member: key, Expr: child})
	}
	return n, bindings, nil
}

func (d *decoder) newNode(f *fields) (expr.Node, error) {
	n, bindings, err := d.constructor(f, "new")
	if err != nil {
		return nil, err
	}
	if bindings == nil {
		return n, nil
	}
	if len(n.Args) > 0 {
		return nil, fmt.Errorf("new %s: fields and args are exclusive", n.Typ)
	}
	n.Members = make([]string, 0, len(bindings))
	n.Args = make([]expr.Node, 0, len(bindings))
	for _, b := range bindings {
		n.Members = append(n.Members, b.Member)
		n.Args = append(n.Args, b.Expr)
	}
	return n, nil
}

func (d *decoder) memberInit(f *fields) (expr.Node, error) {
	n, bindings, err := d.constructor(f, "init")
	if err != nil {
		return nil, err
	}
	return &expr.MemberInit{New: n, Bindings: bindings}, nil
}

func (d *decoder) conditional(f *fields) (expr.Node, error) {
	test, err := d.required(f, "cond", "cond")
	if err != nil {
		return nil, err
	}
	ifTrue, err := d.required(f, "then", "cond")
	if err != nil {
		return nil, err
	}
	ifFalse, err := d.required(f, "else", "cond")
	if err != nil {
		return nil, err
	}
	t, err := d.typ(f)
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		t = ifTrue.Type()
	}
	return &expr.Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse, Typ: t}, nil
}

func (d *decoder) entityType(name string) (*ir.EntityType, error) {
	e, ok := d.model.Entity(name)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", name)
	}
	return e, nil
}

func (d *decoder) entity(f *fields) (expr.Node, error) {
	name, err := d.str(f, "entity")
	if err != nil {
		return nil, err
	}
	e, err := d.entityType(name)
	if err != nil {
		return nil, err
	}
	shaper := &expr.EntityShaper{Entity: e}

	if v, ok := f.get("nullable"); ok {
		if err := v.Decode(&shaper.Nullable); err != nil {
			return nil, errorAt(v, "nullable: %v", err)
		}
	}

	if _, ok := f.get("buffer"); ok {
		if shaper.ValueBuffer, err = d.child(f, "buffer"); err != nil {
			return nil, err
		}
		return shaper, nil
	}

	var source expr.Source = d.sel
	if v, ok := f.get("foreign"); ok {
		var foreign bool
		if err := v.Decode(&foreign); err != nil {
			return nil, errorAt(v, "foreign: %v", err)
		}
		if foreign {
			source = d.foreign()
		}
	}

	bufferType := expr.Scalar(e.Name)
	if v, ok := f.get("index"); ok {
		var index int
		if err := v.Decode(&index); err != nil {
			return nil, errorAt(v, "index: %v", err)
		}
		shaper.ValueBuffer = expr.BindIndex(source, index, bufferType)
		return shaper, nil
	}

	slot, err := d.str(f, "slot")
	if err != nil {
		return nil, err
	}
	shaper.ValueBuffer = expr.BindMember(source, ParseSlot(slot), bufferType)
	return shaper, nil
}

func (d *decoder) include(f *fields) (expr.Node, error) {
	navName, err := d.str(f, "include")
	if err != nil {
		return nil, err
	}
	owner, err := d.required(f, "owner", "include")
	if err != nil {
		return nil, err
	}
	related, err := d.required(f, "related", "include")
	if err != nil {
		return nil, err
	}
	e, err := d.entityType(owner.Type().Name)
	if err != nil {
		return nil, err
	}
	nav, ok := e.Navigation(navName)
	if !ok {
		return nil, fmt.Errorf("entity %s has no navigation %q", e.Name, navName)
	}
	return &expr.Include{Entity: owner, Navigation: nav, Related: related}, nil
}

func (d *decoder) collection(f *fields) (expr.Node, error) {
	navName, err := d.str(f, "collection")
	if err != nil {
		return nil, err
	}
	ownerName, err := d.str(f, "of")
	if err != nil {
		return nil, err
	}
	e, err := d.entityType(ownerName)
	if err != nil {
		return nil, err
	}
	nav, ok := e.Navigation(navName)
	if !ok {
		return nil, fmt.Errorf("entity %s has no navigation %q", e.Name, navName)
	}
	subquery, err := d.required(f, "subquery", "collection")
	if err != nil {
		return nil, err
	}
	return &expr.MaterializeCollection{Subquery: subquery, Navigation: nav, Typ: expr.CollectionOf(nav.Target)}, nil
}
