package sqlexpr

import "github.com/roach88/qshape/internal/ir"

// Equal reports whether two provider trees are structurally identical,
// including declared types and type mappings.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() || !sameMapping(a.TypeMapping(), b.TypeMapping()) {
		return false
	}

	switch x := a.(type) {
	case *Column:
		y, ok := b.(*Column)
		return ok && x.Table == y.Table && x.Name == y.Name && x.Nullable == y.Nullable
	case *Constant:
		y, ok := b.(*Constant)
		return ok && ir.Equal(x.Value, y.Value)
	case *Function:
		y, ok := b.(*Function)
		return ok && x.Name == y.Name && x.Niladic == y.Niladic &&
			Equal(x.Instance, y.Instance) && equalAll(x.Args, y.Args)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *Case:
		y, ok := b.(*Case)
		if !ok || len(x.Whens) != len(y.Whens) || !Equal(x.Else, y.Else) {
			return false
		}
		for i := range x.Whens {
			if !Equal(x.Whens[i].Test, y.Whens[i].Test) || !Equal(x.Whens[i].Result, y.Whens[i].Result) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameMapping(a, b *TypeMapping) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
