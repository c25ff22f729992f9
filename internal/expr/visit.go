package expr

// VisitChildren rebuilds n with every direct child replaced by visit(child).
// Leaves are returned unchanged. A MemberInit's constructor is kept when
// visit does not return a *New for it.
func VisitChildren(n Node, visit func(Node) Node) Node {
	switch node := n.(type) {
	case *Constant, *Parameter, *ProjectionBinding, *ParameterValue:
		return n
	case *Member:
		if node.Instance == nil {
			return node
		}
		return node.Update(visit(node.Instance))
	case *Call:
		var object Node
		if node.Object != nil {
			object = visit(node.Object)
		}
		return node.Update(object, visitAll(node.Args, visit))
	case *Unary:
		return node.Update(visit(node.Operand))
	case *Binary:
		return node.Update(visit(node.Left), visit(node.Right))
	case *New:
		return node.Update(visitAll(node.Args, visit))
	case *MemberInit:
		newExpr, ok := visit(node.New).(*New)
		if !ok {
			newExpr = node.New
		}
		bindings := make([]MemberBinding, len(node.Bindings))
		for i, b := range node.Bindings {
			bindings[i] = MemberBinding{Member: b.Member, Expr: visit(b.Expr)}
		}
		return node.Update(newExpr, bindings)
	case *Conditional:
		return node.Update(visit(node.Test), visit(node.IfTrue), visit(node.IfFalse))
	case *MaterializeCollection:
		return node.Update(visit(node.Subquery))
	case *EntityShaper:
		return node.Update(visit(node.ValueBuffer))
	case *Include:
		return node.Update(visit(node.Entity), visit(node.Related))
	default:
		return n
	}
}

func visitAll(nodes []Node, visit func(Node) Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = visit(n)
	}
	return out
}
