package expr

import (
	"strconv"
	"strings"

	"github.com/roach88/qshape/internal/ir"
)

var binaryOpText = map[BinaryOp]string{
	OpAdd:                "+",
	OpSubtract:           "-",
	OpMultiply:           "*",
	OpDivide:             "/",
	OpModulo:             "%",
	OpEqual:              "==",
	OpNotEqual:           "!=",
	OpLessThan:           "<",
	OpLessThanOrEqual:    "<=",
	OpGreaterThan:        ">",
	OpGreaterThanOrEqual: ">=",
	OpAndAlso:            "&&",
	OpOrElse:             "||",
	OpCoalesce:           "??",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpText[op]; ok {
		return s
	}
	return "BinaryOp(" + strconv.Itoa(int(op)) + ")"
}

// Print renders n as stable single-line text for logs and plan reports.
func Print(n Node) string {
	var b strings.Builder
	printNode(&b, n)
	return b.String()
}

func printNode(b *strings.Builder, n Node) {
	switch node := n.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Constant:
		b.WriteString(ir.Format(node.Value))
	case *Parameter:
		b.WriteString(node.Name)
	case *Member:
		if node.Instance != nil {
			printNode(b, node.Instance)
		} else {
			b.WriteString(node.Declaring)
		}
		b.WriteByte('.')
		b.WriteString(node.Name)
	case *Call:
		if node.Object != nil {
			printNode(b, node.Object)
		} else {
			b.WriteString(node.Declaring)
		}
		b.WriteByte('.')
		b.WriteString(node.Method)
		printArgs(b, node.Args)
	case *Unary:
		switch node.Op {
		case OpNot:
			b.WriteByte('!')
		case OpNegate:
			b.WriteByte('-')
		case OpConvert:
			b.WriteString("(" + node.Typ.String() + ")")
		}
		printNode(b, node.Operand)
	case *Binary:
		b.WriteByte('(')
		printNode(b, node.Left)
		b.WriteString(" " + node.Op.String() + " ")
		printNode(b, node.Right)
		b.WriteByte(')')
	case *New:
		printNew(b, node)
	case *MemberInit:
		printNew(b, node.New)
		b.WriteString(" {")
		for i, binding := range node.Bindings {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(" " + binding.Member + " = ")
			printNode(b, binding.Expr)
		}
		b.WriteString(" }")
	case *Conditional:
		b.WriteByte('(')
		printNode(b, node.Test)
		b.WriteString(" ? ")
		printNode(b, node.IfTrue)
		b.WriteString(" : ")
		printNode(b, node.IfFalse)
		b.WriteByte(')')
	case *MaterializeCollection:
		b.WriteString("MaterializeCollection(" + node.Navigation.Name + ", ")
		printNode(b, node.Subquery)
		b.WriteByte(')')
	case *EntityShaper:
		b.WriteString("EntityShaper<" + node.Entity.Name + ">(")
		printNode(b, node.ValueBuffer)
		b.WriteByte(')')
	case *Include:
		b.WriteString("Include(")
		printNode(b, node.Entity)
		b.WriteString(", " + node.Navigation.Name + ", ")
		printNode(b, node.Related)
		b.WriteByte(')')
	case *ProjectionBinding:
		if node.ByIndex {
			b.WriteString("ProjectionIndex[" + strconv.Itoa(node.Index) + "]")
		} else {
			b.WriteString("Projection[" + node.Member.String() + "]")
		}
	case *ParameterValue:
		b.WriteString("GetParameterValue(" + strconv.Quote(node.Name) + ")")
	}
}

// printNew renders "new T { A = x, B = y }" for member constructors and
// "new T(x, y)" for positional ones.
func printNew(b *strings.Builder, n *New) {
	b.WriteString("new " + n.Typ.String())
	if n.Members == nil {
		printArgs(b, n.Args)
		return
	}
	b.WriteString(" {")
	for i, arg := range n.Args {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" " + n.Members[i] + " = ")
		printNode(b, arg)
	}
	b.WriteString(" }")
}

func printArgs(b *strings.Builder, args []Node) {
	b.WriteByte('(')
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		printNode(b, arg)
	}
	b.WriteByte(')')
}
