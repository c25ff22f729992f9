package expr

import (
	"fmt"

	"github.com/roach88/qshape/internal/ir"
)

// Kind enumerates the closed set of node variants.
type Kind int

const (
	KindConstant Kind = iota
	KindParameter
	KindMember
	KindCall
	KindUnary
	KindBinary
	KindNew
	KindMemberInit
	KindConditional
	KindMaterializeCollection
	KindEntityShaper
	KindInclude
	KindProjectionBinding
	KindParameterValue
)

var kindNames = [...]string{
	KindConstant:              "Constant",
	KindParameter:             "Parameter",
	KindMember:                "Member",
	KindCall:                  "Call",
	KindUnary:                 "Unary",
	KindBinary:                "Binary",
	KindNew:                   "New",
	KindMemberInit:            "MemberInit",
	KindConditional:           "Conditional",
	KindMaterializeCollection: "MaterializeCollection",
	KindEntityShaper:          "EntityShaper",
	KindInclude:               "Include",
	KindProjectionBinding:     "ProjectionBinding",
	KindParameterValue:        "ParameterValue",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is an input expression tree node.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	Kind() Kind
	Type() Type
	exprNode() // Marker method - seals interface to this package
}

// Type is the declared result type of a node.
// Name is a scalar type name (see ir.Type*), a record name, or an entity
// type name. Collection marks a sequence of Name.
type Type struct {
	Name       string
	Collection bool
}

// Common scalar types.
var (
	StringType   = Type{Name: ir.TypeString}
	IntType      = Type{Name: ir.TypeInt}
	BoolType     = Type{Name: ir.TypeBool}
	DecimalType  = Type{Name: ir.TypeDecimal}
	DateTimeType = Type{Name: ir.TypeDateTime}
	BytesType    = Type{Name: ir.TypeBytes}
)

// Scalar returns the non-collection type with the given name.
func Scalar(name string) Type {
	return Type{Name: name}
}

// CollectionOf returns the sequence type of name.
func CollectionOf(name string) Type {
	return Type{Name: name, Collection: true}
}

// IsZero reports whether the type is unset.
func (t Type) IsZero() bool {
	return t.Name == ""
}

func (t Type) String() string {
	if t.Collection {
		return "[]" + t.Name
	}
	return t.Name
}

// Source identifies the query source a ProjectionBinding points into.
// Implemented by *query.Select; compared by identity.
type Source interface {
	SourceID() string
}
