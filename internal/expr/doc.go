// Package expr defines the input expression tree a query's requested output
// shape is written in, and the output references the projection binder
// rewrites it into.
//
// SEALED INTERFACE:
//
// Node is sealed with the marker method pattern. The variant set is closed
// and enumerated by Kind, so every consumer can dispatch with an exhaustive
// type switch:
//
//	switch n := node.(type) {
//	case *Constant:
//	case *Parameter:
//	case *Member:
//	case *Call:
//	case *Unary:
//	case *Binary:
//	case *New:
//	case *MemberInit:
//	case *Conditional:
//	case *MaterializeCollection:
//	case *EntityShaper:
//	case *Include:
//	case *ProjectionBinding:
//	case *ParameterValue:
//	}
//
// IMMUTABILITY:
//
// Nodes are never mutated after construction. Composite nodes expose an
// Update method that returns the receiver when every child is unchanged and
// a new node otherwise, preserving the variant and all non-child metadata.
// VisitChildren applies Update generically.
//
// SLOT KEYS:
//
// ProjectionMember is the path from the root of the output shape to one of
// its leaves. The projection binder extends it by exactly one identifier per
// object-construction level, so the prefix relation between members mirrors
// the nesting of the shape.
package expr
