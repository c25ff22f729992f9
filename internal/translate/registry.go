package translate

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// MemberTranslator translates a member access whose instance (nil for
// static members) has already been translated.
type MemberTranslator interface {
	TranslateMember(instance sqlexpr.Expr, member *expr.Member) (sqlexpr.Expr, bool)
}

// MethodCallTranslator translates a method call whose instance (nil for
// static methods) and arguments have already been translated.
type MethodCallTranslator interface {
	TranslateCall(instance sqlexpr.Expr, call *expr.Call, args []sqlexpr.Expr) (sqlexpr.Expr, bool)
}

// Plugin is one rule provider's contribution to a Registry.
type Plugin struct {
	Name    string
	Members []MemberTranslator
	Methods []MethodCallTranslator
}

// Registry is the ordered, immutable set of translators for one dialect.
//
// Thread-safety: a Registry has no mutators after NewRegistry and is safe
// for unsynchronized concurrent reads.
type Registry struct {
	plugins []string
	members []MemberTranslator
	methods []MethodCallTranslator
}

// NewRegistry builds a registry. Plugins are consulted in the given order.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{}
	for _, p := range plugins {
		r.plugins = append(r.plugins, p.Name)
		r.members = append(r.members, p.Members...)
		r.methods = append(r.methods, p.Methods...)
	}
	return r
}

// Plugins returns the registered plugin names in consultation order.
func (r *Registry) Plugins() []string {
	return append([]string(nil), r.plugins...)
}

// TranslateMember asks each member translator in order.
func (r *Registry) TranslateMember(instance sqlexpr.Expr, member *expr.Member) (sqlexpr.Expr, bool) {
	for _, t := range r.members {
		if out, ok := t.TranslateMember(instance, member); ok {
			return out, true
		}
	}
	return nil, false
}

// TranslateCall asks each method-call translator in order.
func (r *Registry) TranslateCall(instance sqlexpr.Expr, call *expr.Call, args []sqlexpr.Expr) (sqlexpr.Expr, bool) {
	for _, t := range r.methods {
		if out, ok := t.TranslateCall(instance, call, args); ok {
			return out, true
		}
	}
	return nil, false
}
