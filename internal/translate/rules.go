package translate

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// AnyArity matches a method rule regardless of argument count.
const AnyArity = -1

// MemberRule translates one (declaring type, member) pair.
type MemberRule struct {
	Declaring string
	Name      string
	Translate func(f *sqlexpr.Factory, instance sqlexpr.Expr, returnType expr.Type) (sqlexpr.Expr, bool)
}

// MethodRule translates one (declaring type, method, arity) triple.
type MethodRule struct {
	Declaring string
	Method    string
	Arity     int
	Translate func(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, returnType expr.Type) (sqlexpr.Expr, bool)
}

type ruleKey struct {
	declaring string
	name      string
}

// Rules is an explicit rule table keyed by declaring type and member or
// method name. It implements both MemberTranslator and MethodCallTranslator.
type Rules struct {
	factory *sqlexpr.Factory
	members map[ruleKey][]MemberRule
	methods map[ruleKey][]MethodRule
}

// NewRules indexes the given tables. Rules sharing a key keep table order.
func NewRules(f *sqlexpr.Factory, members []MemberRule, methods []MethodRule) *Rules {
	r := &Rules{
		factory: f,
		members: make(map[ruleKey][]MemberRule, len(members)),
		methods: make(map[ruleKey][]MethodRule, len(methods)),
	}
	for _, m := range members {
		k := ruleKey{m.Declaring, m.Name}
		r.members[k] = append(r.members[k], m)
	}
	for _, m := range methods {
		k := ruleKey{m.Declaring, m.Method}
		r.methods[k] = append(r.methods[k], m)
	}
	return r
}

// Plugin wraps the table as a registry plugin.
func (r *Rules) Plugin(name string) Plugin {
	return Plugin{Name: name, Members: []MemberTranslator{r}, Methods: []MethodCallTranslator{r}}
}

// TranslateMember implements MemberTranslator.
func (r *Rules) TranslateMember(instance sqlexpr.Expr, member *expr.Member) (sqlexpr.Expr, bool) {
	for _, rule := range r.members[ruleKey{member.Declaring, member.Name}] {
		if out, ok := rule.Translate(r.factory, instance, member.Typ); ok {
			return out, true
		}
	}
	return nil, false
}

// TranslateCall implements MethodCallTranslator.
func (r *Rules) TranslateCall(instance sqlexpr.Expr, call *expr.Call, args []sqlexpr.Expr) (sqlexpr.Expr, bool) {
	for _, rule := range r.methods[ruleKey{call.Declaring, call.Method}] {
		if rule.Arity != AnyArity && rule.Arity != len(args) {
			continue
		}
		if out, ok := rule.Translate(r.factory, instance, args, call.Typ); ok {
			return out, true
		}
	}
	return nil, false
}
