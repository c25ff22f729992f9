// Package translate turns input expression leaves into provider
// expressions.
//
// The Registry holds ordered member and method-call translators, built once
// per dialect at startup and never mutated afterwards. Translators are
// consulted in registration order and the first success wins.
//
// SQLTranslator is the bottom-up translating visitor. It never panics or
// errors for "cannot translate": every method returns (expr, ok), and ok is
// false exactly when no provider equivalent exists. A translated null
// literal is a non-nil *sqlexpr.Constant holding ir.IRNull, so it can never
// be mistaken for a failure.
package translate
