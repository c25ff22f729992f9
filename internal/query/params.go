package query

import (
	"fmt"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
)

// ParameterLookup is the runtime parameter-value service consulted for
// ParameterValue leaves of a mixed-mode shape.
type ParameterLookup interface {
	Lookup(name string) (ir.IRValue, bool)
}

// ParameterValues is a ParameterLookup over captured values keyed by name.
type ParameterValues map[string]ir.IRValue

// Lookup implements ParameterLookup.
func (p ParameterValues) Lookup(name string) (ir.IRValue, bool) {
	v, ok := p[name]
	return v, ok
}

// Resolve reads the value of a runtime parameter leaf.
func Resolve(lookup ParameterLookup, pv *expr.ParameterValue) (ir.IRValue, error) {
	if lookup == nil {
		return nil, fmt.Errorf("parameter %q: no parameter values supplied", pv.Name)
	}
	v, ok := lookup.Lookup(pv.Name)
	if !ok {
		return nil, fmt.Errorf("parameter %q: value not supplied", pv.Name)
	}
	return v, nil
}
