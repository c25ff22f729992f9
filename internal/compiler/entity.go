package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qshape/internal/ir"
)

// CompileModel parses a CUE value holding a whole model:
//
//	context: "Blogging"
//	entity: Blog: { key: ["Id"], properties: { Id: int, Title: string } }
//
// Entities keep their CUE declaration order.
func CompileModel(v cue.Value) (*ir.Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	ctxVal := v.LookupPath(cue.ParsePath("context"))
	if !ctxVal.Exists() {
		return nil, &CompileError{
			Field:   "context",
			Message: "context name is required",
			Pos:     v.Pos(),
		}
	}
	context, err := ctxVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &CompileError{
			Field:   "entity",
			Message: "at least one entity is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var entities []*ir.EntityType
	for iter.Next() {
		e, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	if len(entities) == 0 {
		return nil, &CompileError{
			Field:   "entity",
			Message: "at least one entity is required",
			Pos:     entitiesVal.Pos(),
		}
	}

	model, err := ir.NewModel(context, entities...)
	if err != nil {
		return nil, &CompileError{Field: "entity", Message: err.Error(), Pos: entitiesVal.Pos()}
	}
	return model, nil
}

// CompileEntity parses a CUE value into an EntityType. The entity name is
// the value's last path label.
//
// A property is either a bare CUE kind (string, int, bool, bytes) or a
// struct {type, column?, nullable?}. Without an explicit key, a property
// named Id is the key.
func CompileEntity(v cue.Value) (*ir.EntityType, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	e := &ir.EntityType{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		e.Name = labels[len(labels)-1].String()
	}

	var err error
	if e.Table, err = optionalString(v, "table"); err != nil {
		return nil, err
	}
	if e.Container, err = optionalString(v, "container"); err != nil {
		return nil, err
	}

	if e.Properties, err = parseProperties(v); err != nil {
		return nil, err
	}
	if len(e.Properties) == 0 {
		return nil, &CompileError{
			Field:   "properties",
			Message: fmt.Sprintf("entity %s must declare at least one property", e.Name),
			Pos:     v.Pos(),
		}
	}

	if e.Key, err = stringList(v, "key"); err != nil {
		return nil, err
	}
	if len(e.Key) == 0 {
		if _, ok := e.Property("Id"); ok {
			e.Key = []string{"Id"}
		}
	}

	if e.Navigations, err = parseNavigations(v); err != nil {
		return nil, err
	}
	return e, nil
}

func parseProperties(v cue.Value) ([]ir.Property, error) {
	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return nil, nil
	}
	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var props []ir.Property
	for iter.Next() {
		p := ir.Property{Name: iter.Label()}
		pv := iter.Value()

		if pv.IncompleteKind() == cue.StructKind {
			typeVal := pv.LookupPath(cue.ParsePath("type"))
			if !typeVal.Exists() {
				return nil, &CompileError{
					Field:   "type",
					Message: fmt.Sprintf("property %s: type is required", p.Name),
					Pos:     pv.Pos(),
				}
			}
			if p.Type, err = typeVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
			if !isValidType(p.Type) {
				return nil, &CompileError{
					Field:   "type",
					Message: fmt.Sprintf("property %s: unknown type %q", p.Name, p.Type),
					Pos:     typeVal.Pos(),
				}
			}
			if p.Column, err = optionalString(pv, "column"); err != nil {
				return nil, err
			}
			nullVal := pv.LookupPath(cue.ParsePath("nullable"))
			if nullVal.Exists() {
				if p.Nullable, err = nullVal.Bool(); err != nil {
					return nil, formatCUEError(err)
				}
			}
		} else {
			if p.Type, err = extractTypeName(pv); err != nil {
				return nil, err
			}
		}
		props = append(props, p)
	}
	return props, nil
}

func parseNavigations(v cue.Value) ([]ir.Navigation, error) {
	navsVal := v.LookupPath(cue.ParsePath("navigations"))
	if !navsVal.Exists() {
		return nil, nil
	}
	iter, err := navsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var navs []ir.Navigation
	for iter.Next() {
		nav := ir.Navigation{Name: iter.Label()}
		nv := iter.Value()

		targetVal := nv.LookupPath(cue.ParsePath("target"))
		if !targetVal.Exists() {
			return nil, &CompileError{
				Field:   "navigations",
				Message: fmt.Sprintf("navigation %s: target is required", nav.Name),
				Pos:     nv.Pos(),
			}
		}
		if nav.Target, err = targetVal.String(); err != nil {
			return nil, formatCUEError(err)
		}

		collVal := nv.LookupPath(cue.ParsePath("collection"))
		if collVal.Exists() {
			if nav.Collection, err = collVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if nav.ForeignKey, err = stringList(nv, "foreign_key"); err != nil {
			return nil, err
		}
		navs = append(navs, nav)
	}
	return navs, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// extractTypeName converts a bare CUE kind to a model type name.
// Floats are forbidden; use decimal.
func extractTypeName(v cue.Value) (string, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.TypeString, nil
	case cue.IntKind:
		return ir.TypeInt, nil
	case cue.BoolKind:
		return ir.TypeBool, nil
	case cue.BytesKind:
		return ir.TypeBytes, nil
	case cue.FloatKind, cue.NumberKind:
		return "", &CompileError{
			Field:   "type",
			Message: "float types are forbidden - use decimal instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
