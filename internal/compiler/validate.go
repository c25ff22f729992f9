package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/qshape/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Entity errors (E101-E109)
	ErrEntityNoProperties  = "E101" // entity declares no properties
	ErrEntityNoKey         = "E102" // entity has no key
	ErrUnknownKeyProperty  = "E103" // key names an undeclared property
	ErrInvalidFieldType    = "E104" // invalid type string
	ErrDuplicateName       = "E105" // duplicate property/navigation/column name
	ErrFloatTypeForbidden  = "E106" // float types not allowed
	ErrNullableKeyProperty = "E107" // key property declared nullable

	// Navigation errors (E110-E119)
	ErrUnknownNavTarget      = "E110" // navigation targets an unknown entity
	ErrNoForeignKey          = "E111" // navigation without foreign key
	ErrUnknownForeignKey     = "E112" // foreign key names an undeclared property
	ErrForeignKeyArity       = "E113" // foreign key arity differs from principal key
	ErrNavigationShadowsProp = "E114" // navigation name collides with a property
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled model against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch m := v.(type) {
	case *ir.Model:
		return validateModel(m)
	case *ir.EntityType:
		return validateEntity(m, nil)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateModel(m *ir.Model) []ValidationError {
	var errs []ValidationError
	for _, e := range m.Entities {
		errs = append(errs, validateEntity(e, m)...)
	}
	return errs
}

// validateEntity checks one entity. Navigation targets are only checked
// when the model is known.
func validateEntity(e *ir.EntityType, m *ir.Model) []ValidationError {
	var errs []ValidationError
	prefix := "entity." + e.Name

	if len(e.Properties) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".properties",
			Message: "at least one property is required",
			Code:    ErrEntityNoProperties,
		})
	}

	names := make(map[string]bool)
	columns := make(map[string]bool)
	for i, p := range e.Properties {
		field := fmt.Sprintf("%s.properties[%d]", prefix, i)
		if names[p.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate property name: %q", p.Name),
				Code:    ErrDuplicateName,
			})
		}
		names[p.Name] = true

		column := p.Column
		if column == "" {
			column = p.Name
		}
		if columns[strings.ToLower(column)] {
			errs = append(errs, ValidationError{
				Field:   field + ".column",
				Message: fmt.Sprintf("duplicate column name: %q", column),
				Code:    ErrDuplicateName,
			})
		}
		columns[strings.ToLower(column)] = true

		errs = append(errs, validateFieldType(p.Type, field+".type", p.Name)...)
	}

	if len(e.Key) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".key",
			Message: "entity must have a key (declare key or an Id property)",
			Code:    ErrEntityNoKey,
		})
	}
	for i, k := range e.Key {
		p, ok := e.Property(k)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.key[%d]", prefix, i),
				Message: fmt.Sprintf("key property %q is not declared", k),
				Code:    ErrUnknownKeyProperty,
			})
			continue
		}
		if p.Nullable {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.key[%d]", prefix, i),
				Message: fmt.Sprintf("key property %q cannot be nullable", k),
				Code:    ErrNullableKeyProperty,
			})
		}
	}

	navNames := make(map[string]bool)
	for i, nav := range e.Navigations {
		field := fmt.Sprintf("%s.navigations[%d]", prefix, i)
		if navNames[nav.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate navigation name: %q", nav.Name),
				Code:    ErrDuplicateName,
			})
		}
		navNames[nav.Name] = true
		if names[nav.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("navigation %q has the same name as a property", nav.Name),
				Code:    ErrNavigationShadowsProp,
			})
		}
		errs = append(errs, validateNavigation(e, nav, field, m)...)
	}

	return errs
}

// validateNavigation checks the foreign key. It lives on the target for
// collections and on the declaring entity for references.
func validateNavigation(e *ir.EntityType, nav ir.Navigation, field string, m *ir.Model) []ValidationError {
	var errs []ValidationError
	if len(nav.ForeignKey) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".foreign_key",
			Message: fmt.Sprintf("navigation %q must declare a foreign key", nav.Name),
			Code:    ErrNoForeignKey,
		})
	}
	if m == nil {
		return errs
	}

	target, ok := m.Entity(nav.Target)
	if !ok {
		return append(errs, ValidationError{
			Field:   field + ".target",
			Message: fmt.Sprintf("navigation %q targets unknown entity %q", nav.Name, nav.Target),
			Code:    ErrUnknownNavTarget,
		})
	}

	dependent, principal := target, e
	if !nav.Collection {
		dependent, principal = e, target
	}
	for i, fk := range nav.ForeignKey {
		if _, ok := dependent.Property(fk); !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.foreign_key[%d]", field, i),
				Message: fmt.Sprintf("foreign key property %q is not declared on %s", fk, dependent.Name),
				Code:    ErrUnknownForeignKey,
			})
		}
	}
	if len(nav.ForeignKey) > 0 && len(nav.ForeignKey) != len(principal.Key) {
		errs = append(errs, ValidationError{
			Field:   field + ".foreign_key",
			Message: fmt.Sprintf("foreign key has %d properties but %s key has %d", len(nav.ForeignKey), principal.Name, len(principal.Key)),
			Code:    ErrForeignKeyArity,
		})
	}
	return errs
}

// validateFieldType validates a type string.
func validateFieldType(fieldType, fieldPath, fieldName string) []ValidationError {
	if isFloatType(fieldType) {
		return []ValidationError{{
			Field:   fieldPath,
			Message: fmt.Sprintf("float type forbidden for %q - use decimal instead", fieldName),
			Code:    ErrFloatTypeForbidden,
		}}
	}
	if !isValidType(fieldType) {
		return []ValidationError{{
			Field:   fieldPath,
			Message: fmt.Sprintf("invalid type %q for %q", fieldType, fieldName),
			Code:    ErrInvalidFieldType,
		}}
	}
	return nil
}

func isValidType(t string) bool {
	switch t {
	case ir.TypeString, ir.TypeInt, ir.TypeBool, ir.TypeDecimal, ir.TypeDateTime,
		ir.TypeBytes, ir.TypeGeometry, ir.TypeGeometryCollection:
		return true
	}
	return false
}

func isFloatType(t string) bool {
	switch strings.ToLower(t) {
	case "float", "float32", "float64", "double", "real", "number":
		return true
	}
	return false
}
