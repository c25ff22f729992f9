// Package dialect bundles everything a store provider contributes to
// compilation: type mappings, factory normalizers, translation rules and
// the query text dialect.
package dialect

import (
	"fmt"
	"sort"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/querysql"
	"github.com/roach88/qshape/internal/sqlexpr"
	"github.com/roach88/qshape/internal/translate"
)

// Provider is one store dialect, assembled once at startup.
type Provider struct {
	Name     string
	Factory  *sqlexpr.Factory
	Registry *translate.Registry
	SQL      querysql.Dialect
}

// Translator returns a translator over the provider's registry.
func (p *Provider) Translator() *translate.SQLTranslator {
	return translate.NewSQLTranslator(p.Registry, p.Factory)
}

// Generator returns a query text generator for the provider.
func (p *Provider) Generator() *querysql.Generator {
	return querysql.NewGenerator(p.SQL)
}

// Mappings is a TypeMappingSource backed by a fixed table.
type Mappings map[string]*sqlexpr.TypeMapping

// FindMapping implements sqlexpr.TypeMappingSource. Collection types have
// no store mapping.
func (m Mappings) FindMapping(t expr.Type) *sqlexpr.TypeMapping {
	if t.Collection {
		return nil
	}
	return m[t.Name]
}

// Set is a name-indexed group of providers.
type Set map[string]func() *Provider

// Lookup builds the named provider.
func (s Set) Lookup(name string) (*Provider, error) {
	build, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (known: %v)", name, s.Names())
	}
	return build(), nil
}

// Names returns the provider names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
