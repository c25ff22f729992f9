package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/qshape/internal/ir"
)

// CycleWarning reports entity types that reach themselves through
// navigations. Eager-loading along such a cycle revisits the same entity
// type, and the shaper shares descriptors by backing row to keep the
// descriptor graph finite.
type CycleWarning struct {
	Path    []string `json:"path"` // first entity repeated at the end
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// Cycle levels.
const (
	CycleLevelWarning = "warning"
	CycleLevelInfo    = "info"
)

// AnalyzeCycles finds navigation cycles in a model: every strongly
// connected component of the navigation graph with more than one entity,
// and every self-referencing entity.
//
// A collection navigation paired with its inverse reference (Blog.Posts,
// Post.Blog) is the usual bidirectional relationship and is reported at
// info level; every other cycle is a warning. Warnings are sorted by their
// first entity.
func AnalyzeCycles(m *ir.Model) []CycleWarning {
	warnings := []CycleWarning{}
	if m == nil {
		return warnings
	}

	g := newNavGraph(m)
	for _, comp := range g.components() {
		if len(comp) == 1 && !g.edge(comp[0], comp[0]) {
			continue
		}
		slices.Sort(comp)
		warnings = append(warnings, g.warning(m, comp))
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// navGraph holds each entity's navigation targets in declaration order.
type navGraph struct {
	names   []string
	targets map[string][]string
}

func newNavGraph(m *ir.Model) *navGraph {
	g := &navGraph{targets: make(map[string][]string)}
	for _, e := range m.Entities {
		g.names = append(g.names, e.Name)
		for _, nav := range e.Navigations {
			g.targets[e.Name] = append(g.targets[e.Name], nav.Target)
		}
	}
	slices.Sort(g.names)
	return g
}

func (g *navGraph) edge(from, to string) bool {
	return slices.Contains(g.targets[from], to)
}

// components returns the strongly connected components, starting searches
// from entities in name order so the result is deterministic.
func (g *navGraph) components() [][]string {
	t := &tarjan{
		g:       g,
		index:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, name := range g.names {
		if _, seen := t.index[name]; !seen {
			t.visit(name)
		}
	}
	return t.out
}

// tarjan is the state of one run of Tarjan's SCC algorithm.
type tarjan struct {
	g       *navGraph
	next    int
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	out     [][]string
}

func (t *tarjan) visit(v string) {
	t.index[v], t.low[v] = t.next, t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.targets[v] {
		if _, seen := t.index[w]; !seen {
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}
	if t.low[v] != t.index[v] {
		return
	}

	var comp []string
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	t.out = append(t.out, comp)
}

func (g *navGraph) warning(m *ir.Model, comp []string) CycleWarning {
	if len(comp) == 1 {
		name := comp[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-referencing entity detected: %s → %s", name, name),
			Level:   CycleLevelWarning,
		}
	}

	path := g.cyclePath(comp)
	level := CycleLevelWarning
	if len(comp) == 2 && inversePair(m, comp[0], comp[1]) {
		level = CycleLevelInfo
	}
	return CycleWarning{
		Path:    path,
		Message: "Navigation cycle detected: " + strings.Join(path, " → "),
		Level:   level,
	}
}

// cyclePath walks from the first member of comp through members not yet on
// the path until it gets back to the start.
func (g *navGraph) cyclePath(comp []string) []string {
	start := comp[0]
	path := []string{start}
	onPath := map[string]bool{start: true}
	for cur := start; ; {
		next := ""
		for _, w := range g.targets[cur] {
			if slices.Contains(comp, w) && (!onPath[w] || w == start) {
				next = w
				break
			}
		}
		if next == "" {
			return path
		}
		path = append(path, next)
		if next == start {
			return path
		}
		onPath[next] = true
		cur = next
	}
}

// inversePair reports whether a and b are related only by a collection and
// its inverse reference.
func inversePair(m *ir.Model, a, b string) bool {
	ea, _ := m.Entity(a)
	eb, _ := m.Entity(b)
	var collections, references int
	for _, pair := range [][2]*ir.EntityType{{ea, eb}, {eb, ea}} {
		for _, nav := range pair[0].Navigations {
			if nav.Target != pair[1].Name {
				continue
			}
			if nav.Collection {
				collections++
			} else {
				references++
			}
		}
	}
	return collections == 1 && references == 1
}
