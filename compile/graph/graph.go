/*
Package graph builds the directed graph of glyph-to-component references
and derives a safe compile order from it.

Components are tracked as glyph-name edges in an explicit adjacency
structure, never as in-memory references between glyph objects; resolved
records are later connected by integer glyph index only. Cycle detection
and a traversal depth limit guard against malformed sources; a valid
graph yields a topological order (dependencies strictly before their
dependents) and a partition into tiers, where all glyphs of one tier can
be encoded in parallel.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package graph

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/glyphworks/punchcut/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'punchcut.compile'.
func tracer() tracing.Trace {
	return tracing.Select("punchcut.compile")
}

// DefaultDepthLimit bounds component nesting. Generous: realistic fonts
// nest a handful of levels.
const DefaultDepthLimit = 64

// ComponentCycle reports a reference cycle, naming the glyph sequence
// that closes it.
type ComponentCycle struct {
	Cycle []string
}

func (e *ComponentCycle) Error() string {
	return fmt.Sprintf("component cycle: %s", strings.Join(e.Cycle, " -> "))
}

// ComponentDepthExceeded reports component nesting beyond the
// configured limit.
type ComponentDepthExceeded struct {
	Glyph string
	Depth int
}

func (e *ComponentDepthExceeded) Error() string {
	return fmt.Sprintf("component nesting of glyph %s exceeds depth limit %d", e.Glyph, e.Depth)
}

// Graph is the validated component graph of a glyph set, including the
// transitive closure of all referenced components.
type Graph struct {
	adjacency *treemap.Map // glyph name → []string component targets
	order     []string     // topological, dependencies first
	tiers     [][]string
}

// Build collects the component closure of the requested glyphs through
// the refs callback, then validates the graph. Components of a
// requested glyph are pulled in even when not requested themselves.
func Build(requested []string, refs func(name string) ([]string, error), depthLimit int) (*Graph, error) {
	if depthLimit <= 0 {
		depthLimit = DefaultDepthLimit
	}
	g := &Graph{adjacency: treemap.NewWithStringComparator()}
	seen := hashset.New()
	worklist := arraystack.New()
	for _, name := range requested {
		if !seen.Contains(name) {
			seen.Add(name)
			worklist.Push(name)
		}
	}
	for !worklist.Empty() {
		item, _ := worklist.Pop()
		name := item.(string)
		targets, err := refs(name)
		if err != nil {
			return nil, err
		}
		g.adjacency.Put(name, targets)
		for _, target := range targets {
			if !seen.Contains(target) {
				seen.Add(target)
				worklist.Push(target)
			}
		}
	}
	if err := g.validate(depthLimit); err != nil {
		return nil, err
	}
	g.computeTiers()
	tracer().Debugf("component graph: %d glyphs in %d tiers", len(g.order), len(g.tiers))
	return g, nil
}

// CompileOrder returns all glyphs in topological order, every
// component strictly before its referencing glyphs.
func (g *Graph) CompileOrder() []string {
	return g.order
}

// Tiers partitions the compile order into waves: glyphs of tier k
// depend only on glyphs of tiers below k.
func (g *Graph) Tiers() [][]string {
	return g.tiers
}

// Components returns the direct component targets of a glyph.
func (g *Graph) Components(name string) []string {
	if targets, ok := g.adjacency.Get(name); ok {
		return targets.([]string)
	}
	return nil
}

// Contains is a predicate: is the glyph part of the (closed) graph?
func (g *Graph) Contains(name string) bool {
	_, ok := g.adjacency.Get(name)
	return ok
}

// DFS colors
const (
	white = iota // unvisited
	grey         // in progress
	black        // done
)

// validate runs a depth-first traversal over the adjacency, detecting
// cycles (grey re-entry) and excessive nesting, and records the
// topological order as DFS postorder.
func (g *Graph) validate(depthLimit int) error {
	colors := make(map[string]int, g.adjacency.Size())
	var path []string
	var visit func(name string) error
	visit = func(name string) error {
		if len(path) > depthLimit {
			err := &ComponentDepthExceeded{Glyph: name, Depth: depthLimit}
			return core.WrapError(err, core.EINVALID, "glyph %s nested too deeply", name)
		}
		switch colors[name] {
		case black:
			return nil
		case grey:
			// close the cycle: everything on the path from name onwards
			start := 0
			for i, p := range path {
				if p == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), name)
			err := &ComponentCycle{Cycle: cycle}
			return core.WrapError(err, core.EINVALID, "glyphs reference each other in a cycle")
		}
		colors[name] = grey
		path = append(path, name)
		for _, target := range g.Components(name) {
			if err := visit(target); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		colors[name] = black
		g.order = append(g.order, name)
		return nil
	}
	var roots []string
	g.adjacency.Each(func(key interface{}, value interface{}) {
		roots = append(roots, key.(string))
	})
	for _, root := range roots {
		if err := visit(root); err != nil {
			return err
		}
	}
	return nil
}

// computeTiers assigns every glyph the tier 1 + max(tier of components),
// leaf glyphs sitting in tier 0. A single pass over the topological
// order suffices, since dependencies come first.
func (g *Graph) computeTiers() {
	tierOf := make(map[string]int, len(g.order))
	maxTier := 0
	for _, name := range g.order {
		tier := 0
		for _, target := range g.Components(name) {
			if t := tierOf[target] + 1; t > tier {
				tier = t
			}
		}
		tierOf[name] = tier
		if tier > maxTier {
			maxTier = tier
		}
	}
	g.tiers = make([][]string, maxTier+1)
	for _, name := range g.order {
		t := tierOf[name]
		g.tiers[t] = append(g.tiers[t], name)
	}
}
