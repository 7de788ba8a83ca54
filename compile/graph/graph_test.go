package graph

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func refsFromMap(edges map[string][]string) func(string) ([]string, error) {
	return func(name string) ([]string, error) {
		return edges[name], nil
	}
}

func TestBuildAcyclic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	edges := map[string][]string{
		"aacute": {"a", "acute"},
		"a":      nil,
		"acute":  nil,
	}
	g, err := Build([]string{"aacute", "a", "acute"}, refsFromMap(edges), 0)
	if err != nil {
		t.Fatal(err)
	}
	order := g.CompileOrder()
	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["a"], pos["aacute"], "expected component a before aacute")
	assert.Less(t, pos["acute"], pos["aacute"], "expected component acute before aacute")
}

func TestClosurePullsComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	edges := map[string][]string{
		"ocircumflex": {"o", "circumflex"},
		"o":           nil,
		"circumflex":  nil,
	}
	// only the composite requested; components pulled in transitively
	g, err := Build([]string{"ocircumflex"}, refsFromMap(edges), 0)
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, g.Contains("o"), "expected o to be pulled into the graph")
	assert.True(t, g.Contains("circumflex"), "expected circumflex to be pulled into the graph")
	assert.Len(t, g.CompileOrder(), 3)
}

func TestCycleDetection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	edges := map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}
	_, err := Build([]string{"A"}, refsFromMap(edges), 0)
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	var cycle *ComponentCycle
	if !errors.As(err, &cycle) {
		t.Fatalf("expected a ComponentCycle error, got %v", err)
	}
	assert.Contains(t, cycle.Cycle, "A", "expected the cycle to name A")
	assert.Contains(t, cycle.Cycle, "B", "expected the cycle to name B")
}

func TestSelfReference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	_, err := Build([]string{"loop"}, refsFromMap(map[string][]string{"loop": {"loop"}}), 0)
	var cycle *ComponentCycle
	if !errors.As(err, &cycle) {
		t.Fatalf("expected a ComponentCycle error for a self-reference, got %v", err)
	}
}

func TestDepthLimit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	// a strictly acyclic chain g0 → g1 → … deeper than the limit
	edges := map[string][]string{}
	const n = 10
	for i := 0; i < n; i++ {
		name := chainName(i)
		if i+1 < n {
			edges[name] = []string{chainName(i + 1)}
		}
	}
	_, err := Build([]string{chainName(0)}, refsFromMap(edges), 4)
	var depth *ComponentDepthExceeded
	if !errors.As(err, &depth) {
		t.Fatalf("expected a ComponentDepthExceeded error, got %v", err)
	}
	if _, err = Build([]string{chainName(0)}, refsFromMap(edges), n+1); err != nil {
		t.Errorf("expected the chain to pass with a generous limit, got %v", err)
	}
}

func TestTiers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	edges := map[string][]string{
		"adieresis": {"a", "dieresis"},
		"dieresis":  {"dotaccent"},
		"a":         nil,
		"dotaccent": nil,
	}
	g, err := Build([]string{"adieresis"}, refsFromMap(edges), 0)
	if err != nil {
		t.Fatal(err)
	}
	tiers := g.Tiers()
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}
	assert.ElementsMatch(t, []string{"a", "dotaccent"}, tiers[0])
	assert.Equal(t, []string{"dieresis"}, tiers[1])
	assert.Equal(t, []string{"adieresis"}, tiers[2])
}

func TestDeterministicOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	edges := map[string][]string{
		"x": {"y", "z"}, "y": nil, "z": nil, "w": {"x"},
	}
	first, err := Build([]string{"w", "x"}, refsFromMap(edges), 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Build([]string{"w", "x"}, refsFromMap(edges), 0)
		if err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, first.CompileOrder(), again.CompileOrder(),
			"expected identical input to yield an identical compile order")
	}
}

func chainName(i int) string {
	return string(rune('a'+i)) + "link"
}
