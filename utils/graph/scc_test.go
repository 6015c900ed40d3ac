package graph

import "testing"

func TestSCC(t *testing.T) {
	scc := _sampleGraph.SCC([]int{0})

	if len(scc.Components) != 9 {
		t.Errorf("Expected 9 components, got %d: %v", len(scc.Components), scc.Components)
	}

	same := [][]int{{0, 1, 4}, {2, 3, 7}, {5, 6}}
	for _, group := range same {
		for _, n := range group[1:] {
			if scc.ComponentOf(n) != scc.ComponentOf(group[0]) {
				t.Errorf("%d and %d should share a component", n, group[0])
			}
		}
		if !scc.IsCyclic(scc.ComponentOf(group[0])) {
			t.Errorf("Component of %d should be cyclic", group[0])
		}
	}
	if scc.IsCyclic(scc.ComponentOf(8)) {
		t.Error("Component of 8 should not be cyclic")
	}
	if scc.ComponentOf(42) != -1 {
		t.Error("Unreached node should not have a component")
	}

	// Components only have edges to components with smaller or equal index.
	for i, comp := range scc.Components {
		for _, n := range comp {
			for _, e := range _sampleGraph.Edges(n) {
				if j := scc.ComponentOf(e); j > i {
					t.Errorf("Edge %d -> %d goes from component %d to %d", n, e, i, j)
				}
			}
		}
	}

}
