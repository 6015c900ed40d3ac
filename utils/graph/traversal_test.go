package graph

import "testing"

func TestBFS(t *testing.T) {
	var order []int
	stopped := _sampleGraph.BFS(0, func(n int) bool {
		order = append(order, n)
		return false
	})
	if stopped {
		t.Error("Search should not stop early")
	}
	expected := []int{0, 1, 8, 4, 5, 2, 6, 3, 9, 7, 10, 11, 12, 13}
	if len(order) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, order)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("Expected %v, got %v", expected, order)
		}
	}

	visited := 0
	if !_sampleGraph.BFSV(func(n int) bool {
		visited++
		return n == 11
	}, 9) {
		t.Error("Search should stop at 11")
	}
	if visited != 3 {
		t.Errorf("Expected 3 visited nodes, got %d", visited)
	}
}
