package worklist

import "testing"

func TestStartV(t *testing.T) {
	var order []int
	StartV([]int{1, 2}, func(n int, add func(int)) {
		order = append(order, n)
		if n < 4 {
			add(n * 2)
		}
	})

	expected := []int{1, 2, 2, 4, 4}
	if len(order) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, order)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("Expected %v, got %v", expected, order)
		}
	}
}

func TestEmpty(t *testing.T) {
	w := Empty[string]()
	if !w.IsEmpty() || w.GetNext() != "" {
		t.Error("Expected an empty worklist")
	}
	w.Add("a")
	if w.Len() != 1 || w.GetNext() != "a" || !w.IsEmpty() {
		t.Error("Expected a single element")
	}
}
