package pq

import "testing"

func TestPriorityQueue(t *testing.T) {
	q := Empty(func(a, b int) bool { return a < b })
	for _, x := range []int{5, 1, 4, 1, 3} {
		q.Add(x)
	}

	var got []int
	for !q.IsEmpty() {
		got = append(got, q.GetNext())
	}

	expected := []int{1, 3, 4, 5}
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("Expected %v, got %v", expected, got)
		}
	}

	q.Add(2)
	if q.GetNext() != 2 || !q.IsEmpty() {
		t.Errorf("Elements should be re-addable once popped")
	}
}
