// Package pq provides a priority queue of pending work items.
package pq

import "container/heap"

// PriorityQueue serves the smallest pending element first. An element is
// pending at most once.
type PriorityQueue[T comparable] struct {
	items   []T
	less    func(T, T) bool
	pending map[T]bool
}

// Empty creates a queue ordered by less.
func Empty[T comparable](less func(T, T) bool) *PriorityQueue[T] {
	return &PriorityQueue[T]{less: less, pending: make(map[T]bool)}
}

func (q *PriorityQueue[T]) IsEmpty() bool { return len(q.items) == 0 }

// Add enqueues x unless it is already pending.
func (q *PriorityQueue[T]) Add(x T) {
	if q.pending[x] {
		return
	}
	q.pending[x] = true
	heap.Push((*items[T])(q), x)
}

// GetNext dequeues the smallest element.
func (q *PriorityQueue[T]) GetNext() T {
	x := heap.Pop((*items[T])(q)).(T)
	delete(q.pending, x)
	return x
}

// items exposes the queue to container/heap.
type items[T comparable] PriorityQueue[T]

func (h *items[T]) Len() int           { return len(h.items) }
func (h *items[T]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h *items[T]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *items[T]) Push(x any)         { h.items = append(h.items, x.(T)) }

func (h *items[T]) Pop() any {
	last := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	return last
}
