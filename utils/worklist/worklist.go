package worklist

// Worklist is a FIFO queue of pending elements.
type Worklist[T any] struct {
	list []T
}

// Empty returns a worklist with no elements.
func Empty[T any]() Worklist[T] {
	return Worklist[T]{}
}

// StartV processes the elements of start, and everything added while
// processing, in FIFO order.
func StartV[T any](start []T, do func(next T, add func(el T))) {
	w := Empty[T]()
	for _, e := range start {
		w.Add(e)
	}
	w.Process(do)
}

func (w *Worklist[T]) Add(el T) {
	w.list = append(w.list, el)
}

func (w *Worklist[T]) IsEmpty() bool { return len(w.list) == 0 }

func (w *Worklist[T]) Len() int { return len(w.list) }

// GetNext dequeues the oldest element, or returns the zero value if the
// worklist is empty.
func (w *Worklist[T]) GetNext() (next T) {
	if w.IsEmpty() {
		return
	}
	next, w.list = w.list[0], w.list[1:]
	return
}

// Process dequeues until the worklist is empty.
func (w *Worklist[T]) Process(do func(next T, add func(el T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}
