package graph

// SCCDecomposition partitions the nodes reachable from some start nodes
// into strongly connected components. Components are numbered sinks
// first: edges only lead from a component to itself or to one with a
// smaller index.
type SCCDecomposition[T comparable] struct {
	Components [][]T
	index      map[T]int
	G          Graph[T]
}

// ComponentOf returns the index of the component of node, or -1 if node
// was not reached.
func (d SCCDecomposition[T]) ComponentOf(node T) int {
	if i, ok := d.index[node]; ok {
		return i
	}
	return -1
}

// IsCyclic checks whether the component contains a cycle: it has several
// nodes, or its only node has a self loop.
func (d SCCDecomposition[T]) IsCyclic(i int) bool {
	nodes := d.Components[i]
	if len(nodes) > 1 {
		return true
	}
	for _, e := range d.G.Edges(nodes[0]) {
		if e == nodes[0] {
			return true
		}
	}
	return false
}

// SCC decomposes the subgraph reachable from starts with Tarjan's
// algorithm.
func (G Graph[T]) SCC(starts []T) SCCDecomposition[T] {
	d := SCCDecomposition[T]{index: make(map[T]int), G: G}

	num := make(map[T]int)
	low := make(map[T]int)
	var stack []T

	var visit func(T)
	visit = func(n T) {
		num[n] = len(num)
		low[n] = num[n]
		stack = append(stack, n)

		for _, e := range G.Edges(n) {
			if _, done := d.index[e]; done {
				continue
			}
			if _, seen := num[e]; !seen {
				visit(e)
				low[n] = min(low[n], low[e])
			} else {
				low[n] = min(low[n], num[e])
			}
		}

		if low[n] != num[n] {
			return
		}
		i := len(d.Components)
		var comp []T
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			d.index[top] = i
			comp = append(comp, top)
			if top == n {
				break
			}
		}
		d.Components = append(d.Components, comp)
	}

	for _, n := range starts {
		if _, seen := num[n]; !seen {
			visit(n)
		}
	}
	return d
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
