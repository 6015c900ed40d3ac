package graph

import "github.com/cs-au-dk/invariant/utils/worklist"

// BFSV visits the nodes reachable from starts in breadth-first order,
// calling visit once per node. The search stops as soon as visit returns
// true, in which case BFSV returns true.
func (G Graph[T]) BFSV(visit func(T) bool, starts ...T) bool {
	seen := make(map[T]bool, len(starts))
	for _, n := range starts {
		seen[n] = true
	}

	stopped := false
	worklist.StartV(starts, func(n T, add func(T)) {
		if stopped {
			return
		}
		if visit(n) {
			stopped = true
			return
		}
		for _, e := range G.Edges(n) {
			if !seen[e] {
				seen[e] = true
				add(e)
			}
		}
	})
	return stopped
}

// BFS is BFSV from a single node.
func (G Graph[T]) BFS(start T, visit func(T) bool) bool {
	return G.BFSV(visit, start)
}
