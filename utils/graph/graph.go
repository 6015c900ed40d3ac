// Package graph implements the graph algorithms shared by control flow
// graphs and call graphs: strongly connected components, weak topological
// orderings and breadth-first traversal. Graphs are given by an edge
// function over comparable nodes.
package graph

// Graph is a directed graph described by the successors of each node.
// Successor lists are computed once per node.
type Graph[T comparable] struct {
	succs func(T) []T
	cache map[T][]T
}

// OfHashable creates the graph whose edges are given by succs.
func OfHashable[T comparable](succs func(T) []T) Graph[T] {
	return Graph[T]{succs: succs, cache: make(map[T][]T)}
}

// Edges returns the successors of node.
func (G Graph[T]) Edges(node T) []T {
	if es, ok := G.cache[node]; ok {
		return es
	}
	es := G.succs(node)
	G.cache[node] = es
	return es
}

// Restrict creates the subgraph containing only the nodes satisfying keep.
func Restrict[T comparable](G Graph[T], keep func(T) bool) Graph[T] {
	return OfHashable(func(node T) (res []T) {
		for _, e := range G.Edges(node) {
			if keep(e) {
				res = append(res, e)
			}
		}
		return
	})
}
