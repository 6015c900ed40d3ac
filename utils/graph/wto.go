package graph

// WTOComponent is an element of a weak topological ordering. A component
// is either a single vertex, or a loop made of a head and a nested ordering
// of the loop body.
type WTOComponent[T any] struct {
	Head T
	Loop bool
	Body []WTOComponent[T]
}

// WTO computes a weak topological ordering (Bourdoncle) of the nodes
// reachable from root by recursively decomposing strongly connected
// components. The head of a cyclic component is its first node in
// depth-first preorder from root, so loops are always entered at their head
// in reducible graphs.
func WTO[T comparable](G Graph[T], root T) []WTOComponent[T] {
	pre := map[T]int{}
	var dfs func(T)
	dfs = func(n T) {
		pre[n] = len(pre)
		for _, e := range G.Edges(n) {
			if _, seen := pre[e]; !seen {
				dfs(e)
			}
		}
	}
	dfs(root)

	return wto(G, []T{root}, pre)
}

func wto[T comparable](G Graph[T], starts []T, pre map[T]int) []WTOComponent[T] {
	scc := G.SCC(starts)

	res := make([]WTOComponent[T], 0, len(scc.Components))
	// Components are discovered sinks first.
	for i := len(scc.Components) - 1; i >= 0; i-- {
		comp := scc.Components[i]
		head := comp[0]
		for _, n := range comp {
			if pre[n] < pre[head] {
				head = n
			}
		}

		if !scc.IsCyclic(i) {
			res = append(res, WTOComponent[T]{Head: head})
			continue
		}

		members := make(map[T]bool, len(comp))
		for _, n := range comp {
			if n != head {
				members[n] = true
			}
		}
		var inner []T
		for _, e := range G.Edges(head) {
			if members[e] {
				inner = append(inner, e)
			}
		}

		body := Restrict(G, func(n T) bool { return members[n] })
		res = append(res, WTOComponent[T]{
			Head: head,
			Loop: true,
			Body: wto(body, inner, pre),
		})
	}
	return res
}

// Flatten lists the nodes of a weak topological ordering in order.
func Flatten[T any](cs []WTOComponent[T]) (res []T) {
	for _, c := range cs {
		res = append(res, c.Head)
		res = append(res, Flatten(c.Body)...)
	}
	return
}
