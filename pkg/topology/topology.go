// Package topology holds the graph-side reasoning of the engine: island
// detection over the active-branch bus graph, bus classification and the
// time-series topology-state grouping. Everything works on plain index and
// flag arrays so the package stays free of the compiled data containers.
package topology

import "sort"

// FindIslands partitions the active buses into maximal connected components
// of the graph induced by the active branches (F[i], T[i]). A branch only
// connects its terminals when the branch and both buses are active. Inactive
// buses belong to no island. Components are returned as ascending bus-index
// slices, ordered by their smallest bus.
func FindIslands(nbus int, F, T []int, branchActive, busActive []bool) [][]int {
	parent := make([]int, nbus)
	rank := make([]int, nbus)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(u int) int {
		for parent[u] != u {
			parent[u] = parent[parent[u]]
			u = parent[u]
		}
		return u
	}

	union := func(u, v int) {
		ru, rv := find(u), find(v)
		if ru == rv {
			return
		}
		if rank[ru] < rank[rv] {
			parent[ru] = rv
		} else {
			parent[rv] = ru
			if rank[ru] == rank[rv] {
				rank[ru]++
			}
		}
	}

	for i := range F {
		if branchActive[i] && busActive[F[i]] && busActive[T[i]] {
			union(F[i], T[i])
		}
	}

	groups := make(map[int][]int)
	for i := 0; i < nbus; i++ {
		if !busActive[i] {
			continue
		}
		r := find(i)
		groups[r] = append(groups[r], i)
	}

	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(a, b int) bool { return groups[roots[a]][0] < groups[roots[b]][0] })

	islands := make([][]int, 0, len(roots))
	for _, r := range roots {
		sort.Ints(groups[r])
		islands = append(islands, groups[r])
	}
	return islands
}

// FindDifferentStates groups time indices whose active-state vector is
// bit-identical, so that island splitting runs once per distinct topology.
// The result maps a representative time index to every time index it stands
// for. With forceAll every step is its own singleton group.
func FindDifferentStates(states [][]bool, forceAll bool) map[int][]int {
	ntime := len(states)
	out := make(map[int][]int, ntime)

	if forceAll {
		for t := 0; t < ntime; t++ {
			out[t] = []int{t}
		}
		return out
	}

	var reps []int
	for t := 0; t < ntime; t++ {
		found := false
		for _, r := range reps {
			if equalStates(states[t], states[r]) {
				out[r] = append(out[r], t)
				found = true
				break
			}
		}
		if !found {
			reps = append(reps, t)
			out[t] = []int{t}
		}
	}
	return out
}

func equalStates(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
