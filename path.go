/*
 *  path.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

// orient converts a node id to the oriented sequence it stands for
func orient(v int) Oriented {
	return Oriented{Seq: v >> 1, Reverse: v&1 == 1}
}

// ExtractPaths reads the scaffolds off a trimmed graph, where every node has
// at most one arc in each direction. Sequences are visited by id. A cycle is
// opened at its weakest arc and sequences without joins become singletons.
func ExtractPaths(g *Graph) []Path {
	visited := make([]bool, g.NSeqs)
	var paths []Path
	nCycles := 0
	for s := 0; s < g.NSeqs; s++ {
		if visited[s] {
			continue
		}
		start, cycle := walkBack(g, s<<1, visited)
		if cycle {
			start = openCycle(g, s<<1)
			nCycles++
		}
		path := Path{orient(start)}
		visited[start>>1] = true
		for v := start; ; {
			a := g.firstOut(v)
			if a < 0 {
				break
			}
			w := g.Arcs[a].W
			if visited[w>>1] {
				break
			}
			visited[w>>1] = true
			path = append(path, orient(w))
			v = w
		}
		paths = append(paths, path)
	}
	log.Noticef("Extracted %d paths (%d cycles opened)", len(paths), nCycles)
	return paths
}

// walkBack follows in-arcs from v to the start of its path. It reports a
// cycle when the walk comes back to the sequence of v.
func walkBack(g *Graph, v int, visited []bool) (int, bool) {
	seen := map[int]bool{v >> 1: true}
	cur := v
	for {
		a := g.firstIn(cur)
		if a < 0 {
			return cur, false
		}
		u := g.Arcs[a].V
		if u>>1 == v>>1 {
			return cur, u == v
		}
		if seen[u>>1] || visited[u>>1] {
			return cur, false
		}
		seen[u>>1] = true
		cur = u
	}
}

// openCycle returns the node that follows the weakest arc of the cycle
// through v, ties going to the arc with the lower source id
func openCycle(g *Graph, v int) int {
	weakest := -1
	cur := v
	for {
		a := g.firstOut(cur)
		arc := &g.Arcs[a]
		if weakest < 0 || arc.Weight < g.Arcs[weakest].Weight ||
			(arc.Weight == g.Arcs[weakest].Weight && arc.V < g.Arcs[weakest].V) {
			weakest = a
		}
		cur = arc.W
		if cur == v {
			break
		}
	}
	return g.Arcs[weakest].W
}
