/*
 * Filename: /Users/bao/code/hicscaf/graph.go
 * Path: /Users/bao/code/hicscaf
 * Created Date: Saturday, October 17th 2026, 10:12:03 am
 * Author: bao
 *
 * Copyright (c) 2026 Haibao Tang
 */

package hicscaf

import (
	"sort"
)

// Arc is a directed join: V is immediately followed by W. A node id is
// seq<<1 | o where o = 1 reads the scaffold reverse-complemented.
type Arc struct {
	V, W    int
	Weight  float64
	Count   int
	Mate    int // index of W^1 -> V^1
	deleted bool
}

// Graph is the scaffold graph. Every arc is stored together with its mate
// and removed together with it, so the in-arcs of w are the mates of the
// out-arcs of w^1.
type Graph struct {
	NSeqs int
	Arcs  []Arc
	idx   []int // out-arcs of v are Arcs[idx[v]:idx[v+1]]
	nArcs int
}

// NewGraph makes an empty graph over nseqs sequences
func NewGraph(nseqs int) *Graph {
	return &Graph{NSeqs: nseqs}
}

// NNodes returns the number of nodes, two per sequence
func (g *Graph) NNodes() int {
	return g.NSeqs << 1
}

// AddJoin adds v -> w and its mate w^1 -> v^1
func (g *Graph) AddJoin(v, w int, weight float64, count int) {
	a := len(g.Arcs)
	if w == v^1 {
		// v -> v^1 is its own mate
		g.Arcs = append(g.Arcs, Arc{V: v, W: w, Weight: weight, Count: count, Mate: a})
		g.nArcs++
		return
	}
	g.Arcs = append(g.Arcs,
		Arc{V: v, W: w, Weight: weight, Count: count, Mate: a + 1},
		Arc{V: w ^ 1, W: v ^ 1, Weight: weight, Count: count, Mate: a})
	g.nArcs += 2
}

// Finalize sorts the arcs by source, weight desc then target, and indexes
// them. It must be called after the last AddJoin.
func (g *Graph) Finalize() {
	order := make([]int, len(g.Arcs))
	for i := range order {
		order[i] = i
	}
	arcs := g.Arcs
	sort.SliceStable(order, func(i, j int) bool {
		a, b := &arcs[order[i]], &arcs[order[j]]
		if a.V != b.V {
			return a.V < b.V
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.W < b.W
	})
	rank := make([]int, len(order))
	sorted := make([]Arc, len(order))
	for i, k := range order {
		rank[k] = i
	}
	for i, k := range order {
		sorted[i] = arcs[k]
		sorted[i].Mate = rank[arcs[k].Mate]
	}
	g.Arcs = sorted

	g.idx = make([]int, g.NNodes()+1)
	for _, a := range g.Arcs {
		g.idx[a.V+1]++
	}
	for v := 1; v < len(g.idx); v++ {
		g.idx[v] += g.idx[v-1]
	}
	log.Noticef("Graph contains %d nodes and %d arcs", g.NNodes(), g.nArcs)
}

// NArcs returns the number of live arcs
func (g *Graph) NArcs() int {
	return g.nArcs
}

// Live tells whether arc a is still in the graph
func (g *Graph) Live(a int) bool {
	return !g.Arcs[a].deleted
}

// removeArc deletes arc a together with its mate, false if already gone
func (g *Graph) removeArc(a int) bool {
	if g.Arcs[a].deleted {
		return false
	}
	g.Arcs[a].deleted = true
	g.nArcs--
	if m := g.Arcs[a].Mate; m != a {
		g.Arcs[m].deleted = true
		g.nArcs--
	}
	return true
}

// Out returns the live out-arcs of v, strongest first
func (g *Graph) Out(v int) []int {
	var arcs []int
	for a := g.idx[v]; a < g.idx[v+1]; a++ {
		if !g.Arcs[a].deleted {
			arcs = append(arcs, a)
		}
	}
	return arcs
}

// In returns the live in-arcs of w, strongest first
func (g *Graph) In(w int) []int {
	arcs := g.Out(w ^ 1)
	for i, a := range arcs {
		arcs[i] = g.Arcs[a].Mate
	}
	return arcs
}

// OutDegree returns the number of live out-arcs of v
func (g *Graph) OutDegree(v int) int {
	n := 0
	for a := g.idx[v]; a < g.idx[v+1]; a++ {
		if !g.Arcs[a].deleted {
			n++
		}
	}
	return n
}

// InDegree returns the number of live in-arcs of w
func (g *Graph) InDegree(w int) int {
	return g.OutDegree(w ^ 1)
}

// firstOut returns the strongest live out-arc of v, -1 if none
func (g *Graph) firstOut(v int) int {
	for a := g.idx[v]; a < g.idx[v+1]; a++ {
		if !g.Arcs[a].deleted {
			return a
		}
	}
	return -1
}

// firstIn returns the strongest live in-arc of w, -1 if none
func (g *Graph) firstIn(w int) int {
	a := g.firstOut(w ^ 1)
	if a < 0 {
		return -1
	}
	return g.Arcs[a].Mate
}

// bestOut returns the weight of the strongest out-arc of v, 0 if none
func (g *Graph) bestOut(v int) float64 {
	if a := g.firstOut(v); a >= 0 {
		return g.Arcs[a].Weight
	}
	return 0
}

// bestIn returns the weight of the strongest in-arc of w, 0 if none
func (g *Graph) bestIn(w int) float64 {
	return g.bestOut(w ^ 1)
}

// liveArcs returns the indices of all live arcs in storage order
func (g *Graph) liveArcs() []int {
	arcs := make([]int, 0, g.nArcs)
	for a := range g.Arcs {
		if !g.Arcs[a].deleted {
			arcs = append(arcs, a)
		}
	}
	return arcs
}

// BuildGraph turns the normalized inter-scaffold evidence into a graph. A
// configuration becomes a join when its normalized weight reaches minNorm
// and beats the background rate la at the given confidence.
func BuildGraph(inter *InterMatrix, norms Norms, minNorm, la, confidence float64) *Graph {
	g := NewGraph(inter.Layout.Len())
	rejected := 0
	inter.ForEach(func(a, b int, link *InterLink) {
		v, ok := norms.Get(a, b)
		if !ok {
			return
		}
		for c := 0; c < NConfigs; c++ {
			norm := v[c]
			if norm < minNorm {
				continue
			}
			if !passQBinom(norm, int(link.N0), la, confidence) {
				log.Debugf("Edge rejected by background filter: %s %s %d %d %.3f",
					inter.Layout.Scaffolds[a].Name, inter.Layout.Scaffolds[b].Name, c, link.N0, norm)
				rejected++
				continue
			}
			g.AddJoin(a<<1|c>>1, b<<1|c&1, norm, int(link.Observed(c)))
		}
	})
	if rejected > 0 {
		log.Noticef("%d candidate joins rejected by the background filter", rejected)
	}
	g.Finalize()
	return g
}
