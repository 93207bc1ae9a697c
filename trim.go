/**
 * Filename: /Users/bao/code/hicscaf/trim.go
 * Path: /Users/bao/code/hicscaf
 * Created Date: Saturday, October 17th 2026, 11:40:51 am
 * Author: bao
 *
 * Copyright (c) 2026 Haibao Tang
 */

package hicscaf

import (
	"fmt"
	"math"
	"sort"
)

// trimPass removes arcs from the graph and returns how many joins it removed
type trimPass struct {
	name string
	run  func(g *Graph, cfg *TrimConfig) int
}

// trimPasses run in this order, the loop repeats them until a whole cycle
// leaves the arc count unchanged
var trimPasses = []trimPass{
	{"simple", trimSimple},
	{"tips", trimTips},
	{"blunts", trimBlunts},
	{"repeats", trimRepeats},
	{"transitive", trimTransitive},
	{"bubbles", trimBubbles},
	{"undirected", popUndirected},
	{"weak", trimWeak},
	{"self-loops", trimSelfLoops},
}

// Simplify trims the graph to a fixed point, then resolves the remaining
// ambiguous joins so that every node has at most one arc in each direction
func Simplify(g *Graph, cfg TrimConfig) error {
	round := 0
	for {
		if round >= cfg.MaxRounds {
			return fmt.Errorf("%w: %d arcs left after %d rounds",
				ErrTrimNotConverged, g.NArcs(), round)
		}
		round++
		before := g.NArcs()
		for _, pass := range trimPasses {
			if n := pass.run(g, &cfg); n > 0 {
				log.Debugf("Round %d: %s pass removed %d joins", round, pass.name, n)
			}
		}
		if g.NArcs() == before {
			break
		}
	}
	n := trimAmbiguous(g)
	log.Noticef("Graph trimmed in %d rounds, %d ambiguous joins resolved, %d arcs left",
		round, n, g.NArcs())
	return nil
}

// removeAll removes the arcs and returns how many joins were removed
func removeAll(g *Graph, arcs []int) int {
	n := 0
	for _, a := range arcs {
		if g.removeArc(a) {
			n++
		}
	}
	return n
}

// trimSimple drops arcs below the absolute floor or far below the best arc
// at either end. At an ambiguous node, where the second best arc comes close
// to the best, only a reciprocally best arc survives.
func trimSimple(g *Graph, cfg *TrimConfig) int {
	var drop []int
	for _, a := range g.liveArcs() {
		arc := &g.Arcs[a]
		best := math.Max(g.bestOut(arc.V), g.bestIn(arc.W))
		if arc.Weight < cfg.MinWeight || arc.Weight < cfg.BestFrac*best {
			drop = append(drop, a)
		}
	}
	for v := 0; v < g.NNodes(); v++ {
		out := g.Out(v)
		if len(out) < 2 {
			continue
		}
		if g.Arcs[out[1]].Weight < cfg.AmbiguityRatio*g.Arcs[out[0]].Weight {
			continue
		}
		for k, a := range out {
			if k == 0 && g.firstIn(g.Arcs[a].W) == a {
				continue
			}
			drop = append(drop, a)
		}
	}
	return removeAll(g, drop)
}

// trimTips drops a weak arc into a dead end when its source has a stronger
// arc that continues
func trimTips(g *Graph, cfg *TrimConfig) int {
	var drop []int
	for v := 0; v < g.NNodes(); v++ {
		out := g.Out(v)
		if len(out) < 2 {
			continue
		}
		for _, a := range out {
			w := g.Arcs[a].W
			if g.OutDegree(w) != 0 || g.InDegree(w) != 1 {
				continue
			}
			for _, b := range out {
				x := g.Arcs[b].W
				if b != a && x != w && g.Arcs[b].Weight > g.Arcs[a].Weight && g.OutDegree(x) > 0 {
					drop = append(drop, a)
					break
				}
			}
		}
	}
	return removeAll(g, drop)
}

// trimBlunts drops all weak arcs of a node that fans out into dead ends only
func trimBlunts(g *Graph, cfg *TrimConfig) int {
	var drop []int
	for v := 0; v < g.NNodes(); v++ {
		out := g.Out(v)
		if len(out) < 2 {
			continue
		}
		blunt := true
		for _, a := range out {
			if g.Arcs[a].Weight >= cfg.BluntWeight || g.OutDegree(g.Arcs[a].W) != 0 {
				blunt = false
				break
			}
		}
		if blunt {
			drop = append(drop, out...)
		}
	}
	return removeAll(g, drop)
}

// trimRepeats isolates the nodes connected to too many others
func trimRepeats(g *Graph, cfg *TrimConfig) int {
	var drop []int
	for v := 0; v < g.NNodes(); v++ {
		if g.OutDegree(v)+g.InDegree(v) > cfg.RepeatDegree {
			drop = append(drop, g.Out(v)...)
			drop = append(drop, g.In(v)...)
		}
	}
	return removeAll(g, drop)
}

// trimTransitive drops v -> x when v -> w -> x exists with both arcs
// stronger than v -> x
func trimTransitive(g *Graph, cfg *TrimConfig) int {
	var drop []int
	for v := 0; v < g.NNodes(); v++ {
		out := g.Out(v)
		if len(out) < 2 {
			continue
		}
		direct := make(map[int]int, len(out))
		for _, a := range out {
			direct[g.Arcs[a].W] = a
		}
		for _, a := range out {
			w := g.Arcs[a].W
			for _, b := range g.Out(w) {
				x := g.Arcs[b].W
				c, ok := direct[x]
				if !ok || c == a {
					continue
				}
				if math.Min(g.Arcs[a].Weight, g.Arcs[b].Weight) > g.Arcs[c].Weight {
					drop = append(drop, c)
				}
			}
		}
	}
	return removeAll(g, drop)
}

// bubblePath is a branch of a bubble
type bubblePath struct {
	arcs  []int
	nodes []int
	min   float64
	mean  float64
}

// better ranks bubble branches: stronger weakest arc, then stronger mean,
// then lower node ids
func (r *bubblePath) better(o *bubblePath) bool {
	if r.min != o.min {
		return r.min > o.min
	}
	if r.mean != o.mean {
		return r.mean > o.mean
	}
	for i := 0; i < len(r.nodes) && i < len(o.nodes); i++ {
		if r.nodes[i] != o.nodes[i] {
			return r.nodes[i] < o.nodes[i]
		}
	}
	return len(r.nodes) < len(o.nodes)
}

// enumeratePaths lists the simple paths of at most depth arcs from v, never
// visiting the sequence of v again
func enumeratePaths(g *Graph, v, depth int) []*bubblePath {
	var paths []*bubblePath
	var arcs, nodes []int
	seen := map[int]bool{v >> 1: true}
	var walk func(u int)
	walk = func(u int) {
		if len(arcs) == depth {
			return
		}
		for _, a := range g.Out(u) {
			w := g.Arcs[a].W
			if seen[w>>1] {
				continue
			}
			arcs = append(arcs, a)
			nodes = append(nodes, w)
			p := &bubblePath{
				arcs:  append([]int(nil), arcs...),
				nodes: append([]int(nil), nodes...),
				min:   math.Inf(1),
			}
			for _, b := range arcs {
				p.min = math.Min(p.min, g.Arcs[b].Weight)
				p.mean += g.Arcs[b].Weight
			}
			p.mean /= float64(len(arcs))
			paths = append(paths, p)

			seen[w>>1] = true
			walk(w)
			seen[w>>1] = false
			arcs = arcs[:len(arcs)-1]
			nodes = nodes[:len(nodes)-1]
		}
	}
	walk(v)
	return paths
}

// livePaths drops the branches broken by earlier removals
func livePaths(g *Graph, paths []*bubblePath) []*bubblePath {
	var live []*bubblePath
	for _, p := range paths {
		ok := true
		for _, a := range p.arcs {
			if !g.Live(a) {
				ok = false
				break
			}
		}
		if ok {
			live = append(live, p)
		}
	}
	return live
}

// trimBubbles finds alternative branches of at most BubbleDepth arcs
// between two nodes and keeps only the best branch
func trimBubbles(g *Graph, cfg *TrimConfig) int {
	n := 0
	for v := 0; v < g.NNodes(); v++ {
		if g.OutDegree(v) < 2 {
			continue
		}
		byEnd := make(map[int][]*bubblePath)
		var ends []int
		for _, p := range enumeratePaths(g, v, cfg.BubbleDepth) {
			t := p.nodes[len(p.nodes)-1]
			if _, ok := byEnd[t]; !ok {
				ends = append(ends, t)
			}
			byEnd[t] = append(byEnd[t], p)
		}
		sort.Ints(ends)
		// Arcs of branches kept for earlier ends
		keep := make(map[int]bool)
		for _, t := range ends {
			paths := livePaths(g, byEnd[t])
			if len(paths) < 2 {
				continue
			}
			best := paths[0]
			for _, p := range paths[1:] {
				if p.better(best) {
					best = p
				}
			}
			for _, a := range best.arcs {
				keep[a], keep[g.Arcs[a].Mate] = true, true
			}
			for _, p := range paths {
				if p == best {
					continue
				}
				for _, a := range p.arcs {
					if !keep[a] && g.removeArc(a) {
						n++
					}
				}
			}
		}
	}
	return n
}

// popUndirected keeps, for every pair of sequences, only the strongest of
// their joins
func popUndirected(g *Graph, cfg *TrimConfig) int {
	best := make(map[uint64]int)
	var drop []int
	for _, a := range g.liveArcs() {
		arc := &g.Arcs[a]
		// Each join once
		if arc.Mate < a {
			continue
		}
		s, t := arc.V>>1, arc.W>>1
		if s > t {
			s, t = t, s
		}
		key := pairKey(s, t)
		b, ok := best[key]
		if !ok {
			best[key] = a
			continue
		}
		if arc.Weight > g.Arcs[b].Weight {
			best[key] = a
			drop = append(drop, b)
		} else {
			drop = append(drop, a)
		}
	}
	return removeAll(g, drop)
}

// trimWeak drops arcs far weaker than the best alternative at either end
func trimWeak(g *Graph, cfg *TrimConfig) int {
	var drop []int
	for _, a := range g.liveArcs() {
		arc := &g.Arcs[a]
		if arc.Weight < cfg.WeakRatio*g.bestOut(arc.V) || arc.Weight < cfg.WeakRatio*g.bestIn(arc.W) {
			drop = append(drop, a)
		}
	}
	return removeAll(g, drop)
}

// trimSelfLoops drops joins of a sequence to itself
func trimSelfLoops(g *Graph, cfg *TrimConfig) int {
	var drop []int
	for _, a := range g.liveArcs() {
		if g.Arcs[a].V>>1 == g.Arcs[a].W>>1 {
			drop = append(drop, a)
		}
	}
	return removeAll(g, drop)
}

// trimAmbiguous commits arcs greedily from the strongest. An arc is kept
// when neither its source has a kept out-arc nor its target a kept in-arc.
func trimAmbiguous(g *Graph) int {
	arcs := g.liveArcs()
	sort.SliceStable(arcs, func(i, j int) bool {
		a, b := &g.Arcs[arcs[i]], &g.Arcs[arcs[j]]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.V != b.V {
			return a.V < b.V
		}
		return a.W < b.W
	})
	n := g.NNodes()
	hasOut, hasIn := make([]bool, n), make([]bool, n)
	committed := make([]bool, len(g.Arcs))
	removed := 0
	for _, a := range arcs {
		if committed[a] || !g.Live(a) {
			continue
		}
		arc := g.Arcs[a]
		if hasOut[arc.V] || hasIn[arc.W] {
			g.removeArc(a)
			removed++
			continue
		}
		committed[a], committed[arc.Mate] = true, true
		hasOut[arc.V], hasIn[arc.W] = true, true
		hasOut[arc.W^1], hasIn[arc.V^1] = true, true
	}
	return removed
}
