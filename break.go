/*
 * Filename: /Users/bao/code/hicscaf/break.go
 * Path: /Users/bao/code/hicscaf
 * Created Date: Saturday, October 17th 2026, 2:31:44 pm
 * Author: bao
 *
 * Copyright (c) 2026 Haibao Tang
 */

package hicscaf

import (
	"math"
	"sort"
)

// LinkProfile is the spanning coverage along every scaffold: the number of
// intra pairs, separated by at most MaxDist, whose two ends lie on either
// side of a bin
type LinkProfile struct {
	Bin     int
	MaxDist int
	Layout  *Layout
	cov     [][]float64
}

// BuildLinkProfile accumulates the spanning coverage of src on the layout.
// The expected contribution of background noise, noise * maxDist^2 / 2 pairs
// over any position, is subtracted.
func BuildLinkProfile(src LinkSource, layout *Layout, bin, maxDist int, noise float64) (*LinkProfile, error) {
	r := &LinkProfile{
		Bin:     bin,
		MaxDist: maxDist,
		Layout:  layout,
		cov:     make([][]float64, layout.Len()),
	}
	diff := make([][]int32, layout.Len())
	for s := range layout.Scaffolds {
		diff[s] = make([]int32, nBins(layout.Scaffolds[s].Length(), bin)+1)
	}
	err := ForEachLink(src, func(p LinkPair) {
		a, b, ok := locate(layout, p)
		if !ok || a.Scaffold != b.Scaffold {
			return
		}
		lo, hi := a.Pos, b.Pos
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi-lo > maxDist {
			return
		}
		d := diff[a.Scaffold]
		d[lo/bin]++
		d[hi/bin+1]--
	})
	if err != nil {
		return nil, err
	}

	background := noise * float64(maxDist) * float64(maxDist) / 2
	for s, d := range diff {
		n := len(d) - 1
		cov := make([]float64, n)
		running := int32(0)
		for i := 0; i < n; i++ {
			running += d[i]
			cov[i] = float64(running) - background
			if cov[i] < 0 {
				cov[i] = 0
			}
		}
		r.cov[s] = cov
	}
	return r, nil
}

// Coverage returns the spanning coverage of scaffold s by bin
func (r *LinkProfile) Coverage(s int) []float64 {
	return r.cov[s]
}

// EstimateDistThreshold returns the separation below which frac of the
// intra-scaffold pairs fall, rounded up to res and at least minWindow
func EstimateDistThreshold(src LinkSource, layout *Layout, frac float64, res, minWindow int) (int, error) {
	hist := make(map[int]int64)
	total := int64(0)
	err := ForEachLink(src, func(p LinkPair) {
		a, b, ok := locate(layout, p)
		if !ok || a.Scaffold != b.Scaffold {
			return
		}
		hist[abs(a.Pos-b.Pos)/res]++
		total++
	})
	if err != nil {
		return 0, err
	}
	keys := make([]int, 0, len(hist))
	for k := range hist {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	threshold := minWindow
	cumsum := int64(0)
	for _, k := range keys {
		cumsum += hist[k]
		if float64(cumsum) >= frac*float64(total) {
			threshold = max(threshold, (k+1)*res)
			break
		}
	}
	log.Noticef("Link distance threshold = %d (%.0f%% of %d intra pairs)", threshold, frac*100, total)
	return threshold, nil
}

// localMean returns, for each bin, the mean coverage of the bins within
// radius, restricted to [lo, hi)
func localMean(cov []float64, lo, hi, radius int) []float64 {
	prefix := make([]float64, len(cov)+1)
	for i, c := range cov {
		prefix[i+1] = prefix[i] + c
	}
	mean := make([]float64, len(cov))
	for i := lo; i < hi; i++ {
		a, b := max(lo, i-radius), min(hi, i+radius+1)
		mean[i] = (prefix[b] - prefix[a]) / float64(b-a)
	}
	return mean
}

// DetectBreakPoints finds the regions where the spanning coverage drops
// below fold times the local mean. Bins closer to a scaffold end than the
// link distance are ignored, runs closer than mergeThresh are merged, runs
// shorter than minRun are dropped, and a break is placed at the lowest bin
// of every remaining run.
func DetectBreakPoints(profile *LinkProfile, fold float64, mergeThresh, minRun int) []BreakPoint {
	var breaks []BreakPoint
	bin := profile.Bin
	edge := (profile.MaxDist + bin - 1) / bin
	gapBins := mergeThresh / bin
	for s, cov := range profile.cov {
		lo, hi := edge, len(cov)-edge
		if hi-lo < 1 {
			continue
		}
		mean := localMean(cov, lo, hi, edge)

		runStart, runEnd := -1, -1
		flush := func() {
			if runStart < 0 {
				return
			}
			if (runEnd-runStart+1)*bin < minRun {
				runStart, runEnd = -1, -1
				return
			}
			k := runStart
			for i := runStart; i <= runEnd; i++ {
				if cov[i] < cov[k] {
					k = i
				}
			}
			breaks = append(breaks, BreakPoint{
				Scaffold: s,
				Pos:      k*bin + bin/2,
				Fold:     cov[k] / mean[k],
			})
			runStart, runEnd = -1, -1
		}
		for i := lo; i < hi; i++ {
			if mean[i] <= 0 || cov[i] >= fold*mean[i] {
				continue
			}
			if runStart >= 0 && i-runEnd > gapBins+1 {
				flush()
			}
			if runStart < 0 {
				runStart = i
			}
			runEnd = i
		}
		flush()
	}
	return breaks
}

// ContigErrorBreak breaks the layout at coverage drops until none is left.
// It returns the new layout, the total number of breaks and the number of
// rounds that broke something.
func ContigErrorBreak(src LinkSource, layout *Layout, cfg BreakConfig) (*Layout, int, int, error) {
	maxDist, err := EstimateDistThreshold(src, layout, cfg.MinFrac, cfg.Resolution, cfg.MinWindow)
	if err != nil {
		return nil, 0, 0, err
	}
	total, rounds := 0, 0
	for {
		profile, err := BuildLinkProfile(src, layout, cfg.Bin, maxDist, 0)
		if err != nil {
			return nil, 0, 0, err
		}
		breaks := DetectBreakPoints(profile, cfg.FoldThresh, cfg.MergeThresh, cfg.MinRun)
		if len(breaks) == 0 {
			break
		}
		for _, bp := range breaks {
			log.Debugf("Break %s at %d (fold %.3f)", layout.Scaffolds[bp.Scaffold].Name, bp.Pos, bp.Fold)
		}
		if layout, err = layout.Split(breaks); err != nil {
			return nil, 0, 0, err
		}
		total += len(breaks)
		rounds++
		log.Noticef("Contig error break round %d: %d breaks", rounds, len(breaks))
	}
	return layout, total, rounds, nil
}

// junction is the gap between two parts that the last round joined
type junction struct {
	scaffold int
	pos      int // first gap position
	gap      int
}

// newJunctions lists the junctions of layout whose two sides belong to
// different scaffolds of prev
func newJunctions(layout, prev *Layout) []junction {
	var junctions []junction
	for s := range layout.Scaffolds {
		parts := layout.Scaffolds[s].Parts
		offset := 0
		for i := 0; i+1 < len(parts); i++ {
			offset += parts[i].Length
			a, erra := prev.Coord(parts[i].Seq, parts[i].Start)
			b, errb := prev.Coord(parts[i+1].Seq, parts[i+1].Start)
			if erra == nil && errb == nil && a.Scaffold != b.Scaffold {
				junctions = append(junctions, junction{s, offset, parts[i].Gap})
			}
			offset += parts[i].Gap
		}
	}
	return junctions
}

// spans tells whether a pair [lo, hi] reaches over the interval [from, to)
func spans(lo, hi, from, to int) bool {
	return lo < from && hi >= to
}

// ScaffoldErrorBreak checks the joins made by the last round. The pairs of
// at most 2 * flank that span a junction are compared with those spanning
// the points flank away on either side; a junction below fold times that
// reference is broken, and two weak junctions close to each other have the
// region between them cut out.
func ScaffoldErrorBreak(src LinkSource, layout, prev *Layout, flank int, noise float64, cfg BreakConfig) (*Layout, int, error) {
	junctions := newJunctions(layout, prev)
	if len(junctions) == 0 {
		return layout, 0, nil
	}
	byScaffold := make(map[int][]int)
	for k, j := range junctions {
		byScaffold[j.scaffold] = append(byScaffold[j.scaffold], k)
	}

	maxDist := 2 * flank
	at := make([]float64, len(junctions))
	left := make([]float64, len(junctions))
	right := make([]float64, len(junctions))
	err := ForEachLink(src, func(p LinkPair) {
		a, b, ok := locate(layout, p)
		if !ok || a.Scaffold != b.Scaffold {
			return
		}
		lo, hi := a.Pos, b.Pos
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi-lo > maxDist {
			return
		}
		ks := byScaffold[a.Scaffold]
		// Junctions are sorted by position within a scaffold
		first := sort.Search(len(ks), func(i int) bool {
			j := junctions[ks[i]]
			return j.pos+j.gap+flank >= lo
		})
		for _, k := range ks[first:] {
			j := junctions[k]
			if j.pos-flank > hi {
				break
			}
			if spans(lo, hi, j.pos, j.pos+j.gap) {
				at[k]++
			}
			if spans(lo, hi, j.pos-flank, j.pos-flank) {
				left[k]++
			}
			if spans(lo, hi, j.pos+j.gap+flank, j.pos+j.gap+flank) {
				right[k]++
			}
		}
	})
	if err != nil {
		return nil, 0, err
	}

	background := noise * float64(maxDist) * float64(maxDist) / 2
	var breaks, weak []BreakPoint
	for k, j := range junctions {
		length := layout.Scaffolds[j.scaffold].Length()
		var refs []float64
		if j.pos-flank > 0 {
			refs = append(refs, math.Max(0, left[k]-background))
		}
		if j.pos+j.gap+flank < length {
			refs = append(refs, math.Max(0, right[k]-background))
		}
		ref := 0.
		for _, x := range refs {
			ref += x / float64(len(refs))
		}
		if ref <= 0 {
			continue
		}
		bp := BreakPoint{Scaffold: j.scaffold, Pos: j.pos, Fold: math.Max(0, at[k]-background) / ref}
		if bp.Fold < cfg.FoldThresh {
			breaks = append(breaks, bp)
		} else if bp.Fold < cfg.DualFold {
			weak = append(weak, bp)
		}
	}

	// Pairs of weak junctions excise the interstitial region
	for i := 0; i+1 < len(weak); i++ {
		a, b := weak[i], weak[i+1]
		if a.Scaffold == b.Scaffold && b.Pos-a.Pos <= cfg.DualBreakThresh {
			breaks = append(breaks, a, b)
			i++
		}
	}
	if len(breaks) == 0 {
		return layout, 0, nil
	}
	broken, err := layout.Split(breaks)
	if err != nil {
		return nil, 0, err
	}
	log.Noticef("Scaffold error break: %d of %d new junctions broken", len(breaks), len(junctions))
	return broken, len(breaks), nil
}
