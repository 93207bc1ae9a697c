/*
 *  linkmat.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/16/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"errors"
)

// interLinkHeader approximates the fixed cost of one sparse inter-scaffold
// entry: map slot, pointer and slice headers
const interLinkHeader = 32

// LinkStats counts what happened to the pairs of a stream
type LinkStats struct {
	Total      int64 // pairs read
	Unmapped   int64 // at least one end not placed in the layout
	Short      int64 // intra pairs at or below the minimum separation
	Intra      int64 // intra pairs counted in the matrix
	Inter      int64 // inter pairs inside the end windows
	Background int64 // inter pairs outside the end windows
}

// locate converts both ends of a pair, false if either is not placed
func locate(layout *Layout, p LinkPair) (Locus, Locus, bool) {
	a, err := layout.Coord(int(p.Seq0), int(p.Pos0))
	if err != nil {
		return a, a, false
	}
	b, err := layout.Coord(int(p.Seq1), int(p.Pos1))
	if err != nil {
		return a, b, false
	}
	return a, b, true
}

// nBins returns the number of bins of a scaffold at a resolution
func nBins(length, resolution int) int {
	return (length + resolution - 1) / resolution
}

// IntraMatrix holds the binned contacts within each scaffold as upper
// triangles
type IntraMatrix struct {
	Resolution int
	Layout     *Layout
	Stats      LinkStats
	bins       []int
	cells      [][]uint32
}

// EstimateIntraMemory returns the bytes needed by an IntraMatrix
func EstimateIntraMemory(layout *Layout, resolution int) int64 {
	total := int64(0)
	for i := range layout.Scaffolds {
		n := int64(nBins(layout.Scaffolds[i].Length(), resolution))
		total += n * (n + 1) / 2 * 4
	}
	return total
}

// NewIntraMatrix allocates an empty matrix
func NewIntraMatrix(layout *Layout, resolution int) *IntraMatrix {
	r := &IntraMatrix{
		Resolution: resolution,
		Layout:     layout,
		bins:       make([]int, layout.Len()),
		cells:      make([][]uint32, layout.Len()),
	}
	for i := range layout.Scaffolds {
		n := nBins(layout.Scaffolds[i].Length(), resolution)
		r.bins[i] = n
		r.cells[i] = make([]uint32, n*(n+1)/2)
	}
	return r
}

// triIndex is the offset of cell (i, j), i <= j, in a packed upper triangle
func triIndex(n, i, j int) int {
	return i*n - i*(i-1)/2 + j - i
}

// Bins returns the number of bins of scaffold s
func (r *IntraMatrix) Bins(s int) int {
	return r.bins[s]
}

// At returns the count of cell (i, j) of scaffold s
func (r *IntraMatrix) At(s, i, j int) uint32 {
	if i > j {
		i, j = j, i
	}
	return r.cells[s][triIndex(r.bins[s], i, j)]
}

// Add records a pair
func (r *IntraMatrix) Add(p LinkPair, minDist int) {
	r.Stats.Total++
	a, b, ok := locate(r.Layout, p)
	if !ok {
		r.Stats.Unmapped++
		return
	}
	if a.Scaffold != b.Scaffold {
		return
	}
	if abs(a.Pos-b.Pos) <= minDist {
		r.Stats.Short++
		return
	}
	i, j := a.Pos/r.Resolution, b.Pos/r.Resolution
	if i > j {
		i, j = j, i
	}
	r.cells[a.Scaffold][triIndex(r.bins[a.Scaffold], i, j)]++
	r.Stats.Intra++
}

// BandSums returns, for every bin distance d below maxBands, the total count
// on diagonal d and the number of cells on it
func (r *IntraMatrix) BandSums(maxBands int) ([]float64, []int64) {
	counts := make([]float64, maxBands)
	cells := make([]int64, maxBands)
	for s, n := range r.bins {
		for d := 0; d < n && d < maxBands; d++ {
			cells[d] += int64(n - d)
			for i := 0; i+d < n; i++ {
				counts[d] += float64(r.cells[s][triIndex(n, i, i+d)])
			}
		}
	}
	return counts, cells
}

// BuildIntraMatrix bins the intra-scaffold pairs of src
func BuildIntraMatrix(src LinkSource, layout *Layout, resolution, minDist int) (*IntraMatrix, error) {
	r := NewIntraMatrix(layout, resolution)
	if err := ForEachLink(src, func(p LinkPair) {
		r.Add(p, minDist)
	}); err != nil {
		return nil, err
	}
	log.Noticef("Intra links: %s counted, %d short, %d unmapped",
		Percentage(r.Stats.Intra, r.Stats.Total), r.Stats.Short, r.Stats.Unmapped)
	return r, nil
}

// Scaffold end configurations. The high bit is set when the first scaffold
// joins through its head, the low bit when the second joins through its tail.
const (
	TailHead = iota
	TailTail
	HeadHead
	HeadTail
	NConfigs
)

// InterLink holds the evidence between two scaffolds a < b
type InterLink struct {
	N0   uint32             // pairs inside the end windows, all configurations
	Hist [NConfigs][]uint32 // counts by bin distance d = da + db + 1, index d-1
}

// Observed returns the pair count of a configuration
func (r *InterLink) Observed(c int) int64 {
	total := int64(0)
	for _, x := range r.Hist[c] {
		total += int64(x)
	}
	return total
}

// InterMatrix holds the contacts near the ends of scaffold pairs
type InterMatrix struct {
	Resolution int
	Layout     *Layout
	Stats      LinkStats
	windows    []int
	bins       []int
	links      map[uint64]*InterLink
}

// interWindow is the number of bins taken from each end of a scaffold
func interWindow(n, bands int) int {
	return min((n+1)/2, bands)
}

// EstimateInterMemory returns the bytes needed by an InterMatrix in the worst
// case, every pair of scaffolds holding evidence
func EstimateInterMemory(layout *Layout, resolution, bands int) int64 {
	n := int64(layout.Len())
	if n < 2 {
		return 0
	}
	sumw := int64(0)
	for i := range layout.Scaffolds {
		sumw += int64(interWindow(nBins(layout.Scaffolds[i].Length(), resolution), bands))
	}
	return n*(n-1)/2*interLinkHeader + 4*NConfigs*(n-1)*sumw
}

// NewInterMatrix allocates an empty matrix
func NewInterMatrix(layout *Layout, resolution, bands int) *InterMatrix {
	r := &InterMatrix{
		Resolution: resolution,
		Layout:     layout,
		windows:    make([]int, layout.Len()),
		bins:       make([]int, layout.Len()),
		links:      make(map[uint64]*InterLink),
	}
	for i := range layout.Scaffolds {
		r.bins[i] = nBins(layout.Scaffolds[i].Length(), resolution)
		r.windows[i] = interWindow(r.bins[i], bands)
	}
	return r
}

func pairKey(a, b int) uint64 {
	return uint64(a)<<32 | uint64(b)
}

// Window returns the end window of scaffold s, in bins
func (r *InterMatrix) Window(s int) int {
	return r.windows[s]
}

// Link returns the evidence between scaffolds a < b, nil if none
func (r *InterMatrix) Link(a, b int) *InterLink {
	return r.links[pairKey(a, b)]
}

// ForEach visits the pairs with evidence in (a, b) order
func (r *InterMatrix) ForEach(fn func(a, b int, link *InterLink)) {
	for a := 0; a < r.Layout.Len(); a++ {
		for b := a + 1; b < r.Layout.Len(); b++ {
			if link, ok := r.links[pairKey(a, b)]; ok {
				fn(a, b, link)
			}
		}
	}
}

// Len returns the number of scaffold pairs with evidence
func (r *InterMatrix) Len() int {
	return len(r.links)
}

// nearestEnd returns whether the bin is closer to the head and its distance
// in bins from that end. Ties go to the head.
func nearestEnd(bin, n int) (bool, int) {
	tail := n - 1 - bin
	if tail < bin {
		return false, tail
	}
	return true, bin
}

// Add records a pair
func (r *InterMatrix) Add(p LinkPair) {
	r.Stats.Total++
	a, b, ok := locate(r.Layout, p)
	if !ok {
		r.Stats.Unmapped++
		return
	}
	if a.Scaffold == b.Scaffold {
		return
	}
	if a.Scaffold > b.Scaffold {
		a, b = b, a
	}
	aHead, da := nearestEnd(a.Pos/r.Resolution, r.bins[a.Scaffold])
	bHead, db := nearestEnd(b.Pos/r.Resolution, r.bins[b.Scaffold])
	wa, wb := r.windows[a.Scaffold], r.windows[b.Scaffold]
	if da >= wa || db >= wb {
		r.Stats.Background++
		return
	}
	c := 0
	if aHead {
		c |= 2
	}
	if !bHead {
		c |= 1
	}
	key := pairKey(a.Scaffold, b.Scaffold)
	link, ok := r.links[key]
	if !ok {
		link = new(InterLink)
		for k := range link.Hist {
			link.Hist[k] = make([]uint32, wa+wb-1)
		}
		r.links[key] = link
	}
	link.N0++
	link.Hist[c][da+db]++
	r.Stats.Inter++
}

// windowSpan is the number of bp covered by the two end windows of s
func (r *InterMatrix) windowSpan(s int) int64 {
	length := int64(r.Layout.Scaffolds[s].Length())
	span := int64(2 * r.windows[s] * r.Resolution)
	if span > length {
		return length
	}
	return span
}

// NoiseDensity returns the background pairs per bp^2 of inter-scaffold area
// outside the end windows
func (r *InterMatrix) NoiseDensity() float64 {
	var sumL, sumL2, sumW, sumW2 float64
	for s := range r.Layout.Scaffolds {
		l := float64(r.Layout.Scaffolds[s].Length())
		w := float64(r.windowSpan(s))
		sumL += l
		sumL2 += l * l
		sumW += w
		sumW2 += w * w
	}
	area := (sumL*sumL-sumL2)/2 - (sumW*sumW-sumW2)/2
	if area <= 0 {
		return 0
	}
	return float64(r.Stats.Background) / area
}

// BuildInterMatrix bins the pairs near the scaffold ends
func BuildInterMatrix(src LinkSource, layout *Layout, resolution, bands int) (*InterMatrix, error) {
	if bands <= 0 {
		return nil, errors.New("inter matrix needs at least one band")
	}
	r := NewInterMatrix(layout, resolution, bands)
	if err := ForEachLink(src, r.Add); err != nil {
		return nil, err
	}
	log.Noticef("Inter links: %s in end windows, %d background, %d unmapped; %d scaffold pairs",
		Percentage(r.Stats.Inter, r.Stats.Total), r.Stats.Background, r.Stats.Unmapped, r.Len())
	return r, nil
}
