/*
 *  layout.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/16/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"fmt"
	"sort"
)

// Component is a piece of a sequence placed in a scaffold
type Component struct {
	Seq     int  // id in the SeqDict
	Start   int  // 0-based offset of the piece within the sequence
	Length  int  // length of the piece
	Reverse bool // placed reverse-complemented
	Gap     int  // number of Ns after this piece, 0 for the last one
}

// cut splits the component k bp into its scaffold orientation, 0 < k < Length
func (r Component) cut(k int) (Component, Component) {
	left, right := r, r
	left.Length, right.Length = k, r.Length-k
	left.Gap = 0
	if r.Reverse {
		left.Start = r.Start + r.Length - k
	} else {
		right.Start = r.Start + k
	}
	return left, right
}

// flip returns the component as seen from the other strand
func (r Component) flip() Component {
	r.Reverse = !r.Reverse
	return r
}

// Scaffold is an ordered, oriented list of components
type Scaffold struct {
	Name  string
	Parts []Component
}

// Length returns the scaffold length including gaps
func (r *Scaffold) Length() int {
	length := 0
	for _, p := range r.Parts {
		length += p.Length + p.Gap
	}
	return length
}

// reversed returns the scaffold read from the other end
func (r *Scaffold) reversed() []Component {
	n := len(r.Parts)
	parts := make([]Component, n)
	for i, p := range r.Parts {
		q := p.flip()
		// The gap after a part moves to the part before it
		if i > 0 {
			q.Gap = r.Parts[i-1].Gap
		} else {
			q.Gap = 0
		}
		parts[n-1-i] = q
	}
	return parts
}

// Locus is a position within a scaffold of the layout
type Locus struct {
	Scaffold int
	Pos      int
}

// segment maps a range of a sequence to a scaffold offset
type segment struct {
	start, end int
	scaffold   int
	offset     int
	reverse    bool
}

// Layout is the assembly: how sequences are placed in scaffolds. It is
// read-only once built; Join and Split return new layouts.
type Layout struct {
	Dict      *SeqDict
	Scaffolds []Scaffold
	segs      [][]segment // per sequence, sorted by start
}

// NewLayout indexes the scaffolds for coordinate conversion
func NewLayout(dict *SeqDict, scaffolds []Scaffold) (*Layout, error) {
	r := &Layout{
		Dict:      dict,
		Scaffolds: scaffolds,
		segs:      make([][]segment, dict.Len()),
	}
	for si := range scaffolds {
		s := &scaffolds[si]
		offset := 0
		for _, p := range s.Parts {
			if p.Seq < 0 || p.Seq >= dict.Len() {
				return nil, fmt.Errorf("%w: scaffold `%s` refers to unknown sequence %d",
					ErrMalformedInput, s.Name, p.Seq)
			}
			seq := dict.Seq(p.Seq)
			if p.Length <= 0 || p.Start < 0 || p.Start+p.Length > seq.Length {
				return nil, fmt.Errorf("%w: component %s:%d-%d out of range (length %d)",
					ErrMalformedInput, seq.Name, p.Start+1, p.Start+p.Length, seq.Length)
			}
			r.segs[p.Seq] = append(r.segs[p.Seq], segment{
				start:    p.Start,
				end:      p.Start + p.Length,
				scaffold: si,
				offset:   offset,
				reverse:  p.Reverse,
			})
			offset += p.Length + p.Gap
		}
	}
	for i, segs := range r.segs {
		sort.Slice(segs, func(a, b int) bool { return segs[a].start < segs[b].start })
		for k := 1; k < len(segs); k++ {
			if segs[k].start < segs[k-1].end {
				return nil, fmt.Errorf("%w: overlapping components on `%s`",
					ErrMalformedInput, dict.Seq(i).Name)
			}
		}
	}
	return r, nil
}

// NewLayoutFromDict places every sequence that is not short in its own
// scaffold
func NewLayoutFromDict(dict *SeqDict) *Layout {
	scaffolds := make([]Scaffold, 0, dict.Len())
	for i := 0; i < dict.Len(); i++ {
		if dict.IsShort(i) {
			continue
		}
		seq := dict.Seq(i)
		scaffolds = append(scaffolds, Scaffold{
			Name:  seq.Name,
			Parts: []Component{{Seq: i, Length: seq.Length}},
		})
	}
	r, _ := NewLayout(dict, scaffolds)
	return r
}

// Len returns the number of scaffolds
func (r *Layout) Len() int {
	return len(r.Scaffolds)
}

// Lengths returns the scaffold lengths, gaps included
func (r *Layout) Lengths() []int64 {
	lengths := make([]int64, len(r.Scaffolds))
	for i := range r.Scaffolds {
		lengths[i] = int64(r.Scaffolds[i].Length())
	}
	return lengths
}

// Stats returns the Nx statistics of the scaffolds
func (r *Layout) Stats() AsmStats {
	return NewAsmStats(r.Lengths())
}

// Coord converts a position on a sequence into a position on its scaffold.
// It accounts for orientation and gaps, and returns ErrUnmappedSequence when
// the sequence or the position is not placed in the layout.
func (r *Layout) Coord(seq, pos int) (Locus, error) {
	if seq < 0 || seq >= len(r.segs) {
		return Locus{}, ErrUnmappedSequence
	}
	segs := r.segs[seq]
	k := sort.Search(len(segs), func(i int) bool { return segs[i].end > pos })
	if k == len(segs) || pos < segs[k].start {
		return Locus{}, ErrUnmappedSequence
	}
	s := segs[k]
	if s.reverse {
		return Locus{s.scaffold, s.offset + s.end - 1 - pos}, nil
	}
	return Locus{s.scaffold, s.offset + pos - s.start}, nil
}

// Oriented is a scaffold of the current layout with its orientation in a path
type Oriented struct {
	Seq     int
	Reverse bool
}

// Path is an ordered list of oriented scaffolds
type Path []Oriented

// Join concatenates the scaffolds along each path, gap Ns in between. Every
// scaffold must appear in exactly one path.
func (r *Layout) Join(paths []Path, gap int) (*Layout, error) {
	used := make([]bool, len(r.Scaffolds))
	scaffolds := make([]Scaffold, 0, len(paths))
	for _, path := range paths {
		var parts []Component
		for _, o := range path {
			if o.Seq < 0 || o.Seq >= len(r.Scaffolds) || used[o.Seq] {
				return nil, fmt.Errorf("scaffold %d missing or used twice in paths", o.Seq)
			}
			used[o.Seq] = true
			if len(parts) > 0 {
				parts[len(parts)-1].Gap = gap
			}
			s := &r.Scaffolds[o.Seq]
			if o.Reverse {
				parts = append(parts, s.reversed()...)
			} else {
				parts = append(parts, s.Parts...)
			}
		}
		if len(parts) == 0 {
			continue
		}
		scaffolds = append(scaffolds, Scaffold{Parts: parts})
	}
	for i, u := range used {
		if !u {
			return nil, fmt.Errorf("scaffold `%s` not in any path", r.Scaffolds[i].Name)
		}
	}
	renumber(scaffolds)
	return NewLayout(r.Dict, scaffolds)
}

// BreakPoint is a position within a scaffold where it should be broken
type BreakPoint struct {
	Scaffold int
	Pos      int
	Fold     float64 // coverage fold change at the break
}

// Split breaks the scaffolds at the given positions. A position inside a
// component cuts the sequence, a position on a gap or a boundary separates
// the components and drops the gap.
func (r *Layout) Split(breaks []BreakPoint) (*Layout, error) {
	if len(breaks) == 0 {
		return r, nil
	}
	cuts := make(map[int][]int)
	for _, bp := range breaks {
		if bp.Scaffold < 0 || bp.Scaffold >= len(r.Scaffolds) {
			return nil, fmt.Errorf("break point on unknown scaffold %d", bp.Scaffold)
		}
		cuts[bp.Scaffold] = append(cuts[bp.Scaffold], bp.Pos)
	}
	var scaffolds []Scaffold
	for i := range r.Scaffolds {
		c, ok := cuts[i]
		if !ok {
			scaffolds = append(scaffolds, r.Scaffolds[i])
			continue
		}
		sort.Ints(c)
		scaffolds = append(scaffolds, splitScaffold(&r.Scaffolds[i], c)...)
	}
	renumber(scaffolds)
	return NewLayout(r.Dict, scaffolds)
}

// splitScaffold cuts one scaffold at the sorted positions
func splitScaffold(s *Scaffold, cuts []int) []Scaffold {
	var pieces []Scaffold
	var cur []Component
	flush := func() {
		if len(cur) == 0 {
			return
		}
		cur[len(cur)-1].Gap = 0
		pieces = append(pieces, Scaffold{Name: s.Name, Parts: cur})
		cur = nil
	}

	off, ci := 0, 0
	for _, p := range s.Parts {
		for {
			// A cut at or before the start of the part closes the current piece
			for ci < len(cuts) && cuts[ci] <= off {
				flush()
				ci++
			}
			if ci < len(cuts) && cuts[ci] < off+p.Length {
				left, right := p.cut(cuts[ci] - off)
				cur = append(cur, left)
				flush()
				off = cuts[ci]
				p = right
				ci++
				continue
			}
			break
		}
		cur = append(cur, p)
		off += p.Length + p.Gap
	}
	flush()
	return pieces
}

// renumber names scaffolds in their current order
func renumber(scaffolds []Scaffold) {
	for i := range scaffolds {
		scaffolds[i].Name = fmt.Sprintf("scaffold_%d", i+1)
	}
}

// firstName is the name of the first sequence of a scaffold, used to break ties
func (r *Layout) firstName(s *Scaffold) string {
	if len(s.Parts) == 0 {
		return ""
	}
	return r.Dict.Seq(s.Parts[0].Seq).Name
}

// Sorted returns a copy of the layout with scaffolds sorted by length
// descending, then by the name of their first sequence, renamed in order
func (r *Layout) Sorted() *Layout {
	scaffolds := make([]Scaffold, len(r.Scaffolds))
	copy(scaffolds, r.Scaffolds)
	sort.SliceStable(scaffolds, func(i, j int) bool {
		li, lj := scaffolds[i].Length(), scaffolds[j].Length()
		if li != lj {
			return li > lj
		}
		return r.firstName(&scaffolds[i]) < r.firstName(&scaffolds[j])
	})
	renumber(scaffolds)
	sorted, _ := NewLayout(r.Dict, scaffolds)
	return sorted
}

// Placed tells whether any part of sequence id is in the layout
func (r *Layout) Placed(id int) bool {
	return id >= 0 && id < len(r.segs) && len(r.segs[id]) > 0
}

// WithUnplaced adds the given sequences as singleton scaffolds
func (r *Layout) WithUnplaced(ids []int) (*Layout, error) {
	scaffolds := make([]Scaffold, 0, len(r.Scaffolds)+len(ids))
	scaffolds = append(scaffolds, r.Scaffolds...)
	for _, id := range ids {
		if id < 0 || id >= r.Dict.Len() {
			return nil, fmt.Errorf("%w: unknown sequence %d", ErrMalformedInput, id)
		}
		if r.Placed(id) {
			return nil, fmt.Errorf("%w: sequence `%s` is already placed", ErrMalformedInput, r.Dict.Seq(id).Name)
		}
		seq := r.Dict.Seq(id)
		scaffolds = append(scaffolds, Scaffold{
			Name:  seq.Name,
			Parts: []Component{{Seq: id, Length: seq.Length}},
		})
	}
	return NewLayout(r.Dict, scaffolds)
}
