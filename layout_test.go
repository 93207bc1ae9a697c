/*
 *  layout_test.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/hicscaf"
)

func TestCoordSingleSequence(t *testing.T) {
	dict := newDict(t, hicscaf.Sequence{Name: "A", Length: 5000})
	layout := hicscaf.NewLayoutFromDict(dict)
	for p := 0; p < 5000; p += 7 {
		locus, err := layout.Coord(0, p)
		require.NoError(t, err)
		assert.Equal(t, hicscaf.Locus{Scaffold: 0, Pos: p}, locus)
	}
}

func TestCoordGapShift(t *testing.T) {
	const k, gap = 1234, 200
	dict := newDict(t, hicscaf.Sequence{Name: "A", Length: 5000})
	layout, err := hicscaf.NewLayout(dict, []hicscaf.Scaffold{{
		Name: "s1",
		Parts: []hicscaf.Component{
			{Seq: 0, Start: 0, Length: k + 1, Gap: gap},
			{Seq: 0, Start: k + 1, Length: 5000 - k - 1},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, 5000+gap, layout.Scaffolds[0].Length())
	for p := 0; p < 5000; p++ {
		locus, err := layout.Coord(0, p)
		require.NoError(t, err)
		want := p
		if p > k {
			want += gap
		}
		require.Equal(t, want, locus.Pos, "position %d", p)
	}
}

func TestCoordReverseAndUnmapped(t *testing.T) {
	dict := newDict(t,
		hicscaf.Sequence{Name: "A", Length: 1000},
		hicscaf.Sequence{Name: "B", Length: 500},
		hicscaf.Sequence{Name: "C", Length: 300})
	layout, err := hicscaf.NewLayout(dict, []hicscaf.Scaffold{{
		Name: "s1",
		Parts: []hicscaf.Component{
			{Seq: 0, Length: 1000, Gap: 200},
			{Seq: 1, Length: 500, Reverse: true},
		},
	}})
	require.NoError(t, err)

	locus, err := layout.Coord(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1699, locus.Pos)
	locus, err = layout.Coord(1, 499)
	require.NoError(t, err)
	assert.Equal(t, 1200, locus.Pos)

	_, err = layout.Coord(2, 10)
	assert.ErrorIs(t, err, hicscaf.ErrUnmappedSequence)
	_, err = layout.Coord(0, 1000)
	assert.ErrorIs(t, err, hicscaf.ErrUnmappedSequence)
	_, err = layout.Coord(7, 0)
	assert.ErrorIs(t, err, hicscaf.ErrUnmappedSequence)
}

func TestNewLayoutRejectsOverlap(t *testing.T) {
	dict := newDict(t, hicscaf.Sequence{Name: "A", Length: 1000})
	_, err := hicscaf.NewLayout(dict, []hicscaf.Scaffold{
		{Name: "s1", Parts: []hicscaf.Component{{Seq: 0, Start: 0, Length: 600}}},
		{Name: "s2", Parts: []hicscaf.Component{{Seq: 0, Start: 500, Length: 500}}},
	})
	assert.ErrorIs(t, err, hicscaf.ErrMalformedInput)
}

func TestJoinFlipsReversedScaffolds(t *testing.T) {
	dict := newDict(t,
		hicscaf.Sequence{Name: "A", Length: 1000},
		hicscaf.Sequence{Name: "B", Length: 500})
	layout := hicscaf.NewLayoutFromDict(dict)

	joined, err := layout.Join([]hicscaf.Path{{{Seq: 0}, {Seq: 1, Reverse: true}}}, 200)
	require.NoError(t, err)
	require.Equal(t, 1, joined.Len())
	assert.Equal(t, []hicscaf.Component{
		{Seq: 0, Length: 1000, Gap: 200},
		{Seq: 1, Length: 500, Reverse: true},
	}, joined.Scaffolds[0].Parts)

	flipped, err := joined.Join([]hicscaf.Path{{{Seq: 0, Reverse: true}}}, 200)
	require.NoError(t, err)
	assert.Equal(t, []hicscaf.Component{
		{Seq: 1, Length: 500, Gap: 200},
		{Seq: 0, Length: 1000, Reverse: true},
	}, flipped.Scaffolds[0].Parts)
	assert.Equal(t, 1700, flipped.Scaffolds[0].Length())

	_, err = layout.Join([]hicscaf.Path{{{Seq: 0}}}, 200)
	assert.Error(t, err)
}

func TestSplitInsideComponent(t *testing.T) {
	dict := newDict(t, hicscaf.Sequence{Name: "A", Length: 1000})
	layout, err := hicscaf.NewLayout(dict, []hicscaf.Scaffold{{
		Name:  "s1",
		Parts: []hicscaf.Component{{Seq: 0, Length: 1000, Reverse: true}},
	}})
	require.NoError(t, err)

	split, err := layout.Split([]hicscaf.BreakPoint{{Scaffold: 0, Pos: 400}})
	require.NoError(t, err)
	require.Equal(t, 2, split.Len())
	assert.Equal(t, hicscaf.Component{Seq: 0, Start: 600, Length: 400, Reverse: true}, split.Scaffolds[0].Parts[0])
	assert.Equal(t, hicscaf.Component{Seq: 0, Start: 0, Length: 600, Reverse: true}, split.Scaffolds[1].Parts[0])

	// Every position keeps its place relative to the break
	for p := 0; p < 1000; p++ {
		before, err := layout.Coord(0, p)
		require.NoError(t, err)
		after, err := split.Coord(0, p)
		require.NoError(t, err)
		if before.Pos < 400 {
			assert.Equal(t, hicscaf.Locus{Scaffold: 0, Pos: before.Pos}, after)
		} else {
			assert.Equal(t, hicscaf.Locus{Scaffold: 1, Pos: before.Pos - 400}, after)
		}
	}
}

func TestSplitOnGap(t *testing.T) {
	dict := newDict(t,
		hicscaf.Sequence{Name: "A", Length: 1000},
		hicscaf.Sequence{Name: "B", Length: 500})
	layout, err := hicscaf.NewLayoutFromDict(dict).Join([]hicscaf.Path{{{Seq: 0}, {Seq: 1}}}, 200)
	require.NoError(t, err)

	split, err := layout.Split([]hicscaf.BreakPoint{{Scaffold: 0, Pos: 1100}})
	require.NoError(t, err)
	require.Equal(t, 2, split.Len())
	assert.Equal(t, []hicscaf.Component{{Seq: 0, Length: 1000}}, split.Scaffolds[0].Parts)
	assert.Equal(t, []hicscaf.Component{{Seq: 1, Length: 500}}, split.Scaffolds[1].Parts)
	assert.Equal(t, "scaffold_2", split.Scaffolds[1].Name)

	same, err := layout.Split(nil)
	require.NoError(t, err)
	assert.Equal(t, layout, same)
}

func TestSortedAndWithUnplaced(t *testing.T) {
	seqs := []hicscaf.Sequence{
		{Name: "C", Length: 500},
		{Name: "tiny", Length: 50},
		{Name: "A", Length: 2000},
		{Name: "B", Length: 500},
	}
	dict, err := hicscaf.NewSeqDict(seqs, 100)
	require.NoError(t, err)
	require.Equal(t, 4, dict.Len())
	assert.Equal(t, []int{1}, dict.Short())

	layout := hicscaf.NewLayoutFromDict(dict)
	require.Equal(t, 3, layout.Len())
	_, err = layout.Coord(1, 10)
	assert.ErrorIs(t, err, hicscaf.ErrUnmappedSequence)
	_, err = layout.WithUnplaced([]int{2})
	assert.ErrorIs(t, err, hicscaf.ErrMalformedInput)

	full, err := layout.WithUnplaced(dict.Short())
	require.NoError(t, err)
	sorted := full.Sorted()
	var names []string
	for _, s := range sorted.Scaffolds {
		names = append(names, sorted.Dict.Seq(s.Parts[0].Seq).Name)
	}
	assert.Equal(t, []string{"A", "B", "C", "tiny"}, names)
	assert.Equal(t, "scaffold_1", sorted.Scaffolds[0].Name)
	assert.Equal(t, "scaffold_4", sorted.Scaffolds[3].Name)
	assert.Equal(t, int64(2000), sorted.Stats().N50())
}
