/*
 *  linkmat_test.go
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

func twoContigLayout(t *testing.T) *hicscaf.Layout {
	_, seqs := twoContigLinks()
	return hicscaf.NewLayoutFromDict(newDict(t, seqs...))
}

func TestEstimateMemory(t *testing.T) {
	layout := twoContigLayout(t)
	// 10 and 8 bins: 55 + 36 cells
	assert.Equal(t, int64((55+36)*4), hicscaf.EstimateIntraMemory(layout, 1000))
	// One scaffold pair, end windows of 5 and 4 bins
	assert.Equal(t, int64(32+4*hicscaf.NConfigs*(5+4)), hicscaf.EstimateInterMemory(layout, 1000, 64))
	assert.Equal(t, int64(32+4*hicscaf.NConfigs*(2+2)), hicscaf.EstimateInterMemory(layout, 1000, 2))

	single := hicscaf.NewLayoutFromDict(newDict(t, hicscaf.Sequence{Name: "A", Length: 10000}))
	assert.Equal(t, int64(0), hicscaf.EstimateInterMemory(single, 1000, 64))
}

func TestBuildIntraMatrix(t *testing.T) {
	layout := twoContigLayout(t)
	links := hicscaf.LinkPairs{
		{Seq0: 0, Pos0: 100, Seq1: 0, Pos1: 900},
		{Seq0: 0, Pos0: 2900, Seq1: 0, Pos1: 100},
		{Seq0: 0, Pos0: 100, Seq1: 0, Pos1: 400},
		{Seq0: 0, Pos0: 100, Seq1: 7, Pos1: 0},
		{Seq0: 0, Pos0: 100, Seq1: 1, Pos1: 100},
		{Seq0: 1, Pos0: 9000, Seq1: 1, Pos1: 100},
	}
	intra, err := hicscaf.BuildIntraMatrix(links, layout, 1000, 500)
	require.NoError(t, err)
	assert.Equal(t, hicscaf.LinkStats{Total: 6, Unmapped: 2, Short: 1, Intra: 2}, intra.Stats)
	assert.Equal(t, uint32(1), intra.At(0, 0, 0))
	assert.Equal(t, uint32(1), intra.At(0, 2, 0))
	assert.Equal(t, uint32(1), intra.At(0, 0, 2))
	assert.Equal(t, 8, intra.Bins(1))

	counts, cells := intra.BandSums(3)
	assert.Equal(t, []float64{1, 0, 1}, counts)
	assert.Equal(t, []int64{18, 16, 14}, cells)
}

func TestBuildInterMatrix(t *testing.T) {
	layout := twoContigLayout(t)
	links := hicscaf.LinkPairs{
		// A tail, B head
		{Seq0: 0, Pos0: 9500, Seq1: 1, Pos1: 500},
		// B tail, A head: stored as (A, B)
		{Seq0: 1, Pos0: 7500, Seq1: 0, Pos1: 500},
		// A tail 4 bins in, B tail 3 bins in
		{Seq0: 0, Pos0: 5500, Seq1: 1, Pos1: 4500},
		// intra pairs are ignored
		{Seq0: 0, Pos0: 100, Seq1: 0, Pos1: 9000},
	}
	inter, err := hicscaf.BuildInterMatrix(links, layout, 1000, 64)
	require.NoError(t, err)
	assert.Equal(t, 5, inter.Window(0))
	assert.Equal(t, 4, inter.Window(1))
	assert.Equal(t, 1, inter.Len())

	link := inter.Link(0, 1)
	require.NotNil(t, link)
	assert.Equal(t, uint32(3), link.N0)
	assert.Equal(t, uint32(1), link.Hist[hicscaf.TailHead][0])
	assert.Equal(t, uint32(1), link.Hist[hicscaf.HeadTail][0])
	assert.Equal(t, uint32(1), link.Hist[hicscaf.TailTail][7])
	assert.Equal(t, int64(0), link.Observed(hicscaf.HeadHead))
	assert.Nil(t, inter.Link(1, 0))
	assert.Equal(t, float64(0), inter.NoiseDensity())

	var visited [][2]int
	inter.ForEach(func(a, b int, link *hicscaf.InterLink) {
		visited = append(visited, [2]int{a, b})
	})
	assert.Equal(t, [][2]int{{0, 1}}, visited)
}

func TestInterMatrixBackground(t *testing.T) {
	layout := twoContigLayout(t)
	links := hicscaf.LinkPairs{
		{Seq0: 0, Pos0: 5500, Seq1: 1, Pos1: 4500},
		{Seq0: 0, Pos0: 9500, Seq1: 1, Pos1: 500},
	}
	inter, err := hicscaf.BuildInterMatrix(links, layout, 1000, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inter.Stats.Background)
	assert.Equal(t, int64(1), inter.Stats.Inter)
	// 10 kb x 8 kb minus the 4 kb x 4 kb of the end windows
	assert.InDelta(t, 1./64e6, inter.NoiseDensity(), 1e-15)

	_, err = hicscaf.BuildInterMatrix(links, layout, 1000, 0)
	assert.Error(t, err)
}
