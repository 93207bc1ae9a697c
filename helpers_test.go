/*
 *  helpers_test.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf_test

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/hicscaf"
)

// newDict builds a dictionary without a length filter
func newDict(t *testing.T, seqs ...hicscaf.Sequence) *hicscaf.SeqDict {
	dict, err := hicscaf.NewSeqDict(seqs, 0)
	require.NoError(t, err)
	return dict
}

// bandPairs makes intra pairs on every diagonal up to maxBand, with
// maxBand+1-d pairs per cell on diagonal d
func bandPairs(seq uint32, length, res, maxBand int) hicscaf.LinkPairs {
	var pairs hicscaf.LinkPairs
	n := (length + res - 1) / res
	for i := 0; i < n; i++ {
		for j := i; j <= i+maxBand && j < n; j++ {
			for k := 0; k < maxBand+1-(j-i); k++ {
				pairs = append(pairs, hicscaf.LinkPair{
					Seq0: seq, Pos0: uint32(i*res + 100),
					Seq1: seq, Pos1: uint32(j*res + 900),
				})
			}
		}
	}
	return pairs
}

// repeatPair returns n copies of a pair
func repeatPair(n int, p hicscaf.LinkPair) hicscaf.LinkPairs {
	pairs := make(hicscaf.LinkPairs, n)
	for i := range pairs {
		pairs[i] = p
	}
	return pairs
}

// twoContigLinks is a 10 kb contig A followed by an 8 kb contig B, with
// 200 pairs between the tail of A and the head of B
func twoContigLinks() (hicscaf.LinkPairs, []hicscaf.Sequence) {
	seqs := []hicscaf.Sequence{{Name: "A", Length: 10000}, {Name: "B", Length: 8000}}
	var links hicscaf.LinkPairs
	links = append(links, bandPairs(0, 10000, 1000, 5)...)
	links = append(links, bandPairs(1, 8000, 1000, 5)...)
	links = append(links, repeatPair(200, hicscaf.LinkPair{Seq0: 0, Pos0: 9500, Seq1: 1, Pos1: 500})...)
	return links, seqs
}

// testConfig is a single 1 kb round without error correction
func testConfig() hicscaf.Config {
	cfg := hicscaf.DefaultConfig()
	cfg.Resolutions = []int{1000}
	cfg.MinLinkDist = 500
	cfg.MinBandCells = 1
	cfg.MinNormBands = 3
	cfg.NoContigEC = true
	cfg.NoScaffoldEC = true
	return cfg
}

// writeFile writes a test input under dir
func writeFile(t *testing.T, dir, name, content string) string {
	filename := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(filename, []byte(content), 0644))
	return filename
}
