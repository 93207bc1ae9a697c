/*
 *  base.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/16/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	logging "github.com/op/go-logging"
)

const (
	// Version is the current version of hicscaf
	Version = "0.3.1"
	// MaxSeqs is the hard cap on the number of scaffolding units
	MaxSeqs = 45000
	// GapSize is the number of Ns placed between two joined sequences
	GapSize = 200
	// MinLinkDist is the minimum link distance we care about
	MinLinkDist = 1 << 11
	// LinkBlockSize is the number of pair records read per block
	LinkBlockSize = 4096
	// MinBandCells is the minimum number of cells for a diagonal band to count
	MinBandCells = 10
	// MinNormBands is the minimum number of populated bands for a norm fit
	MinNormBands = 3
	// MaxInterBands caps the number of bins taken from each scaffold end
	MaxInterBands = 64
	// MaxNoiseRate caps the background rate used in the significance test
	MaxNoiseRate = 0.5
	// MinNorm is the minimum normalized weight for a candidate edge
	MinNorm = 0.1
	// Confidence is the level of the binomial significance test
	Confidence = 0.99
	// MaxTrimRounds caps the graph simplification fixed-point loop
	MaxTrimRounds = 1000
	// ECMinWindow is the minimum link window for contig error breaks
	ECMinWindow = 1000000
	// ECResolution is the rounding unit of the contig error break window
	ECResolution = 10000
	// ECBin is the bin size of the link coverage profile
	ECBin = 1000
	// ECMergeThresh merges break points closer than this
	ECMergeThresh = 10000
	// ECMinRun is the shortest coverage drop that calls a break
	ECMinRun = 3000
	// ECDualBreakThresh is the max span of an excised interstitial region
	ECDualBreakThresh = 50000
	// ECMinFrac is the fraction of intra links inside the error break window
	ECMinFrac = .8
	// ECFoldThresh is the coverage fold change that calls a break
	ECFoldThresh = .2
)

// DefaultResolutions is the resolution ladder when none is given
var DefaultResolutions = []int{10000, 20000, 50000, 100000, 200000, 500000,
	1000000, 2000000, 5000000, 10000000, 20000000, 50000000, 100000000}

var log = logging.MustGetLogger("hicscaf")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// abs gets the absolute value of an int
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// min gets the minimum for two ints
func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// max gets the maximum for two ints
func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}

// Percentage prints a human readable message of the percentage
func Percentage(a, b int64) string {
	if b == 0 {
		return fmt.Sprintf("%d of %d", a, b)
	}
	return fmt.Sprintf("%d of %d (%.1f %%)", a, b, float64(a)*100./float64(b))
}

// AsmStats holds the Nx statistics of a set of lengths, for x = 10, 20, ..., 100
type AsmStats struct {
	N [10]int64 // Nx length
	L [10]int   // Nx count
}

// NewAsmStats computes Nx statistics where half of the genome (for N50) is
// covered in sequences of length >= Nx
func NewAsmStats(lengths []int64) AsmStats {
	var st AsmStats
	if len(lengths) == 0 {
		return st
	}
	sorted := make([]int64, len(lengths))
	copy(sorted, lengths)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	total := int64(0)
	for _, length := range sorted {
		total += length
	}
	cumsize := int64(0)
	k := 0
	for i, length := range sorted {
		cumsize += length
		for k < 10 && cumsize*10 >= total*int64(k+1) {
			st.N[k] = length
			st.L[k] = i + 1
			k++
		}
	}
	return st
}

// N50 returns the N50 length
func (r AsmStats) N50() int64 {
	return r.N[4]
}

// Print logs N50 and N90
func (r AsmStats) Print() {
	log.Noticef("Assembly stats: N50 = %d (n = %d), N90 = %d (n = %d)",
		r.N[4], r.L[4], r.N[8], r.L[8])
}

// ReadCSVLines parses all the tab-separated lines into 2D array of tokens
func ReadCSVLines(rd io.Reader, skipHeader bool) ([][]string, error) {
	var data [][]string

	r := csv.NewReader(bufio.NewReader(rd))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.Comment = '#'
	r.LazyQuotes = true
	for i := 0; ; i++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if i == 0 && skipHeader {
			continue
		}
		data = append(data, rec)
	}

	return data, nil
}
