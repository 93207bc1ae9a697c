/*
 *  config.go
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

// TrimConfig holds the thresholds of the graph simplification passes
type TrimConfig struct {
	// absolute weight floor of the simple filter
	MinWeight float64 `mapstructure:"min-weight"`
	// arcs weaker than this fraction of the best arc at either end are noise
	BestFrac float64 `mapstructure:"best-frac"`
	// a node is ambiguous when its second best arc reaches this fraction of the best
	AmbiguityRatio float64 `mapstructure:"ambiguity-ratio"`
	// blunt arcs are all below this weight
	BluntWeight float64 `mapstructure:"blunt-weight"`
	// a node with more arcs than this is treated as a repeat
	RepeatDegree int `mapstructure:"repeat-degree"`
	// max number of arcs on a bubble branch
	BubbleDepth int `mapstructure:"bubble-depth"`
	// arcs weaker than this fraction of the best alternative are weak
	WeakRatio float64 `mapstructure:"weak-ratio"`
	// cap on the fixed-point loop
	MaxRounds int `mapstructure:"max-rounds"`
}

// BreakConfig holds the parameters of the break point detector
type BreakConfig struct {
	MinWindow       int     `mapstructure:"min-window"`
	Resolution      int     `mapstructure:"resolution"`
	Bin             int     `mapstructure:"bin"`
	MergeThresh     int     `mapstructure:"merge-thresh"`
	DualBreakThresh int     `mapstructure:"dual-break-thresh"`
	MinFrac         float64 `mapstructure:"min-frac"`
	FoldThresh      float64 `mapstructure:"fold-thresh"`
	// junctions below this fold are weak and may pair into an excision
	DualFold float64 `mapstructure:"dual-fold"`
	// a coverage drop must last this long to be a break
	MinRun int `mapstructure:"min-run"`
}

// Config is the immutable set of tuning values threaded through a run
type Config struct {
	// ascending bin sizes, one scaffolding round each; empty means automatic
	Resolutions []int `mapstructure:"resolutions"`
	// sequences shorter than this are left out and added back unplaced
	MinLength int `mapstructure:"min-length"`
	// memory budget in bytes, negative means unlimited
	MemoryLimit int64 `mapstructure:"memory-limit"`
	// skip the contig-level error break
	NoContigEC bool `mapstructure:"no-contig-ec"`
	// skip the scaffold-level error break
	NoScaffoldEC bool `mapstructure:"no-scaffold-ec"`
	GapSize      int  `mapstructure:"gap-size"`
	MaxSeqs      int  `mapstructure:"max-seqs"`
	// intra pairs at or below this separation only feed the noise prior
	MinLinkDist  int     `mapstructure:"min-link-dist"`
	MinBandCells int     `mapstructure:"min-band-cells"`
	MinNormBands int     `mapstructure:"min-norm-bands"`
	MaxBands     int     `mapstructure:"max-bands"`
	MaxNoiseRate float64 `mapstructure:"max-noise-rate"`
	MinNorm      float64 `mapstructure:"min-norm"`
	Confidence   float64 `mapstructure:"confidence"`
	// prefix of intermediate and final AGP files, empty writes nothing
	OutPrefix string `mapstructure:"out"`
	// directory for DOT dumps of the scaffold graph, empty writes nothing
	DebugGraph string      `mapstructure:"debug-graph"`
	Trim       TrimConfig  `mapstructure:"trim"`
	Break      BreakConfig `mapstructure:"break"`
}

// DefaultConfig returns the defaults
func DefaultConfig() Config {
	return Config{
		MemoryLimit:  -1,
		GapSize:      GapSize,
		MaxSeqs:      MaxSeqs,
		MinLinkDist:  MinLinkDist,
		MinBandCells: MinBandCells,
		MinNormBands: MinNormBands,
		MaxBands:     MaxInterBands,
		MaxNoiseRate: MaxNoiseRate,
		MinNorm:      MinNorm,
		Confidence:   Confidence,
		Trim: TrimConfig{
			MinWeight:      .1,
			BestFrac:       .1,
			AmbiguityRatio: .7,
			BluntWeight:    .3,
			RepeatDegree:   5,
			BubbleDepth:    3,
			WeakRatio:      .3,
			MaxRounds:      MaxTrimRounds,
		},
		Break: BreakConfig{
			MinWindow:       ECMinWindow,
			Resolution:      ECResolution,
			Bin:             ECBin,
			MergeThresh:     ECMergeThresh,
			MinRun:          ECMinRun,
			DualBreakThresh: ECDualBreakThresh,
			MinFrac:         ECMinFrac,
			FoldThresh:      ECFoldThresh,
			DualFold:        2 * ECFoldThresh,
		},
	}
}

// Validate checks the values that would otherwise fail deep inside a round
func (r *Config) Validate() error {
	if r.MinLength < 0 {
		return fmt.Errorf("invalid contig length threshold: %d", r.MinLength)
	}
	if !sort.IntsAreSorted(r.Resolutions) {
		return fmt.Errorf("resolutions must be in ascending order: %v", r.Resolutions)
	}
	for _, res := range r.Resolutions {
		if res <= 0 {
			return fmt.Errorf("invalid resolution: %d", res)
		}
	}
	if r.Confidence <= 0 || r.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0, 1): %g", r.Confidence)
	}
	if r.Break.Bin <= 0 {
		return fmt.Errorf("invalid error break bin size: %d", r.Break.Bin)
	}
	if r.Trim.MaxRounds <= 0 {
		return fmt.Errorf("invalid trim round cap: %d", r.Trim.MaxRounds)
	}
	return nil
}

// AutoResolutions derives the resolution ladder from the genome size, the
// largest resolution grows with the genome
func AutoResolutions(genomeSize int64) []int {
	var maxRes int
	switch {
	case genomeSize < 100000000:
		maxRes = 1000000
	case genomeSize < 200000000:
		maxRes = 2000000
	case genomeSize < 500000000:
		maxRes = 5000000
	case genomeSize < 1000000000:
		maxRes = 10000000
	case genomeSize < 2000000000:
		maxRes = 20000000
	case genomeSize < 5000000000:
		maxRes = 50000000
	default:
		maxRes = 100000000
	}
	var resolutions []int
	for _, res := range DefaultResolutions {
		if res > maxRes {
			break
		}
		resolutions = append(resolutions, res)
	}
	return resolutions
}
