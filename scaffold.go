/**
 * Filename: /Users/bao/code/hicscaf/scaffold.go
 * Path: /Users/bao/code/hicscaf
 * Created Date: Saturday, October 17th 2026, 4:02:19 pm
 * Author: bao
 *
 * Copyright (c) 2026 Haibao Tang
 */

package hicscaf

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Scaffolder runs the scaffolding rounds over the resolution ladder
type Scaffolder struct {
	Config Config
	Dict   *SeqDict
	Links  LinkSource
	Start  *Layout // optional starting layout, e.g. from an AGP

	budget *Budget
}

// RoundStat summarizes one scaffolding round
type RoundStat struct {
	Round      int
	Resolution int
	Err        error // non-nil when the round was skipped
	Scaffolds  int
	Breaks     int
	N50        int64
}

// Result is the outcome of a run
type Result struct {
	Layout       *Layout // final layout, short sequences included
	ContigBreaks int
	Rounds       []RoundStat
}

// Run scaffolds the sequences and returns the final layout
func (r *Scaffolder) Run() (*Result, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r.budget = NewBudget(cfg.MemoryLimit)
	resolutions := cfg.Resolutions
	if len(resolutions) == 0 {
		resolutions = AutoResolutions(r.Dict.TotalLength())
	}
	log.Noticef("Resolutions: %v", resolutions)

	result := &Result{}
	layout := r.Start
	prior := layout != nil
	if layout == nil {
		layout = NewLayoutFromDict(r.Dict)
		if !cfg.NoContigEC {
			broken, n, rounds, err := ContigErrorBreak(r.Links, layout, cfg.Break)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				prior = true
				layout = broken
				if err := r.writeAGP(fmt.Sprintf("initial_break_%02d", rounds), layout); err != nil {
					return nil, err
				}
			}
			result.ContigBreaks = n
			log.Noticef("Contig error break: %d breaks, %d sequences", n, layout.Len())
		}
	}
	if err := r.checkSeqs(layout); err != nil {
		return nil, err
	}

	succeeded := false
	for i, res := range resolutions {
		round := i + 1
		if i > 0 {
			n50 := layout.Stats().N50()
			if n50 < int64(10*res) {
				if succeeded {
					log.Noticef("N50 (%d) smaller than 10 * resolution (%d), stop", n50, res)
					break
				}
				log.Warningf("N50 (%d) smaller than 10 * resolution (%d), continue anyway", n50, res)
			}
		}

		log.Noticef("Scaffolding round %d resolution = %d", round, res)
		scaffolded, noise, err := r.round(layout, res)
		stat := RoundStat{Round: round, Resolution: res}
		if err != nil {
			stat.Err = err
			result.Rounds = append(result.Rounds, stat)
			err = &RoundError{Round: round, Resolution: res, Err: err}
			if !Recoverable(err) {
				return nil, err
			}
			if errors.Is(err, ErrInsufficientMemory) && !succeeded && !prior {
				log.Errorf("%v, no layout to fall back on", err)
				return nil, err
			}
			log.Warningf("%v, skip", err)
			continue
		}
		succeeded = true
		if err := r.writeAGP(fmt.Sprintf("r%02d", round), scaffolded); err != nil {
			return nil, err
		}

		if !cfg.NoScaffoldEC {
			broken, n, err := ScaffoldErrorBreak(r.Links, scaffolded, layout, res, noise, cfg.Break)
			if err != nil {
				return nil, err
			}
			stat.Breaks = n
			scaffolded = broken
			if err := r.writeAGP(fmt.Sprintf("r%02d_break", round), scaffolded); err != nil {
				return nil, err
			}
		}
		if err := r.checkSeqs(scaffolded); err != nil {
			return nil, err
		}
		layout = scaffolded

		st := layout.Stats()
		st.Print()
		stat.Scaffolds = layout.Len()
		stat.N50 = st.N50()
		result.Rounds = append(result.Rounds, stat)
	}

	final, err := r.finalize(layout)
	if err != nil {
		return nil, err
	}
	result.Layout = final
	return result, nil
}

// round runs one resolution: link matrices, norm model, graph, trimming and
// path extraction. It also returns the background noise density, needed by
// the scaffold error break.
func (r *Scaffolder) round(layout *Layout, res int) (*Layout, float64, error) {
	cfg := &r.Config
	budget := r.budget.Scope()

	if err := budget.Reserve(EstimateIntraMemory(layout, res)); err != nil {
		return nil, 0, err
	}
	intra, err := BuildIntraMatrix(r.Links, layout, res, cfg.MinLinkDist)
	if err != nil {
		return nil, 0, err
	}
	norm, err := FitNorm(intra, cfg.MinBandCells, cfg.MinNormBands, cfg.MaxBands)
	if err != nil {
		return nil, 0, err
	}

	bands := min(norm.Bands(), cfg.MaxBands)
	if err := budget.Reserve(EstimateInterMemory(layout, res, bands)); err != nil {
		return nil, 0, err
	}
	inter, err := BuildInterMatrix(r.Links, layout, res, bands)
	if err != nil {
		return nil, 0, err
	}
	norms, la := norm.Normalize(inter, cfg.MaxNoiseRate)

	g := BuildGraph(inter, norms, cfg.MinNorm, la, cfg.Confidence)
	if err := r.writeDOT(g, layout, res, "raw"); err != nil {
		return nil, 0, err
	}
	if err := Simplify(g, cfg.Trim); err != nil {
		return nil, 0, err
	}
	if err := r.writeDOT(g, layout, res, "trimmed"); err != nil {
		return nil, 0, err
	}

	scaffolded, err := layout.Join(ExtractPaths(g), cfg.GapSize)
	if err != nil {
		return nil, 0, err
	}
	return scaffolded, inter.NoiseDensity(), nil
}

// checkSeqs enforces the cap on the number of scaffolding units
func (r *Scaffolder) checkSeqs(layout *Layout) error {
	if layout.Len() > r.Config.MaxSeqs {
		return fmt.Errorf("%w: %d > %d, consider increasing the minimum contig length",
			ErrSequenceCountExceeded, layout.Len(), r.Config.MaxSeqs)
	}
	return nil
}

// finalize adds the short sequences back and sorts the scaffolds
func (r *Scaffolder) finalize(layout *Layout) (*Layout, error) {
	var unplaced []int
	for _, id := range r.Dict.Short() {
		// A start layout may already place short sequences
		if !layout.Placed(id) {
			unplaced = append(unplaced, id)
		}
	}
	full, err := layout.WithUnplaced(unplaced)
	if err != nil {
		return nil, err
	}
	final := full.Sorted()
	final.Stats().Print()
	if err := r.writeAGP("scaffolds_final", final); err != nil {
		return nil, err
	}
	return final, nil
}

// writeAGP writes an intermediate layout when an output prefix is set
func (r *Scaffolder) writeAGP(suffix string, layout *Layout) error {
	if r.Config.OutPrefix == "" {
		return nil
	}
	return WriteAGPFile(fmt.Sprintf("%s_%s.agp", r.Config.OutPrefix, suffix), layout)
}

// writeDOT dumps the graph when a debug directory is set
func (r *Scaffolder) writeDOT(g *Graph, layout *Layout, res int, stage string) error {
	if r.Config.DebugGraph == "" {
		return nil
	}
	filename := filepath.Join(r.Config.DebugGraph, fmt.Sprintf("graph_%d_%s.dot", res, stage))
	return WriteGraphDOT(filename, g, layout)
}
