/*
 *  juicer.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/kshedden/gonpy"
)

// MaxContactMapBins caps the side of the dense contact map
const MaxContactMapBins = 20000

// Juicer converts the pair stream into scaffold coordinates, as the text
// input of Juicer `pre`, and optionally a dense contact map in .npy
type Juicer struct {
	Linkfile  string
	AGPfile   string // optional, contigs are used as is without it
	Faifile   string
	MinLength int
	Outfile   string
	Npyfile   string
	NpyBin    int
}

// Run kicks off the Juicer export
func (r *Juicer) Run() error {
	dict, err := ReadFai(r.Faifile, r.MinLength)
	if err != nil {
		return err
	}
	layout := NewLayoutFromDict(dict)
	if r.AGPfile != "" {
		if layout, err = ReadAGP(r.AGPfile, dict); err != nil {
			return err
		}
	}
	src := LinkFile(r.Linkfile)
	if r.Outfile == "" {
		r.Outfile = RemoveExt(r.Linkfile) + ".pre.txt"
	}

	scale := ScaleShift(layout)
	if scale > 0 {
		log.Noticef("Scaffold coordinates scaled down by 2^%d", scale)
	}
	var stats LinkStats
	if err := WriteFileAtomic(r.Outfile, func(w io.Writer) error {
		stats, err = WritePre(w, src, layout, scale)
		return err
	}); err != nil {
		return err
	}
	log.Noticef("%s pairs written to `%s`", Percentage(stats.Total-stats.Unmapped, stats.Total), r.Outfile)

	if r.Npyfile == "" {
		return nil
	}
	return WriteContactMap(r.Npyfile, src, layout, r.NpyBin)
}

// ScaleShift returns the smallest shift that brings the longest scaffold
// within the int32 range expected by Juicer
func ScaleShift(layout *Layout) uint {
	longest := int64(0)
	for _, l := range layout.Lengths() {
		if l > longest {
			longest = l
		}
	}
	shift := uint(0)
	for longest>>shift > math.MaxInt32 {
		shift++
	}
	return shift
}

// WritePre writes one line per pair placed in the layout, the two ends
// ordered by scaffold name
func WritePre(w io.Writer, src LinkSource, layout *Layout, scale uint) (LinkStats, error) {
	var stats LinkStats
	bw := bufio.NewWriter(w)
	err := ForEachLink(src, func(p LinkPair) {
		stats.Total++
		a, b, ok := locate(layout, p)
		if !ok {
			stats.Unmapped++
			return
		}
		na, nb := layout.Scaffolds[a.Scaffold].Name, layout.Scaffolds[b.Scaffold].Name
		if na <= nb {
			fmt.Fprintf(bw, "0\t%s\t%d\t0\t1\t%s\t%d\t1\n", na, a.Pos>>scale, nb, b.Pos>>scale)
		} else {
			fmt.Fprintf(bw, "0\t%s\t%d\t1\t1\t%s\t%d\t0\n", nb, b.Pos>>scale, na, a.Pos>>scale)
		}
	})
	if err != nil {
		return stats, err
	}
	if stats.Unmapped > 0 {
		log.Warningf("%d pairs with an end not in the layout", stats.Unmapped)
	}
	return stats, bw.Flush()
}

// ContactMap bins the pairs genome-wide, scaffolds laid end to end
func ContactMap(src LinkSource, layout *Layout, bin int) ([]float64, int, error) {
	offsets := make([]int, layout.Len()+1)
	for s := range layout.Scaffolds {
		offsets[s+1] = offsets[s] + nBins(layout.Scaffolds[s].Length(), bin)
	}
	n := offsets[layout.Len()]
	if n > MaxContactMapBins {
		return nil, 0, fmt.Errorf("contact map of %d bins exceeds %d, increase the bin size",
			n, MaxContactMapBins)
	}
	m := make([]float64, n*n)
	err := ForEachLink(src, func(p LinkPair) {
		a, b, ok := locate(layout, p)
		if !ok {
			return
		}
		i := offsets[a.Scaffold] + a.Pos/bin
		j := offsets[b.Scaffold] + b.Pos/bin
		m[i*n+j]++
		if i != j {
			m[j*n+i]++
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return m, n, nil
}

// WriteContactMap saves the contact map as a square float64 .npy array
func WriteContactMap(npyfile string, src LinkSource, layout *Layout, bin int) error {
	if bin <= 0 {
		return fmt.Errorf("invalid contact map bin size: %d", bin)
	}
	m, n, err := ContactMap(src, layout, bin)
	if err != nil {
		return err
	}
	w, err := gonpy.NewFileWriter(npyfile)
	if err != nil {
		return err
	}
	w.Shape = []int{n, n}
	if err := w.WriteFloat64(m); err != nil {
		return err
	}
	log.Noticef("Contact map (%d x %d, bin = %d) written to `%s`", n, n, bin, npyfile)
	return nil
}
