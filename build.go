/**
 * Filename: /Users/bao/code/hicscaf/build.go
 * Path: /Users/bao/code/hicscaf
 * Created Date: Saturday, October 17th 2026, 7:21:08 pm
 * Author: bao
 *
 * Copyright (c) 2026 Haibao Tang
 */

package hicscaf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fai"
)

// Builder reconstructs the scaffold FASTA from an AGP and the contigs
type Builder struct {
	AGPfile   string
	Fastafile string
	Outfile   string
	LineWidth int
}

// Run kicks off the Builder
func (r *Builder) Run() error {
	dict, err := ReadSeqDict(r.Fastafile, 0)
	if err != nil {
		return err
	}
	layout, err := ReadAGP(r.AGPfile, dict)
	if err != nil {
		return err
	}
	if r.Outfile == "" {
		r.Outfile = RemoveExt(r.AGPfile) + ".fa"
	}
	if err := WriteFileAtomic(r.Outfile, func(w io.Writer) error {
		return WriteFasta(w, layout, r.Fastafile, r.LineWidth)
	}); err != nil {
		return err
	}
	log.Noticef("A total of %d scaffolds written to `%s`", layout.Len(), r.Outfile)
	return nil
}

// WriteFasta writes the scaffold sequences of the layout, reading the
// components from the indexed fastafile
func WriteFasta(w io.Writer, layout *Layout, fastafile string, lineWidth int) error {
	if lineWidth <= 0 {
		lineWidth = 60
	}
	faidx, err := fai.New(fastafile)
	if err != nil {
		return fmt.Errorf("%w: cannot index `%s`: %v", ErrMalformedInput, fastafile, err)
	}
	defer faidx.Close()

	for _, s := range layout.Scaffolds {
		var buf bytes.Buffer
		for _, p := range s.Parts {
			name := layout.Dict.Seq(p.Seq).Name
			sub, err := faidx.SubSeq(name, p.Start+1, p.Start+p.Length)
			if err != nil {
				return fmt.Errorf("%w: %s:%d-%d: %v", ErrMalformedInput,
					name, p.Start+1, p.Start+p.Length, err)
			}
			if p.Reverse {
				sq, err := seq.NewSeqWithoutValidation(seq.DNAredundant, append([]byte(nil), sub...))
				if err != nil {
					return err
				}
				sub = sq.RevComInplace().Seq
			}
			buf.Write(sub)
			buf.Write(bytes.Repeat([]byte{'N'}, p.Gap))
		}
		sq, err := seq.NewSeqWithoutValidation(seq.DNAredundant, buf.Bytes())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, ">%s\n", s.Name); err != nil {
			return err
		}
		if _, err := w.Write(sq.FormatSeq(lineWidth)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
