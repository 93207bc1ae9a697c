/**
 * Filename: /Users/bao/code/hicscaf/dump.go
 * Path: /Users/bao/code/hicscaf
 * Created Date: Saturday, October 17th 2026, 5:48:10 pm
 * Author: bao
 *
 * Copyright (c) 2026 Haibao Tang
 */

package hicscaf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/shenwei356/xopen"
)

// Dumper converts read alignments (name-grouped BAM, or BED with one line
// per read) to the binary pair stream used by the scaffolder
type Dumper struct {
	Infile    string
	Faifile   string
	Outfile   string
	MinMapQ   int
	MinLength int
	dict      *SeqDict
	nPairs    int64
	nSkipped  int64
}

// alignment is one read end
type alignment struct {
	name string
	ref  string
	pos  int
	mapq int
}

// Run kicks off the Dumper
func (r *Dumper) Run() error {
	dict, err := ReadFai(r.Faifile, r.MinLength)
	if err != nil {
		return err
	}
	r.dict = dict
	if r.Outfile == "" {
		r.Outfile = RemoveExt(r.Infile) + ".bin"
	}

	n, err := WriteLinkFile(r.Outfile, func(w *LinkWriter) error {
		if strings.HasSuffix(r.Infile, ".bam") {
			return r.dumpBAM(w)
		}
		return r.dumpBED(w)
	})
	if err != nil {
		return err
	}
	log.Noticef("A total of %d pairs written to `%s` (%d skipped)", n, r.Outfile, r.nSkipped)
	return nil
}

// emit writes a read pair made of the first and last alignment of a group
func (r *Dumper) emit(w *LinkWriter, group []alignment) error {
	if len(group) != 2 {
		if len(group) > 0 {
			r.nSkipped++
		}
		return nil
	}
	a, b := group[0], group[1]
	if a.mapq < r.MinMapQ || b.mapq < r.MinMapQ {
		r.nSkipped++
		return nil
	}
	ai, ok := r.dict.ID(a.ref)
	if !ok {
		r.nSkipped++
		return nil
	}
	bi, ok := r.dict.ID(b.ref)
	if !ok || r.dict.IsShort(ai) || r.dict.IsShort(bi) {
		r.nSkipped++
		return nil
	}
	r.nPairs++
	return w.Write(LinkPair{
		Seq0: uint32(ai), Pos0: uint32(a.pos),
		Seq1: uint32(bi), Pos1: uint32(b.pos),
	})
}

// dumpBAM reads a BAM file grouped by read name
func (r *Dumper) dumpBAM(w *LinkWriter) error {
	log.Noticef("Parse bamfile `%s`", r.Infile)
	fh, err := os.Open(r.Infile)
	if err != nil {
		return err
	}
	defer fh.Close()
	br, err := bam.NewReader(fh, 0)
	if err != nil {
		return fmt.Errorf("%w: cannot open bamfile `%s` (%v)", ErrMalformedInput, r.Infile, err)
	}
	defer br.Close()

	for _, ref := range br.Header().Refs() {
		// Sanity check to see if the contig length match up between the bam and fai
		if i, ok := r.dict.ID(ref.Name()); ok && r.dict.Seq(i).Length != ref.Len() {
			log.Errorf("Length mismatch: %s (fai: %d bam: %d)",
				ref.Name(), r.dict.Seq(i).Length, ref.Len())
		}
	}

	var group []alignment
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		// Filtering: Unmapped | Secondary | QCFail | Duplicate | Supplementary
		if rec.Flags&3844 != 0 || rec.Flags&sam.Paired == 0 {
			continue
		}
		if len(group) > 0 && group[0].name != rec.Name {
			if err := r.emit(w, group); err != nil {
				return err
			}
			group = group[:0]
		}
		group = append(group, alignment{
			name: rec.Name,
			ref:  rec.Ref.Name(),
			pos:  (rec.Pos + rec.End()) / 2,
			mapq: int(rec.MapQ),
		})
	}
	return r.emit(w, group)
}

// readName strips the /1 and /2 mate suffixes
func readName(name string) string {
	if n := len(name); n > 2 && name[n-2] == '/' && (name[n-1] == '1' || name[n-1] == '2') {
		return name[:n-2]
	}
	return name
}

// dumpBED reads BED lines (chrom, start, end, name, mapq) grouped by read name
func (r *Dumper) dumpBED(w *LinkWriter) error {
	log.Noticef("Parse bedfile `%s`", r.Infile)
	fh, err := xopen.Ropen(r.Infile)
	if err != nil {
		return err
	}
	defer fh.Close()

	var group []alignment
	scanner := bufio.NewScanner(fh)
	for ln := 1; scanner.Scan(); ln++ {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 4 {
			return fmt.Errorf("%w: bed line %d has %d fields", ErrMalformedInput, ln, len(words))
		}
		start, err1 := strconv.Atoi(words[1])
		end, err2 := strconv.Atoi(words[2])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%w: bed line %d: bad coordinates", ErrMalformedInput, ln)
		}
		mapq := 255
		if len(words) > 4 {
			if mapq, err = strconv.Atoi(words[4]); err != nil {
				return fmt.Errorf("%w: bed line %d: bad score `%s`", ErrMalformedInput, ln, words[4])
			}
		}
		name := readName(words[3])
		if len(group) > 0 && group[0].name != name {
			if err := r.emit(w, group); err != nil {
				return err
			}
			group = group[:0]
		}
		group = append(group, alignment{
			name: name,
			ref:  words[0],
			pos:  (start + end) / 2,
			mapq: mapq,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return r.emit(w, group)
}
