/*
 *  sdict.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/16/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shenwei356/bio/seqio/fai"
	"github.com/shenwei356/xopen"
)

// Sequence is a named contig with its length
type Sequence struct {
	Name   string
	Length int
}

// SeqDict is the ordered set of sequences of an assembly. Ids follow the
// index order whatever the length filter, so that link streams stay valid
// across runs with different thresholds.
type SeqDict struct {
	seqs  []Sequence
	index map[string]int
	short []bool // below the minimum length, kept out of scaffolding
}

// NewSeqDict builds a dictionary, sequences shorter than minLength keep
// their id but are marked short
func NewSeqDict(seqs []Sequence, minLength int) (*SeqDict, error) {
	r := &SeqDict{
		seqs:  make([]Sequence, 0, len(seqs)),
		index: make(map[string]int, len(seqs)),
		short: make([]bool, 0, len(seqs)),
	}
	for _, s := range seqs {
		if _, ok := r.index[s.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate sequence name `%s`", ErrMalformedInput, s.Name)
		}
		r.index[s.Name] = len(r.seqs)
		r.seqs = append(r.seqs, s)
		r.short = append(r.short, s.Length < minLength)
	}
	return r, nil
}

// Len returns the number of sequences, short ones included
func (r *SeqDict) Len() int {
	return len(r.seqs)
}

// IsShort tells whether sequence i is left out of scaffolding
func (r *SeqDict) IsShort(i int) bool {
	return r.short[i]
}

// Seq returns the sequence with id i
func (r *SeqDict) Seq(i int) Sequence {
	return r.seqs[i]
}

// ID returns the id of a sequence by name
func (r *SeqDict) ID(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Short returns the ids of the sequences left out by the length filter
func (r *SeqDict) Short() []int {
	var ids []int
	for i, short := range r.short {
		if short {
			ids = append(ids, i)
		}
	}
	return ids
}

// TotalLength returns the sum of the lengths of the sequences that take
// part in scaffolding
func (r *SeqDict) TotalLength() int64 {
	total := int64(0)
	for i, s := range r.seqs {
		if !r.short[i] {
			total += int64(s.Length)
		}
	}
	return total
}

// IsNewerFile checks if file a is newer than file b
func IsNewerFile(a, b string) bool {
	af, aerr := os.Stat(a)
	bf, berr := os.Stat(b)
	if os.IsNotExist(aerr) || os.IsNotExist(berr) {
		return false
	}
	return af.ModTime().Sub(bf.ModTime()) > 0
}

// IndexFasta makes sure fastafile has an up-to-date .fai next to it
func IndexFasta(fastafile string) (string, error) {
	faifile := fastafile + ".fai"
	// Check if the .fai file is outdated
	if !IsNewerFile(faifile, fastafile) {
		os.Remove(faifile)
	}
	faidx, err := fai.New(fastafile)
	if err != nil {
		return "", fmt.Errorf("%w: cannot index `%s`: %v", ErrMalformedInput, fastafile, err)
	}
	faidx.Close()
	return faifile, nil
}

// ReadSeqDict builds the dictionary from a FASTA file, through its .fai
func ReadSeqDict(fastafile string, minLength int) (*SeqDict, error) {
	faifile, err := IndexFasta(fastafile)
	if err != nil {
		return nil, err
	}
	return ReadFai(faifile, minLength)
}

// ReadFai parses a .fai file, keeping the order of the records
func ReadFai(faifile string, minLength int) (*SeqDict, error) {
	log.Noticef("Parse faifile `%s`", faifile)
	fh, err := xopen.Ropen(faifile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer fh.Close()
	return ParseFai(fh, minLength)
}

// ParseFai parses .fai records: name, length, offset, linebases, linewidth
func ParseFai(rd io.Reader, minLength int) (*SeqDict, error) {
	lines, err := ReadCSVLines(rd, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	seqs := make([]Sequence, 0, len(lines))
	for i, words := range lines {
		if len(words) < 2 {
			return nil, fmt.Errorf("%w: fai line %d has %d fields", ErrMalformedInput, i+1, len(words))
		}
		length, err := strconv.Atoi(words[1])
		if err != nil || length < 0 {
			return nil, fmt.Errorf("%w: fai line %d: bad length `%s`", ErrMalformedInput, i+1, words[1])
		}
		seqs = append(seqs, Sequence{Name: words[0], Length: length})
	}
	r, err := NewSeqDict(seqs, minLength)
	if err != nil {
		return nil, err
	}
	log.Noticef("Loaded %d sequences (%d bp in scaffolding), %d shorter than %d bp set aside",
		r.Len(), r.TotalLength(), len(r.Short()), minLength)
	return r, nil
}
