/**
 * Filename: /Users/bao/code/hicscaf/agp.go
 * Path: /Users/bao/code/hicscaf
 * Created Date: Friday, October 16th 2026, 9:12:40 pm
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
	"path/filepath"
	"strconv"

	"github.com/shenwei356/xopen"
)

// AGPLine is a line in the AGP file
type AGPLine struct {
	object        string
	objectBeg     int
	objectEnd     int
	partNumber    int
	componentType byte
	isGap         bool
	strand        byte
	// As a gap
	gapLength int
	// As a sequence chunk
	componentID  string
	componentBeg int
	componentEnd int
}

const (
	gapType         = "scaffold"
	gapLinkage      = "yes"
	linkageEvidence = "proximity_ligation"
)

// parseAGPLine parses one tab-separated AGP record
func parseAGPLine(words []string) (AGPLine, error) {
	var line AGPLine
	var err error
	if len(words) < 8 {
		return line, fmt.Errorf("expect at least 8 fields, got %d", len(words))
	}
	line.object = words[0]
	if line.objectBeg, err = strconv.Atoi(words[1]); err != nil {
		return line, err
	}
	if line.objectEnd, err = strconv.Atoi(words[2]); err != nil {
		return line, err
	}
	if line.partNumber, err = strconv.Atoi(words[3]); err != nil {
		return line, err
	}
	if len(words[4]) != 1 {
		return line, fmt.Errorf("bad component type `%s`", words[4])
	}
	line.componentType = words[4][0]
	line.isGap = line.componentType == 'N' || line.componentType == 'U'
	if line.isGap {
		line.gapLength, err = strconv.Atoi(words[5])
		return line, err
	}
	if len(words) < 9 {
		return line, fmt.Errorf("expect 9 fields for a component, got %d", len(words))
	}
	line.componentID = words[5]
	if line.componentBeg, err = strconv.Atoi(words[6]); err != nil {
		return line, err
	}
	if line.componentEnd, err = strconv.Atoi(words[7]); err != nil {
		return line, err
	}
	if line.componentBeg < 1 || line.componentEnd < line.componentBeg {
		return line, fmt.Errorf("bad component range %d-%d", line.componentBeg, line.componentEnd)
	}
	line.strand = '+'
	if words[8] == "-" {
		line.strand = '-'
	}
	return line, nil
}

// ParseAGP builds a layout from AGP records. Components on sequences absent
// from the dictionary (e.g. filtered by length) are skipped.
func ParseAGP(rd io.Reader, dict *SeqDict) (*Layout, error) {
	lines, err := ReadCSVLines(rd, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	var scaffolds []Scaffold
	prevObject := ""
	skipped := 0
	for i, words := range lines {
		line, err := parseAGPLine(words)
		if err != nil {
			return nil, fmt.Errorf("%w: AGP line %d: %v", ErrMalformedInput, i+1, err)
		}
		if line.object != prevObject || len(scaffolds) == 0 {
			prevObject = line.object
			scaffolds = append(scaffolds, Scaffold{Name: line.object})
		}
		s := &scaffolds[len(scaffolds)-1]
		if line.isGap {
			// Leading gaps have no part to attach to
			if len(s.Parts) > 0 {
				s.Parts[len(s.Parts)-1].Gap += line.gapLength
			}
			continue
		}
		id, ok := dict.ID(line.componentID)
		if !ok {
			skipped++
			continue
		}
		s.Parts = append(s.Parts, Component{
			Seq:     id,
			Start:   line.componentBeg - 1,
			Length:  line.componentEnd - line.componentBeg + 1,
			Reverse: line.strand == '-',
		})
	}

	// Drop emptied scaffolds and trailing gaps
	kept := scaffolds[:0]
	for _, s := range scaffolds {
		if len(s.Parts) == 0 {
			continue
		}
		s.Parts[len(s.Parts)-1].Gap = 0
		kept = append(kept, s)
	}
	if skipped > 0 {
		log.Warningf("%d AGP components not in the sequence dictionary were skipped", skipped)
	}
	return NewLayout(dict, kept)
}

// ReadAGP parses an AGP file (optionally gzipped)
func ReadAGP(agpfile string, dict *SeqDict) (*Layout, error) {
	log.Noticef("Parse agpfile `%s`", agpfile)
	fh, err := xopen.Ropen(agpfile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer fh.Close()
	return ParseAGP(fh, dict)
}

// WriteAGP converts the layout into AGP records
func WriteAGP(w io.Writer, layout *Layout) error {
	bw := bufio.NewWriter(w)
	for _, s := range layout.Scaffolds {
		objectBeg := 1
		partNumber := 0
		for _, p := range s.Parts {
			seq := layout.Dict.Seq(p.Seq)
			strand := '+'
			if p.Reverse {
				strand = '-'
			}
			partNumber++
			fmt.Fprintf(bw, "%s\t%d\t%d\t%d\t%c\t%s\t%d\t%d\t%c\n",
				s.Name, objectBeg, objectBeg+p.Length-1, partNumber,
				'W', seq.Name, p.Start+1, p.Start+p.Length, strand)
			objectBeg += p.Length
			if p.Gap > 0 {
				partNumber++
				fmt.Fprintf(bw, "%s\t%d\t%d\t%d\t%c\t%d\t%s\t%s\t%s\n",
					s.Name, objectBeg, objectBeg+p.Gap-1, partNumber,
					'N', p.Gap, gapType, gapLinkage, linkageEvidence)
				objectBeg += p.Gap
			}
		}
	}
	return bw.Flush()
}

// WriteFileAtomic writes through a temporary file in the same directory and
// renames it into place, so readers never see a partial file. A .gz name
// is compressed.
func WriteFileAtomic(filename string, write func(io.Writer) error) error {
	dir, base := filepath.Split(filename)
	tmpfile := filepath.Join(dir, ".tmp."+base)
	fw, err := xopen.Wopen(tmpfile)
	if err != nil {
		return err
	}
	if err = write(fw); err != nil {
		fw.Close()
		os.Remove(tmpfile)
		return err
	}
	fw.Flush()
	if err = fw.Close(); err != nil {
		os.Remove(tmpfile)
		return err
	}
	return os.Rename(tmpfile, filename)
}

// WriteAGPFile writes the layout to agpfile atomically
func WriteAGPFile(agpfile string, layout *Layout) error {
	if err := WriteFileAtomic(agpfile, func(w io.Writer) error {
		return WriteAGP(w, layout)
	}); err != nil {
		return err
	}
	log.Noticef("A total of %d scaffolds written to `%s`", layout.Len(), agpfile)
	return nil
}
