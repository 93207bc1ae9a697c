/*
 *  links.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/16/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// LinkRecordSize is the size of one pair record on disk: four little-endian
// uint32 values (seq0, pos0, seq1, pos1)
const LinkRecordSize = 16

// LinkPair is one Hi-C read pair reduced to the positions of its two ends
type LinkPair struct {
	Seq0, Pos0 uint32
	Seq1, Pos1 uint32
}

// LinkSource can be read from the beginning any number of times
type LinkSource interface {
	Open() (io.ReadCloser, error)
}

// LinkFile is a binary pair file on disk, zstd-compressed when it ends
// with .zst
type LinkFile string

type zstdReadCloser struct {
	io.ReadCloser
	fh *os.File
}

func (r *zstdReadCloser) Close() error {
	r.ReadCloser.Close()
	return r.fh.Close()
}

// Open opens the file for reading
func (r LinkFile) Open() (io.ReadCloser, error) {
	fh, err := os.Open(string(r))
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(string(r), ".zst") {
		return fh, nil
	}
	zr, err := zstd.NewReader(fh, zstd.WithDecoderConcurrency(1))
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return &zstdReadCloser{zr.IOReadCloser(), fh}, nil
}

// LinkPairs is an in-memory link source
type LinkPairs []LinkPair

// Open encodes the pairs into a fresh stream
func (r LinkPairs) Open() (io.ReadCloser, error) {
	var buf bytes.Buffer
	w := NewLinkWriter(&buf)
	for _, p := range r {
		if err := w.Write(p); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return ioutil.NopCloser(&buf), nil
}

// LinkReader decodes pair records in fixed-size blocks
type LinkReader struct {
	rd    io.Reader
	buf   []byte
	block []LinkPair
	i     int
	eof   bool
}

// NewLinkReader reads pairs from rd
func NewLinkReader(rd io.Reader) *LinkReader {
	return &LinkReader{
		rd:  rd,
		buf: make([]byte, LinkBlockSize*LinkRecordSize),
	}
}

// fill reads the next block, a truncated trailing record is an error
func (r *LinkReader) fill() error {
	n, err := io.ReadFull(r.rd, r.buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		r.eof = true
	} else if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if n%LinkRecordSize != 0 {
		return fmt.Errorf("%w: truncated link record (%d trailing bytes)",
			ErrMalformedInput, n%LinkRecordSize)
	}
	r.block = r.block[:0]
	for k := 0; k < n; k += LinkRecordSize {
		b := r.buf[k : k+LinkRecordSize]
		r.block = append(r.block, LinkPair{
			Seq0: binary.LittleEndian.Uint32(b[0:]),
			Pos0: binary.LittleEndian.Uint32(b[4:]),
			Seq1: binary.LittleEndian.Uint32(b[8:]),
			Pos1: binary.LittleEndian.Uint32(b[12:]),
		})
	}
	r.i = 0
	return nil
}

// Next returns the next pair, or io.EOF at the end of the stream
func (r *LinkReader) Next() (LinkPair, error) {
	for r.i >= len(r.block) {
		if r.eof {
			return LinkPair{}, io.EOF
		}
		if err := r.fill(); err != nil {
			return LinkPair{}, err
		}
	}
	p := r.block[r.i]
	r.i++
	return p, nil
}

// ForEachLink streams every pair of src through fn
func ForEachLink(src LinkSource, fn func(LinkPair)) error {
	fh, err := src.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer fh.Close()
	rd := NewLinkReader(fh)
	for {
		p, err := rd.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fn(p)
	}
}

// LinkWriter encodes pair records
type LinkWriter struct {
	w   *bufio.Writer
	buf [LinkRecordSize]byte
	N   int64 // records written
}

// NewLinkWriter writes pairs to w
func NewLinkWriter(w io.Writer) *LinkWriter {
	return &LinkWriter{w: bufio.NewWriterSize(w, LinkBlockSize*LinkRecordSize)}
}

// Write appends one pair
func (r *LinkWriter) Write(p LinkPair) error {
	binary.LittleEndian.PutUint32(r.buf[0:], p.Seq0)
	binary.LittleEndian.PutUint32(r.buf[4:], p.Pos0)
	binary.LittleEndian.PutUint32(r.buf[8:], p.Seq1)
	binary.LittleEndian.PutUint32(r.buf[12:], p.Pos1)
	_, err := r.w.Write(r.buf[:])
	r.N++
	return err
}

// Flush writes any buffered records
func (r *LinkWriter) Flush() error {
	return r.w.Flush()
}

// WriteLinkFile writes pairs produced by emit to filename atomically,
// compressing with zstd when the name ends with .zst
func WriteLinkFile(filename string, emit func(*LinkWriter) error) (int64, error) {
	var n int64
	err := WriteFileAtomic(filename, func(w io.Writer) error {
		out := w
		var zw *zstd.Encoder
		if strings.HasSuffix(filename, ".zst") {
			var err error
			zw, err = zstd.NewWriter(w, zstd.WithEncoderCRC(false),
				zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedFastest))
			if err != nil {
				return err
			}
			out = zw
		}
		lw := NewLinkWriter(out)
		if err := emit(lw); err != nil {
			return err
		}
		if err := lw.Flush(); err != nil {
			return err
		}
		n = lw.N
		if zw != nil {
			return zw.Close()
		}
		return nil
	})
	return n, err
}
