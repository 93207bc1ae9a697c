/*
 *  links_test.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf_test

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/hicscaf"
)

func samplePairs(n int) hicscaf.LinkPairs {
	pairs := make(hicscaf.LinkPairs, n)
	for i := range pairs {
		pairs[i] = hicscaf.LinkPair{
			Seq0: uint32(i % 7), Pos0: uint32(i * 31),
			Seq1: uint32(i % 5), Pos1: uint32(1<<31 + i),
		}
	}
	return pairs
}

func collect(t *testing.T, src hicscaf.LinkSource) hicscaf.LinkPairs {
	var got hicscaf.LinkPairs
	require.NoError(t, hicscaf.ForEachLink(src, func(p hicscaf.LinkPair) {
		got = append(got, p)
	}))
	return got
}

func TestLinkPairsRoundTrip(t *testing.T) {
	// More than one read block
	pairs := samplePairs(3*hicscaf.LinkBlockSize + 17)
	assert.Equal(t, pairs, collect(t, pairs))
	assert.Empty(t, collect(t, hicscaf.LinkPairs(nil)))
}

func TestLinkRecordLayout(t *testing.T) {
	fh, err := hicscaf.LinkPairs{{Seq0: 1, Pos0: 2, Seq1: 3, Pos1: 0x01020304}}.Open()
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = io.Copy(&buf, fh)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		1, 0, 0, 0,
		2, 0, 0, 0,
		3, 0, 0, 0,
		4, 3, 2, 1,
	}, buf.Bytes())
}

func TestLinkReaderTruncated(t *testing.T) {
	rd := hicscaf.NewLinkReader(bytes.NewReader(make([]byte, hicscaf.LinkRecordSize+5)))
	_, err := rd.Next()
	assert.ErrorIs(t, err, hicscaf.ErrMalformedInput)

	rd = hicscaf.NewLinkReader(bytes.NewReader(make([]byte, 2*hicscaf.LinkRecordSize)))
	for i := 0; i < 2; i++ {
		_, err = rd.Next()
		require.NoError(t, err)
	}
	_, err = rd.Next()
	assert.Equal(t, io.EOF, err)
}

func TestLinkFile(t *testing.T) {
	pairs := samplePairs(10000)
	dir := t.TempDir()
	for _, name := range []string{"links.bin", "links.bin.zst"} {
		filename := filepath.Join(dir, name)
		n, err := hicscaf.WriteLinkFile(filename, func(w *hicscaf.LinkWriter) error {
			for _, p := range pairs {
				if err := w.Write(p); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(len(pairs)), n)
		assert.Equal(t, pairs, collect(t, hicscaf.LinkFile(filename)), name)
	}

	err := hicscaf.ForEachLink(hicscaf.LinkFile(filepath.Join(dir, "missing.bin")), func(hicscaf.LinkPair) {})
	assert.ErrorIs(t, err, hicscaf.ErrMalformedInput)
}
