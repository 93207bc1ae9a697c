/*
 *  sdict_test.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/hicscaf"
)

func TestParseFai(t *testing.T) {
	dict, err := hicscaf.ParseFai(strings.NewReader(sampleFai), 100)
	require.NoError(t, err)
	assert.Equal(t, 3, dict.Len())
	assert.Equal(t, int64(1500), dict.TotalLength())
	id, ok := dict.ID("B")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	_, ok = dict.ID("D")
	assert.False(t, ok)

	// Short sequences keep their id but stay out of the layout
	id, ok = dict.ID("C")
	assert.True(t, ok)
	assert.Equal(t, 2, id)
	assert.True(t, dict.IsShort(2))
	assert.False(t, dict.IsShort(1))
	assert.Equal(t, []int{2}, dict.Short())

	layout := hicscaf.NewLayoutFromDict(dict)
	assert.Equal(t, 2, layout.Len())
	_, err = layout.Coord(2, 10)
	assert.ErrorIs(t, err, hicscaf.ErrUnmappedSequence)
}

func TestSeqDictIdsIgnoreLengthFilter(t *testing.T) {
	all, err := hicscaf.ParseFai(strings.NewReader(sampleFai), 0)
	require.NoError(t, err)
	for _, minLength := range []int{100, 600, 2000} {
		dict, err := hicscaf.ParseFai(strings.NewReader(sampleFai), minLength)
		require.NoError(t, err)
		require.Equal(t, all.Len(), dict.Len())
		for i := 0; i < all.Len(); i++ {
			id, ok := dict.ID(all.Seq(i).Name)
			require.True(t, ok)
			assert.Equal(t, i, id)
		}
	}
}

func TestParseFaiMalformed(t *testing.T) {
	for _, fai := range []string{
		"A\n",
		"A\tlong\n",
		"A\t100\nA\t200\n",
	} {
		_, err := hicscaf.ParseFai(strings.NewReader(fai), 0)
		assert.ErrorIs(t, err, hicscaf.ErrMalformedInput, fai)
	}
}
