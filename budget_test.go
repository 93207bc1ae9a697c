/*
 *  budget_test.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/hicscaf"
)

func TestBudget(t *testing.T) {
	budget := hicscaf.NewBudget(100)
	scope := budget.Scope()
	require.NoError(t, scope.Reserve(60))
	assert.ErrorIs(t, scope.Reserve(50), hicscaf.ErrInsufficientMemory)
	assert.Equal(t, int64(60), scope.Used())
	require.NoError(t, scope.Reserve(40))

	// Every scope starts from the whole limit
	require.NoError(t, budget.Scope().Reserve(100))

	unlimited := hicscaf.NewBudget(-1).Scope()
	require.NoError(t, unlimited.Reserve(1<<40))
	assert.Equal(t, int64(1<<40), unlimited.Used())
}

func TestParseMemory(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int64
	}{
		{"", -1},
		{"-1", -1},
		{"32G", 32000000000},
		{"1GiB", 1 << 30},
		{"512M", 512000000},
		{"1024", 1024},
	} {
		got, err := hicscaf.ParseMemory(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	_, err := hicscaf.ParseMemory("lots")
	assert.Error(t, err)
}
