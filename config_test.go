/*
 *  config_test.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tanghaibao/hicscaf"
)

func TestAutoResolutions(t *testing.T) {
	assert.Equal(t, []int{10000, 20000, 50000, 100000, 200000, 500000, 1000000},
		hicscaf.AutoResolutions(50000000))
	res := hicscaf.AutoResolutions(3000000000)
	assert.Equal(t, 50000000, res[len(res)-1])
	assert.Equal(t, hicscaf.DefaultResolutions, hicscaf.AutoResolutions(1<<40))
}

func TestValidate(t *testing.T) {
	cfg := hicscaf.DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := []func(*hicscaf.Config){
		func(c *hicscaf.Config) { c.Resolutions = []int{50000, 10000} },
		func(c *hicscaf.Config) { c.Resolutions = []int{0, 10000} },
		func(c *hicscaf.Config) { c.MinLength = -1 },
		func(c *hicscaf.Config) { c.Confidence = 1 },
		func(c *hicscaf.Config) { c.Break.Bin = 0 },
		func(c *hicscaf.Config) { c.Trim.MaxRounds = 0 },
	}
	for i, mutate := range bad {
		cfg := hicscaf.DefaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}
