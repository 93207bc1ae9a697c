/*
 *  budget.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Budget admits allocations against a memory limit. A negative limit admits
// everything.
type Budget struct {
	limit int64
	used  int64
}

// NewBudget makes a budget of limit bytes
func NewBudget(limit int64) *Budget {
	return &Budget{limit: limit}
}

// Scope opens a fresh reservation scope with the whole limit available
func (r *Budget) Scope() *Budget {
	return &Budget{limit: r.limit}
}

// Reserve admits n more bytes, or returns ErrInsufficientMemory
func (r *Budget) Reserve(n int64) error {
	if r.limit < 0 {
		r.used += n
		return nil
	}
	if r.used+n > r.limit {
		return fmt.Errorf("%w: need %s more, %s of %s in use", ErrInsufficientMemory,
			humanize.IBytes(uint64(n)), humanize.IBytes(uint64(r.used)), humanize.IBytes(uint64(r.limit)))
	}
	r.used += n
	return nil
}

// Used returns the bytes reserved so far
func (r *Budget) Used() int64 {
	return r.used
}

// ParseMemory reads a human readable size such as 32G or 1.5GiB, a negative
// number means unlimited
func ParseMemory(s string) (int64, error) {
	if s == "" || s[0] == '-' {
		return -1, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}
