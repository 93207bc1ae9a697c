/*
 *  qbinom.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/16/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// QBinom returns the smallest k such that P(X <= k) >= q for X ~ Binomial(n, p)
func QBinom(q float64, n int, p float64) int {
	if n <= 0 || p <= 0 || q <= 0 {
		return 0
	}
	if p >= 1 || q >= 1 {
		return n
	}
	dist := distuv.Binomial{N: float64(n), P: p}
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if dist.CDF(float64(mid)) >= q {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// passQBinom tells whether a normalized weight beats the background level at
// the given confidence
func passQBinom(norm float64, n0 int, la, confidence float64) bool {
	if n0 <= 0 {
		return false
	}
	return norm >= float64(QBinom(confidence, n0, la))/float64(n0)
}
