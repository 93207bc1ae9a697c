/*
 *  errors.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/16/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientMemory is returned when a pre-allocation estimate exceeds
	// the remaining memory budget. The orchestrator skips the resolution.
	ErrInsufficientMemory = errors.New("insufficient memory")
	// ErrInsufficientNormData is returned when too few distance bands are
	// populated to fit a norm model. The orchestrator skips the resolution.
	ErrInsufficientNormData = errors.New("not enough bands for norm calculation")
	// ErrSequenceCountExceeded is returned when an intermediate layout has more
	// units than the hard cap. Fatal.
	ErrSequenceCountExceeded = errors.New("sequence number exceeds limit")
	// ErrMalformedInput is returned for unreadable or inconsistent inputs. Fatal.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnmappedSequence marks a coordinate that cannot be resolved in the
	// current layout. Callers count and discard the pair.
	ErrUnmappedSequence = errors.New("sequence not found in layout")
	// ErrTrimNotConverged means graph simplification did not reach a fixed
	// point within the round cap.
	ErrTrimNotConverged = errors.New("graph trimming did not converge")
)

// RoundError reports why a scaffolding round ended without a new layout
type RoundError struct {
	Round      int
	Resolution int
	Err        error
}

func (e *RoundError) Error() string {
	return fmt.Sprintf("round %d (resolution = %d): %v", e.Round, e.Resolution, e.Err)
}

// Unwrap exposes the underlying sentinel error
func (e *RoundError) Unwrap() error {
	return e.Err
}

// Recoverable tells whether the orchestrator may continue with the next
// resolution after err
func Recoverable(err error) bool {
	return errors.Is(err, ErrInsufficientMemory) || errors.Is(err, ErrInsufficientNormData)
}
