/*
 * Filename: /Users/bao/code/hicscaf/norm.go
 * Path: /Users/bao/code/hicscaf
 * Created Date: Friday, October 16th 2026, 10:05:17 pm
 * Author: bao
 *
 * Copyright (c) 2026 Haibao Tang
 */

package hicscaf

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
)

// NormModel is the expected contact count per cell as a function of the bin
// distance d, observed on the diagonals of the intra-scaffold matrices. Bands
// with too little data and the distances beyond the observed range follow a
// power-law model Y = A * X ^ B, X = d + 1.
type NormModel struct {
	A, B float64
	r    []float64 // monotone non-increasing, one value per band
}

// FitNorm fits the distance decay model on the intra-scaffold matrix
func FitNorm(intra *IntraMatrix, minBandCells, minNormBands, maxBands int) (*NormModel, error) {
	counts, cells := intra.BandSums(maxBands)

	var Xs, Ys []float64
	bands := 0
	density := make([]float64, maxBands)
	for d := 0; d < maxBands; d++ {
		if cells[d] < int64(minBandCells) || counts[d] == 0 {
			continue
		}
		density[d] = counts[d] / float64(cells[d])
		Xs = append(Xs, float64(d+1))
		Ys = append(Ys, density[d])
		bands = d + 1
	}
	if len(Xs) < minNormBands || len(Xs) == 0 {
		return nil, fmt.Errorf("%w: %d populated bands, need %d",
			ErrInsufficientNormData, len(Xs), minNormBands)
	}

	r := &NormModel{r: make([]float64, bands)}
	r.fitPowerLaw(Xs, Ys)

	// Overwrite the holes, then enforce the decay
	for d := 0; d < bands; d++ {
		y := density[d]
		if y == 0 {
			y = r.transformPowerLaw(d)
		}
		if d > 0 && y > r.r[d-1] {
			y = r.r[d-1]
		}
		r.r[d] = y
	}
	log.Noticef("Norm model over %d bands: r(0) = %.4g, r(%d) = %.4g",
		bands, r.r[0], bands-1, r.r[bands-1])
	return r, nil
}

// fitPowerLaw solves the least squares fit log(Y) = log(A) + B * log(X)
func (r *NormModel) fitPowerLaw(Xs, Ys []float64) {
	n := len(Xs)
	if n < 2 {
		r.A, r.B = Ys[0], 0
		return
	}
	design := mat64.NewDense(n, 2, nil)
	obs := mat64.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, math.Log(Xs[i]))
		obs.Set(i, 0, math.Log(Ys[i]))
	}
	var coef mat64.Dense
	if err := coef.Solve(design, obs); err != nil {
		log.Warningf("Power law fit failed (%v), assume flat decay", err)
		r.A, r.B = Ys[len(Ys)-1], 0
		return
	}
	r.A, r.B = math.Exp(coef.At(0, 0)), coef.At(1, 0)
	log.Noticef("Power law Y = %.4f * X ^ %.4f", r.A, r.B)
}

// transformPowerLaw interpolates the density at bin distance d
func (r *NormModel) transformPowerLaw(d int) float64 {
	return r.A * math.Pow(float64(d+1), r.B)
}

// Bands returns the number of observed distance bands
func (r *NormModel) Bands() int {
	return len(r.r)
}

// Expected returns the expected count of a cell at bin distance d
func (r *NormModel) Expected(d int) float64 {
	if d < len(r.r) {
		return r.r[d]
	}
	last := r.r[len(r.r)-1]
	if y := r.transformPowerLaw(d); y < last {
		return y
	}
	return last
}

// windowExpected returns the expected count of a configuration between end
// windows of wa and wb bins
func (r *NormModel) windowExpected(wa, wb int) float64 {
	total := 0.
	for da := 0; da < wa; da++ {
		for db := 0; db < wb; db++ {
			total += r.Expected(da + db + 1)
		}
	}
	return total
}

// Norms holds the normalized weight of every configuration of the scaffold
// pairs with evidence
type Norms map[uint64]*[NConfigs]float64

// Get returns the normalized weights between scaffolds a < b
func (r Norms) Get(a, b int) (*[NConfigs]float64, bool) {
	v, ok := r[pairKey(a, b)]
	return v, ok
}

// Normalize divides the observed counts of every configuration by the
// expectation under the model, and returns the background rate la used by
// the significance test
func (r *NormModel) Normalize(inter *InterMatrix, maxNoiseRate float64) (Norms, float64) {
	norms := make(Norms, inter.Len())
	cache := make(map[uint64]float64)
	inter.ForEach(func(a, b int, link *InterLink) {
		wa, wb := inter.Window(a), inter.Window(b)
		key := pairKey(wa, wb)
		expected, ok := cache[key]
		if !ok {
			expected = r.windowExpected(wa, wb)
			cache[key] = expected
		}
		v := new([NConfigs]float64)
		if expected > 0 {
			for c := 0; c < NConfigs; c++ {
				v[c] = float64(link.Observed(c)) / expected
			}
		}
		norms[pairKey(a, b)] = v
	})

	res := float64(inter.Resolution)
	noisePerCell := inter.NoiseDensity() * res * res
	la := 0.
	if floor := r.r[len(r.r)-1]; floor > 0 {
		la = noisePerCell / floor
	}
	la = math.Max(0, math.Min(la, maxNoiseRate))
	log.Noticef("Noise per cell = %.4g, background rate la = %.4g", noisePerCell, la)
	return norms, la
}
