// Package tables loads and interpolates the tabulated interaction data:
// loss-rate tables, per-nuclide rates, branching ratios, gamma-emission
// lines and secondary-energy spectra. Tables are immutable after loading;
// a module replaces them wholesale when its photon field changes.
package tables

import "math"

// Tabulation grid shared by all per-nuclide tables: NLg equidistant samples
// in log10(Lorentz factor) over [LgMin, LgMax].
const (
	LgMin = 4.0
	LgMax = 14.0
	NLg   = 251
)

// Interpolate performs linear interpolation of y(x) over a sorted x grid.
// Outside the grid the boundary values are returned.
func Interpolate(x float64, xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	// binary search for the bracketing interval
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xs[mid] > x {
			hi = mid
		} else {
			lo = mid
		}
	}
	f := (x - xs[lo]) / (xs[hi] - xs[lo])
	return ys[lo] + f*(ys[hi]-ys[lo])
}

// InterpolateEquidistant performs linear interpolation of y(x) tabulated at
// len(ys) equidistant points over [lo, hi].
func InterpolateEquidistant(x, lo, hi float64, ys []float64) float64 {
	n := len(ys)
	if n == 0 {
		return 0
	}
	if x <= lo {
		return ys[0]
	}
	if x >= hi {
		return ys[n-1]
	}
	p := (x - lo) / (hi - lo) * float64(n-1)
	i := int(p)
	if i >= n-1 {
		return ys[n-1]
	}
	f := p - float64(i)
	return ys[i] + f*(ys[i+1]-ys[i])
}

// NearestIndex returns the index of the tabulation point closest to lg on
// the shared [LgMin, LgMax] grid.
func NearestIndex(lg float64) int {
	i := int(math.Round((lg - LgMin) / (LgMax - LgMin) * (NLg - 1)))
	if i < 0 {
		return 0
	}
	if i > NLg-1 {
		return NLg - 1
	}
	return i
}
