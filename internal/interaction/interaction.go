// Package interaction implements the stochastic interaction processes that
// mutate candidates in flight: continuous energy losses and discrete
// Poisson-distributed events with tabulated rates, branching ratios and
// secondary spectra.
package interaction

import "github.com/mlindner/cosray/internal/tables"

// fragment species emitted by disintegration channels, in decimal-digit
// order of the channel code: n, p, d, t, He-3, He-4.
var channelFragments = []struct {
	place int
	a, z  int
}{
	{100000, 1, 0},
	{10000, 1, 1},
	{1000, 2, 1},
	{100, 3, 1},
	{10, 3, 2},
	{1, 4, 2},
}

// digit extracts the decimal digit of v at the given place value.
func digit(v, place int) int {
	return (v % (place * 10)) / place
}

// channelDeltas returns the mass-number and charge change of the residual
// nucleus for a disintegration channel.
func channelDeltas(channel int) (dA, dZ int) {
	for _, f := range channelFragments {
		n := digit(channel, f.place)
		dA -= n * f.a
		dZ -= n * f.z
	}
	return dA, dZ
}

// selectBranch picks a channel by a cumulative-threshold draw: successive
// branching ratios at the given tabulation bin are subtracted from u until
// it is no longer positive. If u exceeds the sum of all ratios the last
// branch is selected.
func selectBranch(branches []tables.Branch, bin int, u float64) int {
	i := 0
	for i < len(branches) && u > 0 {
		u -= branches[i].Ratio[bin]
		i++
	}
	return i - 1
}
