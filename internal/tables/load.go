package tables

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mlindner/cosray/internal/core"
)

// Nuclide tables cover Z <= MaxZ and N <= MaxN.
const (
	MaxZ = 26
	MaxN = 30
)

// forEachDataLine calls fn with the whitespace-separated fields of every
// non-comment, non-empty line. Lines starting with '#' are comments.
func forEachDataLine(r io.Reader, fn func(line int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseFloats(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// LossTable is a two-column table of (log10 Lorentz factor, rate per Mpc).
// The Lorentz factors are stored linearized; rates are converted to 1/m.
type LossTable struct {
	gamma []float64
	rate  []float64
}

func ReadLossTable(r io.Reader) (*LossTable, error) {
	t := &LossTable{}
	err := forEachDataLine(r, func(line int, fields []string) error {
		if len(fields) < 2 {
			return fmt.Errorf("line %d: expected two columns, got %d", line, len(fields))
		}
		v, err := parseFloats(fields[:2])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		t.gamma = append(t.gamma, math.Pow(10, v[0]))
		t.rate = append(t.rate, v[1]/core.Megaparsec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(t.gamma) == 0 {
		return nil, fmt.Errorf("loss table is empty")
	}
	return t, nil
}

func LoadLossTable(path string) (*LossTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open loss table: %w", err)
	}
	defer f.Close()
	t, err := ReadLossTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func (t *LossTable) MinGamma() float64 { return t.gamma[0] }
func (t *LossTable) MaxGamma() float64 { return t.gamma[len(t.gamma)-1] }

// Rate returns the tabulated rate at the given Lorentz factor: zero below
// the table, linear interpolation inside, power-law extrapolation with the
// given exponent above.
func (t *LossTable) Rate(gamma, exponent float64) float64 {
	if gamma < t.gamma[0] {
		return 0
	}
	last := len(t.gamma) - 1
	if gamma < t.gamma[last] {
		return Interpolate(gamma, t.gamma, t.rate)
	}
	return t.rate[last] * math.Pow(gamma/t.gamma[last], exponent)
}

// NuclideRates holds per-nuclide rate samples over the shared log10-gamma
// grid, keyed by (Z, N).
type NuclideRates struct {
	rates [][]float64
}

func ReadNuclideRates(r io.Reader) (*NuclideRates, error) {
	t := &NuclideRates{rates: make([][]float64, (MaxZ+1)*(MaxN+1))}
	err := forEachDataLine(r, func(line int, fields []string) error {
		if len(fields) != 2+NLg {
			return fmt.Errorf("line %d: expected Z N and %d samples, got %d fields", line, NLg, len(fields))
		}
		z, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if z < 0 || z > MaxZ || n < 0 || n > MaxN {
			return fmt.Errorf("line %d: nuclide Z=%d N=%d out of table range", line, z, n)
		}
		values, err := parseFloats(fields[2:])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		for i := range values {
			values[i] /= core.Megaparsec
		}
		t.rates[z*(MaxN+1)+n] = values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func LoadNuclideRates(path string) (*NuclideRates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open rate table: %w", err)
	}
	defer f.Close()
	t, err := ReadNuclideRates(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Rates returns the samples for (Z, N) or nil when the nuclide is out of
// range or not tabulated.
func (t *NuclideRates) Rates(z, n int) []float64 {
	if z < 0 || z > MaxZ || n < 0 || n > MaxN {
		return nil
	}
	return t.rates[z*(MaxN+1)+n]
}

// Branch is one disintegration channel with its per-bin branching ratios.
// The channel code's decimal digits count emitted n, p, d, t, He-3, He-4.
type Branch struct {
	Channel int
	Ratio   []float64
}

// BranchingTable holds the disintegration channels per nuclide.
type BranchingTable struct {
	branches [][]Branch
}

func ReadBranchingTable(r io.Reader) (*BranchingTable, error) {
	t := &BranchingTable{branches: make([][]Branch, (MaxZ+1)*(MaxN+1))}
	err := forEachDataLine(r, func(line int, fields []string) error {
		if len(fields) != 3+NLg {
			return fmt.Errorf("line %d: expected Z N channel and %d ratios, got %d fields", line, NLg, len(fields))
		}
		z, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		channel, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if z < 0 || z > MaxZ || n < 0 || n > MaxN {
			return fmt.Errorf("line %d: nuclide Z=%d N=%d out of table range", line, z, n)
		}
		ratio, err := parseFloats(fields[3:])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		idx := z*(MaxN+1) + n
		t.branches[idx] = append(t.branches[idx], Branch{Channel: channel, Ratio: ratio})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func LoadBranchingTable(path string) (*BranchingTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open branching table: %w", err)
	}
	defer f.Close()
	t, err := ReadBranchingTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Branches returns the channels for (Z, N), nil when untabulated.
func (t *BranchingTable) Branches(z, n int) []Branch {
	if z < 0 || z > MaxZ || n < 0 || n > MaxN {
		return nil
	}
	return t.branches[z*(MaxN+1)+n]
}

// GammaLine is one discrete photon-emission line for a nuclide transition,
// with its rest-frame energy and per-bin emission probabilities.
type GammaLine struct {
	Energy      float64
	Probability []float64
}

// EmissionTable maps (Z, N) -> (Zd, Nd) transitions to their gamma lines.
type EmissionTable struct {
	lines map[int][]GammaLine
}

// EmissionKey packs a transition into a single lookup key.
func EmissionKey(z, n, zd, nd int) int {
	return z*1000000 + n*10000 + zd*100 + nd
}

func ReadEmissionTable(r io.Reader) (*EmissionTable, error) {
	t := &EmissionTable{lines: make(map[int][]GammaLine)}
	err := forEachDataLine(r, func(line int, fields []string) error {
		if len(fields) != 5+NLg {
			return fmt.Errorf("line %d: expected Z N Zd Nd energy and %d probabilities, got %d fields", line, NLg, len(fields))
		}
		ints := make([]int, 4)
		for i := 0; i < 4; i++ {
			v, err := strconv.Atoi(fields[i])
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			ints[i] = v
		}
		energy, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		prob, err := parseFloats(fields[5:])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		key := EmissionKey(ints[0], ints[1], ints[2], ints[3])
		t.lines[key] = append(t.lines[key], GammaLine{
			Energy:      energy * core.ElectronVolt,
			Probability: prob,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func LoadEmissionTable(path string) (*EmissionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open emission table: %w", err)
	}
	defer f.Close()
	t, err := ReadEmissionTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Lines returns the gamma lines of a transition, nil when untabulated.
func (t *EmissionTable) Lines(z, n, zd, nd int) []GammaLine {
	return t.lines[EmissionKey(z, n, zd, nd)]
}
