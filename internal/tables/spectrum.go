package tables

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Secondary-spectrum grid dimensions: SpectrumRows Lorentz-factor bins of
// SpectrumCols log-energy bins each.
const (
	SpectrumRows = 70
	SpectrumCols = 170
)

// Spectrum is a discretized secondary-energy distribution. Each row holds
// an unnormalized cumulative distribution of the secondary energy for one
// Lorentz-factor bin.
type Spectrum struct {
	cdf [][]float64
}

// ReadSpectrum reads SpectrumRows x SpectrumCols dN/dE values, weights each
// by its bin energy and accumulates per-row cumulative distributions.
func ReadSpectrum(r io.Reader) (*Spectrum, error) {
	values := make([]float64, 0, SpectrumRows*SpectrumCols)
	err := forEachDataLine(r, func(line int, fields []string) error {
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			values = append(values, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(values) < SpectrumRows*SpectrumCols {
		return nil, fmt.Errorf("spectrum truncated: got %d of %d values", len(values), SpectrumRows*SpectrumCols)
	}

	s := &Spectrum{cdf: make([][]float64, SpectrumRows)}
	for i := 0; i < SpectrumRows; i++ {
		row := make([]float64, SpectrumCols)
		for j := 0; j < SpectrumCols; j++ {
			// pdf(E) ~ dN/dE * E
			row[j] = values[i*SpectrumCols+j] * math.Pow(10, 7+0.1*float64(j))
		}
		for j := 1; j < SpectrumCols; j++ {
			row[j] += row[j-1]
		}
		s.cdf[i] = row
	}
	return s, nil
}

func LoadSpectrum(path string) (*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open spectrum table: %w", err)
	}
	defer f.Close()
	s, err := ReadSpectrum(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Row returns the cumulative distribution for a Lorentz-factor bin, clamped
// to the tabulated range.
func (s *Spectrum) Row(i int) []float64 {
	if i < 0 {
		i = 0
	}
	if i >= SpectrumRows {
		i = SpectrumRows - 1
	}
	return s.cdf[i]
}
