package tables_test

import (
	"fmt"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mlindner/cosray/internal/core"
	"github.com/mlindner/cosray/internal/tables"
)

// sampleRow renders n copies of value as a space-separated string.
func sampleRow(value float64, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%g", value)
	}
	return strings.Join(parts, " ")
}

var _ = Describe("Interpolate", func() {
	xs := []float64{1, 2, 4, 8}
	ys := []float64{10, 20, 40, 80}

	It("returns tabulated values exactly at grid points", func() {
		for i := range xs {
			Expect(tables.Interpolate(xs[i], xs, ys)).To(Equal(ys[i]))
		}
	})

	It("interpolates linearly between grid points", func() {
		Expect(tables.Interpolate(3, xs, ys)).To(BeNumerically("~", 30, 1e-12))
		Expect(tables.Interpolate(6, xs, ys)).To(BeNumerically("~", 60, 1e-12))
	})

	It("clamps to the boundary values outside the grid", func() {
		Expect(tables.Interpolate(0.5, xs, ys)).To(Equal(10.0))
		Expect(tables.Interpolate(100, xs, ys)).To(Equal(80.0))
	})
})

var _ = Describe("InterpolateEquidistant", func() {
	ys := []float64{0, 1, 4, 9}

	It("hits the sample values at the grid points", func() {
		Expect(tables.InterpolateEquidistant(0, 0, 3, ys)).To(Equal(0.0))
		Expect(tables.InterpolateEquidistant(3, 0, 3, ys)).To(Equal(9.0))
		Expect(tables.InterpolateEquidistant(2, 0, 3, ys)).To(BeNumerically("~", 4, 1e-12))
	})

	It("interpolates linearly between samples", func() {
		Expect(tables.InterpolateEquidistant(1.5, 0, 3, ys)).To(BeNumerically("~", 2.5, 1e-12))
	})
})

var _ = Describe("NearestIndex", func() {
	It("maps the grid boundaries to the first and last sample", func() {
		Expect(tables.NearestIndex(tables.LgMin)).To(Equal(0))
		Expect(tables.NearestIndex(tables.LgMax)).To(Equal(tables.NLg - 1))
	})

	It("clamps values outside the grid", func() {
		Expect(tables.NearestIndex(2)).To(Equal(0))
		Expect(tables.NearestIndex(20)).To(Equal(tables.NLg - 1))
	})

	It("rounds to the closest sample", func() {
		Expect(tables.NearestIndex(9)).To(Equal(125))
	})
})

var _ = Describe("LossTable", func() {
	const data = `# lg(gamma)  rate [1/Mpc]
8  1e-4
9  2e-4
10 8e-4
`

	It("parses rates and converts them to SI", func() {
		t, err := tables.ReadLossTable(strings.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		Expect(t.MinGamma()).To(BeNumerically("~", 1e8, 1e-4))
		Expect(t.MaxGamma()).To(BeNumerically("~", 1e10, 1e2))
		Expect(t.Rate(math.Pow(10, 9), 0)).To(Equal(2e-4 / core.Megaparsec))
	})

	It("returns zero below the tabulated range", func() {
		t, err := tables.ReadLossTable(strings.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Rate(1e6, -0.6)).To(BeZero())
	})

	It("extrapolates above the range with the given power law", func() {
		t, err := tables.ReadLossTable(strings.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		want := 8e-4 / core.Megaparsec * math.Pow(10, -0.6)
		Expect(t.Rate(1e11, -0.6)).To(BeNumerically("~", want, want*1e-12))
	})

	It("rejects malformed rows", func() {
		_, err := tables.ReadLossTable(strings.NewReader("8\n"))
		Expect(err).To(HaveOccurred())
		_, err = tables.ReadLossTable(strings.NewReader("8 abc\n"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects empty input", func() {
		_, err := tables.ReadLossTable(strings.NewReader("# only comments\n"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("NuclideRates", func() {
	It("stores samples per nuclide and reports untabulated ones as nil", func() {
		data := "2 2 " + sampleRow(1.5, tables.NLg) + "\n"
		t, err := tables.ReadNuclideRates(strings.NewReader(data))
		Expect(err).NotTo(HaveOccurred())

		rates := t.Rates(2, 2)
		Expect(rates).To(HaveLen(tables.NLg))
		Expect(rates[0]).To(Equal(1.5 / core.Megaparsec))

		Expect(t.Rates(3, 3)).To(BeNil())
		Expect(t.Rates(-1, 0)).To(BeNil())
		Expect(t.Rates(tables.MaxZ+1, 0)).To(BeNil())
	})

	It("rejects rows with the wrong sample count", func() {
		data := "2 2 " + sampleRow(1, 10) + "\n"
		_, err := tables.ReadNuclideRates(strings.NewReader(data))
		Expect(err).To(HaveOccurred())
	})

	It("rejects nuclides outside the table range", func() {
		data := fmt.Sprintf("%d 0 %s\n", tables.MaxZ+1, sampleRow(1, tables.NLg))
		_, err := tables.ReadNuclideRates(strings.NewReader(data))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("BranchingTable", func() {
	It("collects all channels of a nuclide", func() {
		data := "2 2 100000 " + sampleRow(0.3, tables.NLg) + "\n" +
			"2 2 10000 " + sampleRow(0.7, tables.NLg) + "\n"
		t, err := tables.ReadBranchingTable(strings.NewReader(data))
		Expect(err).NotTo(HaveOccurred())

		branches := t.Branches(2, 2)
		Expect(branches).To(HaveLen(2))
		Expect(branches[0].Channel).To(Equal(100000))
		Expect(branches[0].Ratio[0]).To(Equal(0.3))
		Expect(branches[1].Channel).To(Equal(10000))

		Expect(t.Branches(5, 5)).To(BeNil())
	})
})

var _ = Describe("EmissionTable", func() {
	It("keys gamma lines by transition and converts energies to SI", func() {
		data := "6 6 6 5 4438000 " + sampleRow(0.5, tables.NLg) + "\n"
		t, err := tables.ReadEmissionTable(strings.NewReader(data))
		Expect(err).NotTo(HaveOccurred())

		lines := t.Lines(6, 6, 6, 5)
		Expect(lines).To(HaveLen(1))
		Expect(lines[0].Energy).To(BeNumerically("~", 4438000*core.ElectronVolt, 1e-25))
		Expect(lines[0].Probability[0]).To(Equal(0.5))

		Expect(t.Lines(6, 6, 5, 5)).To(BeNil())
	})
})

var _ = Describe("Spectrum", func() {
	flat := func() string {
		var b strings.Builder
		for i := 0; i < tables.SpectrumRows; i++ {
			b.WriteString(sampleRow(1, tables.SpectrumCols))
			b.WriteString("\n")
		}
		return b.String()
	}

	It("builds non-decreasing per-row cumulative distributions", func() {
		s, err := tables.ReadSpectrum(strings.NewReader(flat()))
		Expect(err).NotTo(HaveOccurred())

		row := s.Row(0)
		Expect(row).To(HaveLen(tables.SpectrumCols))
		for j := 1; j < len(row); j++ {
			Expect(row[j]).To(BeNumerically(">=", row[j-1]))
		}
		// flat dN/dE weighted by bin energy: each increment grows by 10^0.1
		Expect(row[1] - row[0]).To(BeNumerically("~", (row[0])*math.Pow(10, 0.1), row[0]*1e-9))
	})

	It("clamps row lookups to the tabulated range", func() {
		s, err := tables.ReadSpectrum(strings.NewReader(flat()))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Row(-5)).To(Equal(s.Row(0)))
		Expect(s.Row(tables.SpectrumRows + 3)).To(Equal(s.Row(tables.SpectrumRows - 1)))
	})

	It("rejects truncated input", func() {
		_, err := tables.ReadSpectrum(strings.NewReader("1 2 3\n"))
		Expect(err).To(HaveOccurred())
	})
})
