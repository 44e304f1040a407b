package interaction

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mlindner/cosray/internal/core"
	"github.com/mlindner/cosray/internal/fields"
	"github.com/mlindner/cosray/internal/rng"
	"github.com/mlindner/cosray/internal/tables"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writePairTables creates a data directory with a flat loss-rate table of
// ratePerMpc over log10(gamma) in [6, 13] and a secondary spectrum with all
// probability mass in energy bin 115 (about 3e18 eV).
func writePairTables(t *testing.T, ratePerMpc float64) string {
	t.Helper()
	dir := t.TempDir()
	sub := filepath.Join(dir, "ElectronPairProduction")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	rate := strconv.FormatFloat(ratePerMpc, 'g', -1, 64)
	loss := "# lg(gamma)  rate [1/Mpc]\n6 " + rate + "\n13 " + rate + "\n"
	if err := os.WriteFile(filepath.Join(sub, "lossrate_CMB.txt"), []byte(loss), 0644); err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	for i := 0; i < tables.SpectrumRows; i++ {
		for j := 0; j < tables.SpectrumCols; j++ {
			if j == 115 {
				b.WriteString("1 ")
			} else {
				b.WriteString("0 ")
			}
		}
		b.WriteString("\n")
	}
	if err := os.WriteFile(filepath.Join(sub, "spectrum_CMB.txt"), []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newPairProduction(t *testing.T, ratePerMpc float64, haveElectrons bool) *ElectronPairProduction {
	t.Helper()
	dir := writePairTables(t, ratePerMpc)
	e, err := NewElectronPairProduction(fields.CMB{}, dir, haveElectrons, 0.1, rng.New(1), discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestPairProductionEnergyLoss(t *testing.T) {
	e := newPairProduction(t, 1e-4, false)

	proton, _ := core.NucleusID(1, 1)
	c := core.NewCandidate(proton, 1e18*core.ElectronVolt, core.Vector3{}, core.Vector3{1, 0, 0})
	c.SetCurrentStep(100 * core.Megaparsec)

	before := c.Current.Energy
	if err := e.Process(c); err != nil {
		t.Fatal(err)
	}

	// flat table: loss length 1e4 Mpc, so a 100 Mpc step loses 1% in energy
	wantLoss := before * 0.01
	gotLoss := before - c.Current.Energy
	if math.Abs(gotLoss-wantLoss)/wantLoss > 1e-12 {
		t.Errorf("energy loss = %g, want %g", gotLoss, wantLoss)
	}
	if c.Current.Energy >= before {
		t.Error("pair production must decrease the energy")
	}
	if len(c.Secondaries) != 0 {
		t.Errorf("secondaries produced with haveElectrons disabled: %d", len(c.Secondaries))
	}
}

func TestPairProductionLimitsNextStep(t *testing.T) {
	e := newPairProduction(t, 1e-4, false)

	proton, _ := core.NucleusID(1, 1)
	c := core.NewCandidate(proton, 1e18*core.ElectronVolt, core.Vector3{}, core.Vector3{1, 0, 0})
	c.SetCurrentStep(core.Megaparsec)

	if err := e.Process(c); err != nil {
		t.Fatal(err)
	}
	want := 0.1 * 1e4 * core.Megaparsec // limit times loss length
	if math.Abs(c.NextStep()-want)/want > 1e-12 {
		t.Errorf("next step = %g, want %g", c.NextStep(), want)
	}
}

func TestPairProductionBelowThreshold(t *testing.T) {
	e := newPairProduction(t, 1e-4, false)

	// 100 TeV proton: gamma ~ 1e5, below the table minimum of 1e6
	proton, _ := core.NucleusID(1, 1)
	c := core.NewCandidate(proton, 1e14*core.ElectronVolt, core.Vector3{}, core.Vector3{1, 0, 0})
	c.SetCurrentStep(100 * core.Megaparsec)
	c.SetNextStep(42 * core.Megaparsec)

	before := c.Current
	if err := e.Process(c); err != nil {
		t.Fatal(err)
	}
	if c.Current != before {
		t.Error("state changed below the energy threshold")
	}
	if c.NextStep() != 42*core.Megaparsec {
		t.Errorf("next step changed to %g below threshold", c.NextStep())
	}
}

func TestPairProductionIgnoresNonNuclei(t *testing.T) {
	e := newPairProduction(t, 1e-4, false)

	c := core.NewCandidate(core.Electron, core.EeV, core.Vector3{}, core.Vector3{1, 0, 0})
	c.SetCurrentStep(100 * core.Megaparsec)
	c.SetNextStep(42 * core.Megaparsec)

	before := c.Current
	if err := e.Process(c); err != nil {
		t.Fatal(err)
	}
	if c.Current != before || c.NextStep() != 42*core.Megaparsec {
		t.Error("electron state must pass through unchanged")
	}
}

func TestPairProductionSecondaries(t *testing.T) {
	e := newPairProduction(t, 1e-4, true)

	// 100 EeV proton over 1000 Mpc: the 10% energy budget exceeds the
	// largest tabulated pair energy, so at least one pair is guaranteed
	proton, _ := core.NucleusID(1, 1)
	c := core.NewCandidate(proton, 1e20*core.ElectronVolt, core.Vector3{}, core.Vector3{1, 0, 0})
	c.Current.Position = core.Vector3{1000 * core.Megaparsec, 0, 0}
	c.SetCurrentStep(1000 * core.Megaparsec)

	if err := e.Process(c); err != nil {
		t.Fatal(err)
	}

	if len(c.Secondaries) < 2 {
		t.Fatalf("got %d secondaries, want at least one pair", len(c.Secondaries))
	}
	if len(c.Secondaries)%2 != 0 {
		t.Fatalf("got %d secondaries, want complete pairs", len(c.Secondaries))
	}
	for i := 0; i < len(c.Secondaries); i += 2 {
		el, po := c.Secondaries[i], c.Secondaries[i+1]
		if el.Current.ID != core.Electron || po.Current.ID != core.Positron {
			t.Errorf("pair %d has ids (%d, %d)", i/2, el.Current.ID, po.Current.ID)
		}
		if el.Current.Energy != po.Current.Energy {
			t.Errorf("pair %d energies differ: %g vs %g", i/2, el.Current.Energy, po.Current.Energy)
		}
		if el.TagOrigin != "EPP" || po.TagOrigin != "EPP" {
			t.Errorf("pair %d tags = (%q, %q), want EPP", i/2, el.TagOrigin, po.TagOrigin)
		}
		if el.Current.Position != po.Current.Position {
			t.Error("pair members should be created at the same position")
		}
		x := el.Current.Position.X
		if x < c.Previous.Position.X || x > c.Current.Position.X {
			t.Errorf("secondary position %g outside the step segment", x)
		}
	}
}

func TestPairProductionInteractionTag(t *testing.T) {
	e := newPairProduction(t, 1e-4, false)
	if e.InteractionTag() != "EPP" {
		t.Errorf("default tag = %q, want EPP", e.InteractionTag())
	}
	e.SetInteractionTag("pairs")
	if e.InteractionTag() != "pairs" {
		t.Errorf("tag = %q after SetInteractionTag", e.InteractionTag())
	}
}

func TestPairProductionLossLength(t *testing.T) {
	e := newPairProduction(t, 1e-4, false)

	proton, _ := core.NucleusID(1, 1)
	got := e.LossLength(proton, 1e9, 0)
	want := 1e4 * core.Megaparsec
	if math.Abs(got-want)/want > 1e-12 {
		t.Errorf("loss length = %g, want %g", got, want)
	}

	// neutrons do not pair produce
	neutron, _ := core.NucleusID(1, 0)
	if !math.IsInf(e.LossLength(neutron, 1e9, 0), 1) {
		t.Error("neutron loss length should be infinite")
	}
}

func TestPairProductionMissingTable(t *testing.T) {
	if _, err := NewElectronPairProduction(fields.CMB{}, t.TempDir(), false, 0.1, rng.New(1), discardLogger()); err == nil {
		t.Error("missing loss-rate table accepted")
	}
}
