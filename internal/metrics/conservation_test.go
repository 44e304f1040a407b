package metrics

import (
	"math"
	"testing"

	"github.com/mlindner/cosray/internal/core"
)

func candidateTree(t *testing.T) *core.Candidate {
	t.Helper()
	helium, err := core.NucleusID(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	c := core.NewCandidate(helium, 8*core.EeV, core.Vector3{}, core.Vector3{1, 0, 0})

	neutron, _ := core.NucleusID(1, 0)
	s, err := c.AddSecondary(neutron, 2*core.EeV, core.Vector3{}, 1, "PD")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSecondary(core.Photon, core.EeV, core.Vector3{}, 1, "PD"); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestTreeSums(t *testing.T) {
	c := candidateTree(t)

	if got, want := TotalEnergy(c), 11*core.EeV; math.Abs(got-want)/want > 1e-12 {
		t.Errorf("TotalEnergy = %g, want %g", got, want)
	}
	if got := BaryonNumber(c); got != 5 {
		t.Errorf("BaryonNumber = %d, want 5", got)
	}
	if got := ChargeNumber(c); got != 2 {
		t.Errorf("ChargeNumber = %g, want 2", got)
	}
}

func TestEnergyBudget(t *testing.T) {
	c := candidateTree(t)
	b := NewEnergyBudget()

	b.Observe(c)
	if b.Value() != 0 {
		t.Errorf("drift after first observation = %g, want 0", b.Value())
	}

	c.Current.Energy *= 0.9 // drop 8 EeV to 7.2, 0.8/11 of the total
	b.Observe(c)
	want := 0.8 / 11.0
	if got := b.Value(); math.Abs(got-want) > 1e-12 {
		t.Errorf("drift = %g, want %g", got, want)
	}

	b.Reset()
	if b.Value() != 0 {
		t.Error("Reset did not clear the drift")
	}
}

func TestInteractionCounter(t *testing.T) {
	c := candidateTree(t)
	ic := NewInteractionCounter()

	ic.Observe(c)
	ic.Observe(c) // secondaries must not be double counted
	ic.Observe(c.Secondaries[0])

	if got := ic.Value(); got != 2 {
		t.Errorf("total count = %g, want 2", got)
	}
	if got := ic.PerTag()["PD"]; got != 2 {
		t.Errorf("PD count = %d, want 2", got)
	}
}

func TestCountByTag(t *testing.T) {
	c := candidateTree(t)
	other := core.NewCandidate(core.Photon, core.EeV, core.Vector3{}, core.Vector3{1, 0, 0})
	if _, err := other.AddSecondary(core.Electron, core.EeV/2, core.Vector3{}, 1, "EPP"); err != nil {
		t.Fatal(err)
	}

	counts := CountByTag([]*core.Candidate{c, other})
	if counts["PD"] != 2 {
		t.Errorf("PD count = %d, want 2", counts["PD"])
	}
	if counts["EPP"] != 1 {
		t.Errorf("EPP count = %d, want 1", counts["EPP"])
	}
}

func TestStepCounterAsObserver(t *testing.T) {
	sc := NewStepCounter()
	o := Observer(sc)

	c := candidateTree(t)
	for i := 0; i < 3; i++ {
		o.OnStep(c)
	}
	if got := sc.Value(); got != 3 {
		t.Errorf("steps = %g, want 3", got)
	}
	sc.Reset()
	if sc.Value() != 0 {
		t.Error("Reset did not clear the counter")
	}
}
