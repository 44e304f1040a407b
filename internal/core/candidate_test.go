package core

import (
	"errors"
	"math"
	"testing"
)

func TestNewCandidate(t *testing.T) {
	proton, _ := NucleusID(1, 1)
	c := NewCandidate(proton, 1e18*ElectronVolt, Vector3{1, 2, 3}, Vector3{0, 0, 2})

	if !c.Active {
		t.Error("new candidate should be active")
	}
	if c.Weight != 1 {
		t.Errorf("weight = %g, want 1", c.Weight)
	}
	if c.NextStep() != math.MaxFloat64 {
		t.Errorf("next step = %g, want MaxFloat64", c.NextStep())
	}
	if got := c.Current.Direction.R(); math.Abs(got-1) > 1e-15 {
		t.Errorf("direction not normalized: |dir| = %g", got)
	}
	if c.Current != c.Previous || c.Current != c.Created {
		t.Error("all state snapshots should start equal")
	}
}

func TestCandidateSteps(t *testing.T) {
	c := NewCandidate(Photon, EeV, Vector3{}, Vector3{1, 0, 0})

	c.SetCurrentStep(2 * Megaparsec)
	c.SetCurrentStep(3 * Megaparsec)
	if got := c.TrajectoryLength(); math.Abs(got-5*Megaparsec) > 1e-3 {
		t.Errorf("trajectory length = %g, want %g", got, 5*Megaparsec)
	}

	c.SetNextStep(10 * Megaparsec)
	c.LimitNextStep(4 * Megaparsec)
	if got := c.NextStep(); got != 4*Megaparsec {
		t.Errorf("next step after limit = %g, want %g", got, 4*Megaparsec)
	}
	c.LimitNextStep(8 * Megaparsec)
	if got := c.NextStep(); got != 4*Megaparsec {
		t.Error("LimitNextStep must never grow the next step")
	}
}

func TestAddSecondary(t *testing.T) {
	helium, _ := NucleusID(4, 2)
	parent := NewCandidate(helium, 4e18*ElectronVolt, Vector3{}, Vector3{0, 1, 0})
	parent.Redshift = 0.5
	parent.Weight = 0.25
	parent.SetNextStep(7 * Megaparsec)

	s, err := parent.AddSecondary(Electron, EeV, Vector3{1, 0, 0}, 0.5, "EPP")
	if err != nil {
		t.Fatalf("AddSecondary: %v", err)
	}
	if s.TagOrigin != "EPP" {
		t.Errorf("tag = %q, want EPP", s.TagOrigin)
	}
	if s.Redshift != parent.Redshift {
		t.Errorf("secondary redshift = %g, want %g", s.Redshift, parent.Redshift)
	}
	if s.Weight != 0.125 {
		t.Errorf("secondary weight = %g, want 0.125", s.Weight)
	}
	if s.Current.Direction != parent.Current.Direction {
		t.Error("secondary should inherit parent direction")
	}
	if s.NextStep() != parent.NextStep() {
		t.Error("secondary should inherit parent next step")
	}
	if len(parent.Secondaries) != 1 || parent.Secondaries[0] != s {
		t.Error("secondary not attached to parent")
	}

	if _, err := parent.AddSecondary(12345, EeV, Vector3{}, 1, "EPP"); !errors.Is(err, ErrUnknownParticle) {
		t.Errorf("unknown particle id should be rejected, got %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	c := NewCandidate(Photon, EeV, Vector3{}, Vector3{1, 0, 0})
	c.Deactivate("minimum energy")
	if c.Active {
		t.Error("candidate still active after Deactivate")
	}
	if got := c.DeactivateReason(); got != "minimum energy" {
		t.Errorf("reason = %q, want %q", got, "minimum energy")
	}
}
