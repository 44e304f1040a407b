// Package metrics provides per-run accounting observers: conservation
// checks over candidate trees and interaction counters.
package metrics

import (
	"math"

	"github.com/mlindner/cosray/internal/core"
)

// Metric accumulates a scalar over the steps of a run.
type Metric interface {
	Name() string
	Observe(c *core.Candidate)
	Value() float64
	Reset()
}

type metricObserver struct{ m Metric }

func (o metricObserver) OnStep(c *core.Candidate) { o.m.Observe(c) }

// Observer adapts a Metric to the pipeline's per-step observer hook.
func Observer(m Metric) core.Observer { return metricObserver{m} }

// TotalEnergy sums the energy of a candidate and its whole secondary tree.
func TotalEnergy(c *core.Candidate) float64 {
	total := c.Current.Energy
	for _, s := range c.Secondaries {
		total += TotalEnergy(s)
	}
	return total
}

// BaryonNumber sums the nucleon number over a candidate tree.
func BaryonNumber(c *core.Candidate) int {
	total := core.MassNumber(c.Current.ID)
	for _, s := range c.Secondaries {
		total += BaryonNumber(s)
	}
	return total
}

// ChargeNumber sums the proton/lepton charge (in units of e) over a
// candidate tree.
func ChargeNumber(c *core.Candidate) float64 {
	total := c.Current.Charge() / core.ElementaryCharge
	for _, s := range c.Secondaries {
		total += ChargeNumber(s)
	}
	return total
}

// EnergyBudget tracks the largest relative drift of the summed tree energy
// against the first observation. Continuous losses reduce the budget, so
// this is only meaningful with loss-free module sets or as an upper bound.
type EnergyBudget struct {
	reference float64
	maxDrift  float64
	samples   int
}

func NewEnergyBudget() *EnergyBudget { return &EnergyBudget{} }

func (e *EnergyBudget) Name() string { return "energy_budget_drift" }

func (e *EnergyBudget) Observe(c *core.Candidate) {
	total := TotalEnergy(c)
	if e.samples == 0 {
		e.reference = total
	}
	e.samples++
	if e.reference != 0 {
		drift := math.Abs(total-e.reference) / e.reference
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyBudget) Value() float64 { return e.maxDrift }

func (e *EnergyBudget) Reset() {
	e.reference = 0
	e.maxDrift = 0
	e.samples = 0
}

// InteractionCounter counts secondaries by their interaction tag of origin.
type InteractionCounter struct {
	counts map[string]int
	seen   map[*core.Candidate]bool
}

func NewInteractionCounter() *InteractionCounter {
	return &InteractionCounter{
		counts: make(map[string]int),
		seen:   make(map[*core.Candidate]bool),
	}
}

func (ic *InteractionCounter) Name() string { return "interactions" }

func (ic *InteractionCounter) Observe(c *core.Candidate) {
	for _, s := range c.Secondaries {
		if ic.seen[s] {
			continue
		}
		ic.seen[s] = true
		ic.counts[s.TagOrigin]++
	}
}

// Value returns the total number of secondaries observed.
func (ic *InteractionCounter) Value() float64 {
	total := 0
	for _, n := range ic.counts {
		total += n
	}
	return float64(total)
}

// PerTag returns the per-process counts.
func (ic *InteractionCounter) PerTag() map[string]int {
	out := make(map[string]int, len(ic.counts))
	for k, v := range ic.counts {
		out[k] = v
	}
	return out
}

func (ic *InteractionCounter) Reset() {
	ic.counts = make(map[string]int)
	ic.seen = make(map[*core.Candidate]bool)
}

// CountByTag walks finished candidate trees and counts secondaries per
// interaction tag of origin.
func CountByTag(candidates []*core.Candidate) map[string]int {
	counts := make(map[string]int)
	var walk func(c *core.Candidate)
	walk = func(c *core.Candidate) {
		for _, s := range c.Secondaries {
			counts[s.TagOrigin]++
			walk(s)
		}
	}
	for _, c := range candidates {
		walk(c)
	}
	return counts
}

// StepCounter counts processed steps.
type StepCounter struct {
	steps int
}

func NewStepCounter() *StepCounter { return &StepCounter{} }

func (s *StepCounter) Name() string              { return "steps" }
func (s *StepCounter) Observe(c *core.Candidate) { s.steps++ }
func (s *StepCounter) Value() float64            { return float64(s.steps) }
func (s *StepCounter) Reset()                    { s.steps = 0 }
