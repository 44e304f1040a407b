package core

import (
	"fmt"
	"math"
)

// Candidate is a simulated particle instance. It carries the live state,
// the state at the start of the current step (for position interpolation),
// the state before the most recent interaction, and an owned tree of
// secondary candidates spawned by interactions.
type Candidate struct {
	Current  ParticleState
	Previous ParticleState
	Created  ParticleState

	Redshift  float64
	Weight    float64
	Active    bool
	TagOrigin string

	// Secondaries are owned by this candidate; no other candidate may
	// mutate them.
	Secondaries []*Candidate

	currentStep      float64
	nextStep         float64
	trajectoryLength float64
	deactivateReason string
}

// NewCandidate creates an active candidate with all state snapshots
// initialized to the given source state and an unbounded next step.
func NewCandidate(id int, energy float64, pos, dir Vector3) *Candidate {
	state := ParticleState{
		ID:        id,
		Energy:    energy,
		Position:  pos,
		Direction: dir.UnitVector(),
	}
	return &Candidate{
		Current:  state,
		Previous: state,
		Created:  state,
		Weight:   1,
		Active:   true,
		nextStep: math.MaxFloat64,
	}
}

func (c *Candidate) CurrentStep() float64 { return c.currentStep }
func (c *Candidate) NextStep() float64    { return c.nextStep }

// SetCurrentStep records the step actually performed and accumulates the
// trajectory length.
func (c *Candidate) SetCurrentStep(step float64) {
	c.currentStep = step
	c.trajectoryLength += step
}

func (c *Candidate) SetNextStep(step float64) { c.nextStep = step }

// LimitNextStep shrinks the next step; it never grows it.
func (c *Candidate) LimitNextStep(step float64) {
	c.nextStep = math.Min(c.nextStep, step)
}

func (c *Candidate) TrajectoryLength() float64 { return c.trajectoryLength }

// Deactivate removes the candidate from further processing.
func (c *Candidate) Deactivate(reason string) {
	c.Active = false
	c.deactivateReason = reason
}

func (c *Candidate) DeactivateReason() string { return c.deactivateReason }

// AddSecondary spawns a secondary particle at the given position, moving in
// the parent's current direction. The secondary inherits redshift and its
// weight is relative to the parent. tag names the producing process.
func (c *Candidate) AddSecondary(id int, energy float64, pos Vector3, weight float64, tag string) (*Candidate, error) {
	if !KnownParticle(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParticle, id)
	}
	state := ParticleState{
		ID:        id,
		Energy:    energy,
		Position:  pos,
		Direction: c.Current.Direction,
	}
	s := &Candidate{
		Current:   state,
		Previous:  state,
		Created:   state,
		Redshift:  c.Redshift,
		Weight:    weight * c.Weight,
		Active:    true,
		TagOrigin: tag,
		nextStep:  c.nextStep,
	}
	c.Secondaries = append(c.Secondaries, s)
	return s, nil
}
