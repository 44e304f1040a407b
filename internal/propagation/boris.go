// Package propagation advances candidate trajectories through magnetic and
// advection fields using the adaptive Boris push method.
package propagation

import (
	"fmt"
	"math"

	"github.com/mlindner/cosray/internal/core"
	"github.com/mlindner/cosray/internal/fields"
)

// step-size control constants of the embedded-error scheme
const (
	safety    = 0.95
	growLimit = 5.0
	shrinkCap = 0.1
)

// phase is the integration variable: position and direction.
type phase struct {
	pos core.Vector3
	dir core.Vector3
}

// BorisPush propagates charged particles with a half-position advance, a
// field rotation of the direction and a second half-position advance.
// Neutral particles move rectilinearly. With minStep < maxStep the step is
// adapted from an embedded error estimate (one full step against two half
// steps); with minStep == maxStep a single evaluation is performed.
type BorisPush struct {
	field    fields.MagneticField
	advField fields.AdvectionField

	tolerance   float64
	minStep     float64
	maxStep     float64
	shockRadius float64
}

// New creates an adaptive Boris push integrator. The tolerance must lie in
// (0, 1] and 0 <= minStep <= maxStep; violations are configuration errors.
func New(field fields.MagneticField, advField fields.AdvectionField, tolerance, minStep, maxStep, shockRadius float64) (*BorisPush, error) {
	b := &BorisPush{field: field, advField: advField, shockRadius: shockRadius, maxStep: math.MaxFloat64}
	if err := b.SetTolerance(tolerance); err != nil {
		return nil, err
	}
	if err := b.SetMinimumStep(minStep); err != nil {
		return nil, err
	}
	if err := b.SetMaximumStep(maxStep); err != nil {
		return nil, err
	}
	return b, nil
}

// NewFixedStep creates a Boris push integrator with a fixed step size,
// skipping the error estimation entirely.
func NewFixedStep(field fields.MagneticField, advField fields.AdvectionField, step, shockRadius float64) (*BorisPush, error) {
	return New(field, advField, 0.42, step, step, shockRadius)
}

func (b *BorisPush) SetTolerance(tol float64) error {
	if tol <= 0 || tol > 1 {
		return fmt.Errorf("propagation: tolerance %g not in (0, 1]", tol)
	}
	b.tolerance = tol
	return nil
}

func (b *BorisPush) SetMinimumStep(min float64) error {
	if min < 0 {
		return fmt.Errorf("propagation: minStep %g < 0", min)
	}
	if min > b.maxStep {
		return fmt.Errorf("propagation: minStep %g > maxStep %g", min, b.maxStep)
	}
	b.minStep = min
	return nil
}

func (b *BorisPush) SetMaximumStep(max float64) error {
	if max < b.minStep {
		return fmt.Errorf("propagation: maxStep %g < minStep %g", max, b.minStep)
	}
	b.maxStep = max
	return nil
}

func (b *BorisPush) Tolerance() float64   { return b.tolerance }
func (b *BorisPush) MinimumStep() float64 { return b.minStep }
func (b *BorisPush) MaximumStep() float64 { return b.maxStep }
func (b *BorisPush) ShockRadius() float64 { return b.shockRadius }

func (b *BorisPush) SetShockRadius(r float64) { b.shockRadius = r }

// Process moves the candidate over one step, mutating position, direction
// and the current/next step lengths only.
func (b *BorisPush) Process(c *core.Candidate) error {
	c.Previous = c.Current

	y := phase{pos: c.Current.Position, dir: c.Current.Direction}
	q := c.Current.Charge()
	step := b.maxStep

	// rectilinear propagation for neutral particles
	if q == 0 {
		step = clip(c.NextStep(), b.minStep, b.maxStep)
		c.Current.Position = y.pos.Add(y.dir.Scale(step))
		c.SetCurrentStep(step)
		c.SetNextStep(b.maxStep)
		return nil
	}

	z := c.Redshift
	m := c.Current.Energy / (core.CLight * core.CLight)
	newStep := step

	var out phase
	if b.minStep == b.maxStep {
		// fixed step size, error estimation not needed
		out = b.advance(y, step, z, q, m)
	} else {
		step = clip(c.NextStep(), b.minStep, b.maxStep)
		newStep = step

		// retry until the error is within tolerance or minStep is reached
		for {
			var errEst float64
			out, errEst = b.tryStep(y, step, z, q, m)
			r := errEst / b.tolerance
			if r > 1 {
				if step == b.minStep {
					// accept minStep, trading accuracy for progress
					break
				}
				newStep = step * safety * math.Pow(r, -0.2)
				newStep = math.Max(newStep, shrinkCap*step)
				newStep = math.Max(newStep, b.minStep)
				step = newStep
			} else {
				if step != b.maxStep {
					newStep = step * safety * math.Pow(r, -0.2)
					newStep = math.Min(newStep, growLimit*step)
					newStep = math.Min(newStep, b.maxStep)
				}
				break
			}
		}
	}

	c.Current.Position = out.pos
	c.Current.Direction = out.dir.UnitVector()
	c.SetCurrentStep(step)
	c.SetNextStep(newStep)
	return nil
}

// tryStep evaluates one full step and two half steps and estimates the
// positional error between them.
func (b *BorisPush) tryStep(y phase, h, z, q, m float64) (phase, float64) {
	out := b.advance(y, h, z, q, m)

	half := b.advance(y, h/2, z, q, m)
	compare := b.advance(half, h/2, z, q, m)

	return out, errorEstimate(out.pos, compare.pos, h)
}

// advance performs a single Boris push over the given step.
func (b *BorisPush) advance(y phase, step, z, q, m float64) phase {
	pos, dir := y.pos, y.dir

	// fold the advection wind into the direction of motion
	wind := b.windAt(pos)
	dirTot := dir.Add(wind.UnitVector().Scale(wind.R() / core.CLight)).UnitVector()

	// half leap frog step in the position
	pos = pos.Add(dirTot.Scale(step / 2))

	B := b.fieldAt(pos, z)

	// rotation of the direction around the local field
	t := B.Scale(q / 2 / m * step / core.CLight)
	s := t.Scale(2 / (1 + t.Dot(t)))
	vHelp := dir.Add(dir.Cross(t))
	dir = dir.Add(vHelp.Cross(s))

	// second half step with the updated direction
	dirTot = dir.Add(wind.UnitVector().Scale(wind.R() / core.CLight)).UnitVector()
	pos = pos.Add(dirTot.Scale(step / 2))

	return phase{pos: pos, dir: dir}
}

// fieldAt samples the magnetic field, attenuated radially inside the shock
// radius: the downstream field was amplified by sqrt(11) at the shock, so
// the upstream field is weaker by 1/sqrt(11) and scales as 1/R.
func (b *BorisPush) fieldAt(pos core.Vector3, z float64) core.Vector3 {
	var B core.Vector3
	if b.field != nil {
		B = b.field.At(pos, z)
	}
	if r := pos.R(); b.shockRadius > r && r > 0 {
		B = B.Scale((b.shockRadius / r) / math.Sqrt(11))
	}
	return B
}

func (b *BorisPush) windAt(pos core.Vector3) core.Vector3 {
	if b.advField == nil {
		return core.Vector3{}
	}
	return b.advField.At(pos)
}

// errorEstimate compares the position after one full step against the
// position after two half steps, normalized by the step size and the order
// factor (1 - 1/4) of the scheme.
func errorEstimate(x1, x2 core.Vector3, step float64) float64 {
	return x1.Sub(x2).R() / (step * (1 - 0.25))
}

func clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}
