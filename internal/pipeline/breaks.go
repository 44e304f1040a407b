package pipeline

import "github.com/mlindner/cosray/internal/core"

// MinimumEnergy deactivates candidates once their energy drops below a
// threshold.
type MinimumEnergy struct {
	threshold float64
}

func NewMinimumEnergy(threshold float64) *MinimumEnergy {
	return &MinimumEnergy{threshold: threshold}
}

func (m *MinimumEnergy) Process(c *core.Candidate) error {
	if c.Current.Energy < m.threshold {
		c.Deactivate("minimum energy")
	}
	return nil
}

// MaximumTrajectoryLength deactivates candidates that have travelled the
// given distance and keeps the next step from overshooting it.
type MaximumTrajectoryLength struct {
	length float64
}

func NewMaximumTrajectoryLength(length float64) *MaximumTrajectoryLength {
	return &MaximumTrajectoryLength{length: length}
}

func (m *MaximumTrajectoryLength) Process(c *core.Candidate) error {
	remaining := m.length - c.TrajectoryLength()
	if remaining <= 0 {
		c.Deactivate("maximum trajectory length")
		return nil
	}
	c.LimitNextStep(remaining)
	return nil
}
