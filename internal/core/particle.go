package core

// ParticleState is a snapshot of a single particle: species, energy and
// kinematics. Direction is expected to be a unit vector.
type ParticleState struct {
	ID        int
	Energy    float64
	Position  Vector3
	Direction Vector3
}

func (p ParticleState) Mass() float64 {
	return ParticleMass(p.ID)
}

func (p ParticleState) Charge() float64 {
	return ParticleCharge(p.ID)
}

// LorentzFactor returns gamma = E / (m c^2). Massless particles have no
// meaningful Lorentz factor; zero is returned for them.
func (p ParticleState) LorentzFactor() float64 {
	m := p.Mass()
	if m == 0 {
		return 0
	}
	return p.Energy / (m * CLight * CLight)
}

// SetLorentzFactor rescales the energy to match the given Lorentz factor.
func (p *ParticleState) SetLorentzFactor(gamma float64) {
	p.Energy = gamma * p.Mass() * CLight * CLight
}
