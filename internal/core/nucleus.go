package core

import "fmt"

// Particle ids follow the 10LZZZAAAI numbering scheme for nuclei:
// 1e9 + Z*1e4 + A*10. Leptons and photons use their plain codes.
const (
	Electron = 11
	Positron = -11
	Photon   = 22
)

// NucleusID encodes a nucleus with mass number a and charge number z.
func NucleusID(a, z int) (int, error) {
	if a < 1 {
		return 0, fmt.Errorf("%w: A=%d", ErrInvalidNucleus, a)
	}
	if z < 0 || z > a {
		return 0, fmt.Errorf("%w: A=%d Z=%d", ErrInvalidNucleus, a, z)
	}
	return 1000000000 + z*10000 + a*10, nil
}

// IsNucleus reports whether id encodes a nucleus.
func IsNucleus(id int) bool {
	if id < 0 {
		id = -id
	}
	return id >= 1000000000
}

// MassNumber returns the nucleon number A of a nucleus id, 0 for non-nuclei.
func MassNumber(id int) int {
	if !IsNucleus(id) {
		return 0
	}
	if id < 0 {
		id = -id
	}
	return (id / 10) % 1000
}

// ChargeNumber returns the proton number Z of a nucleus id, 0 for non-nuclei.
func ChargeNumber(id int) int {
	if !IsNucleus(id) {
		return 0
	}
	if id < 0 {
		id = -id
	}
	return (id / 10000) % 1000
}

// NuclearMass approximates the nucleus mass as the sum of its nucleon masses.
func NuclearMass(id int) float64 {
	a := MassNumber(id)
	z := ChargeNumber(id)
	return float64(z)*MassProton + float64(a-z)*MassNeutron
}

// ParticleMass returns the rest mass of the particle with the given id.
// Photons and other massless/unknown species map to zero.
func ParticleMass(id int) float64 {
	if IsNucleus(id) {
		return NuclearMass(id)
	}
	switch id {
	case Electron, Positron:
		return MassElectron
	default:
		return 0
	}
}

// ParticleCharge returns the electric charge of the particle with the given id.
func ParticleCharge(id int) float64 {
	if IsNucleus(id) {
		q := float64(ChargeNumber(id)) * ElementaryCharge
		if id < 0 {
			return -q // anti-nucleus
		}
		return q
	}
	switch id {
	case Electron:
		return -ElementaryCharge
	case Positron:
		return ElementaryCharge
	default:
		return 0
	}
}

// KnownParticle reports whether id is a species the simulation can represent.
func KnownParticle(id int) bool {
	if IsNucleus(id) {
		a := MassNumber(id)
		z := ChargeNumber(id)
		return a >= 1 && z >= 0 && z <= a
	}
	switch id {
	case Electron, Positron, Photon:
		return true
	default:
		return false
	}
}
