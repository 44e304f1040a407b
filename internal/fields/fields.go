// Package fields defines the field providers queried during propagation:
// magnetic fields deflect charged particles, advection fields add a wind
// component to the motion, and photon backgrounds set interaction rates.
package fields

import "github.com/mlindner/cosray/internal/core"

// MagneticField returns the field vector at a position and redshift.
type MagneticField interface {
	At(pos core.Vector3, z float64) core.Vector3
}

// AdvectionField returns the local wind velocity in m/s.
type AdvectionField interface {
	At(pos core.Vector3) core.Vector3
}

// PhotonField describes a photon background. Interaction tables are keyed
// by Name; RedshiftScaling corrects rates for the cosmological evolution of
// the background. Fields of finite spatial extent report a scale radius and
// a position-dependent rate scaling.
type PhotonField interface {
	Name() string
	RedshiftScaling(z float64) float64
	HasScaleRadius() bool
	ScaleRadius() float64
	RadialScaling(r float64) float64
}
