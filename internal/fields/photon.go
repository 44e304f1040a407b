package fields

import "math"

// CMB is the cosmic microwave background. Its photon density evolves as
// (1+z)^3, which is already absorbed into the (1+z)^n rate corrections, so
// the explicit redshift scaling is 1 and the field is spatially unbounded.
type CMB struct{}

func (CMB) Name() string                    { return "CMB" }
func (CMB) RedshiftScaling(z float64) float64 { return 1 }
func (CMB) HasScaleRadius() bool            { return false }
func (CMB) ScaleRadius() float64            { return 0 }
func (CMB) RadialScaling(r float64) float64 { return 1 }

// ScaledPhotonField is a photon background of finite spatial extent, e.g.
// the radiation field around a compact source. Tabulated rates are
// normalized at the scale radius; RadialScaling corrects them to the
// particle position. Inside the emitter the density saturates.
type ScaledPhotonField struct {
	name        string
	scaleRadius float64
	outerRadius float64
	// evolution exponent of the comoving photon density, (1+z)^m
	evolution float64
}

func NewScaledPhotonField(name string, scaleRadius, outerRadius, evolution float64) *ScaledPhotonField {
	return &ScaledPhotonField{
		name:        name,
		scaleRadius: scaleRadius,
		outerRadius: outerRadius,
		evolution:   evolution,
	}
}

func (f *ScaledPhotonField) Name() string { return f.name }

func (f *ScaledPhotonField) RedshiftScaling(z float64) float64 {
	return math.Pow(1+z, f.evolution)
}

func (f *ScaledPhotonField) HasScaleRadius() bool { return f.scaleRadius > 0 }

func (f *ScaledPhotonField) ScaleRadius() float64 { return f.scaleRadius }

// RadialScaling follows an inverse-square dilution of the photon density
// outside the emission radius and saturates inside it.
func (f *ScaledPhotonField) RadialScaling(r float64) float64 {
	if !f.HasScaleRadius() {
		return 1
	}
	norm := f.scaleRadius
	if norm < f.outerRadius {
		norm = f.outerRadius
	}
	if r < f.outerRadius {
		return (norm / f.outerRadius) * (norm / f.outerRadius)
	}
	return (norm / r) * (norm / r)
}
