package fields

import (
	"math"

	"github.com/mlindner/cosray/internal/core"
)

// UniformMagneticField is a constant field, independent of position and
// redshift.
type UniformMagneticField struct {
	value core.Vector3
}

func NewUniformMagneticField(value core.Vector3) *UniformMagneticField {
	return &UniformMagneticField{value: value}
}

func (f *UniformMagneticField) At(pos core.Vector3, z float64) core.Vector3 {
	return f.value
}

// TurbulentCellField is a crude turbulence stand-in: space is divided into
// cubic cells and each cell carries a field of fixed strength with a random
// but reproducible orientation derived from the cell coordinates and seed.
type TurbulentCellField struct {
	strength float64
	cellSize float64
	seed     int64
}

func NewTurbulentCellField(strength, cellSize float64, seed int64) *TurbulentCellField {
	return &TurbulentCellField{strength: strength, cellSize: cellSize, seed: seed}
}

func (f *TurbulentCellField) At(pos core.Vector3, z float64) core.Vector3 {
	ix := int64(math.Floor(pos.X / f.cellSize))
	iy := int64(math.Floor(pos.Y / f.cellSize))
	iz := int64(math.Floor(pos.Z / f.cellSize))

	// cheap splitmix-style hash of the cell coordinates
	h := uint64(f.seed) ^ uint64(ix)*0x9e3779b97f4a7c15 ^ uint64(iy)*0xbf58476d1ce4e5b9 ^ uint64(iz)*0x94d049bb133111eb
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27

	phi := 2 * math.Pi * float64(h&0xffffffff) / float64(1<<32)
	cosTheta := 2*float64(h>>32)/float64(1<<32) - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)

	dir := core.Vector3{
		X: sinTheta * math.Cos(phi),
		Y: sinTheta * math.Sin(phi),
		Z: cosTheta,
	}
	return dir.Scale(f.strength)
}

// RadialWind is an advection field blowing radially outward from the origin
// at constant speed.
type RadialWind struct {
	speed float64
}

func NewRadialWind(speed float64) *RadialWind {
	return &RadialWind{speed: speed}
}

func (w *RadialWind) At(pos core.Vector3) core.Vector3 {
	return pos.UnitVector().Scale(w.speed)
}
