package core

import "math"

// Vector3 is a 3-component cartesian vector.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(w Vector3) Vector3 {
	return Vector3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

func (v Vector3) Scale(a float64) Vector3 {
	return Vector3{v.X * a, v.Y * a, v.Z * a}
}

func (v Vector3) Dot(w Vector3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

func (v Vector3) Cross(w Vector3) Vector3 {
	return Vector3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// R returns the euclidean norm.
func (v Vector3) R() float64 {
	return math.Sqrt(v.Dot(v))
}

// UnitVector returns v normalized to length 1, or the zero vector if v is zero.
func (v Vector3) UnitVector() Vector3 {
	r := v.R()
	if r == 0 {
		return Vector3{}
	}
	return v.Scale(1 / r)
}

func (v Vector3) IsValid() bool {
	for _, x := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
