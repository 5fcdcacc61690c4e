package core

import (
	"math"
)

// OrthonormalBasis returns two unit vectors that together with w form a right-handed basis
func OrthonormalBasis(w Vec3) (Vec3, Vec3) {
	// Find a vector not parallel to w
	var a Vec3
	if math.Abs(w.X) > 0.1 {
		a = NewVec3(0, 1, 0)
	} else {
		a = NewVec3(1, 0, 0)
	}
	u := a.Cross(w).Normalize()
	v := w.Cross(u)
	return u, v
}

// SampleCosineHemisphere generates a cosine-weighted direction in hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	a := 2.0 * math.Pi * sample.X
	z := sample.Y
	r := math.Sqrt(z)

	x := r * math.Cos(a)
	y := r * math.Sin(a)
	zCoord := math.Sqrt(1.0 - z)

	tangent, bitangent := OrthonormalBasis(normal)

	// Transform to world space
	return tangent.Multiply(x).Add(bitangent.Multiply(y)).Add(normal.Multiply(zCoord))
}

// SampleCone samples a direction uniformly within a cone
func SampleCone(direction Vec3, cosTotalWidth float64, sample Vec2) Vec3 {
	u, v := OrthonormalBasis(direction)

	cosTheta := 1.0 - sample.X*(1.0-cosTotalWidth)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * sample.Y

	x := sinTheta * math.Cos(phi)
	y := sinTheta * math.Sin(phi)
	z := cosTheta

	return u.Multiply(x).Add(v.Multiply(y)).Add(direction.Multiply(z))
}

// SampleOnUnitSphere generates a uniform direction on the unit sphere
func SampleOnUnitSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X // z ∈ [-1, 1]
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	x := r * math.Cos(phi)
	y := r * math.Sin(phi)
	return NewVec3(x, y, z)
}

// UniformConePDF calculates the PDF for uniform sampling within a cone
func UniformConePDF(cosTotalWidth float64) float64 {
	return 1.0 / (2.0 * math.Pi * (1.0 - cosTotalWidth))
}

// SamplePointInUnitDisk maps a uniform sample to a uniform point in the unit disk
func SamplePointInUnitDisk(sample Vec2) Vec2 {
	r := math.Sqrt(sample.X)
	theta := 2.0 * math.Pi * sample.Y
	return NewVec2(r*math.Cos(theta), r*math.Sin(theta))
}
