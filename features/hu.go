package features

import (
	"math"

	"shapefinder/types"
)

// MinMomentMagnitude bounds |m| away from zero before the logarithm.
// Symmetric shapes produce invariants that are exactly zero.
const MinMomentMagnitude = 1e-30

// HuInvariants derives the seven Hu invariants from normalized central
// moments (keys nu20, nu11, nu02, nu30, nu21, nu12, nu03).
func HuInvariants(m map[string]float64) [types.ShapeDims]float64 {
	nu20, nu11, nu02 := m["nu20"], m["nu11"], m["nu02"]
	nu30, nu21, nu12, nu03 := m["nu30"], m["nu21"], m["nu12"], m["nu03"]

	var hu [types.ShapeDims]float64

	t0 := nu30 + nu12
	t1 := nu21 + nu03
	q0 := t0 * t0
	q1 := t1 * t1
	n4 := 4 * nu11
	s := nu20 + nu02
	d := nu20 - nu02

	hu[0] = s
	hu[1] = d*d + n4*nu11
	hu[3] = q0 + q1
	hu[5] = d*(q0-q1) + n4*t0*t1

	t0 *= q0 - 3*q1
	t1 *= 3*q0 - q1

	q0 = nu30 - 3*nu12
	q1 = 3*nu21 - nu03

	hu[2] = q0*q0 + q1*q1
	hu[4] = q0*t0 + q1*t1
	hu[6] = q1*t0 - q0*t1

	return hu
}

// NormalizeMoment compresses an invariant to -sign(m)*log10(|m|)
func NormalizeMoment(m float64) float64 {
	magnitude := math.Abs(m)
	if magnitude < MinMomentMagnitude {
		magnitude = MinMomentMagnitude
	}
	return -math.Copysign(1, m) * math.Log10(magnitude)
}

// ShapeVectorFromMoments turns a contour's moments into its descriptor
func ShapeVectorFromMoments(m map[string]float64) types.ShapeVector {
	var v types.ShapeVector
	for i, h := range HuInvariants(m) {
		v[i] = NormalizeMoment(h)
	}
	return v
}
