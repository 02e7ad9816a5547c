package common

import (
	"cmp"
	"math"
)

// / Returns the square of the value.
func Sqr[T IT](a T) T {
	return a * a
}

// / Returns the absolute value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// / Clamps the value to the specified range.
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

func NextPow2(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}

func Ilog2(v uint32) uint32 {
	b2u := func(b bool) uint32 {
		if b {
			return 1
		}
		return 0
	}
	r := b2u(v > 0xffff) << 4
	v >>= r
	shift := b2u(v > 0xff) << 3
	v >>= shift
	r |= shift
	shift = b2u(v > 0xf) << 2
	v >>= shift
	r |= shift
	shift = b2u(v > 0x3) << 1
	v >>= shift
	r |= shift
	r |= v >> 1
	return r
}

// / Derives the signed xz-plane area of the triangle ABC, or the relationship of line AB to point C.
// / The value is twice the triangle area.
func TriArea2D(a, b, c Vec3) float32 {
	abx := b[0] - a[0]
	abz := b[2] - a[2]
	acx := c[0] - a[0]
	acz := c[2] - a[2]
	return acx*abz - abx*acz
}

// PolyArea2D is the unsigned xz-plane area of a convex polygon.
func PolyArea2D(verts []Vec3) float32 {
	var area float32
	for i := 2; i < len(verts); i++ {
		area += TriArea2D(verts[0], verts[i-1], verts[i])
	}
	return Abs(area) * 0.5
}

// / Derives the distance between the specified points on the xz-plane.
func Vdist2D(v1, v2 Vec3) float32 {
	return float32(math.Sqrt(float64(Vdist2DSqr(v1, v2))))
}

func Vdist2DSqr(v1, v2 Vec3) float32 {
	dx := v2[0] - v1[0]
	dz := v2[2] - v1[2]
	return dx*dx + dz*dz
}

// / Derives the xz-plane 2D perp product of the two vectors. (uz*vx - ux*vz)
func Vperp2D(u, v Vec3) float32 {
	return u[2]*v[0] - u[0]*v[2]
}

func Vdot2D(u, v Vec3) float32 {
	return u[0]*v[0] + u[2]*v[2]
}

// / Performs a linear interpolation between two vectors. (@p v1 toward @p v2)
func Vlerp(v1, v2 Vec3, t float32) Vec3 {
	return Vec3{
		v1[0] + (v2[0]-v1[0])*t,
		v1[1] + (v2[1]-v1[1])*t,
		v1[2] + (v2[2]-v1[2])*t,
	}
}

// / Performs a 'sloppy' colocation check of the specified points.
func Vequal(p0, p1 Vec3) bool {
	thr := Sqr(float32(1.0) / 16384.0)
	return p0.Sub(p1).LenSqr() < thr
}

func IsFinite(v float32) bool {
	return !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v))
}

// / Checks that the specified vector's components are all finite.
func Visfinite(v Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

func Sqrt(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
