package common

func ComputeTileHash(x, y, mask int32) int32 {
	h1 := uint32(0x8da6b343) // Large multiplicative constants;
	h2 := uint32(0xd8163841) // here arbitrarily chosen primes
	n := h1*uint32(x) + h2*uint32(y)
	return int32(n & uint32(mask))
}

// / Determines if two axis-aligned bounding boxes overlap.
func OverlapBounds(amin, amax, bmin, bmax Vec3) bool {
	if amin[0] > bmax[0] || amax[0] < bmin[0] {
		return false
	}
	if amin[1] > bmax[1] || amax[1] < bmin[1] {
		return false
	}
	if amin[2] > bmax[2] || amax[2] < bmin[2] {
		return false
	}
	return true
}

// PointInPolygon tests pt against the polygon on the xz-plane.
func PointInPolygon(pt Vec3, verts []Vec3) bool {
	c := false
	nverts := len(verts)
	for i, j := 0, nverts-1; i < nverts; j, i = i, i+1 {
		vi := verts[i]
		vj := verts[j]
		if ((vi[2] > pt[2]) != (vj[2] > pt[2])) &&
			(pt[0] < (vj[0]-vi[0])*(pt[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
	}
	return c
}

// DistancePtSegSqr2D returns the parametric position of the closest point on pq and
// the squared xz distance to it.
func DistancePtSegSqr2D(pt, p, q Vec3) (t float32, d float32) {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	den := pqx*pqx + pqz*pqz
	t = pqx*dx + pqz*dz
	if den > 0 {
		t /= den
	}
	t = Clamp(t, 0, 1)
	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return t, dx*dx + dz*dz
}

// DistancePtPolyEdgesSqr reports whether pt is inside the polygon and fills the
// squared distance (ed) and segment parameter (et) for each edge j -> j+1.
func DistancePtPolyEdgesSqr(pt Vec3, verts []Vec3, ed, et []float32) (inside bool) {
	nverts := len(verts)
	for i, j := 0, nverts-1; i < nverts; j, i = i, i+1 {
		vi := verts[i]
		vj := verts[j]
		if ((vi[2] > pt[2]) != (vj[2] > pt[2])) &&
			(pt[0] < (vj[0]-vi[0])*(pt[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			inside = !inside
		}
		et[j], ed[j] = DistancePtSegSqr2D(pt, vj, vi)
	}
	return inside
}

// ClosestHeightPointTriangle interpolates the height of p inside triangle abc.
func ClosestHeightPointTriangle(p, a, b, c Vec3) (h float32, ok bool) {
	const eps = 1e-6
	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	// Compute scaled barycentric coordinates
	denom := v0[0]*v1[2] - v0[2]*v1[0]
	if Abs(denom) < eps {
		return 0, false
	}
	u := v1[2]*v2[0] - v1[0]*v2[2]
	v := v0[0]*v2[2] - v0[2]*v2[0]
	if denom < 0 {
		denom = -denom
		u = -u
		v = -v
	}

	// If point lies inside the triangle, return interpolated ycoord.
	if u >= 0 && v >= 0 && (u+v) <= denom {
		return a[1] + (v0[1]*u+v1[1]*v)/denom, true
	}
	return 0, false
}
