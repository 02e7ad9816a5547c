package detour

import (
	"github.com/gorustyt/navquery/common"
)

// randomPointInConvexPoly picks the fan triangle by sel weighted by area, then
// folds (r1, r2) into it. All three draws are in [0,1).
func randomPointInConvexPoly(verts []common.Vec3, sel, r1, r2 float32) common.Vec3 {
	npts := len(verts)
	var areas [DT_VERTS_PER_POLYGON]float32
	// Calc triangle araes
	areasum := float32(0.0)
	for i := 2; i < npts; i++ {
		areas[i] = common.Abs(common.TriArea2D(verts[0], verts[i-1], verts[i]))
		areasum += areas[i]
	}
	// Find sub triangle weighted by area.
	thr := sel * areasum
	acc := float32(0.0)
	tri := npts - 1
	for i := 2; i < npts; i++ {
		if thr < acc+areas[i] {
			tri = i
			break
		}
		acc += areas[i]
	}

	// Points in the far half of the parallelogram are mirrored back.
	if r1+r2 > 1 {
		r1 = 1 - r1
		r2 = 1 - r2
	}
	pa := verts[0]
	pb := verts[tri-1]
	pc := verts[tri]
	return pa.Add(pb.Sub(pa).Mul(r1)).Add(pc.Sub(pa).Mul(r2))
}

// calcPortalOverlap matches edge ab against edge cd from another polygon. It
// returns the shared interval as fractions along ab when the edges are
// collinear in xz within dtPortalEps, overlap by more than dtPortalEps, and the
// heights at both ends of the overlap differ by at most max(climb, dtPortalEps).
func calcPortalOverlap(a, b, c, d common.Vec3, climb float32) (tmin, tmax float32, ok bool) {
	ab := b.Sub(a)
	lenSqr := common.Vdot2D(ab, ab)
	if lenSqr < dtPortalEps*dtPortalEps {
		return 0, 0, false
	}
	length := common.Sqrt(lenSqr)

	// Both endpoints of cd must lie on the line through ab.
	if common.Abs(common.Vperp2D(ab, c.Sub(a)))/length > dtPortalEps ||
		common.Abs(common.Vperp2D(ab, d.Sub(a)))/length > dtPortalEps {
		return 0, 0, false
	}
	tc := common.Vdot2D(c.Sub(a), ab) / lenSqr
	td := common.Vdot2D(d.Sub(a), ab) / lenSqr
	tmin = max(min(tc, td), 0)
	tmax = min(max(tc, td), 1)
	if (tmax-tmin)*length <= dtPortalEps {
		return 0, 0, false
	}

	cd := d.Sub(c)
	cdLenSqr := common.Vdot2D(cd, cd)
	if cdLenSqr == 0 {
		return 0, 0, false
	}
	maxGap := max(climb, dtPortalEps)
	for _, t := range [2]float32{tmin, tmax} {
		p := common.Vlerp(a, b, t)
		s := common.Clamp(common.Vdot2D(p.Sub(c), cd)/cdLenSqr, 0, 1)
		q := common.Vlerp(c, d, s)
		if common.Abs(p[1]-q[1]) > maxGap {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}
