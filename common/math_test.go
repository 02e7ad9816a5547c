package common

import (
	"math"
	"testing"
)

func assertTrue(t *testing.T, value bool, msg string) {
	t.Helper()
	if !value {
		t.Error(msg)
	}
}

func near(a, b float32) bool {
	return Abs(a-b) < 1e-5
}

func TestClamp(t *testing.T) {
	assertTrue(t, Clamp(2, 0, 1) == 1, "Higher than range error")
	assertTrue(t, Clamp(1, 0, 2) == 1, "Within range error")
	assertTrue(t, Clamp(0, 1, 2) == 1, "Lower than range error")
}

func TestSqr(t *testing.T) {
	assertTrue(t, Sqr(2) == 4, "Sqr squares a number")
	assertTrue(t, Sqr(-4) == 16, "Sqr squares a number")
	assertTrue(t, Sqr(0) == 0, "Sqr squares a number")
}

func TestNextPow2AndIlog2(t *testing.T) {
	for v, want := range map[uint32]uint32{1: 1, 3: 4, 4: 4, 5: 8, 1000: 1024} {
		assertTrue(t, NextPow2(v) == want, "NextPow2")
	}
	for v, want := range map[uint32]uint32{1: 0, 2: 1, 3: 1, 1024: 10, 1 << 20: 20} {
		assertTrue(t, Ilog2(v) == want, "Ilog2")
	}
}

func TestTriArea2D(t *testing.T) {
	a, b, c := Vec3{0, 0, 0}, Vec3{0, 0, 1}, Vec3{1, 0, 1}
	assertTrue(t, near(TriArea2D(a, b, c), 1), "Twice the area")
	assertTrue(t, near(TriArea2D(a, c, b), -1), "Reversed winding flips the sign")
	assertTrue(t, near(TriArea2D(a, b, Vec3{0, 5, 3}), 0), "Collinear points have no area")

	square := []Vec3{{0, 0, 0}, {0, 0, 2}, {2, 0, 2}, {2, 0, 0}}
	assertTrue(t, near(PolyArea2D(square), 4), "Square area")
	reversed := []Vec3{square[3], square[2], square[1], square[0]}
	assertTrue(t, near(PolyArea2D(reversed), 4), "Area is unsigned")
}

func TestVectorHelpers(t *testing.T) {
	assertTrue(t, near(Vdist2D(Vec3{0, 7, 0}, Vec3{3, -1, 4}), 5), "Distance ignores y")
	assertTrue(t, Vlerp(Vec3{0, 0, 0}, Vec3{2, 4, 6}, 0.5) == Vec3{1, 2, 3}, "Lerp midpoint")
	assertTrue(t, Vequal(Vec3{1, 1, 1}, Vec3{1, 1, 1.00001}), "Sloppy equality")
	assertTrue(t, !Vequal(Vec3{1, 1, 1}, Vec3{1, 1, 1.01}), "Distinct points")
	assertTrue(t, Visfinite(Vec3{1, 2, 3}), "Finite vector")
	assertTrue(t, !Visfinite(Vec3{1, float32(math.Inf(1)), 3}), "Infinite component")
	assertTrue(t, !IsFinite(float32(math.NaN())), "NaN is not finite")
}

func TestOverlapBounds(t *testing.T) {
	amin, amax := Vec3{0, 0, 0}, Vec3{1, 1, 1}
	assertTrue(t, OverlapBounds(amin, amax, Vec3{1, 1, 1}, Vec3{2, 2, 2}), "Touching boxes overlap")
	assertTrue(t, !OverlapBounds(amin, amax, Vec3{0, 2, 0}, Vec3{1, 3, 1}), "Stacked boxes do not overlap")
}

func TestPointInPolygon(t *testing.T) {
	square := []Vec3{{0, 0, 0}, {0, 0, 2}, {2, 0, 2}, {2, 0, 0}}
	assertTrue(t, PointInPolygon(Vec3{1, 9, 1}, square), "Inside, height ignored")
	assertTrue(t, !PointInPolygon(Vec3{3, 0, 1}, square), "Outside")

	ed := make([]float32, 4)
	et := make([]float32, 4)
	inside := DistancePtPolyEdgesSqr(Vec3{1, 0, 0.5}, square, ed, et)
	assertTrue(t, inside, "Inside with edge distances")
	// Edge 3 runs from (2,0,0) back to (0,0,0).
	assertTrue(t, near(ed[3], 0.25), "Distance to the closest edge")
	assertTrue(t, near(et[3], 0.5), "Parameter along the closest edge")
}

func TestDistancePtSegSqr2D(t *testing.T) {
	tt, d := DistancePtSegSqr2D(Vec3{1, 0, 1}, Vec3{0, 0, 0}, Vec3{2, 0, 0})
	assertTrue(t, near(tt, 0.5) && near(d, 1), "Projection onto the segment")
	tt, d = DistancePtSegSqr2D(Vec3{-1, 0, 0}, Vec3{0, 0, 0}, Vec3{2, 0, 0})
	assertTrue(t, near(tt, 0) && near(d, 1), "Clamped to the segment start")
}

func TestClosestHeightPointTriangle(t *testing.T) {
	a, b, c := Vec3{0, 0, 0}, Vec3{0, 2, 2}, Vec3{2, 0, 0}
	h, ok := ClosestHeightPointTriangle(Vec3{0.5, 0, 1}, a, b, c)
	assertTrue(t, ok && near(h, 1), "Interpolated height")
	_, ok = ClosestHeightPointTriangle(Vec3{3, 0, 3}, a, b, c)
	assertTrue(t, !ok, "Outside the triangle")
}

func TestComputeTileHash(t *testing.T) {
	const mask = 63
	seen := map[int32]bool{}
	for x := int32(-4); x < 4; x++ {
		h := ComputeTileHash(x, 3, mask)
		assertTrue(t, h >= 0 && h <= mask, "Hash within mask")
		seen[h] = true
	}
	assertTrue(t, len(seen) > 4, "Neighbouring tiles spread over buckets")
}

func TestVertAtWideIndex(t *testing.T) {
	const n = 0xffff
	verts := make([]float32, 0, n*3)
	for i := 0; i < n; i++ {
		verts = AppendVec3(verts, Vec3{float32(i), 0, 1})
	}
	for _, i := range []uint16{0, 21845, 21846, 0xfffe} {
		v := VertAt(verts, i)
		assertTrue(t, v[0] == float32(i) && v[2] == 1, "Vertex read at its own index")
	}
	assertTrue(t, len(GetVert3(verts, uint16(21846))) == 3, "Triple view")
}
