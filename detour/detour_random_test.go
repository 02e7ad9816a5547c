package detour

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/navquery/common"
)

// unevenMesh has a 1x1 square next to a 3x1 rectangle.
func unevenMesh(t *testing.T) (*DtNavMesh, DtNodeRef, DtNodeRef) {
	verts := []float32{
		0, 0, 0,
		0, 0, 1,
		1, 0, 1,
		1, 0, 0,
		4, 0, 1,
		4, 0, 0,
	}
	mesh := newTestMesh(t, makeTile(0, 0, verts, [][]uint16{{0, 1, 2, 3}, {3, 2, 4, 5}}))
	return mesh, polyAt(t, mesh, common.Vec3{0.5, 0, 0.5}), polyAt(t, mesh, common.Vec3{2.5, 0, 0.5})
}

func TestRandomPointAreaWeighted(t *testing.T) {
	mesh, small, large := unevenMesh(t)
	q := newTestQuery(t, mesh)
	rng := rand.New(rand.NewSource(1))

	const samples = 20000
	counts := map[DtNodeRef]int{}
	for i := 0; i < samples; i++ {
		ref, pt, status := q.FindRandomPoint(DefaultQueryFilter{}, rng)
		require.True(t, status.DtStatusSucceed())
		counts[ref]++

		closest, _, status := mesh.ClosestPointOnPoly(ref, pt)
		require.True(t, status.DtStatusSucceed())
		require.InDelta(t, 0, closest.Sub(pt).Len(), 1e-4, "sample %v outside its polygon", pt)
	}
	assert.Len(t, counts, 2)
	assert.InDelta(t, 0.25, float64(counts[small])/samples, 0.02)
	assert.InDelta(t, 0.75, float64(counts[large])/samples, 0.02)
}

func TestRandomPointUniformInsidePolygon(t *testing.T) {
	// One hexagon; the fan triangles have different areas.
	verts := []float32{
		0, 0, 0,
		0, 0, 2,
		1, 0, 3,
		3, 0, 3,
		4, 0, 1,
		3, 0, 0,
	}
	mesh := newTestMesh(t, makeTile(0, 0, verts, [][]uint16{{0, 1, 2, 3, 4, 5}}))
	q := newTestQuery(t, mesh)
	rng := rand.New(rand.NewSource(7))

	ring := []common.Vec3{{0, 0, 0}, {0, 0, 2}, {1, 0, 3}, {3, 0, 3}, {4, 0, 1}, {3, 0, 0}}
	total := common.PolyArea2D(ring)
	// Area of the part with x < 2.
	left := common.PolyArea2D([]common.Vec3{{0, 0, 0}, {0, 0, 2}, {1, 0, 3}, {2, 0, 3}, {2, 0, 0}})

	const samples = 20000
	inLeft := 0
	for i := 0; i < samples; i++ {
		_, pt, status := q.FindRandomPoint(DefaultQueryFilter{}, rng)
		require.True(t, status.DtStatusSucceed())
		require.True(t, common.PointInPolygon(pt, ring), "sample %v outside", pt)
		if pt[0] < 2 {
			inLeft++
		}
	}
	assert.InDelta(t, float64(left/total), float64(inLeft)/samples, 0.02)
}

func TestRandomPointFilterAndEmptyArea(t *testing.T) {
	mesh, small, _ := unevenMesh(t)
	q := newTestQuery(t, mesh)
	rng := rand.New(rand.NewSource(3))

	onlySmall := QueryFilterFunc{Pass: func(node DtNodeInfo) bool { return node.Ref == small }}
	for i := 0; i < 100; i++ {
		ref, _, status := q.FindRandomPoint(onlySmall, rng)
		require.True(t, status.DtStatusSucceed())
		require.Equal(t, small, ref)
	}

	none := QueryFilterFunc{Pass: func(DtNodeInfo) bool { return false }}
	ref, _, status := q.FindRandomPoint(none, rng)
	assert.Zero(t, ref)
	assert.True(t, status.DtStatusDetail(DT_EMPTY_AREA))
	assert.ErrorIs(t, status.Err(), ErrEmptyArea)

	empty, st := NewDtNavMesh(testParams())
	require.True(t, st.DtStatusSucceed())
	eq := newTestQuery(t, empty)
	_, _, status = eq.FindRandomPoint(DefaultQueryFilter{}, rng)
	assert.True(t, status.DtStatusDetail(DT_EMPTY_AREA))

	_, _, status = q.FindRandomPoint(DefaultQueryFilter{}, nil)
	assert.True(t, status.DtStatusDetail(DT_INVALID_PARAM))
}

func TestRandomPointReproducible(t *testing.T) {
	mesh := islandMesh(t)
	q := newTestQuery(t, mesh)
	_, status := mesh.AddOffMeshConnection(bridgeParams(true))
	require.True(t, status.DtStatusSucceed())

	draw := func() []common.Vec3 {
		rng := rand.New(rand.NewSource(42))
		var pts []common.Vec3
		for i := 0; i < 50; i++ {
			ref, pt, status := q.FindRandomPoint(DefaultQueryFilter{}, rng)
			require.True(t, status.DtStatusSucceed())
			// Off-mesh connections have no area.
			require.Equal(t, DT_NODE_POLYGON, ref.Kind())
			pts = append(pts, pt)
		}
		return pts
	}
	assert.Equal(t, draw(), draw())
}
