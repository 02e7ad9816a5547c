package detour

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/navquery/common"
)

func TestNodeRefEncoding(t *testing.T) {
	cases := []struct {
		kind              DtNodeKind
		salt, index, poly uint32
	}{
		{DT_NODE_POLYGON, 1, 0, 0},
		{DT_NODE_POLYGON, 0xffff, 1<<DT_INDEX_BITS - 1, 1<<DT_POLY_BITS - 1},
		{DT_NODE_OFFMESH, 7, 42, 0},
	}
	for _, c := range cases {
		ref := EncodeNodeRef(c.kind, c.salt, c.index, c.poly)
		kind, salt, index, poly := DecodeNodeRef(ref)
		assert.Equal(t, c.kind, kind)
		assert.Equal(t, c.salt, salt)
		assert.Equal(t, c.index, index)
		assert.Equal(t, c.poly, poly)
		assert.Equal(t, c.kind, ref.Kind())
	}
	assert.Equal(t, DT_NODE_NONE, DtNodeRef(0).Kind())
}

func TestNewNavMeshRejectsBadParams(t *testing.T) {
	_, status := NewDtNavMesh(nil)
	assert.True(t, status.DtStatusDetail(DT_INVALID_PARAM))
	_, status = NewDtNavMesh(&NavMeshParams{TileWidth: 1, TileHeight: 1})
	assert.True(t, status.DtStatusFailed())
}

func TestAddTileValidation(t *testing.T) {
	mesh := newTestMesh(t, gridTile(0, 0, 0, 0, 1, 2, 2))

	_, status := mesh.AddTile(gridTile(0, 0, 0, 0, 1, 2, 2))
	assert.True(t, status.DtStatusDetail(DT_ALREADY_OCCUPIED))
	assert.ErrorIs(t, status.Err(), ErrAlreadyOccupied)

	bad := gridTile(1, 0, 10, 0, 1, 1, 1)
	bad.Header.Magic = 0
	_, status = mesh.AddTile(bad)
	assert.True(t, status.DtStatusDetail(DT_WRONG_MAGIC))

	bad = gridTile(1, 0, 10, 0, 1, 1, 1)
	bad.Header.Version = DT_NAVMESH_VERSION + 1
	_, status = mesh.AddTile(bad)
	assert.True(t, status.DtStatusDetail(DT_WRONG_VERSION))

	bad = gridTile(1, 0, 10, 0, 1, 1, 1)
	bad.Polys[0].Verts[2] = 99
	_, status = mesh.AddTile(bad)
	assert.True(t, status.DtStatusDetail(DT_INVALID_PARAM))

	assert.NotNil(t, mesh.GetTileAt(0, 0, 0))
	assert.Nil(t, mesh.GetTileAt(1, 0, 0))
}

func TestInternalAndExternalLinks(t *testing.T) {
	mesh := newTestMesh(t,
		gridTile(0, 0, 0, 0, 5, 2, 1),
		gridTile(1, 0, 10, 0, 5, 2, 1),
	)
	west := polyAt(t, mesh, common.Vec3{7, 0, 1})
	east := polyAt(t, mesh, common.Vec3{12, 0, 1})
	inner := polyAt(t, mesh, common.Vec3{2, 0, 1})

	nbs, status := mesh.Neighbours(west, 0)
	require.True(t, status.DtStatusSucceed())
	var refs []DtNodeRef
	for _, nb := range nbs {
		refs = append(refs, nb.Ref)
	}
	assert.ElementsMatch(t, []DtNodeRef{inner, east}, refs)

	// The portal into the next tile is the whole shared edge at x=10.
	left, right, status := mesh.GetPortalPoints(west, east)
	require.True(t, status.DtStatusSucceed())
	assert.InDelta(t, 10, left[0], 1e-5)
	assert.InDelta(t, 10, right[0], 1e-5)
	assert.InDelta(t, 5, common.Abs(left[2]-right[2]), 1e-5)

	mid, status := mesh.GetEdgeMidPoint(east, west)
	require.True(t, status.DtStatusSucceed())
	assert.InDelta(t, 10, mid[0], 1e-5)
	assert.InDelta(t, 2.5, mid[2], 1e-5)

	_, _, status = mesh.GetPortalPoints(inner, east)
	assert.True(t, status.DtStatusFailed())
}

func TestPortalNeedsMatchingHeight(t *testing.T) {
	high := gridTile(1, 0, 10, 0, 5, 1, 1)
	for i := 1; i < len(high.Verts); i += 3 {
		high.Verts[i] = 3
	}
	mesh := newTestMesh(t, gridTile(0, 0, 0, 0, 5, 2, 1), high)
	nbs, status := mesh.Neighbours(polyAt(t, mesh, common.Vec3{7, 0, 1}), 0)
	require.True(t, status.DtStatusSucceed())
	assert.Len(t, nbs, 1)
}

func TestGetNodeByRef(t *testing.T) {
	mesh := newTestMesh(t, gridTile(0, 0, 0, 0, 1, 2, 2))
	ref := polyAt(t, mesh, common.Vec3{0.5, 0, 0.5})

	info, status := mesh.GetNodeByRef(ref)
	require.True(t, status.DtStatusSucceed())
	assert.Equal(t, DT_NODE_POLYGON, info.Kind)
	assert.Equal(t, uint16(testPolyFlags), info.Flags)
	assert.True(t, mesh.IsValidNodeRef(ref))

	_, _, _, poly := DecodeNodeRef(ref)
	for _, bad := range []DtNodeRef{
		0,
		ref + 100,
		EncodeNodeRef(DT_NODE_POLYGON, 9, 0, poly),
		EncodeNodeRef(DT_NODE_OFFMESH, 1, 0, 0),
		EncodeNodeRef(3, 1, 0, 0),
	} {
		_, status := mesh.GetNodeByRef(bad)
		assert.True(t, status.DtStatusDetail(DT_INVALID_REF), "ref %x", bad)
		assert.ErrorIs(t, status.Err(), ErrInvalidRef)
	}
}

func TestFindNearestPoly(t *testing.T) {
	mesh := newTestMesh(t, gridTile(0, 0, 0, 0, 1, 3, 3))

	ref, pt, status := mesh.FindNearestPoly(common.Vec3{1.5, 0.3, 1.5}, common.Vec3{0.5, 1, 0.5}, DefaultQueryFilter{})
	require.True(t, status.DtStatusSucceed())
	assert.Equal(t, polyAt(t, mesh, common.Vec3{1.5, 0, 1.5}), ref)
	assert.InDelta(t, 0, pt[1], 1e-5)
	assert.InDelta(t, 1.5, pt[0], 1e-5)

	// Outside the mesh the closest boundary point is returned.
	ref, pt, status = mesh.FindNearestPoly(common.Vec3{3.4, 0, 1.5}, common.Vec3{1, 1, 1}, DefaultQueryFilter{})
	require.True(t, status.DtStatusSucceed())
	require.NotZero(t, ref)
	assert.InDelta(t, 3, pt[0], 1e-5)

	ref, _, status = mesh.FindNearestPoly(common.Vec3{50, 0, 50}, common.Vec3{1, 1, 1}, DefaultQueryFilter{})
	require.True(t, status.DtStatusSucceed())
	assert.Zero(t, ref)

	_, _, status = mesh.FindNearestPoly(common.Vec3{1, 0, 1}, common.Vec3{1, 1, 1}, nil)
	assert.True(t, status.DtStatusDetail(DT_INVALID_PARAM))
}

func TestQueryPolygonsAndHeight(t *testing.T) {
	tile := gridTile(0, 0, 0, 0, 1, 2, 1)
	// Slope the second square up to y=1 at x=2.
	tile.Verts[2*3+1] = 1
	tile.Verts[5*3+1] = 1
	mesh := newTestMesh(t, tile)

	refs, status := mesh.QueryPolygons(common.Vec3{1.5, 0, 0.5}, common.Vec3{0.2, 2, 0.2}, DefaultQueryFilter{})
	require.True(t, status.DtStatusSucceed())
	require.Len(t, refs, 1)

	h, status := mesh.GetPolyHeight(refs[0], common.Vec3{1.5, 5, 0.5})
	require.True(t, status.DtStatusSucceed())
	assert.InDelta(t, 0.5, h, 1e-4)

	_, status = mesh.GetPolyHeight(refs[0], common.Vec3{0.5, 0, 0.5})
	assert.True(t, status.DtStatusFailed())

	closest, over, status := mesh.ClosestPointOnPoly(refs[0], common.Vec3{3, 0, 0.5})
	require.True(t, status.DtStatusSucceed())
	assert.False(t, over)
	assert.InDelta(t, 2, closest[0], 1e-5)

	center, status := mesh.GetPolyCenter(refs[0])
	require.True(t, status.DtStatusSucceed())
	assert.InDelta(t, 1.5, center[0], 1e-5)

	tx, ty := mesh.CalcTileLoc(common.Vec3{25, 0, -3})
	assert.Equal(t, int32(2), tx)
	assert.Equal(t, int32(-1), ty)
}
