package detour

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gorustyt/navquery/common"
)

const testPolyFlags = 1

// makeTile builds tile data from vertex triples and polygon rings, linking
// polygons that share an edge.
func makeTile(tx, ty int32, verts []float32, rings [][]uint16) *NavMeshData {
	polys := make([]*DtPoly, len(rings))
	for i, ring := range rings {
		p := &DtPoly{FirstLink: DT_NULL_LINK, VertCount: uint8(len(ring)), Flags: testPolyFlags}
		copy(p.Verts[:], ring)
		polys[i] = p
	}
	for i, ring := range rings {
		for e := range ring {
			a, b := ring[e], ring[(e+1)%len(ring)]
			for j, other := range rings {
				if j == i {
					continue
				}
				for f := range other {
					c, d := other[f], other[(f+1)%len(other)]
					if (a == d && b == c) || (a == c && b == d) {
						polys[i].Neis[e] = uint16(j + 1)
					}
				}
			}
		}
	}
	return &NavMeshData{
		Header: &DtMeshHeader{
			Magic:     DT_NAVMESH_MAGIC,
			Version:   DT_NAVMESH_VERSION,
			X:         tx,
			Y:         ty,
			PolyCount: int32(len(polys)),
			VertCount: int32(len(verts) / 3),
		},
		Verts: verts,
		Polys: polys,
	}
}

// gridTile covers [x0, x0+nx*cell] x [z0, z0+nz*cell] at height 0 with square polygons.
func gridTile(tx, ty int32, x0, z0, cell float32, nx, nz int) *NavMeshData {
	var verts []float32
	for j := 0; j <= nz; j++ {
		for i := 0; i <= nx; i++ {
			verts = append(verts, x0+float32(i)*cell, 0, z0+float32(j)*cell)
		}
	}
	vi := func(i, j int) uint16 { return uint16(j*(nx+1) + i) }
	var rings [][]uint16
	for j := 0; j < nz; j++ {
		for i := 0; i < nx; i++ {
			rings = append(rings, []uint16{vi(i, j), vi(i, j+1), vi(i+1, j+1), vi(i+1, j)})
		}
	}
	return makeTile(tx, ty, verts, rings)
}

func testParams() *NavMeshParams {
	return &NavMeshParams{
		TileWidth:      10,
		TileHeight:     10,
		MaxTiles:       16,
		MaxPolys:       256,
		MaxOffMeshCons: 8,
		WalkableClimb:  0.5,
	}
}

func newTestMesh(t *testing.T, tiles ...*NavMeshData) *DtNavMesh {
	t.Helper()
	mesh, status := NewDtNavMesh(testParams())
	require.True(t, status.DtStatusSucceed())
	for _, tile := range tiles {
		_, status := mesh.AddTile(tile)
		require.True(t, status.DtStatusSucceed(), "add tile: %v", status.Err())
	}
	return mesh
}

func newTestQuery(t *testing.T, mesh *DtNavMesh) *DtNavMeshQuery {
	t.Helper()
	q, status := NewDtNavMeshQuery(mesh, 2048)
	require.True(t, status.DtStatusSucceed())
	return q
}

func polyAt(t *testing.T, mesh *DtNavMesh, pos common.Vec3) DtNodeRef {
	t.Helper()
	ref, _, status := mesh.FindNearestPoly(pos, common.Vec3{0.1, 1, 0.1}, DefaultQueryFilter{})
	require.True(t, status.DtStatusSucceed())
	require.NotZero(t, ref, "no polygon at %v", pos)
	return ref
}

// islandMesh has two 2x1 strips, x in [0,10] and [20,30], with nothing between them.
func islandMesh(t *testing.T) *DtNavMesh {
	return newTestMesh(t,
		gridTile(0, 0, 0, 0, 5, 2, 1),
		gridTile(2, 0, 20, 0, 5, 2, 1),
	)
}
