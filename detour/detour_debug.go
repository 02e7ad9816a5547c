package detour

// DtDebugMesh is a snapshot of the mesh structure for external renderers.
type DtDebugMesh struct {
	Tiles   []DtDebugTile    `msgpack:"tiles"`
	OffMesh []DtDebugOffMesh `msgpack:"offmesh"`
}

type DtDebugTile struct {
	X     int32         `msgpack:"x"`
	Y     int32         `msgpack:"y"`
	Layer int32         `msgpack:"layer"`
	Bmin  [3]float32    `msgpack:"bmin"`
	Bmax  [3]float32    `msgpack:"bmax"`
	Polys []DtDebugPoly `msgpack:"polys"`
}

type DtDebugPoly struct {
	Ref        DtNodeRef    `msgpack:"ref"`
	Verts      [][3]float32 `msgpack:"verts"`
	Area       uint8        `msgpack:"area"`
	Flags      uint16       `msgpack:"flags"`
	Neighbours []DtNodeRef  `msgpack:"neighbours"`
}

type DtDebugOffMesh struct {
	Ref     DtNodeRef    `msgpack:"ref"`
	Start   [3]float32   `msgpack:"start"`
	End     [3]float32   `msgpack:"end"`
	Rad     float32      `msgpack:"rad"`
	Bidir   bool         `msgpack:"bidir"`
	Area    uint8        `msgpack:"area"`
	Flags   uint16       `msgpack:"flags"`
	UserId  uint32       `msgpack:"user_id"`
	Anchors [2]DtNodeRef `msgpack:"anchors"`
}

// DebugExport copies out polygon rings, their links and the off-mesh connections.
func (mesh *DtNavMesh) DebugExport() *DtDebugMesh {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	out := &DtDebugMesh{}
	for _, tile := range mesh.m_tiles {
		if tile.Header == nil {
			continue
		}
		dt := DtDebugTile{
			X:     tile.Header.X,
			Y:     tile.Header.Y,
			Layer: tile.Header.Layer,
			Bmin:  tile.Header.Bmin,
			Bmax:  tile.Header.Bmax,
		}
		base := mesh.getPolyRefBase(tile)
		for i, poly := range tile.Polys {
			ref := base | DtNodeRef(i)
			dp := DtDebugPoly{Ref: ref, Area: poly.GetArea(), Flags: poly.Flags}
			for _, v := range tile.PolyVerts(poly) {
				dp.Verts = append(dp.Verts, v)
			}
			mesh.forEachNeighbour(ref, 0, func(nb *DtNeighbour) {
				dp.Neighbours = append(dp.Neighbours, nb.Ref)
			})
			dt.Polys = append(dt.Polys, dp)
		}
		out.Tiles = append(out.Tiles, dt)
	}
	for i, con := range mesh.m_offMeshCons {
		if !con.alive {
			continue
		}
		out.OffMesh = append(out.OffMesh, DtDebugOffMesh{
			Ref:     EncodeNodeRef(DT_NODE_OFFMESH, con.salt, uint32(i), 0),
			Start:   con.Endpoint(0),
			End:     con.Endpoint(1),
			Rad:     con.Rad,
			Bidir:   con.Bidirectional(),
			Area:    con.Area,
			Flags:   con.Flags,
			UserId:  con.UserId,
			Anchors: con.Anchors,
		})
	}
	return out
}
