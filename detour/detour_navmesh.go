package detour

import (
	"log/slog"
	"math"
	"sync"

	"github.com/gorustyt/navquery/common"
)

// Maximum distance between collinear edges still treated as a shared portal.
const dtPortalEps = 0.01

type DtNavMesh struct {
	mu sync.RWMutex

	m_params                  *NavMeshParams ///< Current initialization params.
	m_orig                    common.Vec3    ///< Origin of the tile (0,0)
	m_tileWidth, m_tileHeight float32        ///< Dimensions of each tile.
	m_maxTiles                int32          ///< Max number of tiles.
	m_tileLutSize             int32          ///< Tile hash lookup size (must be pot).
	m_tileLutMask             int32          ///< Tile hash lookup mask.
	m_posLookup               []*DtMeshTile  ///< Tile hash lookup.
	m_nextFree                *DtMeshTile    ///< Freelist of tiles.
	m_tiles                   []*DtMeshTile  ///< List of tiles.

	m_offMeshCons []*DtOffMeshConnection ///< Off-mesh connection slots.
	m_offMeshFree []uint32               ///< Free off-mesh slots, reused LIFO.
}

// / Initializes the navigation mesh for tiled use.
// /  @param[in]	params		Initialization parameters.
// / @return The status flags for the operation.
func NewDtNavMesh(params *NavMeshParams) (*DtNavMesh, DtStatus) {
	if params == nil || params.MaxTiles <= 0 || params.TileWidth <= 0 || params.TileHeight <= 0 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	if uint64(params.MaxTiles) > 1<<DT_INDEX_BITS || uint64(params.MaxPolys) > 1<<DT_POLY_BITS {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	mesh := &DtNavMesh{
		m_params:     params,
		m_orig:       params.Orig,
		m_tileWidth:  params.TileWidth,
		m_tileHeight: params.TileHeight,
		m_maxTiles:   params.MaxTiles,
	}

	// Init tiles
	mesh.m_tileLutSize = int32(common.NextPow2(uint32(params.MaxTiles) / 4))
	if mesh.m_tileLutSize == 0 {
		mesh.m_tileLutSize = 1
	}
	mesh.m_tileLutMask = mesh.m_tileLutSize - 1
	mesh.m_posLookup = make([]*DtMeshTile, mesh.m_tileLutSize)
	mesh.m_tiles = make([]*DtMeshTile, mesh.m_maxTiles)
	for i := mesh.m_maxTiles - 1; i >= 0; i-- {
		mesh.m_tiles[i] = &DtMeshTile{salt: 1, index: uint32(i), Next: mesh.m_nextFree}
		mesh.m_nextFree = mesh.m_tiles[i]
	}
	return mesh, DT_SUCCESS
}

func (mesh *DtNavMesh) GetParams() *NavMeshParams {
	return mesh.m_params
}

func (mesh *DtNavMesh) GetMaxTiles() int32 {
	return mesh.m_maxTiles
}

// GetTile returns the tile in slot i, or nil if the slot is empty.
func (mesh *DtNavMesh) GetTile(i int) *DtMeshTile {
	tile := mesh.m_tiles[i]
	if tile.Header == nil {
		return nil
	}
	return tile
}

func allocLink(tile *DtMeshTile) uint32 {
	if tile.linksFreeList == DT_NULL_LINK {
		tile.Links = append(tile.Links, &DtLink{})
		return uint32(len(tile.Links) - 1)
	}
	link := tile.linksFreeList
	tile.linksFreeList = tile.Links[link].Next
	return link
}

func freeLink(tile *DtMeshTile, link uint32) {
	tile.Links[link].Next = tile.linksFreeList
	tile.linksFreeList = link
}

func addPolyLink(tile *DtMeshTile, poly *DtPoly, l DtLink) {
	idx := allocLink(tile)
	link := tile.Links[idx]
	*link = l
	// Add to linked list.
	link.Next = poly.FirstLink
	poly.FirstLink = idx
}

func (mesh *DtNavMesh) getPolyRefBase(tile *DtMeshTile) DtNodeRef {
	return EncodeNodeRef(DT_NODE_POLYGON, tile.salt, tile.index, 0)
}

func (mesh *DtNavMesh) getTileRef(tile *DtMeshTile) DtTileRef {
	if tile == nil {
		return 0
	}
	return DtTileRef(mesh.getPolyRefBase(tile))
}

// / Calculates the tile grid location for the specified world position.
func (mesh *DtNavMesh) CalcTileLoc(pos common.Vec3) (tx, ty int32) {
	tx = int32(math.Floor(float64((pos[0] - mesh.m_orig[0]) / mesh.m_tileWidth)))
	ty = int32(math.Floor(float64((pos[2] - mesh.m_orig[2]) / mesh.m_tileHeight)))
	return tx, ty
}

// / Gets the tile at the specified grid location.
func (mesh *DtNavMesh) GetTileAt(x, y, layer int32) *DtMeshTile {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	return mesh.getTileAt(x, y, layer)
}

func (mesh *DtNavMesh) getTileAt(x, y, layer int32) *DtMeshTile {
	// Find tile based on hash.
	h := common.ComputeTileHash(x, y, mesh.m_tileLutMask)
	tile := mesh.m_posLookup[h]
	for tile != nil {
		if tile.Header != nil && tile.Header.X == x && tile.Header.Y == y && tile.Header.Layer == layer {
			return tile
		}
		tile = tile.Next
	}
	return nil
}

func validateTileData(data *NavMeshData, params *NavMeshParams) bool {
	header := data.Header
	if int(header.PolyCount) != len(data.Polys) || int(header.VertCount)*3 != len(data.Verts) {
		return false
	}
	if params.MaxPolys > 0 && header.PolyCount > params.MaxPolys {
		return false
	}
	for i, poly := range data.Polys {
		if poly.VertCount < 3 || poly.VertCount > DT_VERTS_PER_POLYGON {
			return false
		}
		for j := uint8(0); j < poly.VertCount; j++ {
			if int32(poly.Verts[j]) >= header.VertCount {
				return false
			}
			nei := poly.Neis[j]
			if nei != 0 && (int32(nei) > header.PolyCount || int(nei-1) == i) {
				return false
			}
		}
	}
	return true
}

// / Adds a tile to the navigation mesh.
// /
// / The polygons are copied, the vertex array is shared with @p data.
// / Portals to every live tile whose bounds touch the new tile are created
// / in both directions.
func (mesh *DtNavMesh) AddTile(data *NavMeshData) (result DtTileRef, status DtStatus) {
	if data == nil || data.Header == nil {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	// Make sure the data is in right format.
	header := data.Header
	if header.Magic != DT_NAVMESH_MAGIC {
		return result, DT_FAILURE | DT_WRONG_MAGIC
	}
	if header.Version != DT_NAVMESH_VERSION {
		return result, DT_FAILURE | DT_WRONG_VERSION
	}
	if !validateTileData(data, mesh.m_params) {
		slog.Warn("navmesh: inconsistent tile data", "x", header.X, "y", header.Y, "layer", header.Layer)
		return result, DT_FAILURE | DT_INVALID_PARAM
	}

	mesh.mu.Lock()
	defer mesh.mu.Unlock()

	// Make sure the location is free.
	if mesh.getTileAt(header.X, header.Y, header.Layer) != nil {
		return result, DT_FAILURE | DT_ALREADY_OCCUPIED
	}
	tile := mesh.m_nextFree
	if tile == nil {
		return result, DT_FAILURE | DT_OUT_OF_MEMORY
	}
	mesh.m_nextFree = tile.Next
	tile.Next = nil

	// Insert tile into the position lut.
	h := common.ComputeTileHash(header.X, header.Y, mesh.m_tileLutMask)
	tile.Next = mesh.m_posLookup[h]
	mesh.m_posLookup[h] = tile

	tile.Header = header
	tile.Data = data
	tile.Verts = data.Verts
	tile.Polys = make([]*DtPoly, len(data.Polys))
	for i, p := range data.Polys {
		poly := *p
		tile.Polys[i] = &poly
	}
	tile.Links = tile.Links[:0]
	tile.linksFreeList = DT_NULL_LINK
	mesh.calcTileBounds(tile)

	mesh.connectIntLinks(tile)

	// Create connections with the tiles around.
	nlinked := 0
	for _, other := range mesh.m_tiles {
		if other == tile || other.Header == nil {
			continue
		}
		if !common.OverlapBounds(tileBmin(tile).Sub(portalSlack(mesh)), tileBmax(tile).Add(portalSlack(mesh)),
			tileBmin(other), tileBmax(other)) {
			continue
		}
		mesh.connectExtLinks(tile, other)
		mesh.connectExtLinks(other, tile)
		nlinked++
	}

	slog.Debug("navmesh: tile added", "x", header.X, "y", header.Y, "polys", header.PolyCount, "neighbourTiles", nlinked)
	return mesh.getTileRef(tile), DT_SUCCESS
}

func portalSlack(mesh *DtNavMesh) common.Vec3 {
	climb := max(mesh.m_params.WalkableClimb, dtPortalEps)
	return common.Vec3{dtPortalEps, climb, dtPortalEps}
}

func tileBmin(tile *DtMeshTile) common.Vec3 { return tile.Header.Bmin }
func tileBmax(tile *DtMeshTile) common.Vec3 { return tile.Header.Bmax }

func (mesh *DtNavMesh) calcTileBounds(tile *DtMeshTile) {
	tile.bounds = make([]polyBounds, len(tile.Polys))
	tmin := common.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	tmax := common.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i, poly := range tile.Polys {
		b := &tile.bounds[i]
		b.bmin = common.VertAt(tile.Verts, poly.Verts[0])
		b.bmax = b.bmin
		for j := uint8(1); j < poly.VertCount; j++ {
			v := common.VertAt(tile.Verts, poly.Verts[j])
			for k := 0; k < 3; k++ {
				b.bmin[k] = min(b.bmin[k], v[k])
				b.bmax[k] = max(b.bmax[k], v[k])
			}
		}
		for k := 0; k < 3; k++ {
			tmin[k] = min(tmin[k], b.bmin[k])
			tmax[k] = max(tmax[k], b.bmax[k])
		}
	}
	if len(tile.Polys) > 0 {
		tile.Header.Bmin = tmin
		tile.Header.Bmax = tmax
	}
}

func (mesh *DtNavMesh) connectIntLinks(tile *DtMeshTile) {
	base := mesh.getPolyRefBase(tile)
	for _, poly := range tile.Polys {
		poly.FirstLink = DT_NULL_LINK

		// Build edge links backwards so that the links will be
		// in the linked list from lowest index to highest.
		for j := int(poly.VertCount) - 1; j >= 0; j-- {
			// Skip hard edges.
			if poly.Neis[j] == 0 {
				continue
			}
			addPolyLink(tile, poly, DtLink{
				Ref:  base | DtNodeRef(poly.Neis[j]-1),
				Edge: uint8(j),
				Side: DT_PORTAL_SIDE,
				Tmin: 0,
				Tmax: 1,
			})
		}
	}
}

// connectExtLinks links the boundary edges of tile to matching boundary edges in target.
// Only tile receives links.
func (mesh *DtNavMesh) connectExtLinks(tile *DtMeshTile, target *DtMeshTile) {
	base := mesh.getPolyRefBase(target)
	climb := mesh.m_params.WalkableClimb
	slack := portalSlack(mesh)
	for _, poly := range tile.Polys {
		nv := int(poly.VertCount)
		for j := 0; j < nv; j++ {
			// Skip internal edges.
			if poly.Neis[j] != 0 {
				continue
			}
			va := common.VertAt(tile.Verts, poly.Verts[j])
			vb := common.VertAt(tile.Verts, poly.Verts[(j+1)%nv])
			emin, emax := va, va
			for k := 0; k < 3; k++ {
				emin[k] = min(va[k], vb[k]) - slack[k]
				emax[k] = max(va[k], vb[k]) + slack[k]
			}
			for ti, tpoly := range target.Polys {
				if !common.OverlapBounds(emin, emax, target.bounds[ti].bmin, target.bounds[ti].bmax) {
					continue
				}
				tnv := int(tpoly.VertCount)
				for k := 0; k < tnv; k++ {
					if tpoly.Neis[k] != 0 {
						continue
					}
					vc := common.VertAt(target.Verts, tpoly.Verts[k])
					vd := common.VertAt(target.Verts, tpoly.Verts[(k+1)%tnv])
					tmin, tmax, ok := calcPortalOverlap(va, vb, vc, vd, climb)
					if !ok {
						continue
					}
					addPolyLink(tile, poly, DtLink{
						Ref:  base | DtNodeRef(ti),
						Edge: uint8(j),
						Side: DT_PORTAL_SIDE,
						Tmin: tmin,
						Tmax: tmax,
					})
					break
				}
			}
		}
	}
}

// The dispatch table resolving a node ref by its kind tag.
var nodeResolvers = [dtNodeKindCount]func(mesh *DtNavMesh, ref DtNodeRef) (DtNodeInfo, bool){
	DT_NODE_NONE:    func(*DtNavMesh, DtNodeRef) (DtNodeInfo, bool) { return DtNodeInfo{}, false },
	DT_NODE_POLYGON: (*DtNavMesh).resolvePolyNode,
	DT_NODE_OFFMESH: (*DtNavMesh).resolveOffMeshNode,
}

func (mesh *DtNavMesh) resolvePolyNode(ref DtNodeRef) (DtNodeInfo, bool) {
	_, poly, ok := mesh.tileAndPoly(ref)
	if !ok {
		return DtNodeInfo{}, false
	}
	return DtNodeInfo{Ref: ref, Kind: DT_NODE_POLYGON, Area: poly.GetArea(), Flags: poly.Flags}, true
}

func (mesh *DtNavMesh) resolveOffMeshNode(ref DtNodeRef) (DtNodeInfo, bool) {
	con, ok := mesh.offMeshCon(ref)
	if !ok {
		return DtNodeInfo{}, false
	}
	return DtNodeInfo{Ref: ref, Kind: DT_NODE_OFFMESH, Area: con.Area, Flags: con.Flags}, true
}

func (mesh *DtNavMesh) nodeInfo(ref DtNodeRef) (DtNodeInfo, bool) {
	kind := ref.Kind()
	if kind >= dtNodeKindCount {
		return DtNodeInfo{}, false
	}
	return nodeResolvers[kind](mesh, ref)
}

// / Gets the node for the specified reference.
// / @return DT_FAILURE|DT_INVALID_REF if the reference is stale or malformed.
func (mesh *DtNavMesh) GetNodeByRef(ref DtNodeRef) (DtNodeInfo, DtStatus) {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	info, ok := mesh.nodeInfo(ref)
	if !ok {
		return info, DT_FAILURE | DT_INVALID_REF
	}
	return info, DT_SUCCESS
}

// / Checks the validity of a node reference.
func (mesh *DtNavMesh) IsValidNodeRef(ref DtNodeRef) bool {
	_, status := mesh.GetNodeByRef(ref)
	return status.DtStatusSucceed()
}

func (mesh *DtNavMesh) tileAndPoly(ref DtNodeRef) (*DtMeshTile, *DtPoly, bool) {
	kind, salt, it, ip := DecodeNodeRef(ref)
	if kind != DT_NODE_POLYGON || int64(it) >= int64(mesh.m_maxTiles) {
		return nil, nil, false
	}
	tile := mesh.m_tiles[it]
	if tile.salt != salt || tile.Header == nil || int64(ip) >= int64(len(tile.Polys)) {
		return nil, nil, false
	}
	return tile, tile.Polys[ip], true
}

// / Gets the tile and polygon for the specified polygon reference.
func (mesh *DtNavMesh) GetTileAndPolyByRef(ref DtNodeRef) (tile *DtMeshTile, poly *DtPoly, status DtStatus) {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	tile, poly, ok := mesh.tileAndPoly(ref)
	if !ok {
		return nil, nil, DT_FAILURE | DT_INVALID_REF
	}
	return tile, poly, DT_SUCCESS
}

// / Gets the traversable edges out of a node.
// /  @param[in]	ref		The node.
// /  @param[in]	side	The entry side, only used for off-mesh connections.
func (mesh *DtNavMesh) Neighbours(ref DtNodeRef, side uint8) ([]DtNeighbour, DtStatus) {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	if _, ok := mesh.nodeInfo(ref); !ok {
		return nil, DT_FAILURE | DT_INVALID_REF
	}
	var res []DtNeighbour
	mesh.forEachNeighbour(ref, side, func(nb *DtNeighbour) {
		res = append(res, *nb)
	})
	return res, DT_SUCCESS
}

// forEachNeighbour expects a valid ref.
func (mesh *DtNavMesh) forEachNeighbour(ref DtNodeRef, side uint8, fn func(nb *DtNeighbour)) {
	var nb DtNeighbour
	if ref.Kind() == DT_NODE_OFFMESH {
		con, _ := mesh.offMeshCon(ref)
		exit := 1 - side&1
		if exit == 0 && !con.Bidirectional() {
			return
		}
		p := con.Endpoint(exit)
		nb = DtNeighbour{Ref: con.Anchors[exit], Left: p, Right: p}
		fn(&nb)
		return
	}

	tile, poly, _ := mesh.tileAndPoly(ref)
	for i := poly.FirstLink; i != DT_NULL_LINK; i = tile.Links[i].Next {
		link := tile.Links[i]
		if link.Edge == DT_OFFMESH_EDGE {
			con, ok := mesh.offMeshCon(link.Ref)
			if !ok {
				continue
			}
			p := con.Endpoint(link.Side)
			nb = DtNeighbour{Ref: link.Ref, Side: link.Side, Left: p, Right: p}
		} else {
			nv := poly.VertCount
			va := common.VertAt(tile.Verts, poly.Verts[link.Edge])
			vb := common.VertAt(tile.Verts, poly.Verts[(link.Edge+1)%nv])
			nb = DtNeighbour{
				Ref:   link.Ref,
				Side:  DT_PORTAL_SIDE,
				Left:  common.Vlerp(va, vb, link.Tmin),
				Right: common.Vlerp(va, vb, link.Tmax),
			}
		}
		fn(&nb)
	}
}

// / Returns the portal points between two adjacent nodes.
func (mesh *DtNavMesh) GetPortalPoints(from, to DtNodeRef) (left, right common.Vec3, status DtStatus) {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	if _, ok := mesh.nodeInfo(from); !ok {
		return left, right, DT_FAILURE | DT_INVALID_REF
	}
	if _, ok := mesh.nodeInfo(to); !ok {
		return left, right, DT_FAILURE | DT_INVALID_REF
	}
	found := false
	tryPortal := func(side uint8) {
		mesh.forEachNeighbour(from, side, func(nb *DtNeighbour) {
			if !found && nb.Ref == to {
				left, right = nb.Left, nb.Right
				found = true
			}
		})
	}
	tryPortal(0)
	if !found && from.Kind() == DT_NODE_OFFMESH {
		tryPortal(1)
	}
	if !found {
		return left, right, DT_FAILURE | DT_INVALID_PARAM
	}
	return left, right, DT_SUCCESS
}

// / Returns the edge mid point between two adjacent nodes.
func (mesh *DtNavMesh) GetEdgeMidPoint(from, to DtNodeRef) (mid common.Vec3, status DtStatus) {
	left, right, status := mesh.GetPortalPoints(from, to)
	if status.DtStatusFailed() {
		return mid, status
	}
	return common.Vlerp(left, right, 0.5), DT_SUCCESS
}

// / Finds polygons that overlap the search box.
func (mesh *DtNavMesh) QueryPolygons(center, halfExtents common.Vec3, filter QueryFilter) ([]DtNodeRef, DtStatus) {
	if !common.Visfinite(center) || !common.Visfinite(halfExtents) || filter == nil {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	var polys []DtNodeRef
	mesh.queryPolygons(center.Sub(halfExtents), center.Add(halfExtents), filter, func(tile *DtMeshTile, ref DtNodeRef, poly *DtPoly) {
		polys = append(polys, ref)
	})
	return polys, DT_SUCCESS
}

func (mesh *DtNavMesh) queryPolygons(qmin, qmax common.Vec3, filter QueryFilter, fn func(tile *DtMeshTile, ref DtNodeRef, poly *DtPoly)) {
	for _, tile := range mesh.m_tiles {
		if tile.Header == nil || !common.OverlapBounds(qmin, qmax, tileBmin(tile), tileBmax(tile)) {
			continue
		}
		base := mesh.getPolyRefBase(tile)
		for i, poly := range tile.Polys {
			if !common.OverlapBounds(qmin, qmax, tile.bounds[i].bmin, tile.bounds[i].bmax) {
				continue
			}
			ref := base | DtNodeRef(i)
			if filter != nil && !filter.PassFilter(DtNodeInfo{Ref: ref, Kind: DT_NODE_POLYGON, Area: poly.GetArea(), Flags: poly.Flags}) {
				continue
			}
			fn(tile, ref, poly)
		}
	}
}

// / Finds the polygon nearest to the specified center point.
// /
// / A polygon the point lies over wins against one merely near it, as long as
// / the height difference is within the walkable climb.
func (mesh *DtNavMesh) FindNearestPoly(center, halfExtents common.Vec3, filter QueryFilter) (nearestRef DtNodeRef, nearestPt common.Vec3, status DtStatus) {
	if !common.Visfinite(center) || !common.Visfinite(halfExtents) || filter == nil {
		return 0, nearestPt, DT_FAILURE | DT_INVALID_PARAM
	}
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	nearestRef, nearestPt = mesh.findNearestPoly(center, halfExtents, filter)
	return nearestRef, nearestPt, DT_SUCCESS
}

func (mesh *DtNavMesh) findNearestPoly(center, halfExtents common.Vec3, filter QueryFilter) (nearestRef DtNodeRef, nearestPt common.Vec3) {
	nearestDistanceSqr := float32(math.MaxFloat32)
	climb := mesh.m_params.WalkableClimb
	mesh.queryPolygons(center.Sub(halfExtents), center.Add(halfExtents), filter, func(tile *DtMeshTile, ref DtNodeRef, poly *DtPoly) {
		closestPtPoly, posOverPoly := closestPointOnPoly(tile, poly, center)

		// If a point is directly over a polygon and closer than
		// climb height, favor that instead of straight line nearest point.
		var d float32
		diff := center.Sub(closestPtPoly)
		if posOverPoly {
			d = common.Abs(diff[1]) - climb
			if d > 0 {
				d = d * d
			} else {
				d = 0
			}
		} else {
			d = diff.LenSqr()
		}
		if d < nearestDistanceSqr {
			nearestPt = closestPtPoly
			nearestDistanceSqr = d
			nearestRef = ref
		}
	})
	return nearestRef, nearestPt
}

// / Finds the closest point on the specified polygon.
// /  @param[out]	posOverPoly		True if the position is over the polygon.
func (mesh *DtNavMesh) ClosestPointOnPoly(ref DtNodeRef, pos common.Vec3) (closest common.Vec3, posOverPoly bool, status DtStatus) {
	if !common.Visfinite(pos) {
		return closest, false, DT_FAILURE | DT_INVALID_PARAM
	}
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	tile, poly, ok := mesh.tileAndPoly(ref)
	if !ok {
		return closest, false, DT_FAILURE | DT_INVALID_REF
	}
	closest, posOverPoly = closestPointOnPoly(tile, poly, pos)
	return closest, posOverPoly, DT_SUCCESS
}

func closestPointOnPoly(tile *DtMeshTile, poly *DtPoly, pos common.Vec3) (closest common.Vec3, posOverPoly bool) {
	verts := tile.PolyVerts(poly)
	if h, ok := polyHeight(verts, pos); ok {
		return common.Vec3{pos[0], h, pos[2]}, true
	}
	return closestPointOnPolyBoundary(verts, pos), false
}

func closestPointOnPolyBoundary(verts []common.Vec3, pos common.Vec3) common.Vec3 {
	var edged, edget [DT_VERTS_PER_POLYGON]float32
	nv := len(verts)
	if common.DistancePtPolyEdgesSqr(pos, verts, edged[:nv], edget[:nv]) {
		return pos
	}
	// Point is outside the polygon, clamp to nearest edge.
	imin := 0
	for i := 1; i < nv; i++ {
		if edged[i] < edged[imin] {
			imin = i
		}
	}
	return common.Vlerp(verts[imin], verts[(imin+1)%nv], edget[imin])
}

// / Projects the point onto the polygon surface. Fails if the point is not over the polygon.
func (mesh *DtNavMesh) GetPolyHeight(ref DtNodeRef, pos common.Vec3) (float32, DtStatus) {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	tile, poly, ok := mesh.tileAndPoly(ref)
	if !ok {
		return 0, DT_FAILURE | DT_INVALID_REF
	}
	h, ok := polyHeight(tile.PolyVerts(poly), pos)
	if !ok {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	return h, DT_SUCCESS
}

func polyHeight(verts []common.Vec3, pos common.Vec3) (float32, bool) {
	if !common.PointInPolygon(pos, verts) {
		return 0, false
	}
	for i := 2; i < len(verts); i++ {
		if h, ok := common.ClosestHeightPointTriangle(pos, verts[0], verts[i-1], verts[i]); ok {
			return h, true
		}
	}
	// Numerically on an edge, take the height of the closest boundary point.
	var edged, edget [DT_VERTS_PER_POLYGON]float32
	nv := len(verts)
	common.DistancePtPolyEdgesSqr(pos, verts, edged[:nv], edget[:nv])
	imin := 0
	for i := 1; i < nv; i++ {
		if edged[i] < edged[imin] {
			imin = i
		}
	}
	return common.Vlerp(verts[imin], verts[(imin+1)%nv], edget[imin])[1], true
}

// / Returns the centroid of the polygon vertices.
func (mesh *DtNavMesh) GetPolyCenter(ref DtNodeRef) (common.Vec3, DtStatus) {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	tile, poly, ok := mesh.tileAndPoly(ref)
	if !ok {
		return common.Vec3{}, DT_FAILURE | DT_INVALID_REF
	}
	return polyCenter(tile.PolyVerts(poly)), DT_SUCCESS
}

func polyCenter(verts []common.Vec3) common.Vec3 {
	var c common.Vec3
	for _, v := range verts {
		c = c.Add(v)
	}
	return c.Mul(1 / float32(len(verts)))
}
