package detour

import (
	"log/slog"

	"github.com/gorustyt/navquery/common"
)

// Minimum anchoring tolerance for connections with zero radius.
const dtOffMeshAnchorEps = 0.05

// / Parameters for DtNavMesh::AddOffMeshConnection.
type DtOffMeshConnectionParams struct {
	StartPos      common.Vec3
	EndPos        common.Vec3
	Rad           float32 ///< Endpoint radius, also the anchoring tolerance.
	Bidirectional bool
	Area          uint8
	Flags         uint16
	UserId        uint32
}

func (mesh *DtNavMesh) offMeshCon(ref DtNodeRef) (*DtOffMeshConnection, bool) {
	kind, salt, idx, poly := DecodeNodeRef(ref)
	if kind != DT_NODE_OFFMESH || poly != 0 || int64(idx) >= int64(len(mesh.m_offMeshCons)) {
		return nil, false
	}
	con := mesh.m_offMeshCons[idx]
	if !con.alive || con.salt != salt {
		return nil, false
	}
	return con, true
}

func (mesh *DtNavMesh) anchorEndpoint(pos common.Vec3, rad float32) (DtNodeRef, common.Vec3, bool) {
	tol := max(rad, dtOffMeshAnchorEps)
	climb := max(mesh.m_params.WalkableClimb, dtOffMeshAnchorEps)
	ref, nearest := mesh.findNearestPoly(pos, common.Vec3{tol, climb, tol}, nil)
	if ref == 0 || common.Vdist2DSqr(pos, nearest) > tol*tol {
		return 0, nearest, false
	}
	return ref, nearest, true
}

// / Inserts an off-mesh connection into the graph.
// /
// / Both endpoints are anchored to the nearest polygon within the connection
// / radius. The start anchor gets a link into the connection, and so does the
// / end anchor when the connection is bidirectional.
// / @return The connection reference, or DT_FAILURE|DT_NO_ANCHOR when an endpoint
// / has no polygon nearby.
func (mesh *DtNavMesh) AddOffMeshConnection(params *DtOffMeshConnectionParams) (DtNodeRef, DtStatus) {
	if params == nil || !common.Visfinite(params.StartPos) || !common.Visfinite(params.EndPos) ||
		params.Rad < 0 || params.Area >= DT_MAX_AREAS {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	mesh.mu.Lock()
	defer mesh.mu.Unlock()

	var anchors [2]DtNodeRef
	var snapped [2]common.Vec3
	for i, pos := range [2]common.Vec3{params.StartPos, params.EndPos} {
		ref, pt, ok := mesh.anchorEndpoint(pos, params.Rad)
		if !ok {
			slog.Debug("navmesh: off-mesh endpoint not anchored", "side", i, "pos", pos)
			return 0, DT_FAILURE | DT_NO_ANCHOR
		}
		anchors[i] = ref
		snapped[i] = pt
	}

	var idx uint32
	if n := len(mesh.m_offMeshFree); n > 0 {
		idx = mesh.m_offMeshFree[n-1]
		mesh.m_offMeshFree = mesh.m_offMeshFree[:n-1]
	} else {
		if mesh.m_params.MaxOffMeshCons > 0 && int32(len(mesh.m_offMeshCons)) >= mesh.m_params.MaxOffMeshCons {
			return 0, DT_FAILURE | DT_OUT_OF_MEMORY
		}
		idx = uint32(len(mesh.m_offMeshCons))
		mesh.m_offMeshCons = append(mesh.m_offMeshCons, &DtOffMeshConnection{salt: 1})
	}

	con := mesh.m_offMeshCons[idx]
	salt := con.salt
	*con = DtOffMeshConnection{
		Rad:     params.Rad,
		Area:    params.Area,
		Flags:   params.Flags,
		UserId:  params.UserId,
		Anchors: anchors,
		salt:    salt,
		alive:   true,
	}
	if params.Bidirectional {
		con.Dir = DT_OFFMESH_CON_BIDIR
	}
	copy(con.Pos[0:3], params.StartPos[:])
	copy(con.Pos[3:6], params.EndPos[:])
	copy(con.AnchorPos[0:3], snapped[0][:])
	copy(con.AnchorPos[3:6], snapped[1][:])

	ref := EncodeNodeRef(DT_NODE_OFFMESH, salt, idx, 0)
	for side := uint8(0); side < 2; side++ {
		if side == 1 && !con.Bidirectional() {
			break
		}
		tile, poly, _ := mesh.tileAndPoly(anchors[side])
		addPolyLink(tile, poly, DtLink{Ref: ref, Edge: DT_OFFMESH_EDGE, Side: side})
	}
	return ref, DT_SUCCESS
}

// / Removes an off-mesh connection. References to it become stale.
func (mesh *DtNavMesh) RemoveOffMeshConnection(ref DtNodeRef) DtStatus {
	mesh.mu.Lock()
	defer mesh.mu.Unlock()
	con, ok := mesh.offMeshCon(ref)
	if !ok {
		return DT_FAILURE | DT_INVALID_REF
	}
	for _, anchor := range con.Anchors {
		tile, poly, ok := mesh.tileAndPoly(anchor)
		if !ok {
			continue
		}
		prev := uint32(DT_NULL_LINK)
		for i := poly.FirstLink; i != DT_NULL_LINK; {
			link := tile.Links[i]
			next := link.Next
			if link.Ref == ref {
				if prev == DT_NULL_LINK {
					poly.FirstLink = next
				} else {
					tile.Links[prev].Next = next
				}
				freeLink(tile, i)
			} else {
				prev = i
			}
			i = next
		}
	}

	_, _, idx, _ := DecodeNodeRef(ref)
	con.alive = false
	con.salt = (con.salt + 1) & (1<<DT_SALT_BITS - 1)
	if con.salt == 0 {
		con.salt++
	}
	mesh.m_offMeshFree = append(mesh.m_offMeshFree, idx)
	return DT_SUCCESS
}

// / Gets the off-mesh connection for the specified reference.
func (mesh *DtNavMesh) GetOffMeshConnectionByRef(ref DtNodeRef) (*DtOffMeshConnection, DtStatus) {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	con, ok := mesh.offMeshCon(ref)
	if !ok {
		return nil, DT_FAILURE | DT_INVALID_REF
	}
	return con, DT_SUCCESS
}

// / Gets the endpoints for an off-mesh connection, ordered by "direction of travel".
// /  @param[in]		prevRef		The reference of the polygon before the connection.
// /  @param[in]		polyRef		The reference of the off-mesh connection.
func (mesh *DtNavMesh) GetOffMeshConnectionEndPoints(prevRef, polyRef DtNodeRef) (startPos, endPos common.Vec3, status DtStatus) {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	con, ok := mesh.offMeshCon(polyRef)
	if !ok {
		return startPos, endPos, DT_FAILURE | DT_INVALID_REF
	}
	// Figure out which way to hand out the vertices.
	idx0, idx1 := uint8(0), uint8(1)
	if con.Bidirectional() && con.Anchors[1] == prevRef && con.Anchors[0] != prevRef {
		idx0, idx1 = 1, 0
	}
	return con.Endpoint(idx0), con.Endpoint(idx1), DT_SUCCESS
}

// OffMeshConnections returns the refs of all live connections in slot order.
func (mesh *DtNavMesh) OffMeshConnections() []DtNodeRef {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	var refs []DtNodeRef
	for i, con := range mesh.m_offMeshCons {
		if con.alive {
			refs = append(refs, EncodeNodeRef(DT_NODE_OFFMESH, con.salt, uint32(i), 0))
		}
	}
	return refs
}
