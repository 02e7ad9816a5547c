package detour

import (
	"math"
	"math/rand"
	"sort"

	"github.com/gorustyt/navquery/common"
)

const (
	H_SCALE = 0.999 // Search heuristic scale.

	/// Vertex flags returned by DtNavMeshQuery::FindStraightPath.
	DT_STRAIGHTPATH_START              = 0x01 ///< The vertex is the start position in the path.
	DT_STRAIGHTPATH_END                = 0x02 ///< The vertex is the end position in the path.
	DT_STRAIGHTPATH_OFFMESH_CONNECTION = 0x04 ///< The vertex is the start of an off-mesh connection.
)

// Node states for polygons, by how the polygon was entered. Polygons entered
// from an off-mesh connection get one state per connection and exit side,
// starting at dtStateViaOffMesh.
const (
	dtStateViaPortal  = 0
	dtStateViaOffMesh = 1
)

func offMeshLandingState(con DtNodeRef, entrySide uint32) uint32 {
	_, _, idx, _ := DecodeNodeRef(con)
	return dtStateViaOffMesh + (idx<<1 | entrySide&1)
}

// DtPathResult is the outcome of FindPath.
type DtPathResult struct {
	Status DtStatus
	Path   []DtNodeRef // start to end inclusive, or to the closest node reached for partial results
	Cost   float32     // accumulated filter cost along Path
}

func (r DtPathResult) Succeeded() bool { return r.Status.DtStatusSucceed() }

// Partial reports a path that stops short of the goal.
func (r DtPathResult) Partial() bool { return r.Status.DtStatusDetail(DT_PARTIAL_RESULT) }

func (r DtPathResult) Err() error { return r.Status.Err() }

// DtStraightPathPoint is one corner of a straightened path.
type DtStraightPathPoint struct {
	Pos   common.Vec3
	Flags uint8     // DT_STRAIGHTPATH_*
	Ref   DtNodeRef // node entered at this point, 0 for the end point
}

// / Provides the ability to perform pathfinding related queries against
// / a navigation mesh.
// / A query object keeps search state and must not be shared between goroutines.
// / Any number of query objects may run against the same mesh.
// / @ingroup detour
type DtNavMeshQuery struct {
	m_nav           *DtNavMesh         ///< Pointer to navmesh data.
	m_nodePool      *DtNodePool        ///< Pointer to node pool.
	m_openList      NodeQueue[*DtNode] ///< Pointer to open list queue.
	m_maxIterations int
	m_nextSeq       uint32
}

// / Initializes the query object.
// /  @param[in]		nav			Pointer to the DtNavMesh object to use for all queries.
// /  @param[in]		maxNodes	Maximum number of search nodes. [Limits: 0 < value <= 65535]
func NewDtNavMeshQuery(nav *DtNavMesh, maxNodes int32) (*DtNavMeshQuery, DtStatus) {
	if nav == nil || maxNodes <= 0 || maxNodes > 65535 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	hashSize := int32(common.NextPow2(uint32(maxNodes / 4)))
	if hashSize == 0 {
		hashSize = 1
	}
	return &DtNavMeshQuery{
		m_nav:      nav,
		m_nodePool: NewDtNodePool(maxNodes, hashSize),
		m_openList: NewNodeQueue(nodeLess),
	}, DT_SUCCESS
}

// / Gets the navigation mesh the query object is using.
func (q *DtNavMeshQuery) GetAttachedNavMesh() *DtNavMesh { return q.m_nav }

// / Gets the node pool.
func (q *DtNavMeshQuery) GetNodePool() *DtNodePool { return q.m_nodePool }

// SetMaxIterations bounds the number of node expansions per FindPath call.
// Zero or less removes the bound.
func (q *DtNavMeshQuery) SetMaxIterations(n int) { q.m_maxIterations = n }

func checkCost(c float32) float32 {
	common.AssertTrue(c >= 0 && !math.IsNaN(float64(c)), "filter returned invalid cost %v", c)
	return c
}

// / Finds a path from the start node to the end node.
// /
// / The search is A* over polygons and off-mesh connections. If the end node
// / cannot be reached the path to the visited node nearest to @p endPos is
// / returned with DT_PARTIAL_RESULT. A start node that reaches no neighbour at all
// / fails with DT_UNREACHABLE.
// /  @param[in]		startRef	The reference id of the start node.
// /  @param[in]		endRef		The reference id of the end node.
// /  @param[in]		startPos	A position within the start node. [(x, y, z)]
// /  @param[in]		endPos		A position within the end node. [(x, y, z)]
// /  @param[in]		filter		The filter to apply to the query.
func (q *DtNavMeshQuery) FindPath(startRef, endRef DtNodeRef, startPos, endPos common.Vec3, filter QueryFilter) DtPathResult {
	if filter == nil || !common.Visfinite(startPos) || !common.Visfinite(endPos) {
		return DtPathResult{Status: DT_FAILURE | DT_INVALID_PARAM}
	}
	nav := q.m_nav
	nav.mu.RLock()
	defer nav.mu.RUnlock()

	startInfo, ok := nav.nodeInfo(startRef)
	if !ok {
		return DtPathResult{Status: DT_FAILURE | DT_INVALID_REF}
	}
	endInfo, ok := nav.nodeInfo(endRef)
	if !ok {
		return DtPathResult{Status: DT_FAILURE | DT_INVALID_REF}
	}
	if !filter.PassFilter(startInfo) || !filter.PassFilter(endInfo) {
		return DtPathResult{Status: DT_FAILURE | DT_UNREACHABLE}
	}
	if startRef == endRef {
		return DtPathResult{Status: DT_SUCCESS, Path: []DtNodeRef{startRef}}
	}

	hscale := heuristicScale(filter)
	q.m_nodePool.Clear()
	q.m_openList.Reset()
	q.m_nextSeq = 0

	startNode := q.m_nodePool.GetNode(startRef, 0)
	startNode.Pos = startPos
	startNode.Pidx = 0
	startNode.Cost = 0
	startNode.Total = startPos.Sub(endPos).Len() * hscale
	startNode.Flags = DT_NODE_OPEN
	startNode.seq = q.nextSeq()
	q.m_openList.Offer(startNode)

	lastBestNode := startNode
	lastBestDist := startPos.Sub(endPos).Len()
	var goalNode *DtNode
	reached := false
	outOfNodes := false
	budgetHit := false
	iterations := 0

	for !q.m_openList.Empty() {
		if q.m_maxIterations > 0 && iterations >= q.m_maxIterations {
			budgetHit = true
			break
		}
		iterations++

		// Remove node from open list and put it in closed list.
		bestNode := q.m_openList.Poll()
		bestNode.Flags &^= DT_NODE_OPEN
		bestNode.Flags |= DT_NODE_CLOSED

		// Reached the goal, stop searching.
		if bestNode.Id == endRef {
			goalNode = bestNode
			break
		}

		bestInfo, _ := nav.nodeInfo(bestNode.Id)
		var parentRef DtNodeRef
		var parentInfo DtNodeInfo
		if parent := q.m_nodePool.GetNodeAtIdx(bestNode.Pidx); parent != nil {
			parentRef = parent.Id
			parentInfo, _ = nav.nodeInfo(parentRef)
		}

		nav.forEachNeighbour(bestNode.Id, uint8(bestNode.State), func(nb *DtNeighbour) {
			// Do not expand back to where we came from.
			if nb.Ref == 0 || nb.Ref == parentRef {
				return
			}
			info, ok := nav.nodeInfo(nb.Ref)
			if !ok || !filter.PassFilter(info) {
				return
			}

			state := uint32(dtStateViaPortal)
			if info.Kind == DT_NODE_OFFMESH {
				state = uint32(nb.Side)
			} else if bestInfo.Kind == DT_NODE_OFFMESH {
				state = offMeshLandingState(bestNode.Id, bestNode.State)
			}
			neighbourNode := q.m_nodePool.GetNode(nb.Ref, state)
			if neighbourNode == nil {
				outOfNodes = true
				return
			}
			// If the node is visited the first time, calculate node position.
			if neighbourNode.Flags == 0 {
				neighbourNode.Pos = nb.Mid()
				neighbourNode.seq = q.nextSeq()
			}

			// Calculate cost and heuristic.
			var cost, heuristic float32
			curCost := checkCost(filter.GetCost(bestNode.Pos, neighbourNode.Pos, parentInfo, bestInfo, info))
			if nb.Ref == endRef {
				// Cost of crossing the goal node to the end position.
				endCost := checkCost(filter.GetCost(neighbourNode.Pos, endPos, bestInfo, info, DtNodeInfo{}))
				cost = bestNode.Cost + curCost + endCost
				heuristic = 0
			} else {
				cost = bestNode.Cost + curCost
				heuristic = neighbourNode.Pos.Sub(endPos).Len() * hscale
			}
			total := cost + heuristic
			if math.IsInf(float64(total), 1) {
				return
			}

			// The node is already in open list and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_OPEN != 0 && total >= neighbourNode.Total {
				return
			}
			// The node is already visited and process, and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_CLOSED != 0 && total >= neighbourNode.Total {
				return
			}

			// Add or update the node.
			neighbourNode.Pidx = q.m_nodePool.GetNodeIdx(bestNode)
			neighbourNode.Flags &^= DT_NODE_CLOSED
			neighbourNode.Cost = cost
			neighbourNode.Total = total
			reached = true

			if neighbourNode.Flags&DT_NODE_OPEN != 0 {
				// Already in open, update node location.
				q.m_openList.Update(neighbourNode)
			} else {
				// Put the node in open list.
				neighbourNode.Flags |= DT_NODE_OPEN
				q.m_openList.Offer(neighbourNode)
			}

			// Update nearest node to target so far.
			if d := neighbourNode.Pos.Sub(endPos).Len(); d < lastBestDist {
				lastBestDist = d
				lastBestNode = neighbourNode
			}
		})
	}

	var status DtStatus
	if outOfNodes {
		status |= DT_OUT_OF_NODES
	}
	if goalNode != nil {
		return DtPathResult{Status: DT_SUCCESS | status, Path: q.getPathToNode(goalNode), Cost: goalNode.Cost}
	}
	if !reached {
		return DtPathResult{Status: DT_FAILURE | DT_UNREACHABLE | status}
	}
	status |= DT_PARTIAL_RESULT
	if budgetHit {
		status |= DT_BUDGET_EXHAUSTED
	}
	return DtPathResult{Status: DT_SUCCESS | status, Path: q.getPathToNode(lastBestNode), Cost: lastBestNode.Cost}
}

func (q *DtNavMeshQuery) nextSeq() uint32 {
	q.m_nextSeq++
	return q.m_nextSeq
}

func (q *DtNavMeshQuery) getPathToNode(endNode *DtNode) []DtNodeRef {
	var path []DtNodeRef
	for node := endNode; node != nil; node = q.m_nodePool.GetNodeAtIdx(node.Pidx) {
		path = append(path, node.Id)
		common.AssertTrue(len(path) <= int(q.m_nodePool.GetNodeCount()), "cycle in search tree")
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type randomPolyEntry struct {
	ref   DtNodeRef
	tile  *DtMeshTile
	poly  *DtPoly
	accum float64 // area of this and all previous entries
}

// / Returns a random location on the navmesh.
// / Polygons are chosen weighted by area, the point is uniform inside the polygon.
// / Off-mesh connections are never sampled.
// /  @param[in]		filter			The polygon filter to apply to the query.
// /  @param[in]		rng				The random source.
// / @returns DT_FAILURE|DT_EMPTY_AREA when no polygon with area passes the filter.
func (q *DtNavMeshQuery) FindRandomPoint(filter QueryFilter, rng *rand.Rand) (randomRef DtNodeRef, randomPt common.Vec3, status DtStatus) {
	if filter == nil || rng == nil {
		return 0, randomPt, DT_FAILURE | DT_INVALID_PARAM
	}
	nav := q.m_nav
	nav.mu.RLock()
	defer nav.mu.RUnlock()

	var entries []randomPolyEntry
	total := 0.0
	for _, tile := range nav.m_tiles {
		if tile.Header == nil {
			continue
		}
		base := nav.getPolyRefBase(tile)
		for i, poly := range tile.Polys {
			ref := base | DtNodeRef(i)
			if !filter.PassFilter(DtNodeInfo{Ref: ref, Kind: DT_NODE_POLYGON, Area: poly.GetArea(), Flags: poly.Flags}) {
				continue
			}
			area := float64(common.PolyArea2D(tile.PolyVerts(poly)))
			if area <= 0 {
				continue
			}
			total += area
			entries = append(entries, randomPolyEntry{ref: ref, tile: tile, poly: poly, accum: total})
		}
	}
	if len(entries) == 0 {
		return 0, randomPt, DT_FAILURE | DT_EMPTY_AREA
	}

	r := rng.Float64() * total
	i := sort.Search(len(entries), func(i int) bool { return entries[i].accum > r })
	if i == len(entries) {
		i--
	}
	e := entries[i]
	verts := e.tile.PolyVerts(e.poly)
	pt := randomPointInConvexPoly(verts, rng.Float32(), rng.Float32(), rng.Float32())
	if h, ok := polyHeight(verts, pt); ok {
		pt[1] = h
	}
	return e.ref, pt, DT_SUCCESS
}

// / Finds the nearest polygon to the point. See DtNavMesh::FindNearestPoly.
func (q *DtNavMeshQuery) FindNearestPoly(center, halfExtents common.Vec3, filter QueryFilter) (DtNodeRef, common.Vec3, DtStatus) {
	return q.m_nav.FindNearestPoly(center, halfExtents, filter)
}

type straightPortal struct {
	left, right common.Vec3
	flags       uint8
	ref         DtNodeRef
}

// portalBetween returns the crossing from path[i] into path[i+1], left and right
// as seen when travelling along the path.
func (q *DtNavMeshQuery) portalBetween(path []DtNodeRef, i int) (straightPortal, bool) {
	nav := q.m_nav
	from, to := path[i], path[i+1]
	if to.Kind() == DT_NODE_OFFMESH {
		con, ok := nav.offMeshCon(to)
		if !ok {
			return straightPortal{}, false
		}
		side := uint8(0)
		if con.Anchors[0] != from {
			side = 1
		}
		p := con.Endpoint(side)
		return straightPortal{left: p, right: p, flags: DT_STRAIGHTPATH_OFFMESH_CONNECTION, ref: to}, true
	}
	if from.Kind() == DT_NODE_OFFMESH {
		con, ok := nav.offMeshCon(from)
		if !ok {
			return straightPortal{}, false
		}
		side := uint8(1)
		if con.Anchors[1] != to {
			side = 0
		}
		p := con.Endpoint(side)
		return straightPortal{left: p, right: p, ref: to}, true
	}

	tile, poly, ok := nav.tileAndPoly(from)
	if !ok {
		return straightPortal{}, false
	}
	var sp straightPortal
	found := false
	nav.forEachNeighbour(from, 0, func(nb *DtNeighbour) {
		if !found && nb.Ref == to && nb.Side == DT_PORTAL_SIDE {
			sp = straightPortal{left: nb.Left, right: nb.Right, ref: to}
			found = true
		}
	})
	if !found {
		return sp, false
	}
	// Seen from inside the polygon the right point is clockwise of the left one.
	if common.TriArea2D(polyCenter(tile.PolyVerts(poly)), sp.left, sp.right) < 0 {
		sp.left, sp.right = sp.right, sp.left
	}
	return sp, true
}

// / Finds the straight path from the start to the end position within the node corridor.
// / Off-mesh connection endpoints are always part of the result.
// /  @param[in]		startPos	Path start position. [(x, y, z)]
// /  @param[in]		endPos		Path end position. [(x, y, z)]
// /  @param[in]		path		A node path as returned by FindPath.
func (q *DtNavMeshQuery) FindStraightPath(startPos, endPos common.Vec3, path []DtNodeRef) ([]DtStraightPathPoint, DtStatus) {
	if len(path) == 0 || !common.Visfinite(startPos) || !common.Visfinite(endPos) {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	nav := q.m_nav
	nav.mu.RLock()
	defer nav.mu.RUnlock()

	// Clamp the end points onto the first and last polygons.
	if tile, poly, ok := nav.tileAndPoly(path[0]); ok {
		startPos, _ = closestPointOnPoly(tile, poly, startPos)
	} else if path[0].Kind() != DT_NODE_OFFMESH {
		return nil, DT_FAILURE | DT_INVALID_REF
	}
	if tile, poly, ok := nav.tileAndPoly(path[len(path)-1]); ok {
		endPos, _ = closestPointOnPoly(tile, poly, endPos)
	}

	portals := make([]straightPortal, 0, len(path)+1)
	portals = append(portals, straightPortal{left: startPos, right: startPos, flags: DT_STRAIGHTPATH_START, ref: path[0]})
	for i := 0; i+1 < len(path); i++ {
		p, ok := q.portalBetween(path, i)
		if !ok {
			return nil, DT_FAILURE | DT_INVALID_REF
		}
		portals = append(portals, p)
	}
	portals = append(portals, straightPortal{left: endPos, right: endPos, flags: DT_STRAIGHTPATH_END})

	var out []DtStraightPathPoint
	emit := func(p straightPortal, pos common.Vec3) {
		if n := len(out); n > 0 && common.Vequal(out[n-1].Pos, pos) {
			// Keep the more specific flags on duplicated points.
			out[n-1].Flags |= p.flags
			return
		}
		out = append(out, DtStraightPathPoint{Pos: pos, Flags: p.flags, Ref: p.ref})
	}
	emit(portals[0], startPos)

	portalApex, portalLeft, portalRight := startPos, startPos, startPos
	apexIndex, leftIndex, rightIndex := 0, 0, 0
	for i := 1; i < len(portals); i++ {
		left, right := portals[i].left, portals[i].right

		// Right vertex.
		if common.TriArea2D(portalApex, portalRight, right) <= 0 {
			if common.Vequal(portalApex, portalRight) || common.TriArea2D(portalApex, portalLeft, right) > 0 {
				portalRight = right
				rightIndex = i
			} else {
				// Right over left, insert left to path and restart scan from portal left point.
				portalApex = portalLeft
				apexIndex = leftIndex
				emit(portals[apexIndex], portalApex)
				portalLeft, portalRight = portalApex, portalApex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}

		// Left vertex.
		if common.TriArea2D(portalApex, portalLeft, left) >= 0 {
			if common.Vequal(portalApex, portalLeft) || common.TriArea2D(portalApex, portalRight, left) < 0 {
				portalLeft = left
				leftIndex = i
			} else {
				// Left over right, insert right to path and restart scan from portal right point.
				portalApex = portalRight
				apexIndex = rightIndex
				emit(portals[apexIndex], portalApex)
				portalLeft, portalRight = portalApex, portalApex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}

		// Off-mesh endpoints are mandatory corners.
		if left == right && i < len(portals)-1 && !common.Vequal(portalApex, left) {
			portalApex, portalLeft, portalRight = left, left, left
			apexIndex, leftIndex, rightIndex = i, i, i
			emit(portals[i], left)
		}
	}
	emit(portals[len(portals)-1], endPos)
	return out, DT_SUCCESS
}
