package detour

import (
	"github.com/gorustyt/navquery/common"
)

// QueryFilter decides which nodes a query may visit and what moving through them costs.
// Filters are passed per call and never stored on the mesh.
type QueryFilter interface {
	// PassFilter reports whether the node may be visited at all.
	PassFilter(node DtNodeInfo) bool
	// GetCost returns the cost of moving from pa to pb inside cur, having come
	// from prev and heading to next. prev and next may be zero for the start and
	// goal hops. The result must be >= 0; +Inf marks the move as impassable.
	GetCost(pa, pb common.Vec3, prev, cur, next DtNodeInfo) float32
}

// HeuristicScaler lets a filter tell the path finder how far its costs can be
// trusted to stay above the straight-line distance. The distance heuristic is
// multiplied by the returned scale, which must keep the estimate a lower bound on
// the remaining cost. Filters without it are searched with a zero heuristic.
type HeuristicScaler interface {
	HeuristicScale() float32
}

// DefaultQueryFilter accepts every node and charges the euclidean distance.
type DefaultQueryFilter struct{}

func (DefaultQueryFilter) PassFilter(DtNodeInfo) bool { return true }

func (DefaultQueryFilter) GetCost(pa, pb common.Vec3, _, _, _ DtNodeInfo) float32 {
	return pa.Sub(pb).Len()
}

func (DefaultQueryFilter) HeuristicScale() float32 { return H_SCALE }

// QueryFilterFunc adapts a pair of functions to QueryFilter. A nil Pass accepts
// every node and a nil Cost charges the euclidean distance.
type QueryFilterFunc struct {
	Pass func(node DtNodeInfo) bool
	Cost func(pa, pb common.Vec3, prev, cur, next DtNodeInfo) float32
	// Scale is the heuristic scale. 0 disables the heuristic, which is always
	// safe. Set it only when Cost never drops below Scale times the distance.
	Scale float32
}

func (f QueryFilterFunc) PassFilter(node DtNodeInfo) bool {
	if f.Pass == nil {
		return true
	}
	return f.Pass(node)
}

func (f QueryFilterFunc) GetCost(pa, pb common.Vec3, prev, cur, next DtNodeInfo) float32 {
	if f.Cost == nil {
		return pa.Sub(pb).Len()
	}
	return f.Cost(pa, pb, prev, cur, next)
}

func (f QueryFilterFunc) HeuristicScale() float32 {
	return max(f.Scale, 0)
}

// / Defines polygon filtering and traversal costs for navigation mesh query operations.
// / @ingroup detour
type DtQueryFilter struct {
	m_areaCost     [DT_MAX_AREAS]float32 ///< Cost per area type. (Used by default implementation.)
	m_areaFlat     [DT_MAX_AREAS]float32 ///< Flat cost per area type, replaces the distance cost when > 0.
	m_includeFlags uint16                ///< Flags for polygons that can be visited. (Used by default implementation.)
	m_excludeFlags uint16                ///< Flags for polygons that should not be visited. (Used by default implementation.)
	m_noOffMesh    bool
}

func NewDtQueryFilter() *DtQueryFilter {
	d := &DtQueryFilter{
		m_includeFlags: 0xffff,
	}
	for i := 0; i < DT_MAX_AREAS; i++ {
		d.m_areaCost[i] = 1.0
	}
	return d
}

// / Returns the traversal cost of the area.
// /  @param[in]		i		The id of the area.
// / @returns The traversal cost of the area.
func (filter *DtQueryFilter) GetAreaCost(i int) float32 { return filter.m_areaCost[i] }

// / Sets the traversal cost of the area.
// /  @param[in]		i		The id of the area.
// /  @param[in]		cost	The new cost of traversing the area.
func (filter *DtQueryFilter) SetAreaCost(i int, cost float32) {
	common.AssertTrue(cost >= 0, "negative area cost %v", cost)
	filter.m_areaCost[i] = cost
}

func (filter *DtQueryFilter) GetAreaFlatCost(i int) float32 { return filter.m_areaFlat[i] }

// / Makes every move through the area cost a fixed amount, whatever its length.
// / A cost of 0 restores the distance based cost.
func (filter *DtQueryFilter) SetAreaFlatCost(i int, cost float32) {
	common.AssertTrue(cost >= 0, "negative flat cost %v", cost)
	filter.m_areaFlat[i] = cost
}

// / Returns the include flags for the filter.
// / Any polygons that include one or more of these flags will be
// / included in the operation.
func (filter *DtQueryFilter) GetIncludeFlags() uint16 { return filter.m_includeFlags }

// / Sets the include flags for the filter.
// / @param[in]		flags	The new flags.
func (filter *DtQueryFilter) SetIncludeFlags(flags uint16) { filter.m_includeFlags = flags }

// / Returns the exclude flags for the filter.
// / Any polygons that include one ore more of these flags will be
// / excluded from the operation.
func (filter *DtQueryFilter) GetExcludeFlags() uint16 { return filter.m_excludeFlags }

// / Sets the exclude flags for the filter.
// / @param[in]		flags		The new flags.
func (filter *DtQueryFilter) SetExcludeFlags(flags uint16) { filter.m_excludeFlags = flags }

// SetOffMeshAllowed switches traversal of off-mesh connections on or off.
func (filter *DtQueryFilter) SetOffMeshAllowed(allowed bool) { filter.m_noOffMesh = !allowed }

func (filter *DtQueryFilter) OffMeshAllowed() bool { return !filter.m_noOffMesh }

func (filter *DtQueryFilter) PassFilter(node DtNodeInfo) bool {
	if node.Kind == DT_NODE_OFFMESH && filter.m_noOffMesh {
		return false
	}
	return (node.Flags&filter.m_includeFlags) != 0 && (node.Flags&filter.m_excludeFlags) == 0
}

func (filter *DtQueryFilter) GetCost(pa, pb common.Vec3, _, cur, _ DtNodeInfo) float32 {
	area := cur.Area & (DT_MAX_AREAS - 1)
	if flat := filter.m_areaFlat[area]; flat > 0 {
		return flat
	}
	return pa.Sub(pb).Len() * filter.m_areaCost[area]
}

func (filter *DtQueryFilter) HeuristicScale() float32 {
	scale := float32(H_SCALE)
	for i := 0; i < DT_MAX_AREAS; i++ {
		if filter.m_areaFlat[i] > 0 {
			return 0
		}
		scale = min(scale, filter.m_areaCost[i]*H_SCALE)
	}
	return scale
}

func heuristicScale(filter QueryFilter) float32 {
	if s, ok := filter.(HeuristicScaler); ok {
		return common.Clamp(s.HeuristicScale(), 0, H_SCALE)
	}
	return 0
}
