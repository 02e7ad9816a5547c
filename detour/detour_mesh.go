package detour

import (
	"github.com/gorustyt/navquery/common"
)

const (
	/// The maximum number of vertices per navigation polygon.
	/// @ingroup detour
	DT_VERTS_PER_POLYGON = 6
	DT_NULL_LINK         = 0xffffffff

	/// Edge index used by links that enter an off-mesh connection.
	DT_OFFMESH_EDGE = 0xff
	/// Link side used by polygon portals.
	DT_PORTAL_SIDE = 0xff

	/// A flag that indicates that an off-mesh connection can be traversed in both directions. (Is bidirectional.)
	DT_OFFMESH_CON_BIDIR = 1

	/// A magic number used to detect compatibility of navigation tile data.
	DT_NAVMESH_MAGIC = 'D'<<24 | 'N'<<16 | 'A'<<8 | 'V'

	/// A version number used to detect compatibility of navigation tile data.
	DT_NAVMESH_VERSION = 8

	/// A magic number used to detect a serialized set of tiles.
	DT_NAVMESHSET_MAGIC = 'M'<<24 | 'S'<<16 | 'E'<<8 | 'T'

	/// The maximum number of user defined area ids.
	/// @ingroup detour
	DT_MAX_AREAS = 64

	/// Area id of ordinary ground. The engine gives no meaning to other values.
	DT_AREA_DEFAULT = 0
)

// Node reference bit layout, most significant first: [kind][salt][index][poly].
const (
	DT_KIND_BITS  = 2
	DT_SALT_BITS  = 16
	DT_INDEX_BITS = 26
	DT_POLY_BITS  = 20
)

type DtNodeKind uint8

const (
	DT_NODE_NONE DtNodeKind = iota
	DT_NODE_POLYGON
	DT_NODE_OFFMESH
	dtNodeKindCount
)

func (k DtNodeKind) String() string {
	switch k {
	case DT_NODE_POLYGON:
		return "polygon"
	case DT_NODE_OFFMESH:
		return "offmesh"
	}
	return "none"
}

// DtNodeRef identifies a polygon or an off-mesh connection. Zero is the null ref.
type DtNodeRef uint64
type DtTileRef uint64

// / Derives a node reference.
// /  @param[in]	kind	The node kind.
// /  @param[in]	salt	The salt of the owning slot.
// /  @param[in]	index	The tile slot, or the off-mesh connection slot.
// /  @param[in]	poly	The index of the polygon within the tile.
func EncodeNodeRef(kind DtNodeKind, salt, index, poly uint32) DtNodeRef {
	const saltMask = 1<<DT_SALT_BITS - 1
	const indexMask = 1<<DT_INDEX_BITS - 1
	const polyMask = 1<<DT_POLY_BITS - 1
	return DtNodeRef(uint64(kind)<<(DT_SALT_BITS+DT_INDEX_BITS+DT_POLY_BITS) |
		uint64(salt&saltMask)<<(DT_INDEX_BITS+DT_POLY_BITS) |
		uint64(index&indexMask)<<DT_POLY_BITS |
		uint64(poly&polyMask))
}

// / Decodes a node reference.
// /  @see #EncodeNodeRef
func DecodeNodeRef(ref DtNodeRef) (kind DtNodeKind, salt, index, poly uint32) {
	r := uint64(ref)
	kind = DtNodeKind(r >> (DT_SALT_BITS + DT_INDEX_BITS + DT_POLY_BITS) & (1<<DT_KIND_BITS - 1))
	salt = uint32(r >> (DT_INDEX_BITS + DT_POLY_BITS) & (1<<DT_SALT_BITS - 1))
	index = uint32(r >> DT_POLY_BITS & (1<<DT_INDEX_BITS - 1))
	poly = uint32(r & (1<<DT_POLY_BITS - 1))
	return
}

func (ref DtNodeRef) Kind() DtNodeKind {
	kind, _, _, _ := DecodeNodeRef(ref)
	return kind
}

// / Defines a polygon within a DtMeshTile object.
// / @ingroup detour
type DtPoly struct {
	/// Index to first link in linked list. (Or #DT_NULL_LINK if there is no link.)
	FirstLink uint32

	/// The indices of the polygon's vertices.
	/// The actual vertices are located in DtMeshTile::verts.
	Verts [DT_VERTS_PER_POLYGON]uint16

	/// Neighbour polygon for each edge: 0 for a boundary edge, index+1 for
	/// a polygon in the same tile.
	Neis [DT_VERTS_PER_POLYGON]uint16

	/// The user defined polygon flags.
	Flags uint16

	/// The number of vertices in the polygon.
	VertCount uint8

	area uint8
}

// / Sets the user defined area id. [Limit: < #DT_MAX_AREAS]
func (p *DtPoly) SetArea(a uint8) { p.area = a & (DT_MAX_AREAS - 1) }

// / Gets the user defined area id.
func (p *DtPoly) GetArea() uint8 { return p.area }

// Defines a link between nodes.
// / @note This structure is rarely if ever used by the end user.
type DtLink struct {
	Ref  DtNodeRef ///< Neighbour reference. (The neighbor that is linked to.)
	Next uint32    ///< Index of the next link.
	Edge uint8     ///< Index of the polygon edge that owns this link, DT_OFFMESH_EDGE for off-mesh links.
	Side uint8     ///< Off-mesh links: endpoint entered (0 start, 1 end). Portals: DT_PORTAL_SIDE.
	Tmin float32   ///< Portal start along the edge. [0..1]
	Tmax float32   ///< Portal end along the edge. [0..1]
}

// / Provides high level information related to a DtMeshTile object.
// / @ingroup detour
type DtMeshHeader struct {
	Magic          int32      ///< Tile magic number. (Used to identify the data format.)
	Version        int32      ///< Tile data format version number.
	X              int32      ///< The x-position of the tile within the DtNavMesh tile grid. (x, y, layer)
	Y              int32      ///< The y-position of the tile within the DtNavMesh tile grid. (x, y, layer)
	Layer          int32      ///< The layer of the tile within the DtNavMesh tile grid. (x, y, layer)
	UserId         uint32     ///< The user defined id of the tile.
	PolyCount      int32      ///< The number of polygons in the tile.
	VertCount      int32      ///< The number of vertices in the tile.
	WalkableHeight float32    ///< The height of the agents using the tile.
	WalkableRadius float32    ///< The radius of the agents using the tile.
	WalkableClimb  float32    ///< The maximum climb height of the agents using the tile.
	Bmin           [3]float32 ///< The minimum bounds of the tile's AABB. [(x, y, z)]
	Bmax           [3]float32 ///< The maximum bounds of the tile's AABB. [(x, y, z)]
}

// NavMeshData is the output of the tile generation collaborator for one tile.
type NavMeshData struct {
	Header *DtMeshHeader
	Verts  []float32
	Polys  []*DtPoly
}

type polyBounds struct {
	bmin, bmax common.Vec3
}

// / Defines a navigation mesh tile.
// / @ingroup detour
type DtMeshTile struct {
	salt uint32 ///< Counter describing modifications to the tile.

	linksFreeList uint32        ///< Index to the next free link.
	Header        *DtMeshHeader ///< The tile header.
	Polys         []*DtPoly     ///< The tile polygons. [Size: DtMeshHeader::polyCount]
	Verts         []float32     ///< The tile vertices. [(x, y, z) * DtMeshHeader::vertCount]
	Links         []*DtLink     ///< The tile links. Grows as off-mesh connections are anchored.
	Next          *DtMeshTile   ///< The next free tile, or the next tile in the spatial grid.
	Data          *NavMeshData

	index  uint32
	bounds []polyBounds
}

// PolyVerts returns the vertex ring of the polygon.
func (tile *DtMeshTile) PolyVerts(poly *DtPoly) []common.Vec3 {
	verts := make([]common.Vec3, poly.VertCount)
	for i := range verts {
		verts[i] = common.VertAt(tile.Verts, poly.Verts[i])
	}
	return verts
}

// / Defines an off-mesh connection owned by the DtNavMesh.
// / An off-mesh connection is a user defined traversable connection made up to two vertices.
type DtOffMeshConnection struct {
	/// The endpoints of the connection as requested. [(ax, ay, az, bx, by, bz)]
	Pos [6]float32

	/// The endpoints snapped onto their anchor polygons. [(ax, ay, az, bx, by, bz)]
	AnchorPos [6]float32

	/// The radius of the endpoints. [Limit: >= 0]
	Rad float32

	/// Direction flags. (See: #DT_OFFMESH_CON_BIDIR)
	Dir uint8

	/// The user defined area id.
	Area uint8

	/// The user defined flags, matched by filters like polygon flags.
	Flags uint16

	/// The id of the offmesh connection. (User assigned.)
	UserId uint32

	/// The polygons the start and end points are anchored to.
	Anchors [2]DtNodeRef

	salt  uint32
	alive bool
}

func (con *DtOffMeshConnection) Bidirectional() bool {
	return con.Dir&DT_OFFMESH_CON_BIDIR != 0
}

// Endpoint returns the snapped start (side 0) or end (side 1) point.
func (con *DtOffMeshConnection) Endpoint(side uint8) common.Vec3 {
	return common.VertAt(con.AnchorPos[:], side&1)
}

// / Configuration parameters used to define multi-tile navigation meshes.
// / @see DtNavMesh::init()
// / @ingroup detour
type NavMeshParams struct {
	Orig           [3]float32 ///< The world space origin of the navigation mesh's tile space. [(x, y, z)]
	TileWidth      float32    ///< The width of each tile. (Along the x-axis.)
	TileHeight     float32    ///< The height of each tile. (Along the z-axis.)
	MaxTiles       int32      ///< The maximum number of tiles the navigation mesh can contain.
	MaxPolys       int32      ///< The maximum number of polygons each tile can contain.
	MaxOffMeshCons int32      ///< The maximum number of live off-mesh connections.
	WalkableClimb  float32    ///< Vertical tolerance for portal matching and off-mesh anchoring.
}

// DtNodeInfo is the view of a node handed to query filters.
type DtNodeInfo struct {
	Ref   DtNodeRef
	Kind  DtNodeKind
	Area  uint8
	Flags uint16
}

// DtNeighbour is one traversable edge out of a node.
type DtNeighbour struct {
	Ref   DtNodeRef
	Side  uint8 ///< Entry side when Ref is an off-mesh connection.
	Left  common.Vec3
	Right common.Vec3
}

// Mid is the crossing point used by the path finder.
func (n *DtNeighbour) Mid() common.Vec3 {
	return common.Vlerp(n.Left, n.Right, 0.5)
}
