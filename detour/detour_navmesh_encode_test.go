package detour

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gorustyt/navquery/common/message"
)

// appendRawMessage appends a nested message field holding raw bytes.
func appendRawMessage(b []byte, num protowire.Number, raw []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, raw)
}

func TestNavMeshDataEncode(t *testing.T) {
	tile := gridTile(3, -2, 30, -20, 2.5, 3, 2)
	tile.Header.UserId = 9
	tile.Header.WalkableClimb = 0.9
	tile.Polys[4].SetArea(7)

	decoded, err := DecodeNavMeshData(tile.Encode())
	require.NoError(t, err)
	assert.Equal(t, tile, decoded)
}

func TestNavMeshDataDecodeErrors(t *testing.T) {
	w := message.NewWriter()
	w.Uint32(tileFieldMagic, 0x1234)
	_, err := DecodeNavMeshData(w.Bytes())
	assert.ErrorIs(t, err, ErrWrongMagic)

	w = message.NewWriter()
	w.Uint32(tileFieldMagic, DT_NAVMESH_MAGIC)
	w.Uint32(tileFieldVersion, 1)
	_, err = DecodeNavMeshData(w.Bytes())
	assert.ErrorIs(t, err, ErrWrongVersion)

	data := gridTile(0, 0, 0, 0, 1, 2, 2).Encode()
	_, err = DecodeNavMeshData(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = DecodeNavMeshData(nil)
	assert.ErrorIs(t, err, ErrWrongMagic)

	// A varint cut short inside a nested poly or header.
	truncated := []byte{0x18, 0x80}
	data = appendRawMessage(gridTile(0, 0, 0, 0, 1, 2, 2).Encode(), tileFieldPoly, truncated)
	_, err = DecodeNavMeshData(data)
	assert.ErrorIs(t, err, ErrInvalidParam)

	w = message.NewWriter()
	w.Uint32(tileFieldMagic, DT_NAVMESH_MAGIC)
	w.Uint32(tileFieldVersion, DT_NAVMESH_VERSION)
	_, err = DecodeNavMeshData(appendRawMessage(w.Bytes(), tileFieldHeader, []byte{0x08, 0x80}))
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestNavMeshSetDecodeErrors(t *testing.T) {
	mesh := islandMesh(t)
	_, status := mesh.AddOffMeshConnection(bridgeParams(true))
	require.True(t, status.DtStatusSucceed())
	valid := mesh.EncodeNavMeshSet()

	// Fixed32 with only two bytes, inside params and inside an off-mesh connection.
	for _, num := range []protowire.Number{setFieldParams, setFieldOffMesh} {
		data := appendRawMessage(append([]byte(nil), valid...), num, []byte{0x15, 0x00, 0x00})
		_, err := DecodeNavMeshSet(data)
		assert.ErrorIs(t, err, ErrInvalidParam, "field %d", num)
	}

	// A tile whose poly is cut short.
	tile := appendRawMessage(gridTile(0, 0, 0, 0, 1, 1, 1).Encode(), tileFieldPoly, []byte{0x18, 0x80})
	_, err := DecodeNavMeshSet(appendRawMessage(append([]byte(nil), valid...), setFieldTile, tile))
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestNavMeshSetEncode(t *testing.T) {
	mesh := islandMesh(t)
	removed, status := mesh.AddOffMeshConnection(bridgeParams(false))
	require.True(t, status.DtStatusSucceed())
	_, status = mesh.AddOffMeshConnection(bridgeParams(true))
	require.True(t, status.DtStatusSucceed())
	require.True(t, mesh.RemoveOffMeshConnection(removed).DtStatusSucceed())

	loaded, err := DecodeNavMeshSet(mesh.EncodeNavMeshSet())
	require.NoError(t, err)
	assert.Equal(t, *mesh.GetParams(), *loaded.GetParams())
	require.Len(t, loaded.OffMeshConnections(), 1)
	con, status := loaded.GetOffMeshConnectionByRef(loaded.OffMeshConnections()[0])
	require.True(t, status.DtStatusSucceed())
	assert.True(t, con.Bidirectional())
	assert.Equal(t, uint32(77), con.UserId)

	// Both meshes answer the same query the same way.
	var costs []float32
	for _, m := range []*DtNavMesh{mesh, loaded} {
		q := newTestQuery(t, m)
		res := q.FindPath(polyAt(t, m, islandEast), polyAt(t, m, islandWest), islandEast, islandWest, DefaultQueryFilter{})
		require.True(t, res.Succeeded())
		assert.False(t, res.Partial())
		assert.Len(t, res.Path, 5)
		costs = append(costs, res.Cost)
	}
	assert.Equal(t, costs[0], costs[1])

	_, err = DecodeNavMeshSet(gridTile(0, 0, 0, 0, 1, 1, 1).Encode())
	assert.ErrorIs(t, err, ErrWrongMagic)
}

func TestMessageSkipsUnknownFields(t *testing.T) {
	w := message.NewWriter()
	w.Uint32(tileFieldMagic, DT_NAVMESH_MAGIC)
	w.Uint32(tileFieldVersion, DT_NAVMESH_VERSION)
	w.Float32s(99, []float32{1, 2, 3})
	w.Message(tileFieldHeader, func(w *message.Writer) {
		w.Int32(1, -4)
		w.Float32(42, 1.5)
	})
	d, err := DecodeNavMeshData(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, int32(-4), d.Header.X)
	assert.Empty(t, d.Polys)
}
