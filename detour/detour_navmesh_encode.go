package detour

import (
	"fmt"

	"github.com/gorustyt/navquery/common"
	"github.com/gorustyt/navquery/common/message"
)

// Tile fields.
const (
	tileFieldMagic   = 1
	tileFieldVersion = 2
	tileFieldHeader  = 3
	tileFieldVerts   = 4
	tileFieldPoly    = 5
)

// Navmesh set fields.
const (
	setFieldMagic   = 1
	setFieldVersion = 2
	setFieldParams  = 3
	setFieldTile    = 4
	setFieldOffMesh = 5
)

func (header *DtMeshHeader) encode(w *message.Writer) {
	w.Int32(1, header.X)
	w.Int32(2, header.Y)
	w.Int32(3, header.Layer)
	w.Uint32(4, header.UserId)
	w.Int32(5, header.PolyCount)
	w.Int32(6, header.VertCount)
	w.Float32(7, header.WalkableHeight)
	w.Float32(8, header.WalkableRadius)
	w.Float32(9, header.WalkableClimb)
	w.Float32s(10, header.Bmin[:])
	w.Float32s(11, header.Bmax[:])
}

func (header *DtMeshHeader) decode(r *message.Reader) {
	for {
		num, ok := r.Next()
		if !ok {
			return
		}
		switch num {
		case 1:
			header.X = r.Int32()
		case 2:
			header.Y = r.Int32()
		case 3:
			header.Layer = r.Int32()
		case 4:
			header.UserId = r.Uint32()
		case 5:
			header.PolyCount = r.Int32()
		case 6:
			header.VertCount = r.Int32()
		case 7:
			header.WalkableHeight = r.Float32()
		case 8:
			header.WalkableRadius = r.Float32()
		case 9:
			header.WalkableClimb = r.Float32()
		case 10:
			copy(header.Bmin[:], r.Float32s())
		case 11:
			copy(header.Bmax[:], r.Float32s())
		default:
			r.Skip(num)
		}
	}
}

func (p *DtPoly) encode(w *message.Writer) {
	verts := make([]uint32, p.VertCount)
	neis := make([]uint32, p.VertCount)
	for i := range verts {
		verts[i] = uint32(p.Verts[i])
		neis[i] = uint32(p.Neis[i])
	}
	w.Uint32s(1, verts)
	w.Uint32s(2, neis)
	w.Uint32(3, uint32(p.Flags))
	w.Uint32(4, uint32(p.GetArea()))
}

func (p *DtPoly) decode(r *message.Reader) {
	for {
		num, ok := r.Next()
		if !ok {
			return
		}
		switch num {
		case 1:
			verts := r.Uint32s()
			p.VertCount = uint8(min(len(verts), DT_VERTS_PER_POLYGON))
			for i := 0; i < int(p.VertCount); i++ {
				p.Verts[i] = uint16(verts[i])
			}
		case 2:
			neis := r.Uint32s()
			for i := 0; i < min(len(neis), DT_VERTS_PER_POLYGON); i++ {
				p.Neis[i] = uint16(neis[i])
			}
		case 3:
			p.Flags = uint16(r.Uint32())
		case 4:
			p.SetArea(uint8(r.Uint32()))
		default:
			r.Skip(num)
		}
	}
}

// Encode serializes the tile. Links are not stored, AddTile rebuilds them.
func (d *NavMeshData) Encode() []byte {
	w := message.NewWriter()
	d.encode(w)
	return w.Bytes()
}

func (d *NavMeshData) encode(w *message.Writer) {
	w.Uint32(tileFieldMagic, uint32(d.Header.Magic))
	w.Uint32(tileFieldVersion, uint32(d.Header.Version))
	w.Message(tileFieldHeader, d.Header.encode)
	w.Float32s(tileFieldVerts, d.Verts)
	for _, p := range d.Polys {
		w.Message(tileFieldPoly, p.encode)
	}
}

// DecodeNavMeshData parses a tile written by NavMeshData.Encode.
func DecodeNavMeshData(data []byte) (*NavMeshData, error) {
	return decodeNavMeshData(message.NewReader(data))
}

func decodeNavMeshData(r *message.Reader) (*NavMeshData, error) {
	d := &NavMeshData{Header: &DtMeshHeader{}}
	for {
		num, ok := r.Next()
		if !ok {
			break
		}
		switch num {
		case tileFieldMagic:
			d.Header.Magic = int32(r.Uint32())
			if d.Header.Magic != DT_NAVMESH_MAGIC {
				return nil, ErrWrongMagic
			}
		case tileFieldVersion:
			d.Header.Version = int32(r.Uint32())
			if d.Header.Version != DT_NAVMESH_VERSION {
				return nil, ErrWrongVersion
			}
		case tileFieldHeader:
			r.Message(d.Header.decode)
		case tileFieldVerts:
			d.Verts = r.Float32s()
		case tileFieldPoly:
			p := &DtPoly{FirstLink: DT_NULL_LINK}
			r.Message(p.decode)
			d.Polys = append(d.Polys, p)
		default:
			r.Skip(num)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParam, err)
	}
	if d.Header.Magic != DT_NAVMESH_MAGIC {
		return nil, ErrWrongMagic
	}
	return d, nil
}

func (params *NavMeshParams) encode(w *message.Writer) {
	w.Float32s(1, params.Orig[:])
	w.Float32(2, params.TileWidth)
	w.Float32(3, params.TileHeight)
	w.Int32(4, params.MaxTiles)
	w.Int32(5, params.MaxPolys)
	w.Int32(6, params.MaxOffMeshCons)
	w.Float32(7, params.WalkableClimb)
}

func (params *NavMeshParams) decode(r *message.Reader) {
	for {
		num, ok := r.Next()
		if !ok {
			return
		}
		switch num {
		case 1:
			copy(params.Orig[:], r.Float32s())
		case 2:
			params.TileWidth = r.Float32()
		case 3:
			params.TileHeight = r.Float32()
		case 4:
			params.MaxTiles = r.Int32()
		case 5:
			params.MaxPolys = r.Int32()
		case 6:
			params.MaxOffMeshCons = r.Int32()
		case 7:
			params.WalkableClimb = r.Float32()
		default:
			r.Skip(num)
		}
	}
}

func (con *DtOffMeshConnection) encode(w *message.Writer) {
	w.Float32s(1, con.Pos[:])
	w.Float32(2, con.Rad)
	w.Uint32(3, uint32(con.Dir))
	w.Uint32(4, uint32(con.Area))
	w.Uint32(5, uint32(con.Flags))
	w.Uint32(6, con.UserId)
}

func decodeOffMeshParams(r *message.Reader) *DtOffMeshConnectionParams {
	params := &DtOffMeshConnectionParams{}
	for {
		num, ok := r.Next()
		if !ok {
			return params
		}
		switch num {
		case 1:
			pos := r.Float32s()
			if len(pos) == 6 {
				params.StartPos = common.VertAt(pos, 0)
				params.EndPos = common.VertAt(pos, 1)
			}
		case 2:
			params.Rad = r.Float32()
		case 3:
			params.Bidirectional = r.Uint32()&DT_OFFMESH_CON_BIDIR != 0
		case 4:
			params.Area = uint8(r.Uint32())
		case 5:
			params.Flags = uint16(r.Uint32())
		case 6:
			params.UserId = r.Uint32()
		default:
			r.Skip(num)
		}
	}
}

// / Serializes the mesh params, every tile and every live off-mesh connection.
func (mesh *DtNavMesh) EncodeNavMeshSet() []byte {
	mesh.mu.RLock()
	defer mesh.mu.RUnlock()
	w := message.NewWriter()
	w.Uint32(setFieldMagic, DT_NAVMESHSET_MAGIC)
	w.Uint32(setFieldVersion, DT_NAVMESH_VERSION)
	w.Message(setFieldParams, mesh.m_params.encode)
	for _, tile := range mesh.m_tiles {
		if tile.Header == nil {
			continue
		}
		w.Message(setFieldTile, tile.Data.encode)
	}
	for _, con := range mesh.m_offMeshCons {
		if con.alive {
			w.Message(setFieldOffMesh, con.encode)
		}
	}
	return w.Bytes()
}

// / Rebuilds a mesh from EncodeNavMeshSet output.
// / Off-mesh connections are re-anchored, their refs differ from the encoded mesh.
func DecodeNavMeshSet(data []byte) (*DtNavMesh, error) {
	r := message.NewReader(data)
	params := &NavMeshParams{}
	var tiles []*NavMeshData
	var cons []*DtOffMeshConnectionParams
	magic := false
	for {
		num, ok := r.Next()
		if !ok {
			break
		}
		switch num {
		case setFieldMagic:
			if r.Uint32() != DT_NAVMESHSET_MAGIC {
				return nil, ErrWrongMagic
			}
			magic = true
		case setFieldVersion:
			if r.Uint32() != DT_NAVMESH_VERSION {
				return nil, ErrWrongVersion
			}
		case setFieldParams:
			r.Message(params.decode)
		case setFieldTile:
			var tile *NavMeshData
			var err error
			r.Message(func(sub *message.Reader) {
				tile, err = decodeNavMeshData(sub)
			})
			if err != nil {
				return nil, err
			}
			if tile != nil {
				tiles = append(tiles, tile)
			}
		case setFieldOffMesh:
			r.Message(func(sub *message.Reader) {
				cons = append(cons, decodeOffMeshParams(sub))
			})
		default:
			r.Skip(num)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParam, err)
	}
	if !magic {
		return nil, ErrWrongMagic
	}

	mesh, status := NewDtNavMesh(params)
	if status.DtStatusFailed() {
		return nil, status.Err()
	}
	for _, tile := range tiles {
		if _, status := mesh.AddTile(tile); status.DtStatusFailed() {
			return nil, fmt.Errorf("add tile (%d,%d): %w", tile.Header.X, tile.Header.Y, status.Err())
		}
	}
	for _, con := range cons {
		if _, status := mesh.AddOffMeshConnection(con); status.DtStatusFailed() {
			return nil, fmt.Errorf("add off-mesh connection %d: %w", con.UserId, status.Err())
		}
	}
	return mesh, nil
}
