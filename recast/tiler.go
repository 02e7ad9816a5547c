package recast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gorustyt/navquery/common"
	"github.com/gorustyt/navquery/detour"
)

var ErrTooManyVerts = errors.New("recast: too many vertices per tile")

// TileBuilder produces the tile data of one grid cell. A nil result with a nil
// error means the cell holds no walkable polygon.
type TileBuilder interface {
	BuildTile(geom *InputGeom, cfg *Config, tx, ty int32) (*detour.NavMeshData, error)
}

// PolyMeshTiler builds tiles straight from the input faces, without
// voxelization. Each walkable face goes to the tile holding its centroid;
// faces with more than MaxVertsPerPoly vertices are split. Polygons sharing
// a welded edge inside a tile are linked, edges crossing tiles are left to
// the navigation mesh portal matching.
type PolyMeshTiler struct{}

func (PolyMeshTiler) BuildTile(geom *InputGeom, cfg *Config, tx, ty int32) (*detour.NavMeshData, error) {
	rc := cfg.Derive()
	var (
		polys [][]common.Vec3
		areas []uint8
	)
	for i := range geom.Faces {
		if geom.Areas[i] == RC_NULL_AREA {
			continue
		}
		verts := geom.FaceVerts(i)
		cx, cy := faceTile(geom, rc, verts)
		if cx != tx || cy != ty {
			continue
		}
		for _, part := range splitFace(verts, rc.MaxVertsPerPoly) {
			polys = append(polys, part)
			areas = append(areas, geom.Areas[i])
		}
	}
	if len(polys) == 0 {
		return nil, nil
	}
	if cfg.MaxPolysPerTile > 0 && len(polys) > int(cfg.MaxPolysPerTile) {
		return nil, fmt.Errorf("tile (%d,%d): %d polygons, max %d", tx, ty, len(polys), cfg.MaxPolysPerTile)
	}
	return buildTileData(polys, areas, rc, tx, ty)
}

func faceTile(geom *InputGeom, rc *RcConfig, verts []common.Vec3) (int32, int32) {
	var c common.Vec3
	for _, v := range verts {
		c = c.Add(v)
	}
	c = c.Mul(1 / float32(len(verts)))
	tx := int32(math.Floor(float64((c[0] - geom.Bmin[0]) / rc.TileWorldSize)))
	ty := int32(math.Floor(float64((c[2] - geom.Bmin[2]) / rc.TileWorldSize)))
	return tx, ty
}

// splitFace returns the face as convex polygons of at most nvp vertices.
func splitFace(verts []common.Vec3, nvp int) [][]common.Vec3 {
	// Drop repeated vertices.
	ring := make([]common.Vec3, 0, len(verts))
	for i, v := range verts {
		if common.Vequal(v, verts[(i+1)%len(verts)]) {
			continue
		}
		ring = append(ring, v)
	}
	if len(ring) < 3 || common.PolyArea2D(ring) < 1e-6 {
		return nil
	}
	if !isConvex(ring) {
		return triangulate(ring)
	}
	if len(ring) <= nvp {
		return [][]common.Vec3{ring}
	}
	// Fan the convex ring into pieces sharing an edge.
	var parts [][]common.Vec3
	for k := 1; k < len(ring)-1; k += nvp - 2 {
		end := min(k+nvp-2, len(ring)-1)
		part := append([]common.Vec3{ring[0]}, ring[k:end+1]...)
		parts = append(parts, part)
	}
	return parts
}

func ringSign(ring []common.Vec3) float32 {
	var area float32
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		area += a[2]*b[0] - a[0]*b[2]
	}
	if area < 0 {
		return -1
	}
	return 1
}

func isConvex(ring []common.Vec3) bool {
	sign := ringSign(ring)
	for i := range ring {
		a, b, c := ring[(i+len(ring)-1)%len(ring)], ring[i], ring[(i+1)%len(ring)]
		if sign*common.TriArea2D(a, b, c) < -1e-6 {
			return false
		}
	}
	return true
}

func pointInTri2D(p, a, b, c common.Vec3, sign float32) bool {
	return sign*common.TriArea2D(a, b, p) > 0 &&
		sign*common.TriArea2D(b, c, p) > 0 &&
		sign*common.TriArea2D(c, a, p) > 0
}

// triangulate ear-clips a simple ring into triangles.
func triangulate(ring []common.Vec3) [][]common.Vec3 {
	sign := ringSign(ring)
	idx := make([]int, len(ring))
	for i := range idx {
		idx[i] = i
	}
	var tris [][]common.Vec3
	for len(idx) > 3 {
		clipped := false
		for i := range idx {
			a, b, c := ring[idx[(i+len(idx)-1)%len(idx)]], ring[idx[i]], ring[idx[(i+1)%len(idx)]]
			if sign*common.TriArea2D(a, b, c) <= 0 {
				continue
			}
			ear := true
			for _, j := range idx {
				p := ring[j]
				if common.Vequal(p, a) || common.Vequal(p, b) || common.Vequal(p, c) {
					continue
				}
				if pointInTri2D(p, a, b, c, sign) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			tris = append(tris, []common.Vec3{a, b, c})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			slog.Warn("recast: could not triangulate face", "verts", len(ring))
			return tris
		}
	}
	return append(tris, []common.Vec3{ring[idx[0]], ring[idx[1]], ring[idx[2]]})
}

func buildTileData(polys [][]common.Vec3, areas []uint8, rc *RcConfig, tx, ty int32) (*detour.NavMeshData, error) {
	var verts []float32
	welded := map[common.Vec3]uint16{}
	addVert := func(v common.Vec3) (uint16, error) {
		if i, ok := welded[v]; ok {
			return i, nil
		}
		n := len(verts) / 3
		if n >= 0xffff {
			// The vertex indices are ushorts, and cannot point to more than 0xffff vertices.
			return 0, fmt.Errorf("%w: tile (%d,%d)", ErrTooManyVerts, tx, ty)
		}
		verts = common.AppendVec3(verts, v)
		welded[v] = uint16(n)
		return uint16(n), nil
	}

	type edgeOwner struct {
		poly int
		edge int
	}
	edges := map[[2]uint16]edgeOwner{}
	out := make([]*detour.DtPoly, len(polys))
	for i, ring := range polys {
		area, flags := polyAreaAndFlags(areas[i])
		p := &detour.DtPoly{FirstLink: detour.DT_NULL_LINK, VertCount: uint8(len(ring)), Flags: flags}
		p.SetArea(area)
		for j, v := range ring {
			vi, err := addVert(v)
			if err != nil {
				return nil, err
			}
			p.Verts[j] = vi
		}
		for j := range ring {
			a, b := p.Verts[j], p.Verts[(j+1)%len(ring)]
			key := [2]uint16{min(a, b), max(a, b)}
			if other, ok := edges[key]; ok {
				if other.poly != i && out[other.poly].Neis[other.edge] == 0 {
					p.Neis[j] = uint16(other.poly + 1)
					out[other.poly].Neis[other.edge] = uint16(i + 1)
				}
				continue
			}
			edges[key] = edgeOwner{poly: i, edge: j}
		}
		out[i] = p
	}

	header := &detour.DtMeshHeader{
		Magic:          detour.DT_NAVMESH_MAGIC,
		Version:        detour.DT_NAVMESH_VERSION,
		X:              tx,
		Y:              ty,
		PolyCount:      int32(len(out)),
		VertCount:      int32(len(verts) / 3),
		WalkableHeight: float32(rc.WalkableHeight) * rc.Ch,
		WalkableRadius: float32(rc.WalkableRadius) * rc.Cs,
		WalkableClimb:  float32(rc.WalkableClimb) * rc.Ch,
	}
	header.Bmin = common.VertAt(verts, 0)
	header.Bmax = header.Bmin
	for i := 1; i < len(verts)/3; i++ {
		v := common.VertAt(verts, i)
		for k := 0; k < 3; k++ {
			header.Bmin[k] = min(header.Bmin[k], v[k])
			header.Bmax[k] = max(header.Bmax[k], v[k])
		}
	}
	return &detour.NavMeshData{Header: header, Verts: verts, Polys: out}, nil
}

// BuildTiles runs the builder over every tile of the geometry grid and
// returns the non-empty tiles.
func BuildTiles(geom *InputGeom, cfg *Config, builder TileBuilder) ([]*detour.NavMeshData, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rc := cfg.Derive()
	tw, th := RcCalcGridSize(geom, rc)
	var tiles []*detour.NavMeshData
	for ty := int32(0); ty < th; ty++ {
		for tx := int32(0); tx < tw; tx++ {
			data, err := builder.BuildTile(geom, cfg, tx, ty)
			if err != nil {
				return nil, err
			}
			if data != nil {
				tiles = append(tiles, data)
			}
		}
	}
	slog.Debug("recast: tiles built", "geom", geom.Name, "grid", fmt.Sprintf("%dx%d", tw, th), "tiles", len(tiles))
	return tiles, nil
}

// BuildNavMesh builds all tiles and adds them to a new navigation mesh.
func BuildNavMesh(geom *InputGeom, cfg *Config, builder TileBuilder) (*detour.DtNavMesh, error) {
	tiles, err := BuildTiles(geom, cfg, builder)
	if err != nil {
		return nil, err
	}
	mesh, status := detour.NewDtNavMesh(cfg.NavMeshParams(geom))
	if status.DtStatusFailed() {
		return nil, fmt.Errorf("init navmesh: %w", status.Err())
	}
	for _, data := range tiles {
		if _, status := mesh.AddTile(data); status.DtStatusFailed() {
			return nil, fmt.Errorf("add tile (%d,%d): %w", data.Header.X, data.Header.Y, status.Err())
		}
	}
	return mesh, nil
}
