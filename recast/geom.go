package recast

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/gorustyt/navquery/common"
)

// maxFaceVerts caps the number of vertices read for one OBJ face.
const maxFaceVerts = 32

// InputGeom is the source geometry of a build: a polygon soup with one area id
// per face.
type InputGeom struct {
	Name  string
	Verts []float32 // (x, y, z) * vertCount
	Faces [][]int32 // Vertex indices of each face, in ring order.
	Areas []uint8   // Area id of each face, RC_NULL_AREA for unwalkable faces.
	Bmin  common.Vec3
	Bmax  common.Vec3
}

func (g *InputGeom) VertCount() int { return len(g.Verts) / 3 }

func (g *InputGeom) FaceVerts(i int) []common.Vec3 {
	face := g.Faces[i]
	out := make([]common.Vec3, len(face))
	for j, vi := range face {
		out[j] = common.VertAt(g.Verts, vi)
	}
	return out
}

// NewInputGeom wraps vertex triples and face rings, marking every face walkable.
func NewInputGeom(name string, verts []float32, faces [][]int32) *InputGeom {
	geom := &InputGeom{Name: name, Verts: verts, Faces: faces, Areas: make([]uint8, len(faces))}
	for i := range geom.Areas {
		geom.Areas[i] = RC_WALKABLE_AREA
	}
	geom.calcBounds()
	return geom
}

// LoadObj reads the vertices and faces of a Wavefront OBJ file. Every face is
// marked RC_WALKABLE_AREA; use MarkWalkableFaces to drop steep ones.
func LoadObj(p string) (*InputGeom, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	geom, err := ParseObj(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	geom.Name = path.Base(p)
	return geom, nil
}

func ParseObj(r io.Reader) (*InputGeom, error) {
	geom := &InputGeom{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		row := strings.TrimSpace(scanner.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		ss := strings.Fields(row)
		var err error
		switch ss[0] {
		case "v":
			err = geom.parseVertex(ss[1:])
		case "f":
			err = geom.parseFace(ss[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	geom.calcBounds()
	return geom, nil
}

func (g *InputGeom) parseVertex(ss []string) error {
	if len(ss) < 3 {
		return fmt.Errorf("vertex needs 3 coordinates, got %d", len(ss))
	}
	for _, s := range ss[:3] {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return err
		}
		g.Verts = append(g.Verts, float32(v))
	}
	return nil
}

func (g *InputGeom) parseFace(ss []string) error {
	nverts := int32(g.VertCount())
	var face []int32
	for _, s := range ss {
		// v, v/vt, v//vn or v/vt/vn: the position index comes first.
		vs := strings.SplitN(s, "/", 2)
		vi, err := strconv.Atoi(vs[0])
		if err != nil {
			return err
		}
		idx := int32(vi) - 1
		if vi < 0 {
			idx = nverts + int32(vi)
		}
		if idx < 0 || idx >= nverts {
			return fmt.Errorf("face index %d out of range", vi)
		}
		face = append(face, idx)
		if len(face) >= maxFaceVerts {
			break
		}
	}
	if len(face) < 3 {
		return nil
	}
	g.Faces = append(g.Faces, face)
	g.Areas = append(g.Areas, RC_WALKABLE_AREA)
	return nil
}

func (g *InputGeom) calcBounds() {
	if len(g.Verts) < 3 {
		g.Bmin, g.Bmax = common.Vec3{}, common.Vec3{}
		return
	}
	g.Bmin = common.VertAt(g.Verts, 0)
	g.Bmax = g.Bmin
	for i := 1; i < g.VertCount(); i++ {
		v := common.VertAt(g.Verts, i)
		for k := 0; k < 3; k++ {
			g.Bmin[k] = min(g.Bmin[k], v[k])
			g.Bmax[k] = max(g.Bmax[k], v[k])
		}
	}
}

func calcFaceNormal(verts []common.Vec3) common.Vec3 {
	// Newell's method.
	var n common.Vec3
	for i := range verts {
		a, b := verts[i], verts[(i+1)%len(verts)]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

// MarkWalkableFaces sets the area of every face steeper than the slope
// (in degrees) to RC_NULL_AREA and returns the number of walkable faces left.
// Downward facing faces are never walkable.
func (g *InputGeom) MarkWalkableFaces(walkableSlopeAngle float32) int {
	walkableThr := float32(math.Cos(float64(walkableSlopeAngle) / 180.0 * math.Pi))
	walkable := 0
	for i := range g.Faces {
		norm := calcFaceNormal(g.FaceVerts(i))
		if norm[1] <= walkableThr {
			g.Areas[i] = RC_NULL_AREA
			continue
		}
		if g.Areas[i] != RC_NULL_AREA {
			walkable++
		}
	}
	return walkable
}

// BuildGridGeom returns a flat w x h grid of square faces of the given cell size
// at height 0, starting at the origin.
func BuildGridGeom(w, h int, cell float32) *InputGeom {
	var verts []float32
	for j := 0; j <= h; j++ {
		for i := 0; i <= w; i++ {
			verts = append(verts, float32(i)*cell, 0, float32(j)*cell)
		}
	}
	vi := func(i, j int) int32 { return int32(j*(w+1) + i) }
	var faces [][]int32
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			faces = append(faces, []int32{vi(i, j), vi(i, j+1), vi(i+1, j+1), vi(i+1, j)})
		}
	}
	return NewInputGeom(fmt.Sprintf("grid_%dx%d", w, h), verts, faces)
}
