package common

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Vec3 = mgl32.Vec3
type Vec2 = mgl32.Vec2

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}
type IIndex interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint | ~uint8 | ~uint16 | ~uint32
}

// GetVert3 returns the xyz triple at index as a view into verts.
func GetVert3[T IT, T1 IIndex](verts []T, index T1) []T {
	i := int(index) * 3
	return verts[i : i+3]
}

// VertAt copies the xyz triple at index into a Vec3.
func VertAt[T1 IIndex](verts []float32, index T1) Vec3 {
	v := GetVert3(verts, index)
	return Vec3{v[0], v[1], v[2]}
}

func AppendVec3(verts []float32, v Vec3) []float32 {
	return append(verts, v[0], v[1], v[2])
}

// AssertTrue panics on a broken invariant. Only for programmer errors.
func AssertTrue(ok bool, format ...any) {
	if ok {
		return
	}
	if len(format) == 0 {
		panic("assertion failed")
	}
	msg, _ := format[0].(string)
	panic(fmt.Sprintf("assertion failed: "+msg, format[1:]...))
}
