package vkquad

import (
	"github.com/chewxy/math32"
	lin "github.com/xlab/linmath"
)

// QuadIndices are the two triangles of a quad sharing the diagonal from
// vertex 0 to vertex 2.
var QuadIndices = IndexSliceUint16{0, 1, 2, 2, 3, 0}

// Per corner debug colors, in vertex order
var quadColors = [4]lin.Vec3{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 1, 1},
}

// Quad is a rectangle in normalized device coordinates, y pointing down. It
// is the source of the vertex buffer contents and owns no device memory.
type Quad struct {
	X, Y, W, H float32
}

// Vertices returns the four corners in the order bottom-left (x, y+h),
// top-left (x, y), top-right (x+w, y), bottom-right (x+w, y+h). Texture
// coordinate (0,0) is the top-left texel.
func (q Quad) Vertices() VertexData {
	left, top := q.X, q.Y
	right, bottom := q.X+q.W, q.Y+q.H
	return VertexData{
		{Pos: lin.Vec2{left, bottom}, Color: quadColors[0], TexCoord: lin.Vec2{0, 1}},
		{Pos: lin.Vec2{left, top}, Color: quadColors[1], TexCoord: lin.Vec2{0, 0}},
		{Pos: lin.Vec2{right, top}, Color: quadColors[2], TexCoord: lin.Vec2{1, 0}},
		{Pos: lin.Vec2{right, bottom}, Color: quadColors[3], TexCoord: lin.Vec2{1, 1}},
	}
}

// Centered returns the quad moved so that its center is at (cx, cy)
func (q Quad) Centered(cx, cy float32) Quad {
	q.X = cx - q.W/2
	q.Y = cy - q.H/2
	return q
}

// Contains reports whether (x, y) is inside the quad
func (q Quad) Contains(x, y float32) bool {
	return x >= q.X && x < q.X+q.W && y >= q.Y && y < q.Y+q.H
}

// Orbit returns the quad centered on a circle of radius r around (cx, cy) at
// angle t radians. The CLI uses it to move the quad between frames.
func (q Quad) Orbit(cx, cy, r, t float32) Quad {
	return q.Centered(cx+r*math32.Cos(t), cy+r*math32.Sin(t))
}
