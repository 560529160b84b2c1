package vkquad

import (
	"unsafe"

	lin "github.com/xlab/linmath"
)

// Vertex is the layout of a single quad vertex: 7 floats, 28 bytes, with
// attributes at byte offsets 0, 8 and 20.
type Vertex struct {
	Pos      lin.Vec2
	Color    lin.Vec3
	TexCoord lin.Vec2
}

// VertexSize is the stride of the vertex buffer
const VertexSize = int(unsafe.Sizeof(Vertex{}))

type VertexFormat int

const (
	FormatR32G32Sfloat VertexFormat = iota
	FormatR32G32B32Sfloat
)

// VertexInputBinding describes a vertex buffer binding
type VertexInputBinding struct {
	Binding uint32
	Stride  uint32
}

// VertexInputAttribute describes one attribute read from a binding
type VertexInputAttribute struct {
	Location uint32
	Binding  uint32
	Format   VertexFormat
	Offset   uint32
}

// VertexBinding is binding 0 with the Vertex stride
func VertexBinding() VertexInputBinding {
	return VertexInputBinding{Binding: 0, Stride: uint32(VertexSize)}
}

// VertexAttributes returns position, color and texture coordinate attributes
func VertexAttributes() []VertexInputAttribute {
	return []VertexInputAttribute{
		{Location: 0, Binding: 0, Format: FormatR32G32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Pos))},
		{Location: 1, Binding: 0, Format: FormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
		{Location: 2, Binding: 0, Format: FormatR32G32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.TexCoord))},
	}
}

type VertexData []Vertex

func (v VertexData) Bytes() []byte {
	if len(v) == 0 {
		return nil
	}
	return ToBytes(unsafe.Pointer(&v[0]), len(v)*VertexSize)
}

type IndexSliceUint16 []uint16

func (i IndexSliceUint16) Bytes() []byte {
	if len(i) == 0 {
		return nil
	}
	size := len(i) * int(unsafe.Sizeof(uint16(1)))
	return ToBytes(unsafe.Pointer(&i[0]), size)
}

func (i IndexSliceUint16) IndexType() IndexType {
	return IndexTypeUint16
}

// ToBytes will take an unsafe.Pointer and length in bytes and convert it
// to a byte slice
func ToBytes(ptr unsafe.Pointer, lenInBytes int) []byte {
	return unsafe.Slice((*byte)(ptr), lenInBytes)
}
