package vkquad

import (
	"fmt"
)

// QuadRenderer holds the vertex and index buffers for one textured quad.
// The index buffer is written once at creation, the vertex buffer is
// rewritten from the current Quad every frame.
type QuadRenderer struct {
	Vertices *BufferResource
	Indices  *BufferResource

	quad     Quad
	released bool
}

// NewQuadRenderer creates both buffers in host visible memory, writes the
// fixed index pattern and the vertices of q.
func NewQuadRenderer(dev MemoryDevice, q Quad) (*QuadRenderer, error) {
	const op = "create quad renderer"

	indexBytes := QuadIndices.Bytes()

	vertices, err := CreateBufferResource(dev, uint64(4*VertexSize), BufferUsageVertex)
	if err != nil {
		return nil, withOp(err, op)
	}

	indices, err := CreateBufferResource(dev, uint64(len(indexBytes)), BufferUsageIndex)
	if err != nil {
		vertices.Release(dev)
		return nil, withOp(err, op)
	}

	r := &QuadRenderer{Vertices: vertices, Indices: indices}

	if err := indices.WriteAll(dev, indexBytes); err != nil {
		r.Release(dev)
		return nil, withOp(err, op)
	}
	if err := r.Update(dev, q); err != nil {
		r.Release(dev)
		return nil, err
	}
	return r, nil
}

// Quad returns the geometry last written to the vertex buffer
func (r *QuadRenderer) Quad() Quad {
	return r.quad
}

// Update rewrites the vertex buffer from q. The index buffer is untouched.
func (r *QuadRenderer) Update(dev MemoryDevice, q Quad) error {
	if r.released {
		return newError("update quad", ErrInvalidState, fmt.Errorf("renderer released"))
	}
	if err := r.Vertices.WriteAll(dev, q.Vertices().Bytes()); err != nil {
		return withOp(err, "update quad")
	}
	r.quad = q
	return nil
}

// Draw records the quad draw into cb: index buffer (uint16), vertex buffer,
// the texture descriptor set and one indexed draw of all six indices.
func (r *QuadRenderer) Draw(rec CommandRecorder, cb CommandBufferHandle, binder *DescriptorBinder, layout PipelineLayoutHandle) error {
	if r.released {
		return newError("draw quad", ErrInvalidState, fmt.Errorf("renderer released"))
	}
	rec.CmdBindIndexBuffer(cb, r.Indices.Buffer, 0, QuadIndices.IndexType())
	rec.CmdBindVertexBuffer(cb, 0, r.Vertices.Buffer, 0)
	if err := binder.Bind(rec, cb, layout); err != nil {
		return withOp(err, "draw quad")
	}
	rec.CmdDrawIndexed(cb, uint32(len(QuadIndices)), 1, 0, 0, 0)
	return nil
}

// Release destroys both buffers. Calls after the first do nothing.
func (r *QuadRenderer) Release(dev MemoryDevice) {
	if r == nil || r.released {
		return
	}
	r.released = true
	r.Indices.Release(dev)
	r.Vertices.Release(dev)
}
