package vkquad_test

import (
	"testing"
	"time"

	"github.com/celer/vkquad"
	"github.com/celer/vkquad/softgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lin "github.com/xlab/linmath"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, 28, vkquad.VertexSize)
	assert.Equal(t, vkquad.VertexInputBinding{Binding: 0, Stride: 28}, vkquad.VertexBinding())

	attrs := vkquad.VertexAttributes()
	require.Len(t, attrs, 3)
	assert.EqualValues(t, []uint32{0, 8, 20}, []uint32{attrs[0].Offset, attrs[1].Offset, attrs[2].Offset})
	assert.Equal(t, vkquad.FormatR32G32B32Sfloat, attrs[1].Format)
	for i, a := range attrs {
		assert.EqualValues(t, i, a.Location)
	}
}

func TestQuadVertices(t *testing.T) {
	v := vkquad.Quad{X: -0.5, Y: -0.5, W: 1, H: 1}.Vertices()
	require.Len(t, v, 4)

	assert.Equal(t, []lin.Vec2{{-0.5, 0.5}, {-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}},
		[]lin.Vec2{v[0].Pos, v[1].Pos, v[2].Pos, v[3].Pos})
	assert.Equal(t, []lin.Vec2{{0, 1}, {0, 0}, {1, 0}, {1, 1}},
		[]lin.Vec2{v[0].TexCoord, v[1].TexCoord, v[2].TexCoord, v[3].TexCoord})
	assert.Len(t, v.Bytes(), 4*vkquad.VertexSize)
}

func TestQuadGeometry(t *testing.T) {
	q := vkquad.Quad{W: 0.5, H: 0.25}.Centered(0, 0)
	assert.Equal(t, vkquad.Quad{X: -0.25, Y: -0.125, W: 0.5, H: 0.25}, q)
	assert.True(t, q.Contains(0, 0))
	assert.False(t, q.Contains(0.25, 0))

	o := q.Orbit(0, 0, 1, 0)
	assert.InDelta(t, 0.75, o.X, 1e-6)
	assert.InDelta(t, -0.125, o.Y, 1e-6)
}

func TestQuadIndexBytes(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 1, 0, 2, 0, 2, 0, 3, 0, 0, 0}, vkquad.QuadIndices.Bytes())
	assert.Equal(t, vkquad.IndexTypeUint16, vkquad.QuadIndices.IndexType())
}

func TestQuadRendererUpdate(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())
	q := vkquad.Quad{X: -0.5, Y: -0.5, W: 1, H: 1}

	r, err := vkquad.NewQuadRenderer(e.dev, q)
	require.NoError(t, err)
	assert.Equal(t, q, r.Quad())

	indices, err := r.Indices.Read(e.dev, vkquad.ByteRange{Size: r.Indices.Size})
	require.NoError(t, err)
	assert.Equal(t, vkquad.QuadIndices.Bytes(), indices)

	vertices, err := r.Vertices.Read(e.dev, vkquad.ByteRange{Size: r.Vertices.Size})
	require.NoError(t, err)
	assert.Equal(t, q.Vertices().Bytes(), vertices)

	// updating with the same quad changes nothing
	require.NoError(t, r.Update(e.dev, q))
	again, err := r.Vertices.Read(e.dev, vkquad.ByteRange{Size: r.Vertices.Size})
	require.NoError(t, err)
	assert.Equal(t, vertices, again)

	moved := q.Centered(0.25, 0.25)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Update(e.dev, moved.Orbit(0, 0, 0.5, float32(i))))
		after, err := r.Indices.Read(e.dev, vkquad.ByteRange{Size: r.Indices.Size})
		require.NoError(t, err)
		assert.Equal(t, indices, after)
	}

	r.Release(e.dev)
	r.Release(e.dev)
	assert.ErrorIs(t, r.Update(e.dev, q), vkquad.ErrInvalidState)
	e.assertClean(t)
}

func TestQuadRendererAllOrNothing(t *testing.T) {
	for _, op := range []softgpu.Op{softgpu.OpCreateBuffer, softgpu.OpAllocateMemory, softgpu.OpMapMemory} {
		t.Run(string(op), func(t *testing.T) {
			e := newTestEnv(t, softgpu.DefaultConfig())
			e.dev.FailNext(op, nil)
			r, err := vkquad.NewQuadRenderer(e.dev, vkquad.Quad{W: 1, H: 1})
			assert.Nil(t, r)
			assert.ErrorIs(t, err, softgpu.ErrInjected)
			e.assertClean(t)
		})
	}
}

func TestQuadRendererDraw(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())
	img := e.upload(t, quadTexture(), 2, 2, vkquad.UploadOptions{})

	binder, err := vkquad.NewDescriptorBinder(e.dev)
	require.NoError(t, err)
	require.NoError(t, binder.WriteImage(e.dev, img))
	layout, err := binder.CreatePipelineLayout(e.dev)
	require.NoError(t, err)

	q := vkquad.Quad{X: -0.5, Y: -0.5, W: 1, H: 1}
	r, err := vkquad.NewQuadRenderer(e.dev, q)
	require.NoError(t, err)

	frames := []vkquad.Quad{q, q.Centered(0.25, 0), q.Centered(0, 0.25)}
	for _, f := range frames {
		require.NoError(t, r.Update(e.dev, f))

		cb, err := e.dev.AllocateCommandBuffer(e.pool)
		require.NoError(t, err)
		require.NoError(t, e.dev.BeginCommandBuffer(cb, true))
		require.NoError(t, r.Draw(e.dev, cb, binder, layout))
		require.NoError(t, e.dev.EndCommandBuffer(cb))

		fence, err := e.dev.CreateFence()
		require.NoError(t, err)
		require.NoError(t, e.queue.SubmitWithFence(fence, cb))
		require.NoError(t, e.dev.WaitForFence(fence, time.Second))
		e.dev.DestroyFence(fence)
		e.dev.FreeCommandBuffer(e.pool, cb)
	}
	assert.Equal(t, vkquad.Bound, binder.State())

	draws := e.dev.Draws()
	require.Len(t, draws, len(frames))
	for i, d := range draws {
		assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0}, d.Indices)
		assert.EqualValues(t, 6, d.IndexCount)
		assert.EqualValues(t, 1, d.InstanceCount)
		assert.Equal(t, binder.Set, d.Set)
		assert.Equal(t, layout, d.PipelineLayout)
		assert.Equal(t, img.View, d.View)
		assert.Equal(t, img.Sampler, d.Sampler)
		assert.Equal(t, []vkquad.Vertex(frames[i].Vertices()), d.Vertices)
	}

	r.Release(e.dev)
	assert.ErrorIs(t, r.Draw(e.dev, 0, binder, layout), vkquad.ErrInvalidState)

	e.dev.DestroyPipelineLayout(layout)
	binder.Release(e.dev)
	img.Release(e.dev)
	e.assertClean(t)
}
