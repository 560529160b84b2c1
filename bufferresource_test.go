package vkquad_test

import (
	"errors"
	"testing"

	"github.com/celer/vkquad"
	"github.com/celer/vkquad/softgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMemoryType(t *testing.T) {
	props := softgpu.DefaultConfig().MemoryTypes
	mp := vkquad.MemoryProperties{MemoryTypes: props}

	cases := []struct {
		bits     uint32
		required vkquad.MemoryPropertyFlags
		want     uint32
	}{
		{0b111, vkquad.HostVisibleCoherent, 1},
		{0b101, vkquad.MemoryPropertyHostVisible, 2},
		{0b111, vkquad.MemoryPropertyDeviceLocal, 0},
		{0b110, vkquad.MemoryPropertyDeviceLocal, 2},
		{0b111, 0, 0},
	}
	for _, c := range cases {
		got, err := vkquad.FindMemoryType(mp, c.bits, c.required)
		require.NoError(t, err, "bits %#b required %s", c.bits, c.required)
		assert.Equal(t, c.want, got, "bits %#b required %s", c.bits, c.required)
	}

	_, err := vkquad.FindMemoryType(mp, 0b001, vkquad.MemoryPropertyHostVisible)
	assert.ErrorIs(t, err, vkquad.ErrNoCompatibleMemoryType)

	_, err = vkquad.FindMemoryType(mp, 0, 0)
	assert.ErrorIs(t, err, vkquad.ErrNoCompatibleMemoryType)

	_, err = vkquad.FindMemoryType(vkquad.MemoryProperties{}, 0xffffffff, 0)
	assert.ErrorIs(t, err, vkquad.ErrNoCompatibleMemoryType)
}

func TestCreateBufferResourceNoCompatibleMemory(t *testing.T) {
	cfg := softgpu.DefaultConfig()
	// buffers may only live in device local memory
	cfg.BufferTypeBits = 0b001
	e := newTestEnv(t, cfg)

	b, err := vkquad.CreateBufferResource(e.dev, 64, vkquad.BufferUsageVertex)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, vkquad.ErrNoCompatibleMemoryType)
	e.assertClean(t)
}

func TestBufferResourceWriteRead(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())

	b, err := vkquad.CreateBufferResource(e.dev, 100, vkquad.BufferUsageVertex)
	require.NoError(t, err)
	assert.EqualValues(t, 100, b.Size)
	assert.EqualValues(t, 128, b.Requirements.Size)

	require.NoError(t, b.Write(e.dev, vkquad.ByteRange{Offset: 10, Size: 4}, []byte{1, 2, 3, 4}))
	got, err := b.Read(e.dev, vkquad.ByteRange{Offset: 8, Size: 8})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1, 2, 3, 4, 0, 0}, got)

	// a short write leaves the rest of the range alone
	require.NoError(t, b.Write(e.dev, vkquad.ByteRange{Offset: 8, Size: 8}, []byte{9}))
	got, err = b.Read(e.dev, vkquad.ByteRange{Offset: 8, Size: 8})
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 0, 1, 2, 3, 4, 0, 0}, got)

	b.Release(e.dev)
	e.assertClean(t)
}

func TestBufferResourceRangeOverflow(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())

	b, err := vkquad.CreateBufferResource(e.dev, 16, vkquad.BufferUsageIndex)
	require.NoError(t, err)
	defer b.Release(e.dev)

	err = b.WriteAll(e.dev, make([]byte, 17))
	assert.ErrorIs(t, err, vkquad.ErrRangeOverflow)

	err = b.Write(e.dev, vkquad.ByteRange{Offset: 12, Size: 8}, []byte{1})
	assert.ErrorIs(t, err, vkquad.ErrRangeOverflow)

	err = b.Write(e.dev, vkquad.ByteRange{Offset: 4, Size: 2}, []byte{1, 2, 3})
	assert.ErrorIs(t, err, vkquad.ErrRangeOverflow)

	_, err = b.Read(e.dev, vkquad.ByteRange{Offset: 17})
	assert.ErrorIs(t, err, vkquad.ErrRangeOverflow)

	// the buffer is untouched and still mappable
	got, err := b.Read(e.dev, vkquad.ByteRange{Size: 16})
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), got)
}

func TestBufferResourceMapReleasesMapping(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())

	b, err := vkquad.CreateBufferResource(e.dev, 16, vkquad.BufferUsageVertex)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = b.Map(e.dev, vkquad.ByteRange{Size: 16}, func(mapped []byte) error {
		assert.Len(t, mapped, 16)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	e.dev.FailNext(softgpu.OpMapMemory, nil)
	err = b.WriteAll(e.dev, []byte{1})
	assert.ErrorIs(t, err, vkquad.ErrMapAcquire)
	assert.ErrorIs(t, err, vkquad.ErrMapping)

	require.NoError(t, b.WriteAll(e.dev, []byte{1}))

	b.Release(e.dev)
	b.Release(e.dev)
	assert.True(t, b.Released())
	e.assertClean(t)
}

func TestCreateBufferResourceAllOrNothing(t *testing.T) {
	for _, c := range []struct {
		op   softgpu.Op
		step error
	}{
		{softgpu.OpCreateBuffer, vkquad.ErrBufferCreation},
		{softgpu.OpAllocateMemory, vkquad.ErrMemoryAllocation},
		{softgpu.OpBindBufferMemory, vkquad.ErrMemoryBind},
	} {
		t.Run(string(c.op), func(t *testing.T) {
			e := newTestEnv(t, softgpu.DefaultConfig())
			e.dev.FailNext(c.op, nil)

			_, err := vkquad.CreateBufferResource(e.dev, 32, vkquad.BufferUsageTransferSrc)
			assert.ErrorIs(t, err, c.step)
			assert.ErrorIs(t, err, vkquad.ErrAllocation)
			e.assertClean(t)
		})
	}
}
