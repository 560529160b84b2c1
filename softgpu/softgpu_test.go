package softgpu

import (
	"image/color"
	"testing"
	"time"

	"github.com/celer/vkquad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	cases := []struct {
		mode vkquad.AddressMode
		in   []int
		want []int
		ok   []bool
	}{
		{vkquad.AddressModeRepeat, []int{-1, 0, 3, 4, 9}, []int{3, 0, 3, 0, 1}, []bool{true, true, true, true, true}},
		{vkquad.AddressModeMirroredRepeat, []int{-1, 3, 4, 5, 8}, []int{0, 3, 3, 2, 0}, []bool{true, true, true, true, true}},
		{vkquad.AddressModeClampToEdge, []int{-5, 2, 10}, []int{0, 2, 3}, []bool{true, true, true}},
		{vkquad.AddressModeClampToBorder, []int{-1, 0, 3, 4}, []int{-1, 0, 3, 4}, []bool{false, true, true, false}},
	}
	for _, c := range cases {
		for i, in := range c.in {
			got, ok := wrap(in, 4, c.mode)
			assert.Equal(t, c.ok[i], ok, "%s(%d)", c.mode, in)
			if ok {
				assert.Equal(t, c.want[i], got, "%s(%d)", c.mode, in)
			}
		}
	}
}

func TestSample(t *testing.T) {
	// black, white
	pix := []byte{0, 0, 0, 255, 255, 255, 255, 255}

	nearest := vkquad.SamplerInfo{Filter: vkquad.FilterNearest, AddressMode: vkquad.AddressModeClampToEdge}
	assert.Equal(t, color.RGBA{A: 255}, sample(pix, 2, 1, nearest, 0.49, 0.5))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, sample(pix, 2, 1, nearest, 0.5, 0.5))

	linear := vkquad.SamplerInfo{Filter: vkquad.FilterLinear, AddressMode: vkquad.AddressModeClampToEdge}
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, sample(pix, 2, 1, linear, 0.5, 0.5))
	// texel centers are exact
	assert.Equal(t, color.RGBA{A: 255}, sample(pix, 2, 1, linear, 0.25, 0.5))

	repeat := vkquad.SamplerInfo{Filter: vkquad.FilterNearest, AddressMode: vkquad.AddressModeRepeat}
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, sample(pix, 2, 1, repeat, -0.25, 0.5))

	border := vkquad.SamplerInfo{Filter: vkquad.FilterNearest, AddressMode: vkquad.AddressModeClampToBorder}
	assert.Equal(t, color.RGBA{}, sample(pix, 2, 1, border, -0.25, 0.5))
}

// texturedImage creates a 4x4 sampled image with memory and a transfer
// source buffer holding pixels for it.
func texturedImage(t *testing.T, d *Device) (vkquad.ImageHandle, vkquad.BufferHandle) {
	t.Helper()

	img, err := d.CreateImage(vkquad.ImageInfo{
		Width: 4, Height: 4, Depth: 1, MipLevels: 1,
		Format: vkquad.FormatR8G8B8A8Unorm,
		Usage:  vkquad.ImageUsageTransferDst | vkquad.ImageUsageSampled,
	})
	require.NoError(t, err)
	mr := d.ImageMemoryRequirements(img)
	imem, err := d.AllocateMemory(mr.Size, 0)
	require.NoError(t, err)
	require.NoError(t, d.BindImageMemory(img, imem, 0))

	buf, err := d.CreateBuffer(64, vkquad.BufferUsageTransferSrc)
	require.NoError(t, err)
	br := d.BufferMemoryRequirements(buf)
	bmem, err := d.AllocateMemory(br.Size, 1)
	require.NoError(t, err)
	require.NoError(t, d.BindBufferMemory(buf, bmem, 0))
	return img, buf
}

func submit(t *testing.T, d *Device, record func(cb vkquad.CommandBufferHandle)) error {
	t.Helper()

	pool, err := d.CreateCommandPool()
	require.NoError(t, err)
	defer d.DestroyCommandPool(pool)
	cb, err := d.AllocateCommandBuffer(pool)
	require.NoError(t, err)
	require.NoError(t, d.BeginCommandBuffer(cb, true))
	record(cb)
	require.NoError(t, d.EndCommandBuffer(cb))

	fence, err := d.CreateFence()
	require.NoError(t, err)
	defer d.DestroyFence(fence)
	require.NoError(t, d.Queue().SubmitWithFence(fence, cb))
	return d.WaitForFence(fence, time.Second)
}

func TestCopyRequiresTransferLayout(t *testing.T) {
	d := NewDefault()
	img, buf := texturedImage(t, d)

	err := submit(t, d, func(cb vkquad.CommandBufferHandle) {
		d.CmdCopyBufferToImage(cb, buf, img, vkquad.ImageLayoutTransferDstOptimal, vkquad.BufferImageCopy{Width: 4, Height: 4})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy buffer to image")

	layout, err := d.ImageLayout(img)
	require.NoError(t, err)
	assert.Equal(t, vkquad.ImageLayoutUndefined, layout)
}

func TestBarrierTracksLayout(t *testing.T) {
	d := NewDefault()
	img, buf := texturedImage(t, d)

	err := submit(t, d, func(cb vkquad.CommandBufferHandle) {
		toDst, err := vkquad.TransitionImageLayout(img, vkquad.ImageLayoutUndefined, vkquad.ImageLayoutTransferDstOptimal)
		require.NoError(t, err)
		d.CmdPipelineBarrier(cb, toDst)
		d.CmdCopyBufferToImage(cb, buf, img, vkquad.ImageLayoutTransferDstOptimal, vkquad.BufferImageCopy{Width: 4, Height: 4})
	})
	require.NoError(t, err)
	layout, err := d.ImageLayout(img)
	require.NoError(t, err)
	assert.Equal(t, vkquad.ImageLayoutTransferDstOptimal, layout)

	// the image is not in the layout the barrier claims
	err = submit(t, d, func(cb vkquad.CommandBufferHandle) {
		d.CmdPipelineBarrier(cb, vkquad.ImageBarrier{
			Image:     img,
			OldLayout: vkquad.ImageLayoutTransferSrcOptimal,
			NewLayout: vkquad.ImageLayoutShaderReadOnlyOptimal,
			SrcStage:  vkquad.PipelineStageTransfer,
			DstStage:  vkquad.PipelineStageFragmentShader,
		})
	})
	assert.Error(t, err)
}

func TestCopyRegionOutsideBuffer(t *testing.T) {
	_, err := copyRegion(vkquad.BufferImageCopy{Width: 4, Height: 4, BufferRowLength: 8}, 4, 4, 64)
	assert.Error(t, err)

	pitch, err := copyRegion(vkquad.BufferImageCopy{Width: 4, Height: 4, BufferRowLength: 8}, 4, 4, 112)
	require.NoError(t, err)
	assert.EqualValues(t, 32, pitch)

	_, err = copyRegion(vkquad.BufferImageCopy{Width: 4, Height: 4, BufferRowLength: 2}, 4, 4, 1024)
	assert.Error(t, err)
}

func TestMapDeviceLocalMemory(t *testing.T) {
	d := NewDefault()
	mem, err := d.AllocateMemory(64, 0)
	require.NoError(t, err)
	_, err = d.MapMemory(mem, 0, 64)
	assert.Error(t, err)

	host, err := d.AllocateMemory(64, 1)
	require.NoError(t, err)
	b, err := d.MapMemory(host, 16, 16)
	require.NoError(t, err)
	assert.Len(t, b, 16)
	assert.Equal(t, 16, cap(b))
	_, err = d.MapMemory(host, 0, 4)
	assert.Error(t, err, "memory can only be mapped once")
	d.UnmapMemory(host)

	d.FreeMemory(mem)
	d.FreeMemory(host)
	assert.Empty(t, d.Live())
	assert.Empty(t, d.Violations())
}

func TestTeardownViolations(t *testing.T) {
	d := NewDefault()
	buf, err := d.CreateBuffer(16, vkquad.BufferUsageVertex)
	require.NoError(t, err)
	mem, err := d.AllocateMemory(64, 1)
	require.NoError(t, err)
	require.NoError(t, d.BindBufferMemory(buf, mem, 0))

	d.FreeMemory(mem)
	d.DestroyBuffer(buf)
	d.DestroyBuffer(buf)
	assert.Len(t, d.Violations(), 2)
}

func TestRecordWithoutBegin(t *testing.T) {
	d := NewDefault()
	pool, err := d.CreateCommandPool()
	require.NoError(t, err)
	cb, err := d.AllocateCommandBuffer(pool)
	require.NoError(t, err)

	d.CmdDrawIndexed(cb, 6, 1, 0, 0, 0)
	assert.Len(t, d.Violations(), 1)
	assert.Error(t, d.EndCommandBuffer(cb))
}

func TestDescriptorPoolExhausted(t *testing.T) {
	d := NewDefault()
	layout, err := d.CreateDescriptorSetLayout(vkquad.TextureLayoutBindings())
	require.NoError(t, err)
	pool, err := d.CreateDescriptorPool(1, []vkquad.PoolSize{
		{Type: vkquad.DescriptorTypeSampledImage, Count: 1},
		{Type: vkquad.DescriptorTypeSampler, Count: 1},
	})
	require.NoError(t, err)

	_, err = d.AllocateDescriptorSet(pool, layout)
	require.NoError(t, err)
	_, err = d.AllocateDescriptorSet(pool, layout)
	assert.ErrorIs(t, err, vkquad.ErrPoolExhausted)

	small, err := d.CreateDescriptorPool(4, []vkquad.PoolSize{{Type: vkquad.DescriptorTypeSampler, Count: 4}})
	require.NoError(t, err)
	_, err = d.AllocateDescriptorSet(small, layout)
	assert.ErrorIs(t, err, vkquad.ErrPoolExhausted, "no sampled image descriptors left")

	_, err = d.CreateDescriptorSetLayout([]vkquad.LayoutBinding{{Binding: 0}, {Binding: 0}})
	assert.Error(t, err)
}

func TestUnsubmittedFenceTimesOut(t *testing.T) {
	d := NewDefault()
	f, err := d.CreateFence()
	require.NoError(t, err)
	assert.Error(t, d.WaitForFence(f, time.Hour))
	d.DestroyFence(f)
	assert.Empty(t, d.Live())
}

func TestSubmissionsExecuteInOrder(t *testing.T) {
	d := NewDefault()
	img, buf := texturedImage(t, d)

	pool, err := d.CreateCommandPool()
	require.NoError(t, err)
	first, err := d.AllocateCommandBuffer(pool)
	require.NoError(t, err)
	second, err := d.AllocateCommandBuffer(pool)
	require.NoError(t, err)

	toDst, err := vkquad.TransitionImageLayout(img, vkquad.ImageLayoutUndefined, vkquad.ImageLayoutTransferDstOptimal)
	require.NoError(t, err)
	require.NoError(t, d.BeginCommandBuffer(first, true))
	d.CmdPipelineBarrier(first, toDst)
	require.NoError(t, d.EndCommandBuffer(first))

	require.NoError(t, d.BeginCommandBuffer(second, true))
	d.CmdCopyBufferToImage(second, buf, img, vkquad.ImageLayoutTransferDstOptimal, vkquad.BufferImageCopy{Width: 4, Height: 4})
	require.NoError(t, d.EndCommandBuffer(second))

	// the copy relies on the barrier of the earlier submission
	require.NoError(t, d.Queue().SubmitWithFence(0, first))
	fence, err := d.CreateFence()
	require.NoError(t, err)
	require.NoError(t, d.Queue().SubmitWithFence(fence, second))
	require.NoError(t, d.WaitForFence(fence, time.Second))

	assert.Error(t, d.Queue().SubmitWithFence(0, second), "one time buffers can not be resubmitted")
	d.DestroyFence(fence)
	assert.Empty(t, d.Violations())
}
