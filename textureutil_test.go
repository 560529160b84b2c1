package vkquad_test

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/celer/vkquad"
	"github.com/celer/vkquad/softgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowPitch(t *testing.T) {
	assert.EqualValues(t, 12, vkquad.RowPitch(12, 3))
	assert.EqualValues(t, 12, vkquad.RowPitch(10, 3))
	assert.EqualValues(t, 256, vkquad.RowPitch(12, 256))
	assert.EqualValues(t, 12, vkquad.RowPitch(12, 0))
	assert.EqualValues(t, 13, vkquad.RowPitch(13, 1))

	for _, align := range []uint64{2, 3, 4, 6, 64, 100, 256} {
		for row := uint64(1); row <= 600; row++ {
			p := vkquad.RowPitch(row, align)
			require.GreaterOrEqual(t, p, row)
			require.Zero(t, p%align, "row %d align %d", row, align)
			require.Less(t, p-row, align, "row %d align %d", row, align)
		}
	}
}

func TestStageRows(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6}
	dst := make([]byte, 12)

	vkquad.StageRows(dst, src, 2, 4, 3, vkquad.TopDown)
	assert.Equal(t, []byte{1, 2, 0, 0, 3, 4, 0, 0, 5, 6, 0, 0}, dst)

	vkquad.StageRows(dst, src, 2, 4, 3, vkquad.FlipVertical)
	assert.Equal(t, []byte{5, 6, 0, 0, 3, 4, 0, 0, 1, 2, 0, 0}, dst)

	out := make([]byte, 6)
	vkquad.UnstageRows(out, dst, 2, 4, 3)
	assert.Equal(t, []byte{5, 6, 3, 4, 1, 2}, out)
}

func TestTransitionImageLayout(t *testing.T) {
	b, err := vkquad.TransitionImageLayout(7, vkquad.ImageLayoutUndefined, vkquad.ImageLayoutTransferDstOptimal)
	require.NoError(t, err)
	assert.Equal(t, vkquad.ImageBarrier{
		Image:     7,
		OldLayout: vkquad.ImageLayoutUndefined,
		NewLayout: vkquad.ImageLayoutTransferDstOptimal,
		DstAccess: vkquad.AccessTransferWrite,
		SrcStage:  vkquad.PipelineStageTopOfPipe,
		DstStage:  vkquad.PipelineStageTransfer,
	}, b)

	b, err = vkquad.TransitionImageLayout(7, vkquad.ImageLayoutTransferDstOptimal, vkquad.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)
	assert.Equal(t, vkquad.AccessTransferWrite, b.SrcAccess)
	assert.Equal(t, vkquad.AccessShaderRead, b.DstAccess)
	assert.Equal(t, vkquad.PipelineStageTransfer, b.SrcStage)
	assert.Equal(t, vkquad.PipelineStageFragmentShader, b.DstStage)

	_, err = vkquad.TransitionImageLayout(7, vkquad.ImageLayoutShaderReadOnlyOptimal, vkquad.ImageLayoutUndefined)
	assert.Error(t, err)
}

func TestUploadIsLossless(t *testing.T) {
	sizes := [][2]int{{1, 1}, {2, 2}, {3, 5}, {17, 4}, {64, 3}}
	for _, align := range []uint64{0, 1, 6, 7, 64, 256} {
		for _, size := range sizes {
			w, h := size[0], size[1]
			t.Run(fmt.Sprintf("%dx%d align %d", w, h, align), func(t *testing.T) {
				cfg := softgpu.DefaultConfig()
				cfg.RowPitchAlignment = 256
				e := newTestEnv(t, cfg)
				pix := gradient(w, h)

				img := e.upload(t, pix, w, h, vkquad.UploadOptions{MinRowAlignment: align, Readable: true})

				layout, err := e.dev.ImageLayout(img.Image)
				require.NoError(t, err)
				assert.Equal(t, vkquad.ImageLayoutShaderReadOnlyOptimal, layout)

				stored, err := e.dev.ImagePixels(img.Image)
				require.NoError(t, err)
				assert.Equal(t, pix, stored)

				back, err := vkquad.ReadImage(e.dev, e.queue, e.pool, img, 0)
				require.NoError(t, err)
				assert.Equal(t, pix, back)

				layout, err = e.dev.ImageLayout(img.Image)
				require.NoError(t, err)
				assert.Equal(t, vkquad.ImageLayoutShaderReadOnlyOptimal, layout)

				img.Release(e.dev)
				e.assertClean(t)
			})
		}
	}
}

func TestUploadFlipVertical(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())
	pix := gradient(3, 4)

	img := e.upload(t, pix, 3, 4, vkquad.UploadOptions{Orientation: vkquad.FlipVertical})
	defer img.Release(e.dev)

	stored, err := e.dev.ImagePixels(img.Image)
	require.NoError(t, err)
	row := 3 * vkquad.BytesPerPixel
	for y := 0; y < 4; y++ {
		assert.Equal(t, pix[(3-y)*row:(4-y)*row], stored[y*row:(y+1)*row], "row %d", y)
	}
}

func TestUploadSamplesAsSourced(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())
	img := e.upload(t, quadTexture(), 2, 2, vkquad.UploadOptions{})

	binder, err := vkquad.NewDescriptorBinder(e.dev)
	require.NoError(t, err)
	require.NoError(t, binder.WriteImage(e.dev, img))

	for _, c := range []struct {
		u, v float32
		want color.RGBA
	}{
		{0, 0, red},
		{0.75, 0.25, green},
		{0.25, 0.75, blue},
		{0.99, 0.99, white},
	} {
		got, err := e.dev.Sample(binder.Set, c.u, c.v)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "uv (%g, %g)", c.u, c.v)
	}

	binder.Release(e.dev)
	img.Release(e.dev)
	e.assertClean(t)
}

func TestUploadRejectsInvalidImage(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())

	_, err := vkquad.Upload(e.dev, e.queue, e.pool, nil, 0, 1, vkquad.UploadOptions{})
	assert.ErrorIs(t, err, vkquad.ErrInvalidImage)
	assert.ErrorIs(t, err, vkquad.ErrAllocation)

	_, err = vkquad.Upload(e.dev, e.queue, e.pool, make([]byte, 15), 2, 2, vkquad.UploadOptions{})
	assert.ErrorIs(t, err, vkquad.ErrInvalidImage)

	e.assertClean(t)
}

func TestUploadAllOrNothing(t *testing.T) {
	cases := []struct {
		op   softgpu.Op
		step error
	}{
		{softgpu.OpCreateBuffer, vkquad.ErrBufferCreation},
		{softgpu.OpAllocateMemory, vkquad.ErrMemoryAllocation},
		{softgpu.OpBindBufferMemory, vkquad.ErrMemoryBind},
		{softgpu.OpMapMemory, vkquad.ErrMapAcquire},
		{softgpu.OpCreateImage, vkquad.ErrImageCreation},
		{softgpu.OpBindImageMemory, vkquad.ErrMemoryBind},
		{softgpu.OpCreateImageView, vkquad.ErrViewCreation},
		{softgpu.OpCreateSampler, vkquad.ErrSamplerCreation},
		{softgpu.OpAllocateCommandBuffer, vkquad.ErrCommandBuffer},
		{softgpu.OpBeginCommandBuffer, vkquad.ErrRecording},
		{softgpu.OpCreateFence, vkquad.ErrFenceCreation},
		{softgpu.OpSubmit, vkquad.ErrSubmit},
		{softgpu.OpWaitForFence, vkquad.ErrFenceWait},
	}
	for _, c := range cases {
		t.Run(string(c.op), func(t *testing.T) {
			e := newTestEnv(t, softgpu.DefaultConfig())
			e.dev.FailNext(c.op, nil)

			img, err := vkquad.Upload(e.dev, e.queue, e.pool, quadTexture(), 2, 2, vkquad.UploadOptions{Readable: true})
			assert.Nil(t, img)
			require.Error(t, err)
			assert.ErrorIs(t, err, c.step)
			assert.ErrorIs(t, err, softgpu.ErrInjected)

			var e2 *vkquad.Error
			require.ErrorAs(t, err, &e2)
			assert.Contains(t, e2.Op, "upload")

			e.assertClean(t)
		})
	}
}

func TestUploadOutOfMemory(t *testing.T) {
	cfg := softgpu.DefaultConfig()
	// room for the staging buffer, not for the image as well
	cfg.MemoryBudget = 1024
	e := newTestEnv(t, cfg)

	_, err := vkquad.Upload(e.dev, e.queue, e.pool, gradient(16, 16), 16, 16, vkquad.UploadOptions{})
	assert.ErrorIs(t, err, vkquad.ErrMemoryAllocation)
	assert.ErrorIs(t, err, vkquad.ErrAllocation)
	e.assertClean(t)
}

func TestReadImageRequiresReadable(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())
	img := e.upload(t, quadTexture(), 2, 2, vkquad.UploadOptions{})

	_, err := vkquad.ReadImage(e.dev, e.queue, e.pool, img, 0)
	assert.ErrorIs(t, err, vkquad.ErrInvalidImage)

	img.Release(e.dev)
	_, err = vkquad.ReadImage(e.dev, e.queue, e.pool, img, 0)
	assert.ErrorIs(t, err, vkquad.ErrInvalidImage)
	e.assertClean(t)
}

func TestImageResourceRelease(t *testing.T) {
	e := newTestEnv(t, softgpu.DefaultConfig())
	img := e.upload(t, quadTexture(), 2, 2, vkquad.UploadOptions{
		Sampler: vkquad.SamplerInfo{Filter: vkquad.FilterLinear, AddressMode: vkquad.AddressModeClampToEdge},
	})
	assert.Equal(t, vkquad.FilterLinear, img.SamplerInfo.Filter)
	assert.EqualValues(t, 2, img.Width)
	assert.False(t, img.Released())

	img.Release(e.dev)
	img.Release(e.dev)
	assert.True(t, img.Released())
	e.assertClean(t)
}
