package vkquad_test

import (
	"image/color"
	"testing"

	"github.com/celer/vkquad"
	"github.com/celer/vkquad/softgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// testEnv is a software device with a queue and a command pool
type testEnv struct {
	dev   *softgpu.Device
	queue vkquad.Queue
	pool  vkquad.CommandPoolHandle
}

func newTestEnv(t *testing.T, cfg softgpu.Config) *testEnv {
	t.Helper()
	dev := softgpu.New(cfg)
	pool, err := dev.CreateCommandPool()
	require.NoError(t, err)
	return &testEnv{dev: dev, queue: dev.Queue(), pool: pool}
}

// assertClean checks that only the command pool is left and that nothing was
// misused.
func (e *testEnv) assertClean(t *testing.T) {
	t.Helper()
	e.dev.WaitIdle()
	assert.Equal(t, map[string]int{"command pool": 1}, e.dev.Live())
	assert.Zero(t, e.dev.Allocated())
	assert.Empty(t, e.dev.Violations())
}

// quadTexture is 2x2: red, green on the top row, blue, white below
func quadTexture() []byte {
	return []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
}

// gradient returns w x h pixels where every byte differs from its
// neighbours, so misplaced rows or padding show up.
func gradient(w, h int) []byte {
	pix := make([]byte, w*h*vkquad.BytesPerPixel)
	for i := range pix {
		pix[i] = byte(i*7 + i/13)
	}
	return pix
}

func (e *testEnv) upload(t *testing.T, pix []byte, w, h int, opts vkquad.UploadOptions) *vkquad.ImageResource {
	t.Helper()
	img, err := vkquad.Upload(e.dev, e.queue, e.pool, pix, w, h, opts)
	require.NoError(t, err)
	return img
}
