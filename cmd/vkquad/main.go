// Command vkquad uploads a texture through the staging path, binds it for a
// textured quad, draws the quad for a few frames and reads the texture back.
//
//	vkquad [-config file] [-backend soft|vulkan] [-image path] [-out path] [-align n]
//	       [-flip] [-filter nearest|linear] [-wrap repeat|clamp|mirror|border] [-frames n]
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"

	"github.com/celer/vkquad"
	"github.com/celer/vkquad/internal/config"
	"github.com/celer/vkquad/softgpu"
	"github.com/celer/vkquad/vulkan"
	units "github.com/docker/go-units"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("vkquad failed", "error", err)
		os.Exit(1)
	}
}

func parseConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("vkquad", flag.ContinueOnError)
	file := fs.String("config", "", "TOML or YAML configuration file")
	backend := fs.String("backend", "", "device backend, soft or vulkan")
	img := fs.String("image", "", "texture to upload, a 2x2 test pattern when empty")
	out := fs.String("out", "", "write the read back texture to this PNG file")
	align := fs.Uint64("align", 0, "minimum staging row alignment in bytes, 0 uses the device limit")
	flip := fs.Bool("flip", false, "stage the texture bottom row first")
	filter := fs.String("filter", "", "sampler filter, nearest or linear")
	wrap := fs.String("wrap", "", "sampler address mode, repeat, clamp, mirror or border")
	frames := fs.Int("frames", 0, "number of frames to draw")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	c := config.Defaults()
	if *file != "" {
		var err error
		if c, err = config.Load(*file); err != nil {
			return c, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			c.Backend = *backend
		case "image":
			c.Image = *img
		case "out":
			c.Out = *out
		case "align":
			c.RowAlignment = *align
		case "flip":
			c.Flip = *flip
		case "filter":
			c.Filter = *filter
		case "wrap":
			c.Wrap = *wrap
		case "frames":
			c.Frames = *frames
		}
	})
	return c, c.Validate()
}

// target is what the texture gets uploaded to
type target struct {
	dev   vkquad.Device
	queue vkquad.Queue
	pool  vkquad.CommandPoolHandle
	// soft is set for the software backend, which can execute draws
	soft  *softgpu.Device
	close func()
}

func open(c config.Config) (*target, error) {
	switch c.Backend {
	case "vulkan":
		ctx, err := vulkan.Open(&vulkan.App{Name: "vkquad", EngineName: "vkquad"}, vulkan.OpenOptions{
			Debug:      c.Validation,
			Verbose:    c.LogLevel == "debug",
			DeviceName: c.Device,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("opened vulkan device", "device", ctx.Device.PhysicalDevice.DeviceName, "heaps", ctx.Device.PhysicalDevice.HeapSizes())
		return &target{dev: ctx.Device, queue: ctx.Queue, pool: ctx.CommandPool, close: ctx.Close}, nil
	default:
		dev := softgpu.NewDefault()
		pool, err := dev.CreateCommandPool()
		if err != nil {
			return nil, err
		}
		return &target{
			dev:   dev,
			queue: dev.Queue(),
			pool:  pool,
			soft:  dev,
			close: func() {
				dev.WaitIdle()
				dev.DestroyCommandPool(pool)
			},
		}, nil
	}
}

func texture(c config.Config) (*image.RGBA, error) {
	if c.Image == "" {
		m := image.NewRGBA(image.Rect(0, 0, 2, 2))
		m.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
		m.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})
		m.SetRGBA(0, 1, color.RGBA{B: 255, A: 255})
		m.SetRGBA(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		return m, nil
	}
	m, err := vkquad.LoadRGBA(c.Image)
	if err != nil {
		return nil, err
	}
	return vkquad.FitRGBA(m, c.MaxSide), nil
}

func run(args []string) error {
	c, err := parseConfig(args)
	if err != nil {
		return err
	}
	level, _ := c.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	src, err := texture(c)
	if err != nil {
		return err
	}
	opts, err := c.UploadOptions()
	if err != nil {
		return err
	}

	t, err := open(c)
	if err != nil {
		return err
	}
	defer t.close()

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	pixels := vkquad.Pixels(src)
	img, err := vkquad.Upload(t.dev, t.queue, t.pool, pixels, w, h, opts)
	if err != nil {
		return err
	}
	defer img.Release(t.dev)
	slog.Info("uploaded texture", "width", w, "height", h, "size", units.BytesSize(float64(len(pixels))),
		"orientation", opts.Orientation, "filter", opts.Sampler.Filter, "wrap", opts.Sampler.AddressMode)

	binder, err := vkquad.NewDescriptorBinder(t.dev)
	if err != nil {
		return err
	}
	defer binder.Release(t.dev)
	if err := binder.WriteImage(t.dev, img); err != nil {
		return err
	}
	layout, err := binder.CreatePipelineLayout(t.dev)
	if err != nil {
		return err
	}
	defer t.dev.DestroyPipelineLayout(layout)

	renderer, err := vkquad.NewQuadRenderer(t.dev, c.Rect())
	if err != nil {
		return err
	}
	defer renderer.Release(t.dev)

	if err := drawFrames(t, c, renderer, binder, layout); err != nil {
		return err
	}

	back, err := vkquad.ReadImage(t.dev, t.queue, t.pool, img, 0)
	if err != nil {
		return err
	}
	want := pixels
	if opts.Orientation == vkquad.FlipVertical {
		want = flipRows(pixels, w*vkquad.BytesPerPixel)
	}
	if !bytes.Equal(back, want) {
		return errors.New("read back texture differs from the uploaded one")
	}
	slog.Info("read back texture matches")

	if t.soft != nil {
		for _, uv := range [][2]float32{{0, 0}, {0.5, 0.5}, {0.99, 0.99}} {
			col, err := t.soft.Sample(binder.Set, uv[0], uv[1])
			if err != nil {
				return err
			}
			slog.Debug("sampled texture", "u", uv[0], "v", uv[1], "color", fmt.Sprintf("#%02x%02x%02x%02x", col.R, col.G, col.B, col.A))
		}
	}

	if c.Out != "" {
		f, err := os.Create(c.Out)
		if err != nil {
			return err
		}
		if err := png.Encode(f, vkquad.FromPixels(back, w, h)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		slog.Info("wrote read back texture", "file", c.Out)
	}
	return nil
}

func flipRows(pix []byte, rowSize int) []byte {
	out := make([]byte, len(pix))
	rows := len(pix) / rowSize
	for y := 0; y < rows; y++ {
		copy(out[y*rowSize:(y+1)*rowSize], pix[(rows-1-y)*rowSize:(rows-y)*rowSize])
	}
	return out
}

// drawFrames moves the quad around a circle, one position per frame. On the
// software backend every frame is also recorded and submitted; the vertex
// buffer is rewritten only after the previous frame's fence has signaled.
func drawFrames(t *target, c config.Config, r *vkquad.QuadRenderer, binder *vkquad.DescriptorBinder, layout vkquad.PipelineLayoutHandle) error {
	base := c.Rect()
	cx, cy := base.X+base.W/2, base.Y+base.H/2

	var (
		cb    vkquad.CommandBufferHandle
		fence vkquad.FenceHandle
	)
	retire := func() error {
		if fence == 0 {
			return nil
		}
		err := t.dev.WaitForFence(fence, vkquad.DefaultFenceTimeout)
		t.dev.DestroyFence(fence)
		t.dev.FreeCommandBuffer(t.pool, cb)
		fence, cb = 0, 0
		return err
	}
	defer retire()

	for i := 0; i < c.Frames; i++ {
		if err := retire(); err != nil {
			return err
		}
		q := base.Orbit(cx, cy, 0.25, float32(i)*0.5)
		if err := r.Update(t.dev, q); err != nil {
			return err
		}
		slog.Debug("frame", "index", i, "x", q.X, "y", q.Y)

		if t.soft == nil {
			continue
		}

		var err error
		if cb, err = t.dev.AllocateCommandBuffer(t.pool); err != nil {
			return err
		}
		if err := t.dev.BeginCommandBuffer(cb, true); err != nil {
			t.dev.FreeCommandBuffer(t.pool, cb)
			return err
		}
		if err := r.Draw(t.dev, cb, binder, layout); err != nil {
			t.dev.FreeCommandBuffer(t.pool, cb)
			return err
		}
		if err := t.dev.EndCommandBuffer(cb); err != nil {
			t.dev.FreeCommandBuffer(t.pool, cb)
			return err
		}
		if fence, err = t.dev.CreateFence(); err != nil {
			t.dev.FreeCommandBuffer(t.pool, cb)
			return err
		}
		if err := t.queue.SubmitWithFence(fence, cb); err != nil {
			t.dev.DestroyFence(fence)
			t.dev.FreeCommandBuffer(t.pool, cb)
			fence, cb = 0, 0
			return err
		}
	}
	if err := retire(); err != nil {
		return err
	}

	if t.soft != nil {
		draws := t.soft.Draws()
		slog.Info("drew quad", "frames", len(draws))
		if v := t.soft.Violations(); len(v) > 0 {
			return fmt.Errorf("device reported misuse: %w", errors.Join(v...))
		}
	}
	return nil
}
