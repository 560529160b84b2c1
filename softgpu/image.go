package softgpu

import (
	"fmt"
	"image/color"

	"github.com/celer/vkquad"
	"github.com/chewxy/math32"
)

type image struct {
	info   vkquad.ImageInfo
	mem    vkquad.MemoryHandle
	offset uint64
	layout vkquad.ImageLayout
	// views counts the live views of this image
	views int
}

func (i *image) size() uint64 {
	return uint64(i.info.Width) * uint64(i.info.Height) * vkquad.BytesPerPixel
}

type view struct {
	image  vkquad.ImageHandle
	format vkquad.Format
}

func (d *Device) CreateImage(info vkquad.ImageInfo) (vkquad.ImageHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpCreateImage); err != nil {
		return 0, err
	}
	if info.Width == 0 || info.Height == 0 {
		return 0, fmt.Errorf("create image: extent %dx%d", info.Width, info.Height)
	}
	if info.Depth > 1 || info.MipLevels > 1 {
		return 0, fmt.Errorf("create image: only 2D images with one mip level are supported")
	}
	if info.Format != vkquad.FormatR8G8B8A8Unorm {
		return 0, fmt.Errorf("create image: unsupported format %d", info.Format)
	}
	h := vkquad.ImageHandle(d.handle())
	d.images[h] = &image{info: info, layout: vkquad.ImageLayoutUndefined}
	return h, nil
}

func (d *Device) DestroyImage(i vkquad.ImageHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, ok := d.images[i]
	if !ok {
		d.violate("destroy image %d: unknown handle", i)
		return
	}
	if img.views > 0 {
		d.violate("destroy image %d: %d views still alive", i, img.views)
	}
	if m, ok := d.memories[img.mem]; ok {
		m.bound--
	}
	delete(d.images, i)
}

func (d *Device) ImageMemoryRequirements(i vkquad.ImageHandle) vkquad.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, ok := d.images[i]
	if !ok {
		d.violate("image memory requirements %d: unknown handle", i)
		return vkquad.MemoryRequirements{}
	}
	return vkquad.MemoryRequirements{
		Size:           alignUp(img.size(), d.cfg.ImageAlignment),
		Alignment:      d.cfg.ImageAlignment,
		MemoryTypeBits: d.cfg.ImageTypeBits,
	}
}

func (d *Device) BindImageMemory(i vkquad.ImageHandle, m vkquad.MemoryHandle, offset uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpBindImageMemory); err != nil {
		return err
	}
	img, ok := d.images[i]
	if !ok {
		return fmt.Errorf("bind image memory: unknown image %d", i)
	}
	mem, ok := d.memories[m]
	if !ok {
		return fmt.Errorf("bind image memory: unknown memory %d", m)
	}
	if img.mem != 0 {
		return fmt.Errorf("bind image memory: image %d already bound", i)
	}
	if d.cfg.ImageTypeBits&(1<<mem.typeIndex) == 0 {
		return fmt.Errorf("bind image memory: memory type %d not allowed for images", mem.typeIndex)
	}
	if offset%d.cfg.ImageAlignment != 0 || offset+img.size() > uint64(len(mem.data)) {
		return fmt.Errorf("bind image memory: offset %d for %d bytes in %d byte allocation", offset, img.size(), len(mem.data))
	}
	img.mem = m
	img.offset = offset
	mem.bound++
	return nil
}

func (d *Device) CreateImageView(i vkquad.ImageHandle, format vkquad.Format) (vkquad.ImageViewHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpCreateImageView); err != nil {
		return 0, err
	}
	img, ok := d.images[i]
	if !ok {
		return 0, fmt.Errorf("create image view: unknown image %d", i)
	}
	if img.mem == 0 {
		return 0, fmt.Errorf("create image view: image %d has no memory bound", i)
	}
	if format != img.info.Format {
		return 0, fmt.Errorf("create image view: format %d does not match image format %d", format, img.info.Format)
	}
	img.views++
	h := vkquad.ImageViewHandle(d.handle())
	d.views[h] = &view{image: i, format: format}
	return h, nil
}

func (d *Device) DestroyImageView(v vkquad.ImageViewHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	vw, ok := d.views[v]
	if !ok {
		d.violate("destroy image view %d: unknown handle", v)
		return
	}
	if img, ok := d.images[vw.image]; ok {
		img.views--
	} else {
		d.violate("destroy image view %d: image %d destroyed first", v, vw.image)
	}
	delete(d.views, v)
}

func (d *Device) CreateSampler(info vkquad.SamplerInfo) (vkquad.SamplerHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpCreateSampler); err != nil {
		return 0, err
	}
	h := vkquad.SamplerHandle(d.handle())
	d.samplers[h] = info
	return h, nil
}

func (d *Device) DestroySampler(s vkquad.SamplerHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.samplers[s]; !ok {
		d.violate("destroy sampler %d: unknown handle", s)
		return
	}
	delete(d.samplers, s)
}

// imageBytes returns the texels of an image, tightly packed. Callers hold
// d.mu.
func (d *Device) imageBytes(i vkquad.ImageHandle) (*image, []byte, error) {
	img, ok := d.images[i]
	if !ok {
		return nil, nil, fmt.Errorf("image %d does not exist", i)
	}
	mem, ok := d.memories[img.mem]
	if !ok {
		return nil, nil, fmt.Errorf("image %d has no memory bound", i)
	}
	return img, mem.data[img.offset : img.offset+img.size()], nil
}

// ImageLayout reports the layout an image is in after all executed work
func (d *Device) ImageLayout(i vkquad.ImageHandle) (vkquad.ImageLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, ok := d.images[i]
	if !ok {
		return 0, fmt.Errorf("image %d does not exist", i)
	}
	return img.layout, nil
}

// ImagePixels copies the texels of an image straight out of its memory,
// bypassing the transfer path.
func (d *Device) ImagePixels(i vkquad.ImageHandle) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, pix, err := d.imageBytes(i)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), pix...), nil
}

// Sample reads the texture bound to a descriptor set at normalized
// coordinates (u, v) the way a fragment shader would, through the image view
// at binding 0 and the sampler at binding 1.
func (d *Device) Sample(set vkquad.DescriptorSetHandle, u, v float32) (color.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, pix, si, err := d.texture(set)
	if err != nil {
		return color.RGBA{}, err
	}
	return sample(pix, int(img.info.Width), int(img.info.Height), si, u, v), nil
}

// texture resolves the bindings of the texture set. Callers hold d.mu.
func (d *Device) texture(set vkquad.DescriptorSetHandle) (*image, []byte, vkquad.SamplerInfo, error) {
	ds, ok := d.sets[set]
	if !ok {
		return nil, nil, vkquad.SamplerInfo{}, fmt.Errorf("descriptor set %d does not exist", set)
	}
	iw, ok := ds.writes[vkquad.TextureImageBinding]
	if !ok || iw.Type != vkquad.DescriptorTypeSampledImage {
		return nil, nil, vkquad.SamplerInfo{}, fmt.Errorf("descriptor set %d: no sampled image at binding %d", set, vkquad.TextureImageBinding)
	}
	sw, ok := ds.writes[vkquad.TextureSampler]
	if !ok || sw.Type != vkquad.DescriptorTypeSampler {
		return nil, nil, vkquad.SamplerInfo{}, fmt.Errorf("descriptor set %d: no sampler at binding %d", set, vkquad.TextureSampler)
	}
	vw, ok := d.views[iw.ImageView]
	if !ok {
		return nil, nil, vkquad.SamplerInfo{}, fmt.Errorf("descriptor set %d: image view %d does not exist", set, iw.ImageView)
	}
	si, ok := d.samplers[sw.Sampler]
	if !ok {
		return nil, nil, vkquad.SamplerInfo{}, fmt.Errorf("descriptor set %d: sampler %d does not exist", set, sw.Sampler)
	}
	img, pix, err := d.imageBytes(vw.image)
	if err != nil {
		return nil, nil, vkquad.SamplerInfo{}, err
	}
	if img.layout != iw.Layout {
		return nil, nil, vkquad.SamplerInfo{}, fmt.Errorf("descriptor set %d: image is %s, descriptor expects %s", set, img.layout, iw.Layout)
	}
	if img.info.Usage&vkquad.ImageUsageSampled == 0 {
		return nil, nil, vkquad.SamplerInfo{}, fmt.Errorf("descriptor set %d: image lacks sampled usage", set)
	}
	return img, pix, si, nil
}

func sample(pix []byte, w, h int, si vkquad.SamplerInfo, u, v float32) color.RGBA {
	x := u * float32(w)
	y := v * float32(h)

	if si.Filter == vkquad.FilterNearest {
		return texel(pix, w, h, si.AddressMode, int(math32.Floor(x)), int(math32.Floor(y)))
	}

	x -= 0.5
	y -= 0.5
	x0 := math32.Floor(x)
	y0 := math32.Floor(y)
	ax := x - x0
	ay := y - y0
	i, j := int(x0), int(y0)

	c00 := texel(pix, w, h, si.AddressMode, i, j)
	c10 := texel(pix, w, h, si.AddressMode, i+1, j)
	c01 := texel(pix, w, h, si.AddressMode, i, j+1)
	c11 := texel(pix, w, h, si.AddressMode, i+1, j+1)

	lerp := func(a, b, c, d uint8) uint8 {
		top := float32(a)*(1-ax) + float32(b)*ax
		bottom := float32(c)*(1-ax) + float32(d)*ax
		return uint8(math32.Round(top*(1-ay) + bottom*ay))
	}
	return color.RGBA{
		R: lerp(c00.R, c10.R, c01.R, c11.R),
		G: lerp(c00.G, c10.G, c01.G, c11.G),
		B: lerp(c00.B, c10.B, c01.B, c11.B),
		A: lerp(c00.A, c10.A, c01.A, c11.A),
	}
}

func texel(pix []byte, w, h int, mode vkquad.AddressMode, x, y int) color.RGBA {
	x, okx := wrap(x, w, mode)
	y, oky := wrap(y, h, mode)
	if !okx || !oky {
		// transparent black border
		return color.RGBA{}
	}
	o := (y*w + x) * vkquad.BytesPerPixel
	return color.RGBA{R: pix[o], G: pix[o+1], B: pix[o+2], A: pix[o+3]}
}

// wrap maps texel coordinate i into [0,n). It reports false when i falls on
// the border.
func wrap(i, n int, mode vkquad.AddressMode) (int, bool) {
	switch mode {
	case vkquad.AddressModeRepeat:
		return ((i % n) + n) % n, true
	case vkquad.AddressModeMirroredRepeat:
		m := ((i % (2 * n)) + 2*n) % (2 * n)
		if m >= n {
			m = 2*n - 1 - m
		}
		return m, true
	case vkquad.AddressModeClampToBorder:
		return i, i >= 0 && i < n
	default:
		return min(max(i, 0), n-1), true
	}
}
