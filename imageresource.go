package vkquad

import (
	"fmt"
)

// ImageResource is a device local image with its memory, a 2D color view and
// a sampler. Like BufferResource it does not hold the device; the owner calls
// Release exactly when no submitted work references it anymore.
type ImageResource struct {
	Image   ImageHandle
	Memory  MemoryHandle
	View    ImageViewHandle
	Sampler SamplerHandle

	Width  uint32
	Height uint32
	Format Format
	Usage  ImageUsage

	SamplerInfo SamplerInfo

	released bool
}

// createImageResource creates the image, binds device local memory to it and
// then creates the view and sampler. Anything acquired before a failing step
// is released before returning.
func createImageResource(dev ImageDevice, op string, info ImageInfo, si SamplerInfo) (*ImageResource, error) {
	image, err := dev.CreateImage(info)
	if err != nil {
		return nil, newError(op, ErrImageCreation, err)
	}

	mr := dev.ImageMemoryRequirements(image)
	memory, err := allocateFor(dev, op, mr, MemoryPropertyDeviceLocal)
	if err != nil {
		dev.DestroyImage(image)
		return nil, err
	}

	if err := dev.BindImageMemory(image, memory, 0); err != nil {
		dev.DestroyImage(image)
		dev.FreeMemory(memory)
		return nil, newError(op, ErrMemoryBind, err)
	}

	view, err := dev.CreateImageView(image, info.Format)
	if err != nil {
		dev.DestroyImage(image)
		dev.FreeMemory(memory)
		return nil, newError(op, ErrViewCreation, err)
	}

	sampler, err := dev.CreateSampler(si)
	if err != nil {
		dev.DestroyImageView(view)
		dev.DestroyImage(image)
		dev.FreeMemory(memory)
		return nil, newError(op, ErrSamplerCreation, err)
	}

	return &ImageResource{
		Image:       image,
		Memory:      memory,
		View:        view,
		Sampler:     sampler,
		Width:       info.Width,
		Height:      info.Height,
		Format:      info.Format,
		Usage:       info.Usage,
		SamplerInfo: si,
	}, nil
}

// Release destroys the sampler, the view, the image and finally frees the
// memory, in that order. Calls after the first do nothing.
func (r *ImageResource) Release(dev ImageDevice) {
	if r == nil || r.released {
		return
	}
	r.released = true
	dev.DestroySampler(r.Sampler)
	dev.DestroyImageView(r.View)
	dev.DestroyImage(r.Image)
	dev.FreeMemory(r.Memory)
}

// Released reports whether Release has been called
func (r *ImageResource) Released() bool {
	return r.released
}

func (r *ImageResource) String() string {
	return fmt.Sprintf("{ Image: %d %dx%d View: %d Sampler: %d (%s, %s) }",
		r.Image, r.Width, r.Height, r.View, r.Sampler, r.SamplerInfo.Filter, r.SamplerInfo.AddressMode)
}
