package vulkan

import (
	"fmt"

	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) CreateImage(info vkquad.ImageInfo) (vkquad.ImageHandle, error) {
	depth, mips := info.Depth, info.MipLevels
	if depth == 0 {
		depth = 1
	}
	if mips == 0 {
		mips = 1
	}

	var imageInfo = vk.ImageCreateInfo{}
	imageInfo.SType = vk.StructureTypeImageCreateInfo
	imageInfo.ImageType = vk.ImageType2d
	imageInfo.Extent.Width = info.Width
	imageInfo.Extent.Height = info.Height
	imageInfo.Extent.Depth = depth
	imageInfo.MipLevels = mips
	imageInfo.ArrayLayers = 1
	imageInfo.Format = format(info.Format)
	imageInfo.Tiling = imageTiling(info.Tiling)
	imageInfo.InitialLayout = vk.ImageLayoutUndefined
	imageInfo.Usage = imageUsage(info.Usage)
	imageInfo.Samples = vk.SampleCount1Bit
	imageInfo.SharingMode = vk.SharingModeExclusive

	var image vk.Image
	err := vk.Error(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image))
	if err != nil {
		return 0, err
	}
	return vkquad.ImageHandle(d.images.add(image)), nil
}

func (d *Device) DestroyImage(i vkquad.ImageHandle) {
	if image, ok := d.images.take(uint64(i)); ok {
		vk.DestroyImage(d.VKDevice, image, nil)
	}
}

func (d *Device) ImageMemoryRequirements(i vkquad.ImageHandle) vkquad.MemoryRequirements {
	image, ok := d.images.get(uint64(i))
	if !ok {
		return vkquad.MemoryRequirements{}
	}
	var mr vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.VKDevice, image, &mr)
	mr.Deref()
	return vkquad.MemoryRequirements{
		Size:           uint64(mr.Size),
		Alignment:      uint64(mr.Alignment),
		MemoryTypeBits: mr.MemoryTypeBits,
	}
}

func (d *Device) BindImageMemory(i vkquad.ImageHandle, m vkquad.MemoryHandle, offset uint64) error {
	image, ok := d.images.get(uint64(i))
	if !ok {
		return fmt.Errorf("unknown image %d", i)
	}
	memory, ok := d.memories.get(uint64(m))
	if !ok {
		return fmt.Errorf("unknown memory %d", m)
	}
	return vk.Error(vk.BindImageMemory(d.VKDevice, image, memory.VKDeviceMemory, vk.DeviceSize(offset)))
}

// CreateImageView creates a 2D color view of mip 0, layer 0 with identity
// swizzle.
func (d *Device) CreateImageView(i vkquad.ImageHandle, f vkquad.Format) (vkquad.ImageViewHandle, error) {
	image, ok := d.images.get(uint64(i))
	if !ok {
		return 0, fmt.Errorf("unknown image %d", i)
	}

	createInfo := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format(f),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	err := vk.Error(vk.CreateImageView(d.VKDevice, createInfo, nil, &view))
	if err != nil {
		return 0, err
	}
	return vkquad.ImageViewHandle(d.views.add(view)), nil
}

func (d *Device) DestroyImageView(v vkquad.ImageViewHandle) {
	if view, ok := d.views.take(uint64(v)); ok {
		vk.DestroyImageView(d.VKDevice, view, nil)
	}
}

// CreateSampler creates a sampler using info's filter for magnification and
// minification and its address mode on all three axes. Clamped lookups
// outside the image return transparent black.
func (d *Device) CreateSampler(info vkquad.SamplerInfo) (vkquad.SamplerHandle, error) {
	mode := addressMode(info.AddressMode)

	var sampler vk.Sampler
	err := vk.Error(vk.CreateSampler(d.VKDevice, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filter(info.Filter),
		MinFilter:               filter(info.Filter),
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            mode,
		AddressModeV:            mode,
		AddressModeW:            mode,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorFloatTransparentBlack,
		UnnormalizedCoordinates: vk.False,
	}, nil, &sampler))
	if err != nil {
		return 0, err
	}
	return vkquad.SamplerHandle(d.samplers.add(sampler)), nil
}

func (d *Device) DestroySampler(s vkquad.SamplerHandle) {
	if sampler, ok := d.samplers.take(uint64(s)); ok {
		vk.DestroySampler(d.VKDevice, sampler, nil)
	}
}
