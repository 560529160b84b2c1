package vkquad

import (
	"fmt"
	"time"
)

// Opaque device object handles. The zero value of every handle is the null
// handle; backends map handles to their native objects.
type (
	BufferHandle              uint64
	MemoryHandle              uint64
	ImageHandle               uint64
	ImageViewHandle           uint64
	SamplerHandle             uint64
	FenceHandle               uint64
	CommandPoolHandle         uint64
	CommandBufferHandle       uint64
	DescriptorSetLayoutHandle uint64
	DescriptorPoolHandle      uint64
	DescriptorSetHandle       uint64
	PipelineLayoutHandle      uint64
)

// MemoryPropertyFlags describe what a memory type offers
type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal MemoryPropertyFlags = 1 << iota
	MemoryPropertyHostVisible
	MemoryPropertyHostCoherent
	MemoryPropertyHostCached
)

// HostVisibleCoherent is the property set required for mapped writes
const HostVisibleCoherent = MemoryPropertyHostVisible | MemoryPropertyHostCoherent

func (f MemoryPropertyFlags) String() string {
	s := ""
	add := func(bit MemoryPropertyFlags, name string) {
		if f&bit != 0 {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	add(MemoryPropertyDeviceLocal, "DeviceLocal")
	add(MemoryPropertyHostVisible, "HostVisible")
	add(MemoryPropertyHostCoherent, "HostCoherent")
	add(MemoryPropertyHostCached, "HostCached")
	if s == "" {
		return "None"
	}
	return s
}

// MemoryType is one entry of the device's memory type list
type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

// MemoryProperties lists the memory types a device exposes, in index order
type MemoryProperties struct {
	MemoryTypes []MemoryType
}

// MemoryRequirements are reported by the device for a buffer or image
type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

// Limits holds the device limits the upload path depends on
type Limits struct {
	// OptimalBufferCopyRowPitchAlignment is the preferred row alignment, in
	// bytes, for buffer to image copies.
	OptimalBufferCopyRowPitchAlignment uint64
}

type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 1 << iota
	BufferUsageTransferDst
	BufferUsageVertex
	BufferUsageIndex
)

type ImageUsage uint32

const (
	ImageUsageTransferSrc ImageUsage = 1 << iota
	ImageUsageTransferDst
	ImageUsageSampled
)

type Format int

const (
	FormatUndefined Format = iota
	FormatR8G8B8A8Unorm
)

// BytesPerPixel is the texel size of the formats accepted for upload
const BytesPerPixel = 4

type ImageTiling int

const (
	ImageTilingOptimal ImageTiling = iota
	ImageTilingLinear
)

// ImageInfo describes a 2D image to create
type ImageInfo struct {
	Width     uint32
	Height    uint32
	Depth     uint32
	MipLevels uint32
	Format    Format
	Tiling    ImageTiling
	Usage     ImageUsage
}

type ImageLayout int

const (
	ImageLayoutUndefined ImageLayout = iota
	ImageLayoutTransferDstOptimal
	ImageLayoutTransferSrcOptimal
	ImageLayoutShaderReadOnlyOptimal
)

func (l ImageLayout) String() string {
	switch l {
	case ImageLayoutUndefined:
		return "Undefined"
	case ImageLayoutTransferDstOptimal:
		return "TransferDstOptimal"
	case ImageLayoutTransferSrcOptimal:
		return "TransferSrcOptimal"
	case ImageLayoutShaderReadOnlyOptimal:
		return "ShaderReadOnlyOptimal"
	}
	return fmt.Sprintf("ImageLayout(%d)", int(l))
}

type AccessFlags uint32

const (
	AccessTransferRead AccessFlags = 1 << iota
	AccessTransferWrite
	AccessShaderRead
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe PipelineStageFlags = 1 << iota
	PipelineStageTransfer
	PipelineStageFragmentShader
)

// ImageBarrier is a single image memory barrier covering the color aspect of
// mip level 0, array layer 0.
type ImageBarrier struct {
	Image     ImageHandle
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcAccess AccessFlags
	DstAccess AccessFlags
	SrcStage  PipelineStageFlags
	DstStage  PipelineStageFlags
}

// BufferImageCopy describes a copy between a buffer and mip 0, layer 0 of an
// image. BufferRowLength is in texels; zero means tightly packed.
type BufferImageCopy struct {
	BufferOffset    uint64
	BufferRowLength uint32
	Width           uint32
	Height          uint32
}

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

func (f Filter) String() string {
	if f == FilterLinear {
		return "linear"
	}
	return "nearest"
}

type AddressMode int

const (
	AddressModeRepeat AddressMode = iota
	AddressModeMirroredRepeat
	AddressModeClampToEdge
	AddressModeClampToBorder
)

func (m AddressMode) String() string {
	switch m {
	case AddressModeRepeat:
		return "repeat"
	case AddressModeMirroredRepeat:
		return "mirror"
	case AddressModeClampToEdge:
		return "clamp"
	case AddressModeClampToBorder:
		return "border"
	}
	return fmt.Sprintf("AddressMode(%d)", int(m))
}

// SamplerInfo selects the filter and the wrap behavior for texture
// coordinates outside [0,1].
type SamplerInfo struct {
	Filter      Filter
	AddressMode AddressMode
}

type DescriptorType int

const (
	DescriptorTypeSampledImage DescriptorType = iota
	DescriptorTypeSampler
)

type ShaderStageFlags uint32

const (
	ShaderStageVertex ShaderStageFlags = 1 << iota
	ShaderStageFragment
)

// LayoutBinding declares one binding slot of a descriptor set layout
type LayoutBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStageFlags
}

// PoolSize reserves Count descriptors of Type in a descriptor pool
type PoolSize struct {
	Type  DescriptorType
	Count uint32
}

// DescriptorWrite binds a resource to a single descriptor slot. ImageView is
// used for sampled image descriptors, Sampler for sampler descriptors.
type DescriptorWrite struct {
	Binding   uint32
	Type      DescriptorType
	ImageView ImageViewHandle
	Layout    ImageLayout
	Sampler   SamplerHandle
}

type IndexType int

const (
	IndexTypeUint16 IndexType = iota
	IndexTypeUint32
)

// DefaultFenceTimeout bounds the synchronous waits in this package
const DefaultFenceTimeout = 100 * time.Second
