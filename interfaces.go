package vkquad

import (
	"time"
)

// MemoryDevice creates buffers and the memory backing them
type MemoryDevice interface {
	MemoryProperties() MemoryProperties

	CreateBuffer(size uint64, usage BufferUsage) (BufferHandle, error)
	DestroyBuffer(b BufferHandle)
	BufferMemoryRequirements(b BufferHandle) MemoryRequirements
	BindBufferMemory(b BufferHandle, m MemoryHandle, offset uint64) error

	AllocateMemory(size uint64, memoryTypeIndex uint32) (MemoryHandle, error)
	FreeMemory(m MemoryHandle)

	// MapMemory maps size bytes of host visible memory starting at offset.
	// The returned slice is only valid until UnmapMemory is called.
	MapMemory(m MemoryHandle, offset, size uint64) ([]byte, error)
	UnmapMemory(m MemoryHandle)
}

// ImageDevice creates images, their views and samplers
type ImageDevice interface {
	MemoryDevice

	Limits() Limits

	CreateImage(info ImageInfo) (ImageHandle, error)
	DestroyImage(i ImageHandle)
	ImageMemoryRequirements(i ImageHandle) MemoryRequirements
	BindImageMemory(i ImageHandle, m MemoryHandle, offset uint64) error

	CreateImageView(i ImageHandle, format Format) (ImageViewHandle, error)
	DestroyImageView(v ImageViewHandle)

	CreateSampler(info SamplerInfo) (SamplerHandle, error)
	DestroySampler(s SamplerHandle)
}

// SyncDevice manages fences and the lifetime of command buffers
type SyncDevice interface {
	CreateFence() (FenceHandle, error)
	WaitForFence(f FenceHandle, timeout time.Duration) error
	DestroyFence(f FenceHandle)

	AllocateCommandBuffer(pool CommandPoolHandle) (CommandBufferHandle, error)
	FreeCommandBuffer(pool CommandPoolHandle, cb CommandBufferHandle)
}

// CommandRecorder records work into a command buffer. Commands execute in
// recording order once the buffer is submitted.
type CommandRecorder interface {
	BeginCommandBuffer(cb CommandBufferHandle, oneTime bool) error
	EndCommandBuffer(cb CommandBufferHandle) error

	CmdPipelineBarrier(cb CommandBufferHandle, barrier ImageBarrier)
	CmdCopyBufferToImage(cb CommandBufferHandle, src BufferHandle, dst ImageHandle, layout ImageLayout, region BufferImageCopy)
	CmdCopyImageToBuffer(cb CommandBufferHandle, src ImageHandle, layout ImageLayout, dst BufferHandle, region BufferImageCopy)

	CmdBindIndexBuffer(cb CommandBufferHandle, b BufferHandle, offset uint64, t IndexType)
	CmdBindVertexBuffer(cb CommandBufferHandle, binding uint32, b BufferHandle, offset uint64)
	CmdBindDescriptorSets(cb CommandBufferHandle, layout PipelineLayoutHandle, firstSet uint32, sets ...DescriptorSetHandle)
	CmdDrawIndexed(cb CommandBufferHandle, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
}

// DescriptorDevice creates descriptor layouts, pools and sets
type DescriptorDevice interface {
	CreateDescriptorSetLayout(bindings []LayoutBinding) (DescriptorSetLayoutHandle, error)
	DestroyDescriptorSetLayout(l DescriptorSetLayoutHandle)

	CreateDescriptorPool(maxSets uint32, sizes []PoolSize) (DescriptorPoolHandle, error)
	DestroyDescriptorPool(p DescriptorPoolHandle)

	AllocateDescriptorSet(pool DescriptorPoolHandle, layout DescriptorSetLayoutHandle) (DescriptorSetHandle, error)
	UpdateDescriptorSet(set DescriptorSetHandle, writes []DescriptorWrite)

	CreatePipelineLayout(layouts ...DescriptorSetLayoutHandle) (PipelineLayoutHandle, error)
	DestroyPipelineLayout(l PipelineLayoutHandle)
}

// Device is every capability the resources in this package are built from.
// Both the vulkan and softgpu packages implement it.
type Device interface {
	ImageDevice
	SyncDevice
	CommandRecorder
	DescriptorDevice
}

// Queue accepts finished command buffers for execution
type Queue interface {
	SubmitWithFence(fence FenceHandle, buffers ...CommandBufferHandle) error
}

// BufferObject is anything which can provide bytes for a buffer
type BufferObject interface {
	Bytes() []byte
}

// IndexSource is a BufferObject holding index data
type IndexSource interface {
	BufferObject
	IndexType() IndexType
}
