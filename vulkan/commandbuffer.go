package vulkan

import (
	"fmt"
	"log"

	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) commandBuffer(cb vkquad.CommandBufferHandle) (vk.CommandBuffer, bool) {
	b, ok := d.commandBuffers.get(uint64(cb))
	if !ok {
		log.Printf("command buffer %d does not exist, command dropped", cb)
	}
	return b, ok
}

// BeginCommandBuffer starts recording. A one time buffer is submitted once
// and then reset or freed.
func (d *Device) BeginCommandBuffer(cb vkquad.CommandBufferHandle, oneTime bool) error {
	b, ok := d.commandBuffers.get(uint64(cb))
	if !ok {
		return fmt.Errorf("unknown command buffer %d", cb)
	}
	var beginInfo = vk.CommandBufferBeginInfo{}
	beginInfo.SType = vk.StructureTypeCommandBufferBeginInfo
	if oneTime {
		beginInfo.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return vk.Error(vk.BeginCommandBuffer(b, &beginInfo))
}

func (d *Device) EndCommandBuffer(cb vkquad.CommandBufferHandle) error {
	b, ok := d.commandBuffers.get(uint64(cb))
	if !ok {
		return fmt.Errorf("unknown command buffer %d", cb)
	}
	return vk.Error(vk.EndCommandBuffer(b))
}

func (d *Device) CmdPipelineBarrier(cb vkquad.CommandBufferHandle, b vkquad.ImageBarrier) {
	cmd, ok := d.commandBuffer(cb)
	if !ok {
		return
	}
	image, ok := d.images.get(uint64(b.Image))
	if !ok {
		log.Printf("barrier on unknown image %d dropped", b.Image)
		return
	}

	var barrier = vk.ImageMemoryBarrier{}
	barrier.SType = vk.StructureTypeImageMemoryBarrier
	barrier.OldLayout = imageLayout(b.OldLayout)
	barrier.NewLayout = imageLayout(b.NewLayout)
	barrier.SrcQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.DstQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.Image = image
	barrier.SubresourceRange.AspectMask = vk.ImageAspectFlags(vk.ImageAspectColorBit)
	barrier.SubresourceRange.BaseMipLevel = 0
	barrier.SubresourceRange.LevelCount = 1
	barrier.SubresourceRange.BaseArrayLayer = 0
	barrier.SubresourceRange.LayerCount = 1
	barrier.SrcAccessMask = accessFlags(b.SrcAccess)
	barrier.DstAccessMask = accessFlags(b.DstAccess)

	vk.CmdPipelineBarrier(cmd, pipelineStages(b.SrcStage), pipelineStages(b.DstStage), 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func bufferImageCopy(region vkquad.BufferImageCopy) vk.BufferImageCopy {
	return vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(region.BufferOffset),
		BufferRowLength:   region.BufferRowLength,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{},
		ImageExtent: vk.Extent3D{
			Width: region.Width, Height: region.Height, Depth: 1,
		},
	}
}

func (d *Device) CmdCopyBufferToImage(cb vkquad.CommandBufferHandle, src vkquad.BufferHandle, dst vkquad.ImageHandle, layout vkquad.ImageLayout, region vkquad.BufferImageCopy) {
	cmd, ok := d.commandBuffer(cb)
	if !ok {
		return
	}
	buffer, bok := d.buffers.get(uint64(src))
	image, iok := d.images.get(uint64(dst))
	if !bok || !iok {
		log.Printf("copy from buffer %d to image %d dropped, unknown handle", src, dst)
		return
	}
	vk.CmdCopyBufferToImage(cmd, buffer, image, imageLayout(layout), 1, []vk.BufferImageCopy{bufferImageCopy(region)})
}

func (d *Device) CmdCopyImageToBuffer(cb vkquad.CommandBufferHandle, src vkquad.ImageHandle, layout vkquad.ImageLayout, dst vkquad.BufferHandle, region vkquad.BufferImageCopy) {
	cmd, ok := d.commandBuffer(cb)
	if !ok {
		return
	}
	image, iok := d.images.get(uint64(src))
	buffer, bok := d.buffers.get(uint64(dst))
	if !bok || !iok {
		log.Printf("copy from image %d to buffer %d dropped, unknown handle", src, dst)
		return
	}
	vk.CmdCopyImageToBuffer(cmd, image, imageLayout(layout), buffer, 1, []vk.BufferImageCopy{bufferImageCopy(region)})
}

func (d *Device) CmdBindIndexBuffer(cb vkquad.CommandBufferHandle, b vkquad.BufferHandle, offset uint64, t vkquad.IndexType) {
	cmd, ok := d.commandBuffer(cb)
	if !ok {
		return
	}
	buffer, ok := d.buffers.get(uint64(b))
	if !ok {
		log.Printf("bind of unknown index buffer %d dropped", b)
		return
	}
	vk.CmdBindIndexBuffer(cmd, buffer, vk.DeviceSize(offset), indexType(t))
}

func (d *Device) CmdBindVertexBuffer(cb vkquad.CommandBufferHandle, binding uint32, b vkquad.BufferHandle, offset uint64) {
	cmd, ok := d.commandBuffer(cb)
	if !ok {
		return
	}
	buffer, ok := d.buffers.get(uint64(b))
	if !ok {
		log.Printf("bind of unknown vertex buffer %d dropped", b)
		return
	}
	vk.CmdBindVertexBuffers(cmd, binding, 1, []vk.Buffer{buffer}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (d *Device) CmdBindDescriptorSets(cb vkquad.CommandBufferHandle, layout vkquad.PipelineLayoutHandle, firstSet uint32, descriptorSets ...vkquad.DescriptorSetHandle) {
	cmd, ok := d.commandBuffer(cb)
	if !ok {
		return
	}
	pl, ok := d.pipelineLayouts.get(uint64(layout))
	if !ok {
		log.Printf("bind with unknown pipeline layout %d dropped", layout)
		return
	}

	sets := make([]vk.DescriptorSet, len(descriptorSets))
	for i, h := range descriptorSets {
		s, ok := d.sets.get(uint64(h))
		if !ok {
			log.Printf("bind of unknown descriptor set %d dropped", h)
			return
		}
		sets[i] = s
	}

	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, pl, firstSet, uint32(len(sets)), sets, 0, nil)
}

func (d *Device) CmdDrawIndexed(cb vkquad.CommandBufferHandle, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	cmd, ok := d.commandBuffer(cb)
	if !ok {
		return
	}
	vk.CmdDrawIndexed(cmd, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}
