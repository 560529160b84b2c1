package vulkan

import (
	"fmt"

	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) CreateBuffer(size uint64, usage vkquad.BufferUsage) (vkquad.BufferHandle, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       bufferUsage(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	err := vk.Error(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer))
	if err != nil {
		return 0, err
	}
	return vkquad.BufferHandle(d.buffers.add(buffer)), nil
}

func (d *Device) DestroyBuffer(b vkquad.BufferHandle) {
	if buffer, ok := d.buffers.take(uint64(b)); ok {
		vk.DestroyBuffer(d.VKDevice, buffer, nil)
	}
}

func (d *Device) BufferMemoryRequirements(b vkquad.BufferHandle) vkquad.MemoryRequirements {
	buffer, ok := d.buffers.get(uint64(b))
	if !ok {
		return vkquad.MemoryRequirements{}
	}
	var mr vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.VKDevice, buffer, &mr)
	mr.Deref()
	return vkquad.MemoryRequirements{
		Size:           uint64(mr.Size),
		Alignment:      uint64(mr.Alignment),
		MemoryTypeBits: mr.MemoryTypeBits,
	}
}

func (d *Device) BindBufferMemory(b vkquad.BufferHandle, m vkquad.MemoryHandle, offset uint64) error {
	buffer, ok := d.buffers.get(uint64(b))
	if !ok {
		return fmt.Errorf("unknown buffer %d", b)
	}
	memory, ok := d.memories.get(uint64(m))
	if !ok {
		return fmt.Errorf("unknown memory %d", m)
	}
	return vk.Error(vk.BindBufferMemory(d.VKDevice, buffer, memory.VKDeviceMemory, vk.DeviceSize(offset)))
}
