package vulkan

import (
	"fmt"
	"log"
	"sync/atomic"
	"unsafe"

	"github.com/celer/vkquad"
	units "github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory maps to Vulkan DeviceMemory and can either be memory on the host or on the device
type DeviceMemory struct {
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	TypeIndex      uint32
	MapCount       int32
}

// IsMapped returns true if the device memory is currently mapped
func (m *DeviceMemory) IsMapped() bool {
	return atomic.LoadInt32(&m.MapCount) > 0
}

func (d *Device) AllocateMemory(size uint64, memoryTypeIndex uint32) (vkquad.MemoryHandle, error) {
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memoryTypeIndex,
	}

	var deviceMemory vk.DeviceMemory
	err := vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory))
	if err != nil {
		return 0, err
	}
	if d.Verbose {
		log.Printf("allocated %s of memory type %d", units.BytesSize(float64(size)), memoryTypeIndex)
	}

	h := d.memories.add(&DeviceMemory{
		VKDeviceMemory: deviceMemory,
		Size:           size,
		TypeIndex:      memoryTypeIndex,
	})
	return vkquad.MemoryHandle(h), nil
}

func (d *Device) FreeMemory(m vkquad.MemoryHandle) {
	memory, ok := d.memories.take(uint64(m))
	if !ok {
		return
	}
	if d.Verbose {
		log.Printf("freed %s of memory type %d", units.BytesSize(float64(memory.Size)), memory.TypeIndex)
	}
	vk.FreeMemory(d.VKDevice, memory.VKDeviceMemory, nil)
}

// MapMemory maps size bytes at offset. The slice aliases driver memory and is
// only valid until UnmapMemory.
func (d *Device) MapMemory(m vkquad.MemoryHandle, offset, size uint64) ([]byte, error) {
	memory, ok := d.memories.get(uint64(m))
	if !ok {
		return nil, fmt.Errorf("unknown memory %d", m)
	}
	if offset+size > memory.Size {
		return nil, fmt.Errorf("mapping %d bytes at %d of %d", size, offset, memory.Size)
	}

	var ptr unsafe.Pointer
	err := vk.Error(vk.MapMemory(d.VKDevice, memory.VKDeviceMemory, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &ptr))
	if err != nil {
		return nil, err
	}
	atomic.AddInt32(&memory.MapCount, 1)
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (d *Device) UnmapMemory(m vkquad.MemoryHandle) {
	memory, ok := d.memories.get(uint64(m))
	if !ok || !memory.IsMapped() {
		return
	}
	vk.UnmapMemory(d.VKDevice, memory.VKDeviceMemory)
	atomic.AddInt32(&memory.MapCount, -1)
}
