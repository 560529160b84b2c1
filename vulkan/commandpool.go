package vulkan

import (
	"fmt"

	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

// CreateCommandPool creates a pool for queue family q whose buffers can be
// reset individually.
func (d *Device) CreateCommandPool(q *QueueFamily) (vkquad.CommandPoolHandle, error) {
	var commandPoolCreateInfo = vk.CommandPoolCreateInfo{}
	commandPoolCreateInfo.SType = vk.StructureTypeCommandPoolCreateInfo
	commandPoolCreateInfo.Flags = vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit | vk.CommandPoolCreateTransientBit)
	commandPoolCreateInfo.QueueFamilyIndex = uint32(q.Index)

	var commandPool vk.CommandPool
	err := vk.Error(vk.CreateCommandPool(d.VKDevice, &commandPoolCreateInfo, nil, &commandPool))
	if err != nil {
		return 0, err
	}
	return vkquad.CommandPoolHandle(d.commandPools.add(commandPool)), nil
}

// DestroyCommandPool destroys the pool. Command buffers still allocated from
// it become invalid, and must not be freed afterwards.
func (d *Device) DestroyCommandPool(p vkquad.CommandPoolHandle) {
	if pool, ok := d.commandPools.take(uint64(p)); ok {
		vk.DestroyCommandPool(d.VKDevice, pool, nil)
	}
}

func (d *Device) AllocateCommandBuffer(p vkquad.CommandPoolHandle) (vkquad.CommandBufferHandle, error) {
	pool, ok := d.commandPools.get(uint64(p))
	if !ok {
		return 0, fmt.Errorf("unknown command pool %d", p)
	}

	var commandBufferAllocateInfo = vk.CommandBufferAllocateInfo{}
	commandBufferAllocateInfo.SType = vk.StructureTypeCommandBufferAllocateInfo
	commandBufferAllocateInfo.CommandPool = pool
	commandBufferAllocateInfo.Level = vk.CommandBufferLevelPrimary
	commandBufferAllocateInfo.CommandBufferCount = 1

	cmdBuffers := make([]vk.CommandBuffer, 1)
	err := vk.Error(vk.AllocateCommandBuffers(d.VKDevice, &commandBufferAllocateInfo, cmdBuffers))
	if err != nil {
		return 0, err
	}
	return vkquad.CommandBufferHandle(d.commandBuffers.add(cmdBuffers[0])), nil
}

func (d *Device) FreeCommandBuffer(p vkquad.CommandPoolHandle, cb vkquad.CommandBufferHandle) {
	pool, ok := d.commandPools.get(uint64(p))
	if !ok {
		return
	}
	if b, ok := d.commandBuffers.take(uint64(cb)); ok {
		vk.FreeCommandBuffers(d.VKDevice, pool, 1, []vk.CommandBuffer{b})
	}
}
