package vulkan

import (
	"fmt"
	"sync/atomic"

	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

var _ vkquad.Device = (*Device)(nil)

// Device is a logical Vulkan device. It implements the capability interfaces
// of package vkquad, translating their opaque handles to native objects.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device

	// Verbose logs every memory allocation and free
	Verbose bool

	memoryProperties vkquad.MemoryProperties

	handles         atomic.Uint64
	buffers         *registry[vk.Buffer]
	memories        *registry[*DeviceMemory]
	images          *registry[vk.Image]
	views           *registry[vk.ImageView]
	samplers        *registry[vk.Sampler]
	fences          *registry[vk.Fence]
	commandPools    *registry[vk.CommandPool]
	commandBuffers  *registry[vk.CommandBuffer]
	layouts         *registry[vk.DescriptorSetLayout]
	pools           *registry[*descriptorPool]
	sets            *registry[vk.DescriptorSet]
	pipelineLayouts *registry[vk.PipelineLayout]
}

func newDevice(p *PhysicalDevice, ldevice vk.Device) *Device {
	d := &Device{
		PhysicalDevice:   p,
		VKDevice:         ldevice,
		memoryProperties: p.MemoryProperties(),
	}
	d.buffers = newRegistry[vk.Buffer](&d.handles)
	d.memories = newRegistry[*DeviceMemory](&d.handles)
	d.images = newRegistry[vk.Image](&d.handles)
	d.views = newRegistry[vk.ImageView](&d.handles)
	d.samplers = newRegistry[vk.Sampler](&d.handles)
	d.fences = newRegistry[vk.Fence](&d.handles)
	d.commandPools = newRegistry[vk.CommandPool](&d.handles)
	d.commandBuffers = newRegistry[vk.CommandBuffer](&d.handles)
	d.layouts = newRegistry[vk.DescriptorSetLayout](&d.handles)
	d.pools = newRegistry[*descriptorPool](&d.handles)
	d.sets = newRegistry[vk.DescriptorSet](&d.handles)
	d.pipelineLayouts = newRegistry[vk.PipelineLayout](&d.handles)
	return d
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *Device) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(d.VKDevice))
}

// GetQueue returns queue 0 of family qf
func (d *Device) GetQueue(qf *QueueFamily) *Queue {
	var vkq vk.Queue
	vk.GetDeviceQueue(d.VKDevice, uint32(qf.Index), 0, &vkq)
	return &Queue{Device: d, QueueFamily: qf, VKQueue: vkq}
}

func (d *Device) MemoryProperties() vkquad.MemoryProperties {
	return d.memoryProperties
}

func (d *Device) Limits() vkquad.Limits {
	return d.PhysicalDevice.Limits()
}

// Live counts the objects created through the capability interfaces which
// have not been destroyed yet. Descriptor sets are freed with their pool.
func (d *Device) Live() map[string]int {
	live := map[string]int{
		"buffer":                d.buffers.len(),
		"memory":                d.memories.len(),
		"image":                 d.images.len(),
		"view":                  d.views.len(),
		"sampler":               d.samplers.len(),
		"fence":                 d.fences.len(),
		"command pool":          d.commandPools.len(),
		"command buffer":        d.commandBuffers.len(),
		"descriptor set layout": d.layouts.len(),
		"descriptor pool":       d.pools.len(),
		"pipeline layout":       d.pipelineLayouts.len(),
	}
	for k, v := range live {
		if v == 0 {
			delete(live, k)
		}
	}
	return live
}
