package vulkan

import (
	"fmt"
	"time"

	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) VKCreateFence(signaled bool) (vk.Fence, error) {
	var fence vk.Fence
	var fenceCreateInfo = vk.FenceCreateInfo{}
	fenceCreateInfo.SType = vk.StructureTypeFenceCreateInfo
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	err := vk.Error(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence))
	if err != nil {
		return vk.NullFence, err
	}
	return fence, nil
}

// CreateFence creates an unsignaled fence
func (d *Device) CreateFence() (vkquad.FenceHandle, error) {
	fence, err := d.VKCreateFence(false)
	if err != nil {
		return 0, err
	}
	return vkquad.FenceHandle(d.fences.add(fence)), nil
}

func (d *Device) WaitForFence(f vkquad.FenceHandle, timeout time.Duration) error {
	fence, ok := d.fences.get(uint64(f))
	if !ok {
		return fmt.Errorf("unknown fence %d", f)
	}
	ret := vk.WaitForFences(d.VKDevice, 1, []vk.Fence{fence}, vk.True, uint64(timeout.Nanoseconds()))
	if ret == vk.Timeout {
		return fmt.Errorf("fence %d not signaled after %s", f, timeout)
	}
	return vk.Error(ret)
}

func (d *Device) DestroyFence(f vkquad.FenceHandle) {
	if fence, ok := d.fences.take(uint64(f)); ok {
		vk.DestroyFence(d.VKDevice, fence, nil)
	}
}
