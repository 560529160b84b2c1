package vulkan

import (
	"fmt"

	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

var _ vkquad.Queue = (*Queue)(nil)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return vk.Error(vk.QueueWaitIdle(q.VKQueue))
}

// SubmitWithFence submits buffers in a single batch. The fence, unless zero,
// is signaled when the batch completes.
func (q *Queue) SubmitWithFence(f vkquad.FenceHandle, buffers ...vkquad.CommandBufferHandle) error {
	fence := vk.NullFence
	if f != 0 {
		var ok bool
		if fence, ok = q.Device.fences.get(uint64(f)); !ok {
			return fmt.Errorf("unknown fence %d", f)
		}
	}

	b := make([]vk.CommandBuffer, len(buffers))
	for i, h := range buffers {
		cb, ok := q.Device.commandBuffers.get(uint64(h))
		if !ok {
			return fmt.Errorf("unknown command buffer %d", h)
		}
		b[i] = cb
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(b)),
		PCommandBuffers:    b,
	}
	return vk.Error(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence))
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}
