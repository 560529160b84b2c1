package vulkan

import (
	"fmt"

	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) CreatePipelineLayout(layouts ...vkquad.DescriptorSetLayoutHandle) (vkquad.PipelineLayoutHandle, error) {
	l := make([]vk.DescriptorSetLayout, len(layouts))
	for i, h := range layouts {
		dsl, ok := d.layouts.get(uint64(h))
		if !ok {
			return 0, fmt.Errorf("unknown descriptor set layout %d", h)
		}
		l[i] = dsl
	}

	var pipelineLayoutCreateInfo = vk.PipelineLayoutCreateInfo{}
	pipelineLayoutCreateInfo.SType = vk.StructureTypePipelineLayoutCreateInfo
	pipelineLayoutCreateInfo.SetLayoutCount = uint32(len(l))
	pipelineLayoutCreateInfo.PSetLayouts = l

	var pipelineLayout vk.PipelineLayout
	err := vk.Error(vk.CreatePipelineLayout(d.VKDevice, &pipelineLayoutCreateInfo, nil, &pipelineLayout))
	if err != nil {
		return 0, err
	}
	return vkquad.PipelineLayoutHandle(d.pipelineLayouts.add(pipelineLayout)), nil
}

func (d *Device) DestroyPipelineLayout(p vkquad.PipelineLayoutHandle) {
	if layout, ok := d.pipelineLayouts.take(uint64(p)); ok {
		vk.DestroyPipelineLayout(d.VKDevice, layout, nil)
	}
}
