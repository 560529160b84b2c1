package vulkan

import (
	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

func memoryPropertyFlags(f vk.MemoryPropertyFlags) vkquad.MemoryPropertyFlags {
	var ret vkquad.MemoryPropertyFlags
	if f&vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit) != 0 {
		ret |= vkquad.MemoryPropertyDeviceLocal
	}
	if f&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0 {
		ret |= vkquad.MemoryPropertyHostVisible
	}
	if f&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit) != 0 {
		ret |= vkquad.MemoryPropertyHostCoherent
	}
	if f&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit) != 0 {
		ret |= vkquad.MemoryPropertyHostCached
	}
	return ret
}

func bufferUsage(u vkquad.BufferUsage) vk.BufferUsageFlags {
	var ret vk.BufferUsageFlagBits
	if u&vkquad.BufferUsageTransferSrc != 0 {
		ret |= vk.BufferUsageTransferSrcBit
	}
	if u&vkquad.BufferUsageTransferDst != 0 {
		ret |= vk.BufferUsageTransferDstBit
	}
	if u&vkquad.BufferUsageVertex != 0 {
		ret |= vk.BufferUsageVertexBufferBit
	}
	if u&vkquad.BufferUsageIndex != 0 {
		ret |= vk.BufferUsageIndexBufferBit
	}
	return vk.BufferUsageFlags(ret)
}

func imageUsage(u vkquad.ImageUsage) vk.ImageUsageFlags {
	var ret vk.ImageUsageFlagBits
	if u&vkquad.ImageUsageTransferSrc != 0 {
		ret |= vk.ImageUsageTransferSrcBit
	}
	if u&vkquad.ImageUsageTransferDst != 0 {
		ret |= vk.ImageUsageTransferDstBit
	}
	if u&vkquad.ImageUsageSampled != 0 {
		ret |= vk.ImageUsageSampledBit
	}
	return vk.ImageUsageFlags(ret)
}

func format(f vkquad.Format) vk.Format {
	switch f {
	case vkquad.FormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm
	}
	return vk.FormatUndefined
}

func vertexFormat(f vkquad.VertexFormat) vk.Format {
	switch f {
	case vkquad.FormatR32G32Sfloat:
		return vk.FormatR32g32Sfloat
	case vkquad.FormatR32G32B32Sfloat:
		return vk.FormatR32g32b32Sfloat
	}
	return vk.FormatUndefined
}

func imageTiling(t vkquad.ImageTiling) vk.ImageTiling {
	if t == vkquad.ImageTilingLinear {
		return vk.ImageTilingLinear
	}
	return vk.ImageTilingOptimal
}

func imageLayout(l vkquad.ImageLayout) vk.ImageLayout {
	switch l {
	case vkquad.ImageLayoutTransferDstOptimal:
		return vk.ImageLayoutTransferDstOptimal
	case vkquad.ImageLayoutTransferSrcOptimal:
		return vk.ImageLayoutTransferSrcOptimal
	case vkquad.ImageLayoutShaderReadOnlyOptimal:
		return vk.ImageLayoutShaderReadOnlyOptimal
	}
	return vk.ImageLayoutUndefined
}

func accessFlags(a vkquad.AccessFlags) vk.AccessFlags {
	var ret vk.AccessFlagBits
	if a&vkquad.AccessTransferRead != 0 {
		ret |= vk.AccessTransferReadBit
	}
	if a&vkquad.AccessTransferWrite != 0 {
		ret |= vk.AccessTransferWriteBit
	}
	if a&vkquad.AccessShaderRead != 0 {
		ret |= vk.AccessShaderReadBit
	}
	return vk.AccessFlags(ret)
}

func pipelineStages(s vkquad.PipelineStageFlags) vk.PipelineStageFlags {
	var ret vk.PipelineStageFlagBits
	if s&vkquad.PipelineStageTopOfPipe != 0 {
		ret |= vk.PipelineStageTopOfPipeBit
	}
	if s&vkquad.PipelineStageTransfer != 0 {
		ret |= vk.PipelineStageTransferBit
	}
	if s&vkquad.PipelineStageFragmentShader != 0 {
		ret |= vk.PipelineStageFragmentShaderBit
	}
	return vk.PipelineStageFlags(ret)
}

func filter(f vkquad.Filter) vk.Filter {
	if f == vkquad.FilterLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

func addressMode(m vkquad.AddressMode) vk.SamplerAddressMode {
	switch m {
	case vkquad.AddressModeMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case vkquad.AddressModeClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case vkquad.AddressModeClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	}
	return vk.SamplerAddressModeRepeat
}

func descriptorType(t vkquad.DescriptorType) vk.DescriptorType {
	if t == vkquad.DescriptorTypeSampler {
		return vk.DescriptorTypeSampler
	}
	return vk.DescriptorTypeSampledImage
}

func shaderStages(s vkquad.ShaderStageFlags) vk.ShaderStageFlags {
	var ret vk.ShaderStageFlagBits
	if s&vkquad.ShaderStageVertex != 0 {
		ret |= vk.ShaderStageVertexBit
	}
	if s&vkquad.ShaderStageFragment != 0 {
		ret |= vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageFlags(ret)
}

func indexType(t vkquad.IndexType) vk.IndexType {
	if t == vkquad.IndexTypeUint32 {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}

// VertexInputDescriptions returns the vertex input binding and attributes of
// vkquad.Vertex in the form a graphics pipeline is created with.
func VertexInputDescriptions() ([]vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription) {
	b := vkquad.VertexBinding()
	bindings := []vk.VertexInputBindingDescription{{
		Binding:   b.Binding,
		Stride:    b.Stride,
		InputRate: vk.VertexInputRateVertex,
	}}

	attrs := vkquad.VertexAttributes()
	attributes := make([]vk.VertexInputAttributeDescription, len(attrs))
	for i, a := range attrs {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vertexFormat(a.Format),
			Offset:   a.Offset,
		}
	}
	return bindings, attributes
}
