package vulkan

import (
	"testing"

	"github.com/celer/vkquad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestVertexInputDescriptions(t *testing.T) {
	bindings, attributes := VertexInputDescriptions()

	require.Len(t, bindings, 1)
	assert.EqualValues(t, 0, bindings[0].Binding)
	assert.EqualValues(t, 28, bindings[0].Stride)
	assert.Equal(t, vk.VertexInputRateVertex, bindings[0].InputRate)

	require.Len(t, attributes, 3)
	wantFormats := []vk.Format{vk.FormatR32g32Sfloat, vk.FormatR32g32b32Sfloat, vk.FormatR32g32Sfloat}
	wantOffsets := []uint32{0, 8, 20}
	for i, a := range attributes {
		assert.EqualValues(t, i, a.Location)
		assert.EqualValues(t, 0, a.Binding)
		assert.Equal(t, wantFormats[i], a.Format)
		assert.Equal(t, wantOffsets[i], a.Offset)
	}
}

func TestMemoryPropertyFlags(t *testing.T) {
	f := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	assert.Equal(t, vkquad.HostVisibleCoherent, memoryPropertyFlags(f))
	assert.Equal(t, vkquad.MemoryPropertyDeviceLocal, memoryPropertyFlags(vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)))
	assert.Zero(t, memoryPropertyFlags(0))
}

func TestUsageFlags(t *testing.T) {
	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), bufferUsage(vkquad.BufferUsageTransferSrc))
	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageIndexBufferBit),
		bufferUsage(vkquad.BufferUsageVertex|vkquad.BufferUsageIndex))
	assert.Equal(t, vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		imageUsage(vkquad.ImageUsageTransferDst|vkquad.ImageUsageSampled))
}

func TestBarrierConversions(t *testing.T) {
	b, err := vkquad.TransitionImageLayout(1, vkquad.ImageLayoutUndefined, vkquad.ImageLayoutTransferDstOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.ImageLayoutUndefined, imageLayout(b.OldLayout))
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal, imageLayout(b.NewLayout))
	assert.Equal(t, vk.AccessFlags(0), accessFlags(b.SrcAccess))
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), accessFlags(b.DstAccess))
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), pipelineStages(b.SrcStage))
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTransferBit), pipelineStages(b.DstStage))

	b, err = vkquad.TransitionImageLayout(1, vkquad.ImageLayoutTransferDstOptimal, vkquad.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, imageLayout(b.NewLayout))
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit), accessFlags(b.DstAccess))
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), pipelineStages(b.DstStage))
}

func TestSamplerConversions(t *testing.T) {
	assert.Equal(t, vk.FilterNearest, filter(vkquad.FilterNearest))
	assert.Equal(t, vk.FilterLinear, filter(vkquad.FilterLinear))
	assert.Equal(t, vk.SamplerAddressModeRepeat, addressMode(vkquad.AddressModeRepeat))
	assert.Equal(t, vk.SamplerAddressModeMirroredRepeat, addressMode(vkquad.AddressModeMirroredRepeat))
	assert.Equal(t, vk.SamplerAddressModeClampToEdge, addressMode(vkquad.AddressModeClampToEdge))
	assert.Equal(t, vk.SamplerAddressModeClampToBorder, addressMode(vkquad.AddressModeClampToBorder))
}

func TestDescriptorConversions(t *testing.T) {
	assert.Equal(t, vk.DescriptorTypeSampledImage, descriptorType(vkquad.DescriptorTypeSampledImage))
	assert.Equal(t, vk.DescriptorTypeSampler, descriptorType(vkquad.DescriptorTypeSampler))
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), shaderStages(vkquad.ShaderStageFragment))
	assert.Equal(t, vk.IndexTypeUint16, indexType(vkquad.QuadIndices.IndexType()))
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, format(vkquad.FormatR8G8B8A8Unorm))
}

func TestRegistry(t *testing.T) {
	d := &Device{}
	buffers := newRegistry[vk.Buffer](&d.handles)
	fences := newRegistry[vk.Fence](&d.handles)

	a := buffers.add(vk.NullBuffer)
	b := fences.add(vk.NullFence)
	assert.NotEqual(t, a, b, "handles are unique across kinds")
	assert.NotZero(t, a)

	_, ok := buffers.get(b)
	assert.False(t, ok)
	_, ok = buffers.take(a)
	assert.True(t, ok)
	_, ok = buffers.take(a)
	assert.False(t, ok)
	assert.Zero(t, buffers.len())
	assert.Equal(t, 1, fences.len())
}
