package vkquad

import (
	"fmt"
)

// Binding slots of the texture descriptor set, consumed by the fragment
// shader as set 0.
const (
	TextureSet          = 0
	TextureImageBinding = 0
	TextureSampler      = 1
)

// BinderState is the progress of a DescriptorBinder
type BinderState int

const (
	BinderEmpty BinderState = iota
	LayoutCreated
	PoolCreated
	SetAllocated
	DescriptorsWritten
	Bound
	BinderReleased
)

func (s BinderState) String() string {
	switch s {
	case BinderEmpty:
		return "Empty"
	case LayoutCreated:
		return "LayoutCreated"
	case PoolCreated:
		return "PoolCreated"
	case SetAllocated:
		return "SetAllocated"
	case DescriptorsWritten:
		return "DescriptorsWritten"
	case Bound:
		return "Bound"
	case BinderReleased:
		return "Released"
	}
	return fmt.Sprintf("BinderState(%d)", int(s))
}

// TextureLayoutBindings describes the texture set: a sampled image at
// binding 0 and a sampler at binding 1, both fragment stage only.
func TextureLayoutBindings() []LayoutBinding {
	return []LayoutBinding{
		{
			Binding: TextureImageBinding,
			Type:    DescriptorTypeSampledImage,
			Count:   1,
			Stages:  ShaderStageFragment,
		},
		{
			Binding: TextureSampler,
			Type:    DescriptorTypeSampler,
			Count:   1,
			Stages:  ShaderStageFragment,
		},
	}
}

// DescriptorBinder owns the texture descriptor set layout, the pool the set
// is allocated from and the set itself. It moves through LayoutCreated,
// PoolCreated, SetAllocated, DescriptorsWritten and Bound; each method checks
// that the steps it depends on have happened.
type DescriptorBinder struct {
	Layout DescriptorSetLayoutHandle
	Pool   DescriptorPoolHandle
	Set    DescriptorSetHandle

	// View and Sampler are the resources last written into Set
	View    ImageViewHandle
	Sampler SamplerHandle

	state     BinderState
	maxSets   uint32
	allocated uint32
}

// CreateDescriptorBinder creates the texture set layout. No resource needs to
// exist yet.
func CreateDescriptorBinder(dev DescriptorDevice) (*DescriptorBinder, error) {
	layout, err := dev.CreateDescriptorSetLayout(TextureLayoutBindings())
	if err != nil {
		return nil, newError("create descriptor layout", ErrLayoutCreation, err)
	}
	return &DescriptorBinder{Layout: layout, state: LayoutCreated}, nil
}

// NewDescriptorBinder runs layout, pool and set creation for a pool holding a
// single set. On failure everything already created is destroyed.
func NewDescriptorBinder(dev DescriptorDevice) (*DescriptorBinder, error) {
	b, err := CreateDescriptorBinder(dev)
	if err != nil {
		return nil, err
	}
	if err := b.CreatePool(dev, 1); err != nil {
		b.Release(dev)
		return nil, err
	}
	if _, err := b.AllocateSet(dev); err != nil {
		b.Release(dev)
		return nil, err
	}
	return b, nil
}

// State returns the current state of the binder
func (b *DescriptorBinder) State() BinderState {
	return b.state
}

// CreatePool creates a pool with room for exactly maxSets texture sets
func (b *DescriptorBinder) CreatePool(dev DescriptorDevice, maxSets uint32) error {
	const op = "create descriptor pool"

	if b.state != LayoutCreated {
		return newError(op, ErrInvalidState, fmt.Errorf("state %s, want %s", b.state, LayoutCreated))
	}
	if maxSets == 0 {
		return newError(op, ErrPoolCreation, fmt.Errorf("pool must hold at least one set"))
	}

	pool, err := dev.CreateDescriptorPool(maxSets, []PoolSize{
		{Type: DescriptorTypeSampledImage, Count: maxSets},
		{Type: DescriptorTypeSampler, Count: maxSets},
	})
	if err != nil {
		return newError(op, ErrPoolCreation, err)
	}

	b.Pool = pool
	b.maxSets = maxSets
	b.state = PoolCreated
	return nil
}

// AllocateSet allocates a set from the pool and makes it the binder's
// current set. The new set has no live bindings until Write is called.
// Asking for more sets than the pool was created for fails with
// ErrPoolExhausted.
func (b *DescriptorBinder) AllocateSet(dev DescriptorDevice) (DescriptorSetHandle, error) {
	const op = "allocate descriptor set"

	if b.state < PoolCreated || b.state == BinderReleased {
		return 0, newError(op, ErrInvalidState, fmt.Errorf("state %s, want %s or later", b.state, PoolCreated))
	}
	if b.allocated >= b.maxSets {
		return 0, newError(op, ErrPoolExhausted, fmt.Errorf("%d of %d sets in use", b.allocated, b.maxSets))
	}

	set, err := dev.AllocateDescriptorSet(b.Pool, b.Layout)
	if err != nil {
		return 0, newError(op, ErrSetAllocation, err)
	}

	b.allocated++
	b.Set = set
	b.View = 0
	b.Sampler = 0
	b.state = SetAllocated
	return set, nil
}

// Write binds view as the sampled image and sampler as the sampler of the
// current set, replacing whatever was bound before. Rewriting is allowed at
// any time, but resources referenced by in flight command buffers must not
// be destroyed until those buffers retire.
func (b *DescriptorBinder) Write(dev DescriptorDevice, view ImageViewHandle, sampler SamplerHandle) error {
	const op = "write descriptors"

	if b.state < SetAllocated || b.state == BinderReleased {
		return newError(op, ErrInvalidState, fmt.Errorf("state %s, want %s or later", b.state, SetAllocated))
	}
	if view == 0 || sampler == 0 {
		return newError(op, ErrInvalidState, fmt.Errorf("view %d and sampler %d must both exist", view, sampler))
	}

	dev.UpdateDescriptorSet(b.Set, []DescriptorWrite{
		{
			Binding:   TextureImageBinding,
			Type:      DescriptorTypeSampledImage,
			ImageView: view,
			Layout:    ImageLayoutShaderReadOnlyOptimal,
		},
		{
			Binding: TextureSampler,
			Type:    DescriptorTypeSampler,
			Sampler: sampler,
		},
	})

	b.View = view
	b.Sampler = sampler
	b.state = DescriptorsWritten
	return nil
}

// WriteImage writes the view and sampler of img
func (b *DescriptorBinder) WriteImage(dev DescriptorDevice, img *ImageResource) error {
	if img == nil || img.Released() {
		return newError("write descriptors", ErrInvalidState, fmt.Errorf("image is nil or released"))
	}
	return b.Write(dev, img.View, img.Sampler)
}

// Bind records binding the current set at set index 0 of layout into cb,
// without dynamic offsets.
func (b *DescriptorBinder) Bind(rec CommandRecorder, cb CommandBufferHandle, layout PipelineLayoutHandle) error {
	if b.state < DescriptorsWritten || b.state == BinderReleased {
		return newError("bind descriptors", ErrInvalidState, fmt.Errorf("state %s, want %s or later", b.state, DescriptorsWritten))
	}
	rec.CmdBindDescriptorSets(cb, layout, TextureSet, b.Set)
	b.state = Bound
	return nil
}

// CreatePipelineLayout creates a pipeline layout whose set 0 is the binder's
// layout, for use by the pipeline and by Bind.
func (b *DescriptorBinder) CreatePipelineLayout(dev DescriptorDevice) (PipelineLayoutHandle, error) {
	if b.state < LayoutCreated || b.state == BinderReleased {
		return 0, newError("create pipeline layout", ErrInvalidState, fmt.Errorf("state %s", b.state))
	}
	l, err := dev.CreatePipelineLayout(b.Layout)
	if err != nil {
		return 0, newError("create pipeline layout", ErrLayoutCreation, err)
	}
	return l, nil
}

// Release destroys the pool, which frees its sets, and then the layout
func (b *DescriptorBinder) Release(dev DescriptorDevice) {
	if b == nil || b.state == BinderReleased {
		return
	}
	if b.Pool != 0 {
		dev.DestroyDescriptorPool(b.Pool)
	}
	if b.Layout != 0 {
		dev.DestroyDescriptorSetLayout(b.Layout)
	}
	b.Set = 0
	b.state = BinderReleased
}
