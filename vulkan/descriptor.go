package vulkan

import (
	"fmt"
	"log"
	"sync"

	"github.com/celer/vkquad"
	vk "github.com/vulkan-go/vulkan"
)

// descriptorPool remembers the sets allocated from a pool so they can be
// dropped from the registry when the pool goes.
type descriptorPool struct {
	VKPool vk.DescriptorPool

	mu   sync.Mutex
	sets []uint64
}

func (d *Device) CreateDescriptorSetLayout(bindings []vkquad.LayoutBinding) (vkquad.DescriptorSetLayoutHandle, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  descriptorType(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      shaderStages(b.Stages),
		}
	}

	var descriptorSetLayoutCreateInfo = &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}

	var layout vk.DescriptorSetLayout
	err := vk.Error(vk.CreateDescriptorSetLayout(d.VKDevice, descriptorSetLayoutCreateInfo, nil, &layout))
	if err != nil {
		return 0, err
	}
	return vkquad.DescriptorSetLayoutHandle(d.layouts.add(layout)), nil
}

func (d *Device) DestroyDescriptorSetLayout(l vkquad.DescriptorSetLayoutHandle) {
	if layout, ok := d.layouts.take(uint64(l)); ok {
		vk.DestroyDescriptorSetLayout(d.VKDevice, layout, nil)
	}
}

// CreateDescriptorPool creates a pool for maxSets sets. Sets are only ever
// freed together with the pool.
func (d *Device) CreateDescriptorPool(maxSets uint32, sizes []vkquad.PoolSize) (vkquad.DescriptorPoolHandle, error) {
	poolSizes := make([]vk.DescriptorPoolSize, len(sizes))
	for i, s := range sizes {
		poolSizes[i] = vk.DescriptorPoolSize{
			Type:            descriptorType(s.Type),
			DescriptorCount: s.Count,
		}
	}

	var descriptorPoolCreateInfo = vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var pool vk.DescriptorPool
	err := vk.Error(vk.CreateDescriptorPool(d.VKDevice, &descriptorPoolCreateInfo, nil, &pool))
	if err != nil {
		return 0, err
	}
	return vkquad.DescriptorPoolHandle(d.pools.add(&descriptorPool{VKPool: pool})), nil
}

func (d *Device) DestroyDescriptorPool(p vkquad.DescriptorPoolHandle) {
	pool, ok := d.pools.take(uint64(p))
	if !ok {
		return
	}
	pool.mu.Lock()
	for _, s := range pool.sets {
		d.sets.take(s)
	}
	pool.mu.Unlock()
	vk.DestroyDescriptorPool(d.VKDevice, pool.VKPool, nil)
}

func (d *Device) AllocateDescriptorSet(p vkquad.DescriptorPoolHandle, l vkquad.DescriptorSetLayoutHandle) (vkquad.DescriptorSetHandle, error) {
	pool, ok := d.pools.get(uint64(p))
	if !ok {
		return 0, fmt.Errorf("unknown descriptor pool %d", p)
	}
	layout, ok := d.layouts.get(uint64(l))
	if !ok {
		return 0, fmt.Errorf("unknown descriptor set layout %d", l)
	}

	descriptorSetAllocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool.VKPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}

	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(d.VKDevice, &descriptorSetAllocateInfo, &set)
	if ret == vk.ErrorOutOfPoolMemory || ret == vk.ErrorFragmentedPool {
		return 0, fmt.Errorf("%w: %v", vkquad.ErrPoolExhausted, vk.Error(ret))
	}
	if err := vk.Error(ret); err != nil {
		return 0, err
	}
	h := d.sets.add(set)
	pool.mu.Lock()
	pool.sets = append(pool.sets, h)
	pool.mu.Unlock()
	return vkquad.DescriptorSetHandle(h), nil
}

// UpdateDescriptorSet writes image views and samplers into set. Writes
// naming unknown handles are skipped.
func (d *Device) UpdateDescriptorSet(s vkquad.DescriptorSetHandle, writes []vkquad.DescriptorWrite) {
	set, ok := d.sets.get(uint64(s))
	if !ok {
		log.Printf("update of unknown descriptor set %d dropped", s)
		return
	}

	vkWrites := make([]vk.WriteDescriptorSet, 0, len(writes))
	for _, w := range writes {
		var info vk.DescriptorImageInfo
		switch w.Type {
		case vkquad.DescriptorTypeSampledImage:
			view, ok := d.views.get(uint64(w.ImageView))
			if !ok {
				log.Printf("write of unknown image view %d dropped", w.ImageView)
				continue
			}
			info.ImageView = view
			info.ImageLayout = imageLayout(w.Layout)
		case vkquad.DescriptorTypeSampler:
			sampler, ok := d.samplers.get(uint64(w.Sampler))
			if !ok {
				log.Printf("write of unknown sampler %d dropped", w.Sampler)
				continue
			}
			info.Sampler = sampler
		}

		vkWrites = append(vkWrites, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      w.Binding,
			DescriptorCount: 1,
			DescriptorType:  descriptorType(w.Type),
			PImageInfo:      []vk.DescriptorImageInfo{info},
		})
	}
	if len(vkWrites) == 0 {
		return
	}
	vk.UpdateDescriptorSets(d.VKDevice, uint32(len(vkWrites)), vkWrites, 0, nil)
}
