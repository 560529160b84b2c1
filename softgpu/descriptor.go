package softgpu

import (
	"fmt"

	"github.com/celer/vkquad"
)

type descriptorPool struct {
	maxSets uint32
	free    map[vkquad.DescriptorType]uint32
	sets    []vkquad.DescriptorSetHandle
}

type descriptorSet struct {
	pool   vkquad.DescriptorPoolHandle
	layout []vkquad.LayoutBinding
	writes map[uint32]vkquad.DescriptorWrite
}

func (d *Device) CreateDescriptorSetLayout(bindings []vkquad.LayoutBinding) (vkquad.DescriptorSetLayoutHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpCreateDescriptorSetLayout); err != nil {
		return 0, err
	}
	seen := make(map[uint32]bool, len(bindings))
	for _, b := range bindings {
		if seen[b.Binding] {
			return 0, fmt.Errorf("create descriptor set layout: binding %d declared twice", b.Binding)
		}
		seen[b.Binding] = true
	}
	h := vkquad.DescriptorSetLayoutHandle(d.handle())
	d.layouts[h] = append([]vkquad.LayoutBinding(nil), bindings...)
	return h, nil
}

func (d *Device) DestroyDescriptorSetLayout(l vkquad.DescriptorSetLayoutHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.layouts[l]; !ok {
		d.violate("destroy descriptor set layout %d: unknown handle", l)
		return
	}
	delete(d.layouts, l)
}

func (d *Device) CreateDescriptorPool(maxSets uint32, sizes []vkquad.PoolSize) (vkquad.DescriptorPoolHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpCreateDescriptorPool); err != nil {
		return 0, err
	}
	if maxSets == 0 {
		return 0, fmt.Errorf("create descriptor pool: maxSets is zero")
	}
	free := make(map[vkquad.DescriptorType]uint32, len(sizes))
	for _, s := range sizes {
		free[s.Type] += s.Count
	}
	h := vkquad.DescriptorPoolHandle(d.handle())
	d.pools[h] = &descriptorPool{maxSets: maxSets, free: free}
	return h, nil
}

func (d *Device) DestroyDescriptorPool(p vkquad.DescriptorPoolHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pool, ok := d.pools[p]
	if !ok {
		d.violate("destroy descriptor pool %d: unknown handle", p)
		return
	}
	for _, s := range pool.sets {
		delete(d.sets, s)
	}
	delete(d.pools, p)
}

func (d *Device) AllocateDescriptorSet(pool vkquad.DescriptorPoolHandle, layout vkquad.DescriptorSetLayoutHandle) (vkquad.DescriptorSetHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpAllocateDescriptorSet); err != nil {
		return 0, err
	}
	p, ok := d.pools[pool]
	if !ok {
		return 0, fmt.Errorf("allocate descriptor set: unknown pool %d", pool)
	}
	bindings, ok := d.layouts[layout]
	if !ok {
		return 0, fmt.Errorf("allocate descriptor set: unknown layout %d", layout)
	}
	if uint32(len(p.sets)) >= p.maxSets {
		return 0, fmt.Errorf("allocate descriptor set: %w: %d sets allocated", vkquad.ErrPoolExhausted, len(p.sets))
	}
	need := make(map[vkquad.DescriptorType]uint32)
	for _, b := range bindings {
		need[b.Type] += b.Count
	}
	for t, n := range need {
		if p.free[t] < n {
			return 0, fmt.Errorf("allocate descriptor set: %w: %d descriptors of type %d left, %d needed", vkquad.ErrPoolExhausted, p.free[t], t, n)
		}
	}
	for t, n := range need {
		p.free[t] -= n
	}

	h := vkquad.DescriptorSetHandle(d.handle())
	p.sets = append(p.sets, h)
	d.sets[h] = &descriptorSet{
		pool:   pool,
		layout: bindings,
		writes: make(map[uint32]vkquad.DescriptorWrite),
	}
	return h, nil
}

func (d *Device) UpdateDescriptorSet(set vkquad.DescriptorSetHandle, writes []vkquad.DescriptorWrite) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ds, ok := d.sets[set]
	if !ok {
		d.violate("update descriptor set %d: unknown handle", set)
		return
	}
	for _, w := range writes {
		declared := false
		for _, b := range ds.layout {
			if b.Binding == w.Binding && b.Type == w.Type {
				declared = true
				break
			}
		}
		if !declared {
			d.violate("update descriptor set %d: binding %d of type %d not in layout", set, w.Binding, w.Type)
			continue
		}
		switch w.Type {
		case vkquad.DescriptorTypeSampledImage:
			if _, ok := d.views[w.ImageView]; !ok {
				d.violate("update descriptor set %d: image view %d does not exist", set, w.ImageView)
				continue
			}
		case vkquad.DescriptorTypeSampler:
			if _, ok := d.samplers[w.Sampler]; !ok {
				d.violate("update descriptor set %d: sampler %d does not exist", set, w.Sampler)
				continue
			}
		}
		ds.writes[w.Binding] = w
	}
}

// Binding returns the write currently stored at binding of a set
func (d *Device) Binding(set vkquad.DescriptorSetHandle, binding uint32) (vkquad.DescriptorWrite, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ds, ok := d.sets[set]
	if !ok {
		return vkquad.DescriptorWrite{}, false
	}
	w, ok := ds.writes[binding]
	return w, ok
}

func (d *Device) CreatePipelineLayout(layouts ...vkquad.DescriptorSetLayoutHandle) (vkquad.PipelineLayoutHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpCreatePipelineLayout); err != nil {
		return 0, err
	}
	for _, l := range layouts {
		if _, ok := d.layouts[l]; !ok {
			return 0, fmt.Errorf("create pipeline layout: unknown descriptor set layout %d", l)
		}
	}
	h := vkquad.PipelineLayoutHandle(d.handle())
	d.pipelineLayouts[h] = append([]vkquad.DescriptorSetLayoutHandle(nil), layouts...)
	return h, nil
}

func (d *Device) DestroyPipelineLayout(l vkquad.PipelineLayoutHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pipelineLayouts[l]; !ok {
		d.violate("destroy pipeline layout %d: unknown handle", l)
		return
	}
	delete(d.pipelineLayouts, l)
}
