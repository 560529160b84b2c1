package softgpu

import (
	"fmt"

	"github.com/celer/vkquad"
)

type memory struct {
	data      []byte
	typeIndex uint32
	props     vkquad.MemoryPropertyFlags
	mapped    bool
	// bound counts the live buffers and images using this memory
	bound int
}

type buffer struct {
	size   uint64
	usage  vkquad.BufferUsage
	mem    vkquad.MemoryHandle
	offset uint64
}

func (d *Device) CreateBuffer(size uint64, usage vkquad.BufferUsage) (vkquad.BufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpCreateBuffer); err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, fmt.Errorf("create buffer: size is zero")
	}
	h := vkquad.BufferHandle(d.handle())
	d.buffers[h] = &buffer{size: size, usage: usage}
	return h, nil
}

func (d *Device) DestroyBuffer(b vkquad.BufferHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf, ok := d.buffers[b]
	if !ok {
		d.violate("destroy buffer %d: unknown handle", b)
		return
	}
	if m, ok := d.memories[buf.mem]; ok {
		m.bound--
	}
	delete(d.buffers, b)
}

func (d *Device) BufferMemoryRequirements(b vkquad.BufferHandle) vkquad.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf, ok := d.buffers[b]
	if !ok {
		d.violate("buffer memory requirements %d: unknown handle", b)
		return vkquad.MemoryRequirements{}
	}
	return vkquad.MemoryRequirements{
		Size:           alignUp(buf.size, d.cfg.BufferAlignment),
		Alignment:      d.cfg.BufferAlignment,
		MemoryTypeBits: d.cfg.BufferTypeBits,
	}
}

func (d *Device) BindBufferMemory(b vkquad.BufferHandle, m vkquad.MemoryHandle, offset uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpBindBufferMemory); err != nil {
		return err
	}
	buf, ok := d.buffers[b]
	if !ok {
		return fmt.Errorf("bind buffer memory: unknown buffer %d", b)
	}
	mem, ok := d.memories[m]
	if !ok {
		return fmt.Errorf("bind buffer memory: unknown memory %d", m)
	}
	if buf.mem != 0 {
		return fmt.Errorf("bind buffer memory: buffer %d already bound", b)
	}
	if d.cfg.BufferTypeBits&(1<<mem.typeIndex) == 0 {
		return fmt.Errorf("bind buffer memory: memory type %d not allowed for buffers", mem.typeIndex)
	}
	if offset%d.cfg.BufferAlignment != 0 || offset+buf.size > uint64(len(mem.data)) {
		return fmt.Errorf("bind buffer memory: offset %d for %d bytes in %d byte allocation", offset, buf.size, len(mem.data))
	}
	buf.mem = m
	buf.offset = offset
	mem.bound++
	return nil
}

func (d *Device) AllocateMemory(size uint64, memoryTypeIndex uint32) (vkquad.MemoryHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpAllocateMemory); err != nil {
		return 0, err
	}
	if int(memoryTypeIndex) >= len(d.cfg.MemoryTypes) {
		return 0, fmt.Errorf("allocate memory: no memory type %d", memoryTypeIndex)
	}
	if d.cfg.MemoryBudget != 0 && d.allocated+size > d.cfg.MemoryBudget {
		return 0, fmt.Errorf("allocate memory: out of device memory, %d of %d bytes in use", d.allocated, d.cfg.MemoryBudget)
	}
	h := vkquad.MemoryHandle(d.handle())
	d.memories[h] = &memory{
		data:      make([]byte, size),
		typeIndex: memoryTypeIndex,
		props:     d.cfg.MemoryTypes[memoryTypeIndex].PropertyFlags,
	}
	d.allocated += size
	return h, nil
}

func (d *Device) FreeMemory(m vkquad.MemoryHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	mem, ok := d.memories[m]
	if !ok {
		d.violate("free memory %d: unknown handle", m)
		return
	}
	if mem.bound > 0 {
		d.violate("free memory %d: still bound to %d live objects", m, mem.bound)
	}
	if mem.mapped {
		d.violate("free memory %d: still mapped", m)
	}
	d.allocated -= uint64(len(mem.data))
	delete(d.memories, m)
}

func (d *Device) MapMemory(m vkquad.MemoryHandle, offset, size uint64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpMapMemory); err != nil {
		return nil, err
	}
	mem, ok := d.memories[m]
	if !ok {
		return nil, fmt.Errorf("map memory: unknown memory %d", m)
	}
	if mem.props&vkquad.MemoryPropertyHostVisible == 0 {
		return nil, fmt.Errorf("map memory: memory type %d is not host visible", mem.typeIndex)
	}
	if mem.mapped {
		return nil, fmt.Errorf("map memory: memory %d is already mapped", m)
	}
	if offset+size > uint64(len(mem.data)) {
		return nil, fmt.Errorf("map memory: range %d+%d exceeds %d bytes", offset, size, len(mem.data))
	}
	mem.mapped = true
	return mem.data[offset : offset+size : offset+size], nil
}

func (d *Device) UnmapMemory(m vkquad.MemoryHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	mem, ok := d.memories[m]
	if !ok || !mem.mapped {
		d.violate("unmap memory %d: not mapped", m)
		return
	}
	mem.mapped = false
}

// bufferBytes returns the bound bytes of b. Callers hold d.mu.
func (d *Device) bufferBytes(b vkquad.BufferHandle) (*buffer, []byte, error) {
	buf, ok := d.buffers[b]
	if !ok {
		return nil, nil, fmt.Errorf("buffer %d does not exist", b)
	}
	mem, ok := d.memories[buf.mem]
	if !ok {
		return nil, nil, fmt.Errorf("buffer %d has no memory bound", b)
	}
	return buf, mem.data[buf.offset : buf.offset+buf.size], nil
}
