package softgpu

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/celer/vkquad"
)

type cbState int

const (
	cbInitial cbState = iota
	cbRecording
	cbExecutable
	cbPending
	cbInvalid
)

func (s cbState) String() string {
	return [...]string{"initial", "recording", "executable", "pending", "invalid"}[s]
}

type command struct {
	name string
	exec func(st *execState) error
}

type commandBuffer struct {
	pool    vkquad.CommandPoolHandle
	state   cbState
	oneTime bool
	cmds    []command
}

type fence struct {
	done      chan struct{}
	submitted bool
	err       error
}

// execState is the binding state of one command buffer during execution
type execState struct {
	index       vkquad.BufferHandle
	indexOffset uint64
	indexType   vkquad.IndexType
	vertex      vkquad.BufferHandle
	vertexOff   uint64
	layout      vkquad.PipelineLayoutHandle
	sets        map[uint32]vkquad.DescriptorSetHandle
}

// Draw is the record of one executed indexed draw
type Draw struct {
	Set            vkquad.DescriptorSetHandle
	PipelineLayout vkquad.PipelineLayoutHandle
	View           vkquad.ImageViewHandle
	Sampler        vkquad.SamplerHandle
	IndexCount     uint32
	InstanceCount  uint32
	// Indices are the indices read from the index buffer
	Indices []uint32
	// Vertices is the content of the vertex buffer when the draw executed
	Vertices []vkquad.Vertex
}

// CreateCommandPool creates a pool to allocate command buffers from
func (d *Device) CreateCommandPool() (vkquad.CommandPoolHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := vkquad.CommandPoolHandle(d.handle())
	d.commandPools[h] = struct{}{}
	return h, nil
}

// DestroyCommandPool destroys a pool, freeing the command buffers allocated
// from it.
func (d *Device) DestroyCommandPool(p vkquad.CommandPoolHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.commandPools[p]; !ok {
		d.violate("destroy command pool %d: unknown handle", p)
		return
	}
	for h, cb := range d.commandBuffers {
		if cb.pool != p {
			continue
		}
		if cb.state == cbPending {
			d.violate("destroy command pool %d: command buffer %d is pending", p, h)
		}
		delete(d.commandBuffers, h)
	}
	delete(d.commandPools, p)
}

func (d *Device) AllocateCommandBuffer(pool vkquad.CommandPoolHandle) (vkquad.CommandBufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpAllocateCommandBuffer); err != nil {
		return 0, err
	}
	if _, ok := d.commandPools[pool]; !ok {
		return 0, fmt.Errorf("allocate command buffer: unknown pool %d", pool)
	}
	h := vkquad.CommandBufferHandle(d.handle())
	d.commandBuffers[h] = &commandBuffer{pool: pool}
	return h, nil
}

func (d *Device) FreeCommandBuffer(pool vkquad.CommandPoolHandle, cb vkquad.CommandBufferHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.commandBuffers[cb]
	if !ok {
		d.violate("free command buffer %d: unknown handle", cb)
		return
	}
	if c.pool != pool {
		d.violate("free command buffer %d: allocated from pool %d, not %d", cb, c.pool, pool)
	}
	if c.state == cbPending {
		d.violate("free command buffer %d: still pending", cb)
	}
	delete(d.commandBuffers, cb)
}

func (d *Device) BeginCommandBuffer(cb vkquad.CommandBufferHandle, oneTime bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpBeginCommandBuffer); err != nil {
		return err
	}
	c, ok := d.commandBuffers[cb]
	if !ok {
		return fmt.Errorf("begin command buffer: unknown handle %d", cb)
	}
	if c.state == cbPending || c.state == cbRecording {
		return fmt.Errorf("begin command buffer %d: buffer is %s", cb, c.state)
	}
	c.state = cbRecording
	c.oneTime = oneTime
	c.cmds = c.cmds[:0]
	return nil
}

func (d *Device) EndCommandBuffer(cb vkquad.CommandBufferHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.commandBuffers[cb]
	if !ok {
		return fmt.Errorf("end command buffer: unknown handle %d", cb)
	}
	if c.state != cbRecording {
		return fmt.Errorf("end command buffer %d: buffer is %s", cb, c.state)
	}
	c.state = cbExecutable
	return nil
}

func (d *Device) record(cb vkquad.CommandBufferHandle, name string, exec func(st *execState) error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.commandBuffers[cb]
	if !ok || c.state != cbRecording {
		d.violate("%s: command buffer %d is not recording", name, cb)
		return
	}
	c.cmds = append(c.cmds, command{name: name, exec: exec})
}

func (d *Device) CmdPipelineBarrier(cb vkquad.CommandBufferHandle, b vkquad.ImageBarrier) {
	d.record(cb, "pipeline barrier", func(*execState) error {
		img, ok := d.images[b.Image]
		if !ok {
			return fmt.Errorf("image %d does not exist", b.Image)
		}
		if b.SrcStage == 0 || b.DstStage == 0 {
			return fmt.Errorf("barrier on image %d without source or destination stage", b.Image)
		}
		if b.NewLayout == vkquad.ImageLayoutUndefined {
			return fmt.Errorf("barrier on image %d to undefined layout", b.Image)
		}
		if b.OldLayout != vkquad.ImageLayoutUndefined && b.OldLayout != img.layout {
			return fmt.Errorf("barrier on image %d from %s, image is %s", b.Image, b.OldLayout, img.layout)
		}
		img.layout = b.NewLayout
		return nil
	})
}

// copyRegion checks region against an image of w x h texels and a buffer of
// size bytes, and returns the buffer row pitch in bytes.
func copyRegion(region vkquad.BufferImageCopy, w, h uint32, size uint64) (uint64, error) {
	if region.Width == 0 || region.Height == 0 || region.Width > w || region.Height > h {
		return 0, fmt.Errorf("region %dx%d outside image %dx%d", region.Width, region.Height, w, h)
	}
	rowLength := region.BufferRowLength
	if rowLength == 0 {
		rowLength = region.Width
	}
	if rowLength < region.Width {
		return 0, fmt.Errorf("buffer row length %d shorter than region width %d", rowLength, region.Width)
	}
	pitch := uint64(rowLength) * vkquad.BytesPerPixel
	end := region.BufferOffset + uint64(region.Height-1)*pitch + uint64(region.Width)*vkquad.BytesPerPixel
	if end > size {
		return 0, fmt.Errorf("region needs %d bytes of a %d byte buffer", end, size)
	}
	return pitch, nil
}

func (d *Device) CmdCopyBufferToImage(cb vkquad.CommandBufferHandle, src vkquad.BufferHandle, dst vkquad.ImageHandle, layout vkquad.ImageLayout, region vkquad.BufferImageCopy) {
	d.record(cb, "copy buffer to image", func(*execState) error {
		buf, from, err := d.bufferBytes(src)
		if err != nil {
			return err
		}
		img, to, err := d.imageBytes(dst)
		if err != nil {
			return err
		}
		if layout != vkquad.ImageLayoutTransferDstOptimal {
			return fmt.Errorf("destination layout %s, want %s", layout, vkquad.ImageLayoutTransferDstOptimal)
		}
		if img.layout != layout {
			return fmt.Errorf("image %d is %s, copy expects %s", dst, img.layout, layout)
		}
		if img.info.Usage&vkquad.ImageUsageTransferDst == 0 {
			return fmt.Errorf("image %d lacks transfer destination usage", dst)
		}
		if buf.usage&vkquad.BufferUsageTransferSrc == 0 {
			return fmt.Errorf("buffer %d lacks transfer source usage", src)
		}
		pitch, err := copyRegion(region, img.info.Width, img.info.Height, buf.size)
		if err != nil {
			return err
		}
		row := uint64(region.Width) * vkquad.BytesPerPixel
		stride := uint64(img.info.Width) * vkquad.BytesPerPixel
		for y := uint64(0); y < uint64(region.Height); y++ {
			s := region.BufferOffset + y*pitch
			copy(to[y*stride:y*stride+row], from[s:s+row])
		}
		return nil
	})
}

func (d *Device) CmdCopyImageToBuffer(cb vkquad.CommandBufferHandle, src vkquad.ImageHandle, layout vkquad.ImageLayout, dst vkquad.BufferHandle, region vkquad.BufferImageCopy) {
	d.record(cb, "copy image to buffer", func(*execState) error {
		img, from, err := d.imageBytes(src)
		if err != nil {
			return err
		}
		buf, to, err := d.bufferBytes(dst)
		if err != nil {
			return err
		}
		if layout != vkquad.ImageLayoutTransferSrcOptimal {
			return fmt.Errorf("source layout %s, want %s", layout, vkquad.ImageLayoutTransferSrcOptimal)
		}
		if img.layout != layout {
			return fmt.Errorf("image %d is %s, copy expects %s", src, img.layout, layout)
		}
		if img.info.Usage&vkquad.ImageUsageTransferSrc == 0 {
			return fmt.Errorf("image %d lacks transfer source usage", src)
		}
		if buf.usage&vkquad.BufferUsageTransferDst == 0 {
			return fmt.Errorf("buffer %d lacks transfer destination usage", dst)
		}
		pitch, err := copyRegion(region, img.info.Width, img.info.Height, buf.size)
		if err != nil {
			return err
		}
		row := uint64(region.Width) * vkquad.BytesPerPixel
		stride := uint64(img.info.Width) * vkquad.BytesPerPixel
		for y := uint64(0); y < uint64(region.Height); y++ {
			s := region.BufferOffset + y*pitch
			copy(to[s:s+row], from[y*stride:y*stride+row])
		}
		return nil
	})
}

func (d *Device) CmdBindIndexBuffer(cb vkquad.CommandBufferHandle, b vkquad.BufferHandle, offset uint64, t vkquad.IndexType) {
	d.record(cb, "bind index buffer", func(st *execState) error {
		buf, ok := d.buffers[b]
		if !ok {
			return fmt.Errorf("buffer %d does not exist", b)
		}
		if buf.usage&vkquad.BufferUsageIndex == 0 {
			return fmt.Errorf("buffer %d lacks index usage", b)
		}
		st.index, st.indexOffset, st.indexType = b, offset, t
		return nil
	})
}

func (d *Device) CmdBindVertexBuffer(cb vkquad.CommandBufferHandle, binding uint32, b vkquad.BufferHandle, offset uint64) {
	d.record(cb, "bind vertex buffer", func(st *execState) error {
		if binding != 0 {
			return fmt.Errorf("vertex binding %d, only binding 0 is supported", binding)
		}
		buf, ok := d.buffers[b]
		if !ok {
			return fmt.Errorf("buffer %d does not exist", b)
		}
		if buf.usage&vkquad.BufferUsageVertex == 0 {
			return fmt.Errorf("buffer %d lacks vertex usage", b)
		}
		st.vertex, st.vertexOff = b, offset
		return nil
	})
}

func (d *Device) CmdBindDescriptorSets(cb vkquad.CommandBufferHandle, layout vkquad.PipelineLayoutHandle, firstSet uint32, sets ...vkquad.DescriptorSetHandle) {
	sets = append([]vkquad.DescriptorSetHandle(nil), sets...)
	d.record(cb, "bind descriptor sets", func(st *execState) error {
		layouts, ok := d.pipelineLayouts[layout]
		if !ok {
			return fmt.Errorf("pipeline layout %d does not exist", layout)
		}
		if int(firstSet)+len(sets) > len(layouts) {
			return fmt.Errorf("binding sets %d..%d, pipeline layout has %d", firstSet, int(firstSet)+len(sets)-1, len(layouts))
		}
		for i, s := range sets {
			if _, ok := d.sets[s]; !ok {
				return fmt.Errorf("descriptor set %d does not exist", s)
			}
			st.sets[firstSet+uint32(i)] = s
		}
		st.layout = layout
		return nil
	})
}

func (d *Device) CmdDrawIndexed(cb vkquad.CommandBufferHandle, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	d.record(cb, "draw indexed", func(st *execState) error {
		if st.index == 0 || st.vertex == 0 {
			return fmt.Errorf("draw without index and vertex buffers bound")
		}
		set, ok := st.sets[vkquad.TextureSet]
		if !ok {
			return fmt.Errorf("draw without descriptor set %d bound", vkquad.TextureSet)
		}
		if _, _, _, err := d.texture(set); err != nil {
			return err
		}

		_, ib, err := d.bufferBytes(st.index)
		if err != nil {
			return err
		}
		indices, err := readIndices(ib[st.indexOffset:], st.indexType, firstIndex, indexCount)
		if err != nil {
			return err
		}

		_, vb, err := d.bufferBytes(st.vertex)
		if err != nil {
			return err
		}
		vb = vb[st.vertexOff:]
		count := uint64(len(vb)) / uint64(vkquad.VertexSize)
		for _, i := range indices {
			v := int64(i) + int64(vertexOffset)
			if v < 0 || uint64(v) >= count {
				return fmt.Errorf("index %d outside the %d vertices bound", v, count)
			}
		}
		vertices := make([]vkquad.Vertex, count)
		if count > 0 {
			copy(unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), count*uint64(vkquad.VertexSize)), vb)
		}

		ds := d.sets[set]
		d.draws = append(d.draws, Draw{
			Set:            set,
			PipelineLayout: st.layout,
			View:           ds.writes[vkquad.TextureImageBinding].ImageView,
			Sampler:        ds.writes[vkquad.TextureSampler].Sampler,
			IndexCount:     indexCount,
			InstanceCount:  instanceCount,
			Indices:        indices,
			Vertices:       vertices,
		})
		return nil
	})
}

func readIndices(b []byte, t vkquad.IndexType, first, count uint32) ([]uint32, error) {
	size := uint64(2)
	if t == vkquad.IndexTypeUint32 {
		size = 4
	}
	if (uint64(first)+uint64(count))*size > uint64(len(b)) {
		return nil, fmt.Errorf("%d indices from %d exceed the %d byte index buffer", count, first, len(b))
	}
	out := make([]uint32, count)
	for i := range out {
		o := (uint64(first) + uint64(i)) * size
		if size == 2 {
			out[i] = uint32(b[o]) | uint32(b[o+1])<<8
		} else {
			out[i] = uint32(b[o]) | uint32(b[o+1])<<8 | uint32(b[o+2])<<16 | uint32(b[o+3])<<24
		}
	}
	return out, nil
}

// Draws returns every draw executed so far
func (d *Device) Draws() []Draw {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Draw(nil), d.draws...)
}

func (d *Device) CreateFence() (vkquad.FenceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpCreateFence); err != nil {
		return 0, err
	}
	h := vkquad.FenceHandle(d.handle())
	d.fences[h] = &fence{}
	return h, nil
}

func (d *Device) DestroyFence(f vkquad.FenceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fe, ok := d.fences[f]
	if !ok {
		d.violate("destroy fence %d: unknown handle", f)
		return
	}
	if fe.submitted {
		select {
		case <-fe.done:
		default:
			d.violate("destroy fence %d: work still pending", f)
		}
	}
	delete(d.fences, f)
}

// WaitForFence blocks until the work submitted with f has executed, and
// returns the first error that work ran into. A fence which was never
// submitted can not be signaled and times out at once.
func (d *Device) WaitForFence(f vkquad.FenceHandle, timeout time.Duration) error {
	d.mu.Lock()
	fe, ok := d.fences[f]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("wait for fence: unknown handle %d", f)
	}
	if !fe.submitted {
		return fmt.Errorf("wait for fence %d: timeout after %s, fence was never submitted", f, timeout)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-fe.done:
	case <-timer.C:
		return fmt.Errorf("wait for fence %d: timeout after %s", f, timeout)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpWaitForFence); err != nil {
		return err
	}
	return fe.err
}

// Queue returns the device's only queue
func (d *Device) Queue() *Queue {
	return &Queue{d: d}
}

// Queue executes command buffers on a background goroutine, one submission
// after the other.
type Queue struct {
	d *Device
}

// SubmitWithFence schedules buffers for execution. f, unless zero, is
// signaled once they have all executed.
func (q *Queue) SubmitWithFence(f vkquad.FenceHandle, buffers ...vkquad.CommandBufferHandle) error {
	d := q.d
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fail(OpSubmit); err != nil {
		return err
	}

	var fe *fence
	if f != 0 {
		var ok bool
		if fe, ok = d.fences[f]; !ok {
			return fmt.Errorf("submit: unknown fence %d", f)
		}
		if fe.submitted {
			return fmt.Errorf("submit: fence %d already in use", f)
		}
	}
	cbs := make([]*commandBuffer, 0, len(buffers))
	for _, h := range buffers {
		c, ok := d.commandBuffers[h]
		if !ok {
			return fmt.Errorf("submit: unknown command buffer %d", h)
		}
		if c.state != cbExecutable {
			return fmt.Errorf("submit: command buffer %d is %s", h, c.state)
		}
		cbs = append(cbs, c)
	}

	for _, c := range cbs {
		c.state = cbPending
	}
	done := make(chan struct{})
	if fe != nil {
		fe.submitted = true
		fe.done = done
	}
	prev := d.tail
	d.tail = done

	go func() {
		<-prev
		d.mu.Lock()
		err := d.execute(cbs)
		if fe != nil {
			fe.err = err
		}
		d.mu.Unlock()
		close(done)
	}()
	return nil
}

// execute runs cbs in order. Callers hold d.mu.
func (d *Device) execute(cbs []*commandBuffer) error {
	var errs []error
	for _, c := range cbs {
		st := &execState{sets: make(map[uint32]vkquad.DescriptorSetHandle)}
		for _, cmd := range c.cmds {
			if err := cmd.exec(st); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", cmd.name, err))
				break
			}
		}
		if c.oneTime {
			c.state = cbInvalid
		} else {
			c.state = cbExecutable
		}
	}
	return errors.Join(errs...)
}
