package vkquad

import (
	"fmt"
)

// ByteRange is a region of a buffer, in bytes
type ByteRange struct {
	Offset uint64
	Size   uint64
}

// BufferResource is a buffer together with the host visible memory bound to
// it. The device is not stored, so the owner must call Release with the
// device the buffer was created on.
type BufferResource struct {
	Buffer       BufferHandle
	Memory       MemoryHandle
	Size         uint64
	Requirements MemoryRequirements

	released bool
}

// CreateBufferResource creates a buffer of size bytes, allocates host visible
// and coherent memory of the size the device requires for it, and binds the
// two. On failure nothing is left allocated.
func CreateBufferResource(dev MemoryDevice, size uint64, usage BufferUsage) (*BufferResource, error) {
	const op = "create buffer"

	buffer, err := dev.CreateBuffer(size, usage)
	if err != nil {
		return nil, newError(op, ErrBufferCreation, err)
	}

	mr := dev.BufferMemoryRequirements(buffer)

	memory, err := allocateFor(dev, op, mr, HostVisibleCoherent)
	if err != nil {
		dev.DestroyBuffer(buffer)
		return nil, err
	}

	if err := dev.BindBufferMemory(buffer, memory, 0); err != nil {
		dev.DestroyBuffer(buffer)
		dev.FreeMemory(memory)
		return nil, newError(op, ErrMemoryBind, err)
	}

	return &BufferResource{
		Buffer:       buffer,
		Memory:       memory,
		Size:         size,
		Requirements: mr,
	}, nil
}

// Write copies data into r of the buffer through a host mapping. The mapping
// is released on every path out of Write.
func (b *BufferResource) Write(dev MemoryDevice, r ByteRange, data []byte) error {
	const op = "write buffer"

	if uint64(len(data)) > r.Size {
		return newError(op, ErrRangeOverflow, fmt.Errorf("%d bytes into range of %d", len(data), r.Size))
	}
	if r.Offset > b.Size || r.Size > b.Size-r.Offset {
		return newError(op, ErrRangeOverflow, fmt.Errorf("range [%d,+%d) outside buffer of %d bytes", r.Offset, r.Size, b.Size))
	}
	if len(data) == 0 {
		return nil
	}

	return b.Map(dev, r, func(mapped []byte) error {
		copy(mapped, data)
		return nil
	})
}

// Map maps r of the buffer, hands the mapping to fn and unmaps it again
// whether or not fn succeeds. The slice must not be retained past fn.
func (b *BufferResource) Map(dev MemoryDevice, r ByteRange, fn func(mapped []byte) error) error {
	const op = "map buffer"

	if r.Offset > b.Size || r.Size > b.Size-r.Offset {
		return newError(op, ErrRangeOverflow, fmt.Errorf("range [%d,+%d) outside buffer of %d bytes", r.Offset, r.Size, b.Size))
	}

	mapped, err := dev.MapMemory(b.Memory, r.Offset, r.Size)
	if err != nil {
		return newError(op, ErrMapAcquire, err)
	}
	defer dev.UnmapMemory(b.Memory)

	if uint64(len(mapped)) < r.Size {
		return newError(op, ErrMapAcquire, fmt.Errorf("mapped %d bytes, wanted %d", len(mapped), r.Size))
	}
	return fn(mapped[:r.Size])
}

// WriteAll writes data at the start of the buffer
func (b *BufferResource) WriteAll(dev MemoryDevice, data []byte) error {
	return b.Write(dev, ByteRange{Offset: 0, Size: b.Size}, data)
}

// Read copies r of the buffer out through a host mapping
func (b *BufferResource) Read(dev MemoryDevice, r ByteRange) ([]byte, error) {
	const op = "read buffer"

	if r.Offset > b.Size || r.Size > b.Size-r.Offset {
		return nil, newError(op, ErrRangeOverflow, fmt.Errorf("range [%d,+%d) outside buffer of %d bytes", r.Offset, r.Size, b.Size))
	}
	out := make([]byte, r.Size)
	if r.Size == 0 {
		return out, nil
	}

	err := b.Map(dev, r, func(mapped []byte) error {
		copy(out, mapped)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Release destroys the buffer and then frees its memory. Calls after the
// first do nothing.
func (b *BufferResource) Release(dev MemoryDevice) {
	if b == nil || b.released {
		return
	}
	b.released = true
	dev.DestroyBuffer(b.Buffer)
	dev.FreeMemory(b.Memory)
}

// Released reports whether Release has been called
func (b *BufferResource) Released() bool {
	return b.released
}

func (b *BufferResource) String() string {
	return fmt.Sprintf("{ Buffer: %d Memory: %d Size: %d Required: %d }", b.Buffer, b.Memory, b.Size, b.Requirements.Size)
}
