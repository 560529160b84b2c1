package vkquad

import (
	"fmt"
)

// FindMemoryType returns the lowest memory type index which is allowed by
// memoryTypeBits and offers every flag in required. It never falls back to a
// type missing one of the required properties.
//
// Bit i of memoryTypeBits set means memory type i may back the resource, see
// the documentation of VkMemoryRequirements.
func FindMemoryType(props MemoryProperties, memoryTypeBits uint32, required MemoryPropertyFlags) (uint32, error) {
	for i, mt := range props.MemoryTypes {
		if i >= 32 {
			break
		}
		if memoryTypeBits&(1<<uint(i)) != 0 && mt.PropertyFlags&required == required {
			return uint32(i), nil
		}
	}
	return 0, newError("find memory type", ErrNoCompatibleMemoryType,
		fmt.Errorf("type bits %#b, required %s, %d types", memoryTypeBits, required, len(props.MemoryTypes)))
}

// allocateFor finds a memory type for mr with the required properties and
// allocates mr.Size bytes of it.
func allocateFor(dev MemoryDevice, op string, mr MemoryRequirements, required MemoryPropertyFlags) (MemoryHandle, error) {
	index, err := FindMemoryType(dev.MemoryProperties(), mr.MemoryTypeBits, required)
	if err != nil {
		e := err.(*Error)
		e.Op = op
		return 0, e
	}
	mem, err := dev.AllocateMemory(mr.Size, index)
	if err != nil {
		return 0, newError(op, ErrMemoryAllocation, err)
	}
	return mem, nil
}
