package vkquad

import (
	"errors"
	"fmt"
)

// Error categories. Every failure returned by this package matches exactly
// one of these with errors.Is.
var (
	ErrAllocation             = errors.New("allocation failure")
	ErrMapping                = errors.New("mapping failure")
	ErrSynchronization        = errors.New("synchronization failure")
	ErrDescriptor             = errors.New("descriptor failure")
	ErrRangeOverflow          = errors.New("range overflow")
	ErrNoCompatibleMemoryType = errors.New("no compatible memory type")
)

// Step errors identify which step of a multi-step operation failed. Each
// wraps its category.
var (
	ErrBufferCreation   = &stepError{"buffer creation failed", ErrAllocation}
	ErrMemoryAllocation = &stepError{"memory allocation failed", ErrAllocation}
	ErrMemoryBind       = &stepError{"memory bind failed", ErrAllocation}
	ErrImageCreation    = &stepError{"image creation failed", ErrAllocation}
	ErrViewCreation     = &stepError{"view creation failed", ErrAllocation}
	ErrSamplerCreation  = &stepError{"sampler creation failed", ErrAllocation}
	ErrCommandBuffer    = &stepError{"command buffer allocation failed", ErrAllocation}
	ErrInvalidImage     = &stepError{"invalid image data", ErrAllocation}

	ErrMapAcquire = &stepError{"map acquire failed", ErrMapping}

	ErrFenceCreation = &stepError{"fence creation failed", ErrSynchronization}
	ErrFenceWait     = &stepError{"fence wait failed", ErrSynchronization}
	ErrRecording     = &stepError{"command recording failed", ErrSynchronization}
	ErrSubmit        = &stepError{"queue submit failed", ErrSynchronization}

	ErrLayoutCreation = &stepError{"descriptor set layout creation failed", ErrDescriptor}
	ErrPoolCreation   = &stepError{"descriptor pool creation failed", ErrDescriptor}
	ErrSetAllocation  = &stepError{"descriptor set allocation failed", ErrDescriptor}
	ErrPoolExhausted  = &stepError{"descriptor pool exhausted", ErrDescriptor}
	ErrInvalidState   = &stepError{"invalid descriptor binder state", ErrDescriptor}
)

type stepError struct {
	msg      string
	category error
}

func (e *stepError) Error() string { return e.msg }

func (e *stepError) Unwrap() error { return e.category }

// Error is returned by every fallible operation in this package. Step is one
// of the step or category errors above, Err is the underlying backend error
// and may be nil.
type Error struct {
	Op   string
	Step error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Step)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Step, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Step}
	}
	return []error{e.Step, e.Err}
}

func newError(op string, step error, err error) *Error {
	return &Error{Op: op, Step: step, Err: err}
}
