/*
Package vkquad manages the GPU resources of a minimal textured, indexed quad: device buffers
and images, the staged upload of CPU pixel data into device local memory, and the descriptor
set which exposes the resulting texture to a fragment shader.

The package is written against a small set of device capability interfaces (see Device) rather
than a concrete graphics API. The vulkan sub package implements them on top of Vulkan, the
softgpu sub package implements them in host memory and is what the tests run against.

Terms
	Device local memory	memory resident on the GPU, fast for the GPU, not mappable by the host
	Host visible memory	memory the application can map and write directly
	Staging buffer		a temporary host visible buffer copied into device local memory by the GPU
	Row pitch		the byte stride between rows in a buffer, possibly larger than a row
	Pipeline barrier	a command ordering writes before reads and changing an image's layout
	Descriptor set		a group of bindings exposing resources to shaders at fixed slots
	Fence			a host waitable object signaled when submitted work completes

A typical sequence is:

	1. Upload the texture: Upload creates a staging buffer, copies the pixel rows into it at the
	   device's row pitch, creates the image, records two layout transitions around a buffer to
	   image copy, submits the work with a fence and waits for it.
	2. Create a DescriptorBinder, a pool and a set, and write the image view and sampler into it.
	3. Create a QuadRenderer which owns the vertex and index buffers of the quad.
	4. Every frame: Update the quad geometry, then Draw it into the frame's command buffer.
	5. Once the device is idle, Release everything in reverse order of creation.

Resource lifetime

None of the resource types hold a reference to the device which created them, so none of them can
free themselves. Each has a Release method taking the device; it must be called from a well
defined point in the owner's teardown, after any command buffer using the resource has retired.
Release is guarded so that calling it twice does nothing.

Errors

Every failure is an *Error naming the operation and the step which failed. Steps (for example
ErrImageCreation or ErrPoolExhausted) wrap one of the categories ErrAllocation, ErrMapping,
ErrSynchronization, ErrDescriptor, ErrRangeOverflow or ErrNoCompatibleMemoryType, so callers can
test for either with errors.Is. Nothing is retried, and nothing is logged by this package.
*/
package vkquad
