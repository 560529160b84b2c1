// Package softgpu is a device that lives entirely in host memory. It
// implements the vkquad capability interfaces, executes submitted command
// buffers asynchronously in submission order, and validates what a driver
// would leave undefined: image layouts on copies, usage flags, mapping of
// device local memory, teardown order and use of destroyed objects.
//
// It is the readback path for the tests of package vkquad and the default
// backend of the vkquad command.
package softgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/celer/vkquad"
)

var (
	_ vkquad.Device = (*Device)(nil)
	_ vkquad.Queue  = (*Queue)(nil)
)

// Op names a device operation for failure injection
type Op string

const (
	OpCreateBuffer              Op = "CreateBuffer"
	OpAllocateMemory            Op = "AllocateMemory"
	OpBindBufferMemory          Op = "BindBufferMemory"
	OpMapMemory                 Op = "MapMemory"
	OpCreateImage               Op = "CreateImage"
	OpBindImageMemory           Op = "BindImageMemory"
	OpCreateImageView           Op = "CreateImageView"
	OpCreateSampler             Op = "CreateSampler"
	OpCreateFence               Op = "CreateFence"
	OpWaitForFence              Op = "WaitForFence"
	OpSubmit                    Op = "Submit"
	OpAllocateCommandBuffer     Op = "AllocateCommandBuffer"
	OpBeginCommandBuffer        Op = "BeginCommandBuffer"
	OpCreateDescriptorSetLayout Op = "CreateDescriptorSetLayout"
	OpCreateDescriptorPool      Op = "CreateDescriptorPool"
	OpAllocateDescriptorSet     Op = "AllocateDescriptorSet"
	OpCreatePipelineLayout      Op = "CreatePipelineLayout"
)

// ErrInjected is returned by operations failed through FailNext with a nil
// error.
var ErrInjected = errors.New("softgpu: injected failure")

// Config describes the simulated hardware
type Config struct {
	// MemoryTypes is the memory type list, in index order.
	MemoryTypes []vkquad.MemoryType
	// BufferTypeBits and ImageTypeBits are reported in memory requirements.
	BufferTypeBits uint32
	ImageTypeBits  uint32
	// BufferAlignment and ImageAlignment round up required sizes.
	BufferAlignment uint64
	ImageAlignment  uint64
	// RowPitchAlignment is reported as the optimal copy row pitch alignment.
	RowPitchAlignment uint64
	// MemoryBudget caps the bytes allocated at once, 0 for no cap.
	MemoryBudget uint64
}

// DefaultConfig is a discrete GPU like layout: type 0 device local, type 1
// host visible and coherent, type 2 both. Buffers may live in any type,
// images only in device local ones.
func DefaultConfig() Config {
	return Config{
		MemoryTypes: []vkquad.MemoryType{
			{PropertyFlags: vkquad.MemoryPropertyDeviceLocal, HeapIndex: 0},
			{PropertyFlags: vkquad.MemoryPropertyHostVisible | vkquad.MemoryPropertyHostCoherent, HeapIndex: 1},
			{PropertyFlags: vkquad.MemoryPropertyDeviceLocal | vkquad.MemoryPropertyHostVisible | vkquad.MemoryPropertyHostCoherent, HeapIndex: 0},
		},
		BufferTypeBits:    0b111,
		ImageTypeBits:     0b101,
		BufferAlignment:   64,
		ImageAlignment:    256,
		RowPitchAlignment: 4,
	}
}

// Device is a software device. All methods are safe for concurrent use with
// the execution of submitted work.
type Device struct {
	mu  sync.Mutex
	cfg Config

	next      uint64
	allocated uint64

	buffers         map[vkquad.BufferHandle]*buffer
	memories        map[vkquad.MemoryHandle]*memory
	images          map[vkquad.ImageHandle]*image
	views           map[vkquad.ImageViewHandle]*view
	samplers        map[vkquad.SamplerHandle]vkquad.SamplerInfo
	fences          map[vkquad.FenceHandle]*fence
	commandPools    map[vkquad.CommandPoolHandle]struct{}
	commandBuffers  map[vkquad.CommandBufferHandle]*commandBuffer
	layouts         map[vkquad.DescriptorSetLayoutHandle][]vkquad.LayoutBinding
	pools           map[vkquad.DescriptorPoolHandle]*descriptorPool
	sets            map[vkquad.DescriptorSetHandle]*descriptorSet
	pipelineLayouts map[vkquad.PipelineLayoutHandle][]vkquad.DescriptorSetLayoutHandle

	failures   map[Op][]error
	violations []error
	draws      []Draw

	// tail is closed when the last submitted batch has executed
	tail chan struct{}
}

// New creates a device with cfg
func New(cfg Config) *Device {
	if cfg.BufferAlignment == 0 {
		cfg.BufferAlignment = 1
	}
	if cfg.ImageAlignment == 0 {
		cfg.ImageAlignment = 1
	}
	done := make(chan struct{})
	close(done)
	return &Device{
		cfg:             cfg,
		buffers:         make(map[vkquad.BufferHandle]*buffer),
		memories:        make(map[vkquad.MemoryHandle]*memory),
		images:          make(map[vkquad.ImageHandle]*image),
		views:           make(map[vkquad.ImageViewHandle]*view),
		samplers:        make(map[vkquad.SamplerHandle]vkquad.SamplerInfo),
		fences:          make(map[vkquad.FenceHandle]*fence),
		commandPools:    make(map[vkquad.CommandPoolHandle]struct{}),
		commandBuffers:  make(map[vkquad.CommandBufferHandle]*commandBuffer),
		layouts:         make(map[vkquad.DescriptorSetLayoutHandle][]vkquad.LayoutBinding),
		pools:           make(map[vkquad.DescriptorPoolHandle]*descriptorPool),
		sets:            make(map[vkquad.DescriptorSetHandle]*descriptorSet),
		pipelineLayouts: make(map[vkquad.PipelineLayoutHandle][]vkquad.DescriptorSetLayoutHandle),
		failures:        make(map[Op][]error),
		tail:            done,
	}
}

// NewDefault creates a device with DefaultConfig
func NewDefault() *Device {
	return New(DefaultConfig())
}

func (d *Device) handle() uint64 {
	d.next++
	return d.next
}

// FailNext makes the next call of op fail with err, or ErrInjected when err
// is nil. Several calls queue several failures.
func (d *Device) FailNext(op Op, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	d.failures[op] = append(d.failures[op], err)
}

// fail pops an injected failure for op. Callers hold d.mu.
func (d *Device) fail(op Op) error {
	q := d.failures[op]
	if len(q) == 0 {
		return nil
	}
	err := q[0]
	d.failures[op] = q[1:]
	return fmt.Errorf("%s: %w", op, err)
}

// violate records misuse which a real driver would not report. Callers hold
// d.mu.
func (d *Device) violate(format string, args ...any) {
	d.violations = append(d.violations, fmt.Errorf(format, args...))
}

// Violations returns every misuse recorded so far
func (d *Device) Violations() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]error(nil), d.violations...)
}

// Live counts the objects of each kind which have not been destroyed.
// Descriptor sets are freed with their pool and are not counted.
func (d *Device) Live() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	live := map[string]int{
		"buffer":                len(d.buffers),
		"memory":                len(d.memories),
		"image":                 len(d.images),
		"view":                  len(d.views),
		"sampler":               len(d.samplers),
		"fence":                 len(d.fences),
		"command pool":          len(d.commandPools),
		"command buffer":        len(d.commandBuffers),
		"descriptor set layout": len(d.layouts),
		"descriptor pool":       len(d.pools),
		"pipeline layout":       len(d.pipelineLayouts),
	}
	for k, v := range live {
		if v == 0 {
			delete(live, k)
		}
	}
	return live
}

// Allocated is the number of bytes of memory currently allocated
func (d *Device) Allocated() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocated
}

func (d *Device) MemoryProperties() vkquad.MemoryProperties {
	return vkquad.MemoryProperties{MemoryTypes: append([]vkquad.MemoryType(nil), d.cfg.MemoryTypes...)}
}

func (d *Device) Limits() vkquad.Limits {
	return vkquad.Limits{OptimalBufferCopyRowPitchAlignment: d.cfg.RowPitchAlignment}
}

// WaitIdle blocks until all submitted work has executed
func (d *Device) WaitIdle() {
	d.mu.Lock()
	tail := d.tail
	d.mu.Unlock()
	<-tail
}

func alignUp(a, align uint64) uint64 {
	if align <= 1 {
		return a
	}
	return (a + align - 1) / align * align
}
