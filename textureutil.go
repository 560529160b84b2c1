package vkquad

import (
	"fmt"
	"time"
)

// Orientation selects the vertical order in which source rows are staged
type Orientation int

const (
	// TopDown keeps the source orientation: source row 0 becomes image row 0.
	TopDown Orientation = iota
	// FlipVertical stages the last source row as image row 0.
	FlipVertical
)

func (o Orientation) String() string {
	if o == FlipVertical {
		return "flip"
	}
	return "topdown"
}

// UploadOptions tune Upload. The zero value is valid.
type UploadOptions struct {
	// MinRowAlignment is the byte alignment of each staged row. Zero uses the
	// device's optimal buffer copy row pitch alignment.
	MinRowAlignment uint64
	Orientation     Orientation
	Sampler         SamplerInfo
	// Readable adds transfer source usage so the image can be read back.
	Readable bool
	// Timeout bounds the fence wait, DefaultFenceTimeout when zero.
	Timeout time.Duration
}

// RowPitch rounds rowSize up to the next multiple of alignment. An alignment
// of zero or one leaves rowSize unchanged.
func RowPitch(rowSize, alignment uint64) uint64 {
	if alignment <= 1 {
		return rowSize
	}
	return (rowSize + alignment - 1) / alignment * alignment
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// copyAlignment is the smallest alignment which is a multiple of both the
// requested row alignment and the texel size, so that a padded row is always
// a whole number of texels.
func copyAlignment(alignment uint64) uint64 {
	if alignment <= 1 {
		return BytesPerPixel
	}
	return alignment / gcd(alignment, BytesPerPixel) * BytesPerPixel
}

// StageRows copies height rows of rowSize bytes from src into dst, placing
// destination row i at i*pitch. With FlipVertical source rows are taken from
// the bottom up.
func StageRows(dst, src []byte, rowSize, pitch uint64, height uint32, o Orientation) {
	for y := uint64(0); y < uint64(height); y++ {
		sy := y
		if o == FlipVertical {
			sy = uint64(height) - 1 - y
		}
		copy(dst[y*pitch:y*pitch+rowSize], src[sy*rowSize:(sy+1)*rowSize])
	}
}

// UnstageRows is the inverse of StageRows with TopDown orientation, it packs
// padded rows from src into dst.
func UnstageRows(dst, src []byte, rowSize, pitch uint64, height uint32) {
	for y := uint64(0); y < uint64(height); y++ {
		copy(dst[y*rowSize:(y+1)*rowSize], src[y*pitch:y*pitch+rowSize])
	}
}

// TransitionImageLayout returns the barrier moving image from oldLayout to
// newLayout, with the access masks and pipeline stages of that transition.
func TransitionImageLayout(image ImageHandle, oldLayout, newLayout ImageLayout) (ImageBarrier, error) {
	b := ImageBarrier{
		Image:     image,
		OldLayout: oldLayout,
		NewLayout: newLayout,
	}

	switch {
	case oldLayout == ImageLayoutUndefined && newLayout == ImageLayoutTransferDstOptimal:
		b.SrcAccess = 0
		b.DstAccess = AccessTransferWrite
		b.SrcStage = PipelineStageTopOfPipe
		b.DstStage = PipelineStageTransfer

	case oldLayout == ImageLayoutTransferDstOptimal && newLayout == ImageLayoutShaderReadOnlyOptimal:
		b.SrcAccess = AccessTransferWrite
		b.DstAccess = AccessShaderRead
		b.SrcStage = PipelineStageTransfer
		b.DstStage = PipelineStageFragmentShader

	case oldLayout == ImageLayoutShaderReadOnlyOptimal && newLayout == ImageLayoutTransferSrcOptimal:
		b.SrcAccess = AccessShaderRead
		b.DstAccess = AccessTransferRead
		b.SrcStage = PipelineStageFragmentShader
		b.DstStage = PipelineStageTransfer

	case oldLayout == ImageLayoutTransferSrcOptimal && newLayout == ImageLayoutShaderReadOnlyOptimal:
		b.SrcAccess = 0
		b.DstAccess = AccessShaderRead
		b.SrcStage = PipelineStageTransfer
		b.DstStage = PipelineStageFragmentShader

	default:
		return b, fmt.Errorf("unsupported layout transition %s -> %s", oldLayout, newLayout)
	}
	return b, nil
}

// Upload stages pixels (tightly packed 8 bit RGBA, top row first) into a new
// device local image and returns it with a view and sampler. The call blocks
// until the device has finished the transfer. Either a complete
// ImageResource is returned or nothing is left allocated.
func Upload(dev Device, queue Queue, pool CommandPoolHandle, pixels []byte, width, height int, opts UploadOptions) (*ImageResource, error) {
	const op = "upload"

	if width <= 0 || height <= 0 {
		return nil, newError(op, ErrInvalidImage, fmt.Errorf("size %dx%d", width, height))
	}
	rowSize := uint64(width) * BytesPerPixel
	if uint64(len(pixels)) < rowSize*uint64(height) {
		return nil, newError(op, ErrInvalidImage, fmt.Errorf("%d bytes of pixel data for %dx%d", len(pixels), width, height))
	}

	alignment := opts.MinRowAlignment
	if alignment == 0 {
		alignment = dev.Limits().OptimalBufferCopyRowPitchAlignment
	}
	pitch := RowPitch(rowSize, copyAlignment(alignment))

	staging, err := CreateBufferResource(dev, pitch*uint64(height), BufferUsageTransferSrc)
	if err != nil {
		return nil, withOp(err, op)
	}
	defer staging.Release(dev)

	err = staging.Map(dev, ByteRange{Size: staging.Size}, func(mapped []byte) error {
		StageRows(mapped, pixels, rowSize, pitch, uint32(height), opts.Orientation)
		return nil
	})
	if err != nil {
		return nil, withOp(err, op)
	}

	usage := ImageUsageTransferDst | ImageUsageSampled
	if opts.Readable {
		usage |= ImageUsageTransferSrc
	}
	img, err := createImageResource(dev, op, ImageInfo{
		Width:     uint32(width),
		Height:    uint32(height),
		Depth:     1,
		MipLevels: 1,
		Format:    FormatR8G8B8A8Unorm,
		Tiling:    ImageTilingOptimal,
		Usage:     usage,
	}, opts.Sampler)
	if err != nil {
		return nil, err
	}

	err = runOneTime(dev, queue, pool, op, opts.Timeout, func(cb CommandBufferHandle) error {
		toDst, err := TransitionImageLayout(img.Image, ImageLayoutUndefined, ImageLayoutTransferDstOptimal)
		if err != nil {
			return err
		}
		toShader, err := TransitionImageLayout(img.Image, ImageLayoutTransferDstOptimal, ImageLayoutShaderReadOnlyOptimal)
		if err != nil {
			return err
		}

		dev.CmdPipelineBarrier(cb, toDst)
		dev.CmdCopyBufferToImage(cb, staging.Buffer, img.Image, ImageLayoutTransferDstOptimal, BufferImageCopy{
			BufferOffset:    0,
			BufferRowLength: uint32(pitch / BytesPerPixel),
			Width:           uint32(width),
			Height:          uint32(height),
		})
		dev.CmdPipelineBarrier(cb, toShader)
		return nil
	})
	if err != nil {
		img.Release(dev)
		return nil, err
	}

	return img, nil
}

// runOneTime allocates a command buffer from pool, records it with record,
// submits it with a fresh fence and waits for that fence. The fence and the
// command buffer are gone when it returns.
func runOneTime(dev Device, queue Queue, pool CommandPoolHandle, op string, timeout time.Duration, record func(cb CommandBufferHandle) error) error {
	if timeout <= 0 {
		timeout = DefaultFenceTimeout
	}

	cb, err := dev.AllocateCommandBuffer(pool)
	if err != nil {
		return newError(op, ErrCommandBuffer, err)
	}
	defer dev.FreeCommandBuffer(pool, cb)

	if err := dev.BeginCommandBuffer(cb, true); err != nil {
		return newError(op, ErrRecording, err)
	}
	if err := record(cb); err != nil {
		dev.EndCommandBuffer(cb)
		return newError(op, ErrRecording, err)
	}
	if err := dev.EndCommandBuffer(cb); err != nil {
		return newError(op, ErrRecording, err)
	}

	fence, err := dev.CreateFence()
	if err != nil {
		return newError(op, ErrFenceCreation, err)
	}
	defer dev.DestroyFence(fence)

	if err := queue.SubmitWithFence(fence, cb); err != nil {
		return newError(op, ErrSubmit, err)
	}

	if err := dev.WaitForFence(fence, timeout); err != nil {
		return newError(op, ErrFenceWait, err)
	}
	return nil
}

func withOp(err error, op string) error {
	if e, ok := err.(*Error); ok {
		return &Error{Op: op + ": " + e.Op, Step: e.Step, Err: e.Err}
	}
	return err
}
