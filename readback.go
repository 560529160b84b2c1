package vkquad

import (
	"fmt"
	"time"
)

// ReadImage copies the contents of img, which must be in the shader read
// layout and have been created readable, back to host memory. It returns
// tightly packed RGBA rows, top row first, and leaves img in the shader read
// layout. Like Upload it blocks on a fence.
func ReadImage(dev Device, queue Queue, pool CommandPoolHandle, img *ImageResource, timeout time.Duration) ([]byte, error) {
	const op = "read image"

	if img == nil || img.Released() {
		return nil, newError(op, ErrInvalidImage, fmt.Errorf("image is nil or released"))
	}
	if img.Usage&ImageUsageTransferSrc == 0 {
		return nil, newError(op, ErrInvalidImage, fmt.Errorf("image %d was not created readable", img.Image))
	}

	rowSize := uint64(img.Width) * BytesPerPixel
	pitch := RowPitch(rowSize, copyAlignment(dev.Limits().OptimalBufferCopyRowPitchAlignment))

	readback, err := CreateBufferResource(dev, pitch*uint64(img.Height), BufferUsageTransferDst)
	if err != nil {
		return nil, withOp(err, op)
	}
	defer readback.Release(dev)

	err = runOneTime(dev, queue, pool, op, timeout, func(cb CommandBufferHandle) error {
		toSrc, err := TransitionImageLayout(img.Image, ImageLayoutShaderReadOnlyOptimal, ImageLayoutTransferSrcOptimal)
		if err != nil {
			return err
		}
		back, err := TransitionImageLayout(img.Image, ImageLayoutTransferSrcOptimal, ImageLayoutShaderReadOnlyOptimal)
		if err != nil {
			return err
		}

		dev.CmdPipelineBarrier(cb, toSrc)
		dev.CmdCopyImageToBuffer(cb, img.Image, ImageLayoutTransferSrcOptimal, readback.Buffer, BufferImageCopy{
			BufferRowLength: uint32(pitch / BytesPerPixel),
			Width:           img.Width,
			Height:          img.Height,
		})
		dev.CmdPipelineBarrier(cb, back)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]byte, rowSize*uint64(img.Height))
	err = readback.Map(dev, ByteRange{Size: readback.Size}, func(mapped []byte) error {
		UnstageRows(out, mapped, rowSize, pitch, img.Height)
		return nil
	})
	if err != nil {
		return nil, withOp(err, op)
	}
	return out, nil
}
