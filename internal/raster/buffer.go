package raster

import (
	"image"
	"image/color"
	"sync/atomic"

	"agent-compositor/internal/scene"
)

// FrameBuffer holds the rendering target as flat slices for cache locality.
// It is owned by one composite pass at a time and reused across frames.
type FrameBuffer struct {
	Width      int
	Height     int
	Background color.NRGBA
	Depth      []int32 // depth per pixel, len = W*H, reset to scene.SentinelDepth
	Color      []uint8 // NRGBA interleaved, len = W*H*4, reset to Background

	cells []atomic.Uint64 // packed (depth, object) cells for ModeConcurrent, allocated on first use
}

// NewFrameBuffer allocates a w×h buffer in its reset state.
func NewFrameBuffer(w, h int, bg color.NRGBA) *FrameBuffer {
	n := w * h
	fb := &FrameBuffer{
		Width:      w,
		Height:     h,
		Background: bg,
		Depth:      make([]int32, n),
		Color:      make([]uint8, n*4),
	}
	fb.Reset()
	return fb
}

// Reset restores every depth cell to the sentinel and every color cell to
// the background.
func (fb *FrameBuffer) Reset() {
	if len(fb.Depth) == 0 {
		return
	}
	fb.Depth[0] = scene.SentinelDepth
	for i := 1; i < len(fb.Depth); i *= 2 {
		copy(fb.Depth[i:], fb.Depth[:i])
	}

	bg := fb.Background
	copy(fb.Color, []uint8{bg.R, bg.G, bg.B, bg.A})
	for i := 4; i < len(fb.Color); i *= 2 {
		copy(fb.Color[i:], fb.Color[:i])
	}
}

// Bounds returns the frame rectangle in frame coordinates.
func (fb *FrameBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// DepthAt returns the depth stored at row y, column x.
func (fb *FrameBuffer) DepthAt(y, x int) int32 {
	return fb.Depth[y*fb.Width+x]
}

// ColorAt returns the color stored at row y, column x.
func (fb *FrameBuffer) ColorAt(y, x int) color.NRGBA {
	i := (y*fb.Width + x) * 4
	return color.NRGBA{R: fb.Color[i], G: fb.Color[i+1], B: fb.Color[i+2], A: fb.Color[i+3]}
}

// Image copies the color grid into a new NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(fb.Bounds())
	copy(img.Pix, fb.Color)
	return img
}

// CopyTo copies the color grid into dst, which must match the frame size.
func (fb *FrameBuffer) CopyTo(dst *image.NRGBA) {
	for y := 0; y < fb.Height; y++ {
		off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[off:off+fb.Width*4], fb.Color[y*fb.Width*4:(y+1)*fb.Width*4])
	}
}
