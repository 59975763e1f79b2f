// Package viewer shows the stream hub's frames in a desktop window and
// forwards the window's mouse and keyboard input to the agent.
package viewer

import (
	"math"

	"agent-compositor/internal/input"
	"agent-compositor/internal/stream"
)

// Options configures the window.
type Options struct {
	Title       string
	FrameWidth  int // logical frame size, input coordinates use this space
	FrameHeight int
	MaxWidth    int // window is shrunk to fit inside MaxWidth×MaxHeight
	MaxHeight   int
	Hub         *stream.Hub
	Queues      input.Queues
}

// windowSize shrinks w×h to fit inside maxW×maxH keeping the aspect ratio.
// Frames that already fit are shown at full size.
func windowSize(w, h, maxW, maxH int) (int, int) {
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}
	s := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(1, int(math.Round(float64(w)*s))), max(1, int(math.Round(float64(h)*s)))
}

// fitScale returns the factor that draws a srcW×srcH image over dstW×dstH.
func fitScale(srcW, srcH, dstW, dstH int) (float64, float64) {
	if srcW == 0 || srcH == 0 {
		return 1, 1
	}
	return float64(dstW) / float64(srcW), float64(dstH) / float64(srcH)
}
