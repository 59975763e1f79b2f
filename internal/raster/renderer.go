package raster

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"agent-compositor/internal/logging"
	"agent-compositor/internal/scene"
)

// RenderScene runs one full pass: validate the graph, resolve absolute
// offsets, reset fb and composite. A malformed graph returns an error
// before fb is touched.
func RenderScene(fb *FrameBuffer, s *scene.Scene, opts Options) (Stats, error) {
	if err := s.Validate(); err != nil {
		return Stats{}, fmt.Errorf("raster: render: %w", err)
	}

	start := time.Now()
	if opts.Mode != ModeRecursive {
		scene.Resolve(s)
	}
	fb.Reset()
	st := Composite(fb, s, opts)

	logging.L().Debug("composite",
		"mode", opts.Mode,
		"objects", s.Len(),
		"drawn", st.Drawn,
		"offscreen", st.Offscreen,
		"failed", len(st.Failed),
		"elapsed", time.Since(start))
	return st, nil
}

// RenderImage renders s into a new w×h buffer and returns the color grid.
func RenderImage(s *scene.Scene, w, h int, opts Options) (*image.NRGBA, Stats, error) {
	fb := NewFrameBuffer(w, h, color.NRGBA{})
	st, err := RenderScene(fb, s, opts)
	if err != nil {
		return nil, st, err
	}
	return fb.Image(), st, nil
}
