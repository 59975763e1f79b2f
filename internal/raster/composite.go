package raster

import (
	"fmt"
	"image"
	"runtime"
	"strings"

	"agent-compositor/internal/logging"
	"agent-compositor/internal/scene"

	"golang.org/x/sync/errgroup"
)

// Mode selects how objects are scheduled during a composite pass.
type Mode int

const (
	// ModeSequential draws objects one at a time in ascending id order and
	// splits each object's clipped rows across goroutines.
	ModeSequential Mode = iota

	// ModeConcurrent draws all objects at once. Each pixel is a packed
	// (depth, object) cell updated by compare-and-swap, so the result is
	// the same as ModeSequential, ties included.
	ModeConcurrent

	// ModeRecursive walks the tree depth-first and accumulates offsets on
	// the way down instead of reading resolved absolute offsets. Depth ties
	// resolve in walk order.
	ModeRecursive
)

var modeNames = [...]string{"sequential", "concurrent", "recursive"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("raster: unknown composite mode %q", s)
}

// Options controls a composite pass.
type Options struct {
	Mode    Mode
	Workers int // goroutine limit, <= 0 means GOMAXPROCS
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// ObjectError records an object skipped because of bad image data.
type ObjectError struct {
	ID  int
	Err error
}

func (e ObjectError) Error() string {
	return fmt.Sprintf("object %d: %v", e.ID, e.Err)
}

func (e ObjectError) Unwrap() error { return e.Err }

// Stats summarizes one composite pass.
type Stats struct {
	Drawn      int // objects whose clipped rectangle was non-empty
	Offscreen  int // objects whose rectangle misses the frame
	Structural int // objects without an image
	Failed     []ObjectError
}

// minBandPixels is the smallest clipped area worth splitting across goroutines.
const minBandPixels = 64 * 1024

// sprite is one drawable object: its image placed at a frame offset.
type sprite struct {
	id    int
	img   *scene.Image
	at    scene.Point
	depth int32
	clip  image.Rectangle
}

// Composite draws every object of s into fb. ModeSequential and
// ModeConcurrent read the absolute offsets written by scene.Resolve;
// ModeRecursive computes them on the fly. The buffer is not reset first.
//
// A pixel is overwritten only when the stored depth is strictly greater
// than the object's depth, so among equal depths the object drawn first
// (lowest id) keeps the pixel.
func Composite(fb *FrameBuffer, s *scene.Scene, opts Options) Stats {
	var st Stats
	var list []sprite

	add := func(o *scene.Object, at scene.Point) {
		if o.Image == nil {
			st.Structural++
			return
		}
		if err := o.Image.Check(); err != nil {
			logging.L().Warn("skipping object", "id", o.ID, "err", err)
			st.Failed = append(st.Failed, ObjectError{ID: o.ID, Err: err})
			return
		}
		r := o.Image.Bounds(at).Intersect(fb.Bounds())
		if r.Empty() {
			st.Offscreen++
			return
		}
		st.Drawn++
		list = append(list, sprite{id: o.ID, img: o.Image, at: at, depth: o.Depth, clip: r})
	}

	if opts.Mode == ModeRecursive {
		scene.Walk(s, add)
	} else {
		objs := s.Objects()
		for i := range objs {
			add(&objs[i], objs[i].Abs)
		}
	}

	if opts.Mode == ModeConcurrent {
		compositeConcurrent(fb, list, opts.workers())
	} else {
		for i := range list {
			drawSprite(fb, &list[i], opts.workers())
		}
	}
	return st
}

// drawSprite draws one clipped object. Every pixel of a single object maps
// to a distinct frame cell, so row bands never race.
func drawSprite(fb *FrameBuffer, sp *sprite, workers int) {
	r := sp.clip
	if workers <= 1 || r.Dx()*r.Dy() < minBandPixels {
		drawRows(fb, sp, r.Min.Y, r.Max.Y)
		return
	}

	band := (r.Dy() + workers - 1) / workers
	var g errgroup.Group
	for y := r.Min.Y; y < r.Max.Y; y += band {
		y0, y1 := y, min(y+band, r.Max.Y)
		g.Go(func() error {
			drawRows(fb, sp, y0, y1)
			return nil
		})
	}
	g.Wait()
}

// drawRows is the hot path: depth test and copy for rows [y0, y1) of the clip.
func drawRows(fb *FrameBuffer, sp *sprite, y0, y1 int) {
	x0, x1 := sp.clip.Min.X, sp.clip.Max.X
	stride := sp.img.Width * 4
	depth := sp.depth
	for y := y0; y < y1; y++ {
		row := y * fb.Width
		src := (y-sp.at.Y)*stride + (x0-sp.at.X)*4
		for x := x0; x < x1; x, src = x+1, src+4 {
			i := row + x
			if fb.Depth[i] > depth {
				fb.Depth[i] = depth
				copy(fb.Color[i*4:i*4+4], sp.img.Pix[src:src+4])
			}
		}
	}
}
