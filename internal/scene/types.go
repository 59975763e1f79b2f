package scene

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	// ErrMalformedSceneGraph reports a child id not greater than its parent's,
	// a child with two parents, or a reference to an unknown parent.
	ErrMalformedSceneGraph = errors.New("scene: malformed scene graph")

	// ErrBufferSizeMismatch reports pixel data that does not match the declared image size.
	ErrBufferSizeMismatch = errors.New("scene: image buffer size mismatch")

	// ErrDepthRange reports a depth key at or above SentinelDepth.
	ErrDepthRange = errors.New("scene: depth key out of range")

	// ErrUnknownObject reports an id outside the scene.
	ErrUnknownObject = errors.New("scene: unknown object")
)

// SentinelDepth marks an empty pixel in a depth grid. Legal depth keys are strictly smaller.
const SentinelDepth int32 = math.MaxInt32

// Root is the parent value of a tree root.
const Root = -1

// Point is an integer (y, x) pair. Rows come first, matching frame indexing.
type Point struct {
	Y, X int
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{Y: p.Y + q.Y, X: p.X + q.X}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Y, p.X)
}

// Image is an immutable grid of color samples, NRGBA interleaved, row-major with no padding.
type Image struct {
	Width  int
	Height int
	Pix    []uint8 // len = Width*Height*4
}

// NewImage wraps pix as a Width×Height image. The slice is not copied and must not be
// modified afterwards.
func NewImage(w, h int, pix []uint8) (*Image, error) {
	img := &Image{Width: w, Height: h, Pix: pix}
	if err := img.Check(); err != nil {
		return nil, err
	}
	return img, nil
}

// FromNRGBA copies an *image.NRGBA into an Image, dropping any stride padding.
func FromNRGBA(src *image.NRGBA) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*w*4:(y+1)*w*4], src.Pix[off:off+w*4])
	}
	return &Image{Width: w, Height: h, Pix: pix}
}

// Check verifies the declared dimensions against the sample data.
func (img *Image) Check() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBufferSizeMismatch, img.Width, img.Height)
	}
	if want := img.Width * img.Height * 4; len(img.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, have %d",
			ErrBufferSizeMismatch, img.Width, img.Height, want, len(img.Pix))
	}
	return nil
}

// Bounds returns the image rectangle placed at the absolute offset at.
func (img *Image) Bounds(at Point) image.Rectangle {
	return image.Rect(at.X, at.Y, at.X+img.Width, at.Y+img.Height)
}

// Object is one node of the scene graph.
type Object struct {
	ID     int
	Parent int   // Root for tree roots
	Rel    Point // offset relative to the parent's origin, ignored for roots
	Abs    Point // frame-space offset, written by Resolve
	Depth  int32 // smaller is nearer
	Image  *Image

	children []int
}

// Children returns the ids of the direct children in ascending order.
func (o *Object) Children() []int {
	return o.children
}

// Spec describes an object before it is placed into a scene.
type Spec struct {
	Rel   Point
	Depth int32
	Image *Image
}

func checkDepth(id int, d int32) error {
	if d >= SentinelDepth {
		return fmt.Errorf("%w: object %d depth %d", ErrDepthRange, id, d)
	}
	return nil
}
