package sprite

import (
	"fmt"
	"image"
	"image/color"

	"agent-compositor/internal/scene"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Label renders text centered on a w×h tile with a one-pixel border in fg.
// Used for placeholder sprites when no image directory is available.
func Label(text string, w, h int, fg, bg color.NRGBA) *scene.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	for x := 0; x < w; x++ {
		dst.SetNRGBA(x, 0, fg)
		dst.SetNRGBA(x, h-1, fg)
	}
	for y := 0; y < h; y++ {
		dst.SetNRGBA(0, y, fg)
		dst.SetNRGBA(w-1, y, fg)
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: face}
	adv := d.MeasureString(text)
	m := face.Metrics()
	x := (fixed.I(w) - adv) / 2
	y := (fixed.I(h) + m.Ascent - m.Descent) / 2
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(text)

	return scene.FromNRGBA(dst)
}

// Set is a fixed name → image mapping.
type Set map[string]*scene.Image

// Resolve implements Resolver.
func (s Set) Resolve(name string) *scene.Image {
	return s[name]
}

// Placeholders returns n labeled size×size tiles named "obj0" … "obj<n-1>".
func Placeholders(n, size int) Set {
	set := make(Set, n)
	fg := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for i := 0; i < n; i++ {
		bg := color.NRGBA{R: uint8(40 + i*53%200), G: uint8(40 + i*97%200), B: uint8(40 + i*31%200), A: 255}
		name := fmt.Sprintf("obj%d", i)
		set[name] = Label(name, size, size, fg, bg)
	}
	return set
}
