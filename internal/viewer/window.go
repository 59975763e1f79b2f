//go:build cgo

package viewer

import (
	"context"
	"errors"

	"agent-compositor/internal/input"
	"agent-compositor/internal/logging"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var mouseButtons = []ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonMiddle,
	ebiten.MouseButtonRight,
}

type game struct {
	ctx     context.Context
	opts    Options
	img     *ebiten.Image
	seq     uint64
	lastX   int
	lastY   int
	keys    []ebiten.Key
	started bool
}

// Run opens the window and blocks until it is closed or ctx is done.
func Run(ctx context.Context, opts Options) error {
	if opts.Hub == nil || opts.Queues.Mouse == nil || opts.Queues.Keys == nil {
		return errors.New("viewer: hub and input queues are required")
	}
	if opts.Title == "" {
		opts.Title = "agent-compositor"
	}
	w, h := windowSize(opts.FrameWidth, opts.FrameHeight, opts.MaxWidth, opts.MaxHeight)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	err := ebiten.RunGame(&game{ctx: ctx, opts: opts})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}

	x, y := ebiten.CursorPosition()
	if !g.started || x != g.lastX || y != g.lastY {
		g.started = true
		g.lastX, g.lastY = x, y
		g.dispatch(input.Event{Kind: input.MouseMove, X: x, Y: y})
	}
	for i, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b) {
			g.dispatch(input.Event{Kind: input.MouseClick, X: x, Y: y, Button: i})
		}
	}

	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl)
	alt := ebiten.IsKeyPressed(ebiten.KeyAlt)
	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		g.dispatch(input.Event{Kind: input.Key, Key: k.String(), Shift: shift, Ctrl: ctrl, Alt: alt})
	}
	return nil
}

func (g *game) dispatch(e input.Event) {
	if err := g.opts.Queues.Dispatch(e); err != nil {
		logging.L().Debug("viewer: input rejected", "err", err)
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	f := g.opts.Hub.Latest()
	if f == nil || f.Image == nil {
		return
	}
	b := f.Image.Bounds()
	if g.img == nil || g.img.Bounds().Dx() != b.Dx() || g.img.Bounds().Dy() != b.Dy() {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(b.Dx(), b.Dy())
		g.seq = 0
	}
	if f.Seq != g.seq {
		g.img.WritePixels(f.Image.Pix)
		g.seq = f.Seq
	}

	op := &ebiten.DrawImageOptions{}
	sx, sy := fitScale(b.Dx(), b.Dy(), g.opts.FrameWidth, g.opts.FrameHeight)
	op.GeoM.Scale(sx, sy)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.img, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.opts.FrameWidth, g.opts.FrameHeight
}
