package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"

	"agent-compositor/internal/raster"
	"agent-compositor/internal/scene"
	"agent-compositor/internal/scenefile"
	"agent-compositor/internal/sprite"
)

func main() {
	imageDir := flag.String("images", "", "Sprite directory used to resolve Image names")
	size := flag.Int("size", 100, "Sprite size in pixels")
	only := flag.String("state", "", "Print only the state with this name")
	width := flag.Int("width", 1920, "Frame width for visibility counts")
	height := flag.Int("height", 1080, "Frame height for visibility counts")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [flags] states.xml")
		os.Exit(2)
	}

	var res sprite.Resolver
	if *imageDir != "" {
		res = sprite.NewCache(sprite.BuildIndex(*imageDir), *size, *size)
	}

	states, err := scenefile.Load(flag.Arg(0), res)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("States: %d\n", len(states))

	fb := raster.NewFrameBuffer(*width, *height, color.NRGBA{})
	for _, st := range states {
		if *only != "" && st.Name != *only {
			continue
		}
		stats, err := raster.RenderScene(fb, st.Scene, raster.Options{})
		if err != nil {
			fmt.Printf("State %s: %v\n", st.Name, err)
			continue
		}
		fmt.Printf("State %s: objects=%d roots=%d drawn=%d offscreen=%d failed=%d\n",
			st.Name, st.Scene.Len(), len(st.Scene.Roots()), stats.Drawn, stats.Offscreen, len(stats.Failed))
		for _, o := range st.Scene.Objects() {
			parent := "-"
			if o.Parent != scene.Root {
				parent = fmt.Sprint(o.Parent)
			}
			img := "group"
			if o.Image != nil {
				img = fmt.Sprintf("%dx%d", o.Image.Width, o.Image.Height)
			}
			fmt.Printf("  [%d] parent=%s rel=%v abs=%v depth=%d image=%s\n", o.ID, parent, o.Rel, o.Abs, o.Depth, img)
		}
		for _, f := range stats.Failed {
			fmt.Printf("  failed: %v\n", f)
		}
	}
}
