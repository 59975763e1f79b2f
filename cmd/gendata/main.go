package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"slices"

	"agent-compositor/internal/scenefile"
	"agent-compositor/internal/scenegen"
	"agent-compositor/internal/sprite"
)

func main() {
	out := flag.String("out", "states.xml", "Output states file")
	n := flag.Int("n", 600, "Number of states")
	seed := flag.Int64("seed", 0, "Random seed")
	imageDir := flag.String("images", "", "Sprite directory to pick image names from (default: placeholder names)")
	objects := flag.Int("objects", scenegen.DefaultConfig().Objects, "Objects per state, including the root")
	fanout := flag.Int("fanout", scenegen.DefaultConfig().Fanout, "Children per parent")
	flag.Parse()

	var names []string
	if *imageDir != "" {
		names = sprite.BuildIndex(*imageDir).Names()
	}
	if len(names) == 0 {
		for name := range sprite.Placeholders(*objects, 1) {
			names = append(names, name)
		}
		slices.Sort(names)
	}

	cfg := scenegen.DefaultConfig()
	cfg.Objects = *objects
	cfg.Fanout = *fanout

	doc := scenegen.GenerateStates(rand.New(rand.NewSource(*seed)), names, *n, cfg)
	if err := scenefile.Save(*out, doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d states (%d objects each, %d image names) to %s\n", *n, cfg.Objects, len(names), *out)
}
