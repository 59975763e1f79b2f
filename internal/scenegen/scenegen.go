// Package scenegen builds random test states: a small tree of sprites with
// random parent-relative offsets, used to drive the agent loop and batch
// renders without an external agent.
package scenegen

import (
	"fmt"
	"math/rand"

	"agent-compositor/internal/scenefile"
)

// Config shapes the generated tree.
type Config struct {
	Objects int // total objects including the root
	Fanout  int // children per parent, assigned breadth-first
	MaxY    int // relative offsets are drawn from [0, MaxY] × [0, MaxX]
	MaxX    int
}

// DefaultConfig is a root with four children, each with four children.
func DefaultConfig() Config {
	return Config{Objects: 21, Fanout: 4, MaxY: 500, MaxX: 900}
}

// Generate returns one random state. The parent of object id is (id-1)/Fanout,
// so parents always precede children, and depth equals id. Images are
// picked at random from names; with no names every object is a group node.
func Generate(rng *rand.Rand, names []string, cfg Config) scenefile.StateDoc {
	if cfg.Fanout <= 0 {
		cfg.Fanout = 1
	}
	objs := make([]scenefile.ObjectDoc, cfg.Objects)
	for id := range objs {
		o := scenefile.ObjectDoc{ID: id, Depth: int32(id)}
		if id > 0 {
			o.Parent = scenefile.ParentOf((id - 1) / cfg.Fanout)
			o.Y = rng.Intn(cfg.MaxY + 1)
			o.X = rng.Intn(cfg.MaxX + 1)
		}
		if len(names) > 0 {
			o.Image = names[rng.Intn(len(names))]
		}
		objs[id] = o
	}
	return scenefile.StateDoc{Objects: objs}
}

// GenerateStates returns n named random states.
func GenerateStates(rng *rand.Rand, names []string, n int, cfg Config) scenefile.File {
	var doc scenefile.File
	for i := 0; i < n; i++ {
		st := Generate(rng, names, cfg)
		st.Name = fmt.Sprintf("state%04d", i)
		doc.States = append(doc.States, st)
	}
	return doc
}
