package config

import (
	"math/rand"
	"slices"

	"agent-compositor/internal/logging"
	"agent-compositor/internal/scenefile"
	"agent-compositor/internal/scenegen"
	"agent-compositor/internal/sprite"
)

// placeholderCount matches the object count of a generated state.
const placeholderCount = 21

// Sprites returns the sprite resolver for ImageDir and the names it can
// resolve. An empty or missing image directory yields labeled placeholder
// tiles instead.
func (c *Config) Sprites() (sprite.Resolver, []string) {
	idx := sprite.BuildIndex(c.ImageDir)
	if idx.Len() > 0 {
		logging.L().Info("sprites indexed", "dir", c.ImageDir, "count", idx.Len())
		return sprite.NewCache(idx, c.SpriteSize, c.SpriteSize), idx.Names()
	}

	logging.L().Info("no sprites found, using placeholders", "dir", c.ImageDir)
	set := sprite.Placeholders(placeholderCount, c.SpriteSize)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	slices.Sort(names)
	return set, names
}

// LoadStates reads StatesFile, or generates States random states from Seed
// when no file is configured.
func (c *Config) LoadStates(res sprite.Resolver, names []string) ([]scenefile.State, error) {
	if c.StatesFile != "" {
		states, err := scenefile.Load(c.StatesFile, res)
		if err != nil {
			return nil, err
		}
		logging.L().Info("states loaded", "file", c.StatesFile, "count", len(states))
		return states, nil
	}

	rng := rand.New(rand.NewSource(c.Seed))
	doc := scenegen.GenerateStates(rng, names, c.States, scenegen.DefaultConfig())
	states := make([]scenefile.State, 0, len(doc.States))
	for _, d := range doc.States {
		s, err := d.Build(res)
		if err != nil {
			return nil, err
		}
		states = append(states, scenefile.State{Name: d.Name, Scene: s})
	}
	logging.L().Info("states generated", "count", len(states), "seed", c.Seed)
	return states, nil
}
