package scenefile

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"agent-compositor/internal/logging"
	"agent-compositor/internal/scene"
	"agent-compositor/internal/sprite"
)

// Load reads a states file and builds every state, resolving Image names
// through res. res may be nil, in which case all objects are image-less.
func Load(path string, res sprite.Resolver) ([]State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: read %s: %w", path, err)
	}
	defer f.Close()

	states, err := Parse(f, res)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %s: %w", path, err)
	}
	return states, nil
}

// Parse decodes a states document from r and builds every state. A state
// whose graph is malformed is logged and left out; the others are kept.
// Only a document that cannot be decoded is an error.
func Parse(r io.Reader, res sprite.Resolver) ([]State, error) {
	var doc File
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	states := make([]State, 0, len(doc.States))
	for i, st := range doc.States {
		name := st.Name
		if name == "" {
			name = strconv.Itoa(i)
		}
		s, err := st.Build(res)
		if err != nil {
			logging.L().Warn("state skipped", "state", name, "err", err)
			continue
		}
		states = append(states, State{Name: name, Scene: s})
	}
	return states, nil
}

// Save writes doc to path as indented XML.
func Save(path string, doc File) error {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("scenefile: encode: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("scenefile: write %s: %w", path, err)
	}
	return nil
}

// Build turns the document into a scene. Object ids must be dense from zero
// and every Parent must name a lower id; anything else is reported as
// scene.ErrMalformedSceneGraph. A missing image is logged and the object is
// kept as a group node.
func (d StateDoc) Build(res sprite.Resolver) (*scene.Scene, error) {
	objs := slices.Clone(d.Objects)
	slices.SortStableFunc(objs, func(a, b ObjectDoc) int { return a.ID - b.ID })

	b := scene.NewBuilder()
	for want, o := range objs {
		if o.ID != want {
			return nil, fmt.Errorf("%w: expected object id %d, found %d", scene.ErrMalformedSceneGraph, want, o.ID)
		}

		parent := scene.Root
		if o.Parent != "" {
			p, err := strconv.Atoi(o.Parent)
			if err != nil {
				return nil, fmt.Errorf("%w: object %d parent %q", scene.ErrMalformedSceneGraph, o.ID, o.Parent)
			}
			parent = p
		}

		var img *scene.Image
		if o.Image != "" && res != nil {
			img = res.Resolve(o.Image)
			if img == nil {
				logging.L().Warn("image not found", "object", o.ID, "image", o.Image)
			}
		}

		b.Add(parent, scene.Spec{Rel: scene.Point{Y: o.Y, X: o.X}, Depth: o.Depth, Image: img})
	}
	return b.Build()
}
