package scene

import "fmt"

// Scene is a forest of objects stored in a flat slice indexed by id.
// Every child id is greater than its parent id, so ascending id order
// visits parents before children.
//
// The structure is fixed once built. Offsets, depths and images may be
// updated between composite passes, never during one.
type Scene struct {
	objects []Object
	roots   []int
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	return len(s.objects)
}

// Object returns the object with the given id, or nil.
func (s *Scene) Object(id int) *Object {
	if id < 0 || id >= len(s.objects) {
		return nil
	}
	return &s.objects[id]
}

// Objects returns the objects in id order. The slice aliases the scene.
func (s *Scene) Objects() []Object {
	return s.objects
}

// Roots returns the ids of all tree roots.
func (s *Scene) Roots() []int {
	return s.roots
}

// SetOffset updates the relative offset of an object.
func (s *Scene) SetOffset(id int, rel Point) error {
	o := s.Object(id)
	if o == nil {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	o.Rel = rel
	return nil
}

// SetDepth updates the depth key of an object.
func (s *Scene) SetDepth(id int, d int32) error {
	o := s.Object(id)
	if o == nil {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	if err := checkDepth(id, d); err != nil {
		return err
	}
	o.Depth = d
	return nil
}

// SetImage replaces the image of an object. A nil image turns it into a group node.
func (s *Scene) SetImage(id int, img *Image) error {
	o := s.Object(id)
	if o == nil {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	o.Image = img
	return nil
}

// Validate checks the parent-before-child ordering and forest shape.
// Scenes returned by Build and FromAdjacency always pass; the check runs
// again before each render so that a pass never trusts a broken ordering.
func (s *Scene) Validate() error {
	seen := make([]bool, len(s.objects))
	for id := range s.objects {
		o := &s.objects[id]
		if o.ID != id {
			return fmt.Errorf("%w: slot %d holds object %d", ErrMalformedSceneGraph, id, o.ID)
		}
		if o.Parent != Root && (o.Parent < 0 || o.Parent >= id) {
			return fmt.Errorf("%w: object %d has parent %d", ErrMalformedSceneGraph, id, o.Parent)
		}
		if err := checkDepth(id, o.Depth); err != nil {
			return err
		}
		for _, c := range o.children {
			if c <= id || c >= len(s.objects) {
				return fmt.Errorf("%w: object %d lists child %d", ErrMalformedSceneGraph, id, c)
			}
			if seen[c] || s.objects[c].Parent != id {
				return fmt.Errorf("%w: child %d claimed by %d", ErrMalformedSceneGraph, c, id)
			}
			seen[c] = true
		}
	}
	for id := range s.objects {
		if s.objects[id].Parent != Root && !seen[id] {
			return fmt.Errorf("%w: object %d missing from parent %d", ErrMalformedSceneGraph, id, s.objects[id].Parent)
		}
	}
	return nil
}

// Builder assembles a scene in ascending id order. The first error is kept
// and returned by Build; later calls are ignored.
type Builder struct {
	objects []Object
	roots   []int
	err     error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends an object under parent (Root for a new tree) and returns its id.
// The parent must already exist, which keeps every child id above its parent's.
func (b *Builder) Add(parent int, sp Spec) int {
	id := len(b.objects)
	if b.err != nil {
		return id
	}
	if parent != Root && (parent < 0 || parent >= id) {
		b.err = fmt.Errorf("%w: object %d has parent %d", ErrMalformedSceneGraph, id, parent)
		return id
	}
	if err := checkDepth(id, sp.Depth); err != nil {
		b.err = err
		return id
	}

	o := Object{ID: id, Parent: parent, Depth: sp.Depth, Image: sp.Image}
	if parent == Root {
		b.roots = append(b.roots, id)
	} else {
		o.Rel = sp.Rel
		b.objects[parent].children = append(b.objects[parent].children, id)
	}
	b.objects = append(b.objects, o)
	return id
}

// Build returns the scene or the first construction error.
func (b *Builder) Build() (*Scene, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Scene{objects: b.objects, roots: b.roots}, nil
}

// FromAdjacency builds a scene from per-object specs and a child matrix where
// child[p][c] marks c as a direct child of p. Objects nobody claims are roots.
func FromAdjacency(specs []Spec, child [][]bool) (*Scene, error) {
	n := len(specs)
	if len(child) != n {
		return nil, fmt.Errorf("%w: %d objects but %d adjacency rows", ErrMalformedSceneGraph, n, len(child))
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = Root
	}
	for p, row := range child {
		if len(row) != n {
			return nil, fmt.Errorf("%w: adjacency row %d has %d columns", ErrMalformedSceneGraph, p, len(row))
		}
		for c, ok := range row {
			if !ok {
				continue
			}
			if c <= p {
				return nil, fmt.Errorf("%w: object %d declared as parent of %d", ErrMalformedSceneGraph, p, c)
			}
			if parent[c] != Root {
				return nil, fmt.Errorf("%w: object %d has parents %d and %d", ErrMalformedSceneGraph, c, parent[c], p)
			}
			parent[c] = p
		}
	}

	b := NewBuilder()
	for id, sp := range specs {
		b.Add(parent[id], sp)
	}
	return b.Build()
}
