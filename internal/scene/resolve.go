package scene

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelFanout is the child count above which a parent's children are
// resolved on several goroutines.
const parallelFanout = 4096

// Resolve writes the frame-space offset of every object:
// Abs(root) = (0,0) and Abs(child) = Rel(child) + Abs(parent).
//
// Parents are visited in ascending id order, which is a topological order
// because every child id exceeds its parent's. Each object's Abs is final
// before its own children read it.
func Resolve(s *Scene) {
	for _, id := range s.roots {
		s.objects[id].Abs = Point{}
	}
	for id := range s.objects {
		o := &s.objects[id]
		if len(o.children) >= parallelFanout {
			resolveChildrenParallel(s, o)
			continue
		}
		for _, c := range o.children {
			s.objects[c].Abs = s.objects[c].Rel.Add(o.Abs)
		}
	}
}

// resolveChildrenParallel splits the children of one parent into chunks.
// Children are independent of each other, so the chunks never race.
func resolveChildrenParallel(s *Scene, o *Object) {
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(o.children) + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < len(o.children); start += chunk {
		part := o.children[start:min(start+chunk, len(o.children))]
		g.Go(func() error {
			for _, c := range part {
				s.objects[c].Abs = s.objects[c].Rel.Add(o.Abs)
			}
			return nil
		})
	}
	g.Wait()
}

// Walk visits every object depth-first, children in ascending id order,
// passing the offset accumulated from the root down. It does not read or
// write Abs.
func Walk(s *Scene, fn func(o *Object, abs Point)) {
	var visit func(id int, abs Point)
	visit = func(id int, abs Point) {
		o := &s.objects[id]
		fn(o, abs)
		for _, c := range o.children {
			visit(c, abs.Add(s.objects[c].Rel))
		}
	}
	for _, r := range s.roots {
		visit(r, Point{})
	}
}
