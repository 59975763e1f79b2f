package scene

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"
)

func threeLevel(t *testing.T) *Scene {
	t.Helper()
	b := NewBuilder()
	root := b.Add(Root, Spec{Rel: Point{Y: 7, X: 7}})
	a := b.Add(root, Spec{Rel: Point{Y: 10, X: 10}, Depth: 1})
	b.Add(a, Spec{Rel: Point{Y: 5, X: 5}, Depth: 2})
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestResolve_ThreeLevels(t *testing.T) {
	s := threeLevel(t)
	Resolve(s)

	want := []Point{{0, 0}, {10, 10}, {15, 15}}
	for id, w := range want {
		if got := s.Object(id).Abs; got != w {
			t.Errorf("Abs(%d) = %v, want %v", id, got, w)
		}
	}
}

func TestResolve_RootIgnoresRel(t *testing.T) {
	specs := []Spec{{Rel: Point{Y: 3, X: -4}}, {Rel: Point{Y: 1, X: 1}}}
	child := [][]bool{{false, true}, {false, false}}
	s, err := FromAdjacency(specs, child)
	if err != nil {
		t.Fatalf("FromAdjacency: %v", err)
	}
	Resolve(s)
	if got := s.Object(0).Abs; got != (Point{}) {
		t.Errorf("Abs(root) = %v, want (0,0)", got)
	}
	if got := s.Object(1).Abs; got != (Point{Y: 1, X: 1}) {
		t.Errorf("Abs(1) = %v, want (1,1)", got)
	}
}

func randomScene(rng *rand.Rand, n int) *Scene {
	b := NewBuilder()
	b.Add(Root, Spec{})
	for id := 1; id < n; id++ {
		parent := Root
		if rng.Intn(8) != 0 {
			parent = rng.Intn(id)
		}
		b.Add(parent, Spec{Rel: Point{Y: rng.Intn(200) - 100, X: rng.Intn(200) - 100}, Depth: int32(id)})
	}
	s, _ := b.Build()
	return s
}

func TestResolve_SumAlongPath(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		s := randomScene(rng, 64)
		Resolve(s)
		for _, o := range s.Objects() {
			var sum Point
			for id := o.ID; s.Object(id).Parent != Root; id = s.Object(id).Parent {
				sum = sum.Add(s.Object(id).Rel)
			}
			if o.Abs != sum {
				t.Fatalf("trial %d: Abs(%d) = %v, want %v", trial, o.ID, o.Abs, sum)
			}
			if o.Parent != Root {
				if want := o.Rel.Add(s.Object(o.Parent).Abs); o.Abs != want {
					t.Fatalf("trial %d: Abs(%d) = %v, want Rel+Abs(parent) %v", trial, o.ID, o.Abs, want)
				}
			}
		}
	}
}

func TestResolve_WideFanout(t *testing.T) {
	b := NewBuilder()
	root := b.Add(Root, Spec{})
	mid := b.Add(root, Spec{Rel: Point{Y: 2, X: 3}})
	for i := 0; i < parallelFanout+10; i++ {
		b.Add(mid, Spec{Rel: Point{Y: i, X: -i}})
	}
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	Resolve(s)
	for _, c := range s.Object(mid).Children() {
		o := s.Object(c)
		if want := o.Rel.Add(Point{Y: 2, X: 3}); o.Abs != want {
			t.Fatalf("Abs(%d) = %v, want %v", c, o.Abs, want)
		}
	}
}

func TestWalk_MatchesResolve(t *testing.T) {
	s := randomScene(rand.New(rand.NewSource(7)), 50)
	Resolve(s)
	visited := 0
	Walk(s, func(o *Object, abs Point) {
		visited++
		if abs != o.Abs {
			t.Errorf("Walk abs(%d) = %v, Resolve gave %v", o.ID, abs, o.Abs)
		}
	})
	if visited != s.Len() {
		t.Errorf("visited %d objects, want %d", visited, s.Len())
	}
}

func TestFromAdjacency_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		child [][]bool
	}{
		{"child below parent", 2, [][]bool{{false, false}, {true, false}}},
		{"self parent", 2, [][]bool{{true, false}, {false, false}}},
		{"two parents", 3, [][]bool{{false, false, true}, {false, false, true}, {false, false, false}}},
		{"short matrix", 3, [][]bool{{false, true, false}, {false, false, false}}},
		{"ragged row", 2, [][]bool{{false, true}, {false}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAdjacency(make([]Spec, tt.n), tt.child)
			if !errors.Is(err, ErrMalformedSceneGraph) {
				t.Errorf("err = %v, want ErrMalformedSceneGraph", err)
			}
		})
	}
}

func TestBuilder_UnknownParent(t *testing.T) {
	b := NewBuilder()
	b.Add(Root, Spec{})
	b.Add(5, Spec{})
	b.Add(0, Spec{})
	if _, err := b.Build(); !errors.Is(err, ErrMalformedSceneGraph) {
		t.Errorf("err = %v, want ErrMalformedSceneGraph", err)
	}
}

func TestBuilder_DepthRange(t *testing.T) {
	b := NewBuilder()
	b.Add(Root, Spec{Depth: SentinelDepth})
	if _, err := b.Build(); !errors.Is(err, ErrDepthRange) {
		t.Errorf("err = %v, want ErrDepthRange", err)
	}
}

func TestScene_Setters(t *testing.T) {
	s := threeLevel(t)
	if err := s.SetOffset(2, Point{Y: 1, X: 2}); err != nil {
		t.Fatalf("SetOffset: %v", err)
	}
	Resolve(s)
	if got := s.Object(2).Abs; got != (Point{Y: 11, X: 12}) {
		t.Errorf("Abs(2) = %v, want (11,12)", got)
	}
	if err := s.SetDepth(9, 1); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("SetDepth(9) err = %v, want ErrUnknownObject", err)
	}
	if err := s.SetDepth(1, SentinelDepth); !errors.Is(err, ErrDepthRange) {
		t.Errorf("SetDepth(sentinel) err = %v, want ErrDepthRange", err)
	}
	if err := s.SetImage(-1, nil); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("SetImage(-1) err = %v, want ErrUnknownObject", err)
	}
}

func TestScene_Validate(t *testing.T) {
	s := threeLevel(t)
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	s.objects[2].Parent = 2
	if err := s.Validate(); !errors.Is(err, ErrMalformedSceneGraph) {
		t.Errorf("err = %v, want ErrMalformedSceneGraph", err)
	}
}

func TestNewImage_SizeMismatch(t *testing.T) {
	if _, err := NewImage(2, 2, make([]uint8, 15)); !errors.Is(err, ErrBufferSizeMismatch) {
		t.Errorf("err = %v, want ErrBufferSizeMismatch", err)
	}
	if _, err := NewImage(0, 2, nil); !errors.Is(err, ErrBufferSizeMismatch) {
		t.Errorf("err = %v, want ErrBufferSizeMismatch", err)
	}
	if _, err := NewImage(2, 2, make([]uint8, 16)); err != nil {
		t.Errorf("NewImage: %v", err)
	}
}

func TestFromNRGBA_DropsStride(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	sub := src.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA)
	src.SetNRGBA(2, 2, color.NRGBA{R: 9, G: 8, B: 7, A: 255})

	img := FromNRGBA(sub)
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("size = %dx%d, want 2x2", img.Width, img.Height)
	}
	if err := img.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	i := (1*2 + 1) * 4
	if got := img.Pix[i : i+4]; got[0] != 9 || got[1] != 8 || got[2] != 7 || got[3] != 255 {
		t.Errorf("pixel (1,1) = %v, want [9 8 7 255]", got)
	}
}
