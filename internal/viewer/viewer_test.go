package viewer

import "testing"

func TestWindowSize(t *testing.T) {
	cases := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{1920, 1080, 1280, 720, 1280, 720},
		{1920, 1080, 1280, 1000, 1280, 720},
		{800, 600, 1280, 720, 800, 600},
		{1000, 2000, 1280, 720, 360, 720},
		{1920, 1080, 0, 0, 1920, 1080},
	}
	for _, c := range cases {
		w, h := windowSize(c.w, c.h, c.maxW, c.maxH)
		if w != c.wantW || h != c.wantH {
			t.Errorf("windowSize(%d,%d,%d,%d) = %d,%d; want %d,%d",
				c.w, c.h, c.maxW, c.maxH, w, h, c.wantW, c.wantH)
		}
	}
}

func TestFitScale(t *testing.T) {
	sx, sy := fitScale(960, 540, 1920, 1080)
	if sx != 2 || sy != 2 {
		t.Errorf("fitScale = %v,%v; want 2,2", sx, sy)
	}
	if sx, sy := fitScale(0, 0, 10, 10); sx != 1 || sy != 1 {
		t.Errorf("fitScale on empty = %v,%v; want 1,1", sx, sy)
	}
}
