package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"agent-compositor/internal/raster"
)

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"base_dir": "` + filepath.ToSlash(dir) + `", "image_dir": "sprites", "frame_width": 64,
		"frame_height": 32, "background": [1, 2, 3, 255], "mode": "concurrent", "workers": 2}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Resolve(Flags{Workers: 3, OutputDir: "/abs/out"})

	if cfg.ImageDir != filepath.Join(dir, "sprites") {
		t.Errorf("ImageDir = %q", cfg.ImageDir)
	}
	if cfg.OutputDir != "/abs/out" {
		t.Errorf("OutputDir = %q, want flag value", cfg.OutputDir)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if opts := cfg.RenderOptions(); opts.Mode != raster.ModeConcurrent {
		t.Errorf("Mode = %v, want concurrent", opts.Mode)
	}
	fb := cfg.NewFrameBuffer()
	if fb.Width != 64 || fb.Height != 32 {
		t.Errorf("frame = %dx%d, want 64x32", fb.Width, fb.Height)
	}
	if c := fb.ColorAt(0, 0); c.R != 1 || c.G != 2 || c.B != 3 || c.A != 255 {
		t.Errorf("background = %v", c)
	}
}

func TestResolve_Defaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{})
	if cfg.FrameWidth != 1920 || cfg.FrameHeight != 1080 {
		t.Errorf("frame = %dx%d, want 1920x1080", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want NumCPU", cfg.Workers)
	}
	if cfg.Mode != "sequential" || cfg.SpriteSize != 100 || cfg.JPEGQuality != 80 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Addr != "localhost:8888" || cfg.QueueSize != 256 || cfg.StreamScale != 1 {
		t.Errorf("server defaults = %+v", cfg)
	}
}

func TestValidate_BadMode(t *testing.T) {
	cfg := Config{Mode: "gpu"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an unknown mode")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("Load of invalid JSON succeeded")
	}
}
