package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"

	"agent-compositor/internal/raster"
)

// Config holds all configurable paths, frame settings and server settings.
type Config struct {
	// Paths
	BaseDir    string `json:"base_dir"`
	ImageDir   string `json:"image_dir"`
	StatesFile string `json:"states_file"`
	OutputDir  string `json:"output_dir"`

	// Frame settings, fixed for the process lifetime
	FrameWidth  int      `json:"frame_width"`
	FrameHeight int      `json:"frame_height"`
	Background  [4]uint8 `json:"background"` // R, G, B, A
	SpriteSize  int      `json:"sprite_size"`

	// Compositing
	Mode    string `json:"mode"`
	Workers int    `json:"workers"`

	// Output
	JPEGQuality int `json:"jpeg_quality"`
	StreamScale int `json:"stream_scale"` // divide frame size by this before streaming, 1 = full size

	// Server
	Addr      string `json:"addr"`
	QueueSize int    `json:"queue_size"`
	States    int    `json:"states"` // generated states when no states file is given
	Seed      int64  `json:"seed"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.ImageDir != "" {
		c.ImageDir = flags.ImageDir
	}
	if flags.StatesFile != "" {
		c.StatesFile = flags.StatesFile
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Mode != "" {
		c.Mode = flags.Mode
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Addr != "" {
		c.Addr = flags.Addr
	}
	if flags.Quality > 0 {
		c.JPEGQuality = flags.Quality
	}

	// Auto-detect base dir if still empty
	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}

	// Resolve relative paths against base dir
	if c.ImageDir == "" {
		c.ImageDir = filepath.Join(c.BaseDir, "images")
	} else if !filepath.IsAbs(c.ImageDir) {
		c.ImageDir = filepath.Join(c.BaseDir, c.ImageDir)
	}
	if c.StatesFile != "" && !filepath.IsAbs(c.StatesFile) {
		c.StatesFile = filepath.Join(c.BaseDir, c.StatesFile)
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.BaseDir, "renders")
	} else if !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(c.BaseDir, c.OutputDir)
	}

	// Defaults for frame and server settings
	if c.FrameWidth <= 0 {
		c.FrameWidth = 1920
	}
	if c.FrameHeight <= 0 {
		c.FrameHeight = 1080
	}
	if c.SpriteSize <= 0 {
		c.SpriteSize = 100
	}
	if c.Mode == "" {
		c.Mode = raster.ModeSequential.String()
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = 80
	}
	if c.StreamScale <= 0 {
		c.StreamScale = 1
	}
	if c.Addr == "" {
		c.Addr = "localhost:8888"
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.States <= 0 {
		c.States = 600
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if _, err := raster.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// BackgroundColor returns Background as a color.
func (c *Config) BackgroundColor() color.NRGBA {
	return color.NRGBA{R: c.Background[0], G: c.Background[1], B: c.Background[2], A: c.Background[3]}
}

// RenderOptions returns the composite options described by the config.
// Call Validate first; an unknown mode falls back to sequential.
func (c *Config) RenderOptions() raster.Options {
	mode, _ := raster.ParseMode(c.Mode)
	return raster.Options{Mode: mode, Workers: c.Workers}
}

// NewFrameBuffer allocates a frame buffer of the configured size.
func (c *Config) NewFrameBuffer() *raster.FrameBuffer {
	return raster.NewFrameBuffer(c.FrameWidth, c.FrameHeight, c.BackgroundColor())
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	ImageDir   string
	StatesFile string
	OutputDir  string
	Mode       string
	Workers    int
	Addr       string
	Quality    int
}

func detectBaseDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir)} {
			if _, err := os.Stat(filepath.Join(base, "images")); err == nil {
				return base
			}
		}
	}

	// Fall back to the current working directory
	cwd, _ := os.Getwd()
	return cwd
}
