package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"agent-compositor/internal/batch"
	"agent-compositor/internal/config"
	"agent-compositor/internal/logging"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	testN := flag.Int("test", 0, "Render only first N states for testing")
	workers := flag.Int("workers", 0, "States rendered at once (default: NumCPU)")
	mode := flag.String("mode", "", "Composite mode: sequential, concurrent or recursive")
	imageDir := flag.String("images", "", "Sprite directory (default: <base>/images)")
	statesFile := flag.String("states", "", "States XML file (default: generate random states)")
	outputDir := flag.String("output", "", "Output directory (default: <base>/renders)")
	verbose := flag.Bool("v", false, "Log every composite pass")

	flag.Parse()
	logging.SetLogger(logging.NewText(os.Stderr, *verbose))

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		ImageDir:   *imageDir,
		StatesFile: *statesFile,
		OutputDir:  *outputDir,
		Mode:       *mode,
		Workers:    *workers,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, names := cfg.Sprites()
	states, err := cfg.LoadStates(res, names)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading states: %v\n", err)
		os.Exit(1)
	}

	// Limit for testing
	if *testN > 0 && *testN < len(states) {
		states = states[:*testN]
	}

	if len(states) == 0 {
		fmt.Println("No states to render.")
		os.Exit(0)
	}

	fmt.Printf("Z-buffer compositor → WebP (%s)\n", cfg.Mode)
	fmt.Printf("States: %d, Frame: %dx%d, Workers: %d\n", len(states), cfg.FrameWidth, cfg.FrameHeight, cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	// Each worker composites one state single-threaded; the pool supplies
	// the parallelism.
	opts := cfg.RenderOptions()
	opts.Workers = 1
	results := batch.Run(batch.Config{
		OutputDir:  cfg.OutputDir,
		Width:      cfg.FrameWidth,
		Height:     cfg.FrameHeight,
		Background: cfg.BackgroundColor(),
		Options:    opts,
		Workers:    cfg.Workers,
	}, states)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed, skipped := 0, 0, 0
	var errors []batch.Result
	for _, r := range results {
		skipped += r.Failed
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Rendered: %d/%d\n", success, len(states))
	if skipped > 0 {
		fmt.Printf("Objects skipped for bad images: %d\n", skipped)
	}

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := min(20, len(errors))
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
