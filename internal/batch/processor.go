package batch

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"agent-compositor/internal/encode"
	"agent-compositor/internal/logging"
	"agent-compositor/internal/raster"
	"agent-compositor/internal/scenefile"
)

// Config holds all shared settings for a batch run.
type Config struct {
	OutputDir  string
	Width      int
	Height     int
	Background color.NRGBA
	Options    raster.Options // composite options within one state
	Workers    int            // states rendered at once
}

// Result holds the outcome of rendering one state.
type Result struct {
	Name    string
	Index   int
	Success bool
	Error   string
	Drawn   int
	Failed  int // objects skipped because of bad images
}

// Run renders every state using a worker pool. Each worker owns one frame
// buffer and reuses it for all states it handles.
func Run(cfg Config, states []scenefile.State) []Result {
	total := len(states)
	results := make([]Result, total)
	var processed atomic.Int64
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					logging.L().Info("batch progress",
						"done", p,
						"total", total,
						"states_per_sec", fmt.Sprintf("%.1f", float64(p)/elapsed))
				}
			}
		}
	}()

	// Worker pool
	stateChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fb := raster.NewFrameBuffer(cfg.Width, cfg.Height, cfg.Background)
			for idx := range stateChan {
				results[idx] = processState(cfg, fb, idx, states[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range states {
		stateChan <- i
	}
	close(stateChan)

	wg.Wait()
	close(done)

	return results
}

// OutputName is the file a state is rendered to, relative to the output dir.
func OutputName(index int) string {
	return fmt.Sprintf("%d.webp", index)
}

func processState(cfg Config, fb *raster.FrameBuffer, index int, st scenefile.State) Result {
	res := Result{Name: st.Name, Index: index}

	stats, err := raster.RenderScene(fb, st.Scene, cfg.Options)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Drawn = stats.Drawn
	res.Failed = len(stats.Failed)

	outPath := filepath.Join(cfg.OutputDir, OutputName(index))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		res.Error = err.Error()
		return res
	}

	f, err := os.Create(outPath)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer f.Close()

	if err := (encode.Encoder{Format: encode.WebP}).Encode(f, fb.Image()); err != nil {
		res.Error = fmt.Sprintf("WebP encode: %v", err)
		return res
	}

	res.Success = true
	return res
}
