package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agent-compositor/internal/agent"
	"agent-compositor/internal/config"
	"agent-compositor/internal/encode"
	"agent-compositor/internal/input"
	"agent-compositor/internal/logging"
	"agent-compositor/internal/stream"

	"golang.org/x/sync/errgroup"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	addr := flag.String("addr", "", "Listen address (default: localhost:8888)")
	mode := flag.String("mode", "", "Composite mode: sequential, concurrent or recursive")
	workers := flag.Int("workers", 0, "Composite workers (default: NumCPU)")
	imageDir := flag.String("images", "", "Sprite directory (default: <base>/images)")
	statesFile := flag.String("states", "", "States XML file (default: generate random states)")
	quality := flag.Int("quality", 0, "JPEG quality 1-100 (default: 80)")
	verbose := flag.Bool("v", false, "Log every frame")

	flag.Parse()
	logging.SetLogger(logging.NewText(os.Stderr, *verbose))

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		ImageDir:   *imageDir,
		StatesFile: *statesFile,
		Mode:       *mode,
		Workers:    *workers,
		Addr:       *addr,
		Quality:    *quality,
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := stream.NewHub()
	queues := input.NewQueues(cfg.QueueSize)
	srv := stream.NewServer(hub, queues)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Addr)
	})
	g.Go(func() error {
		sum, err := agent.Run(gctx, agent.Config{
			States:  states,
			Buffer:  cfg.NewFrameBuffer(),
			Options: cfg.RenderOptions(),
			Encoder: encode.Encoder{Format: encode.JPEG, Quality: cfg.JPEGQuality},
			Scale:   cfg.StreamScale,
			Queues:  queues,
			Hub:     hub,
		})
		logging.L().Info("agent stopped", "rendered", sum.Rendered, "skipped", sum.Skipped, "failed_objects", sum.Failed)
		if err != nil && gctx.Err() != nil {
			return nil
		}
		// Keep serving the last frame after the states run out.
		if err == nil {
			<-gctx.Done()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
