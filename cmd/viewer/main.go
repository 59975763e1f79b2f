package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"agent-compositor/internal/agent"
	"agent-compositor/internal/config"
	"agent-compositor/internal/encode"
	"agent-compositor/internal/input"
	"agent-compositor/internal/logging"
	"agent-compositor/internal/stream"
	"agent-compositor/internal/viewer"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	mode := flag.String("mode", "", "Composite mode: sequential, concurrent or recursive")
	imageDir := flag.String("images", "", "Sprite directory (default: <base>/images)")
	statesFile := flag.String("states", "", "States XML file (default: generate random states)")
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
	cfg.Resolve(config.Flags{ImageDir: *imageDir, StatesFile: *statesFile, Mode: *mode})
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := stream.NewHub()
	queues := input.NewQueues(cfg.QueueSize)

	go func() {
		sum, err := agent.Run(ctx, agent.Config{
			States:  states,
			Buffer:  cfg.NewFrameBuffer(),
			Options: cfg.RenderOptions(),
			Encoder: encode.Encoder{Format: encode.JPEG, Quality: cfg.JPEGQuality},
			Queues:  queues,
			Hub:     hub,
		})
		if err != nil && ctx.Err() == nil {
			logging.L().Error("agent", "err", err)
		}
		logging.L().Info("agent stopped", "rendered", sum.Rendered, "skipped", sum.Skipped)
	}()

	err = viewer.Run(ctx, viewer.Options{
		FrameWidth:  cfg.FrameWidth,
		FrameHeight: cfg.FrameHeight,
		MaxWidth:    1280,
		MaxHeight:   720,
		Hub:         hub,
		Queues:      queues,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
