// Package agent drives the interactive loop: every mouse event advances to
// the next scene state, which is composited, encoded and published to the
// stream hub.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agent-compositor/internal/encode"
	"agent-compositor/internal/input"
	"agent-compositor/internal/logging"
	"agent-compositor/internal/raster"
	"agent-compositor/internal/scenefile"
	"agent-compositor/internal/stream"
)

// Config holds the resources the loop works with. The loop owns Buffer
// for its whole lifetime.
type Config struct {
	States  []scenefile.State
	Buffer  *raster.FrameBuffer
	Options raster.Options
	Encoder encode.Encoder
	Scale   int // divide the frame size by this before encoding
	Queues  input.Queues
	Hub     *stream.Hub
}

// Summary reports what a Run did.
type Summary struct {
	Rendered int
	Skipped  int // states rejected as malformed
	Failed   int // objects skipped inside rendered states
}

// Run consumes mouse events until every state has been shown or ctx is
// done. Exhausting the states is a normal stop and returns a nil error.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	var sum Summary
	if cfg.Buffer == nil || cfg.Hub == nil || cfg.Queues.Mouse == nil {
		return sum, errors.New("agent: buffer, hub and mouse queue are required")
	}
	if cfg.Encoder.Format == "" {
		cfg.Encoder.Format = encode.JPEG
	}

	log := logging.L()
	next := 0
	for {
		ev, err := cfg.Queues.Mouse.Get(ctx)
		if err != nil {
			return sum, fmt.Errorf("agent: %w", err)
		}
		if next >= len(cfg.States) {
			log.Info("agent: states exhausted", "rendered", sum.Rendered, "skipped", sum.Skipped)
			return sum, nil
		}
		state := cfg.States[next]
		next++

		start := time.Now()
		st, err := raster.RenderScene(cfg.Buffer, state.Scene, cfg.Options)
		if err != nil {
			sum.Skipped++
			log.Warn("agent: state skipped", "state", state.Name, "err", err)
			cfg.Queues.Mouse.Flush()
			continue
		}
		sum.Failed += len(st.Failed)

		img := encode.Scaled(cfg.Buffer.Image(), cfg.Scale)
		data, err := cfg.Encoder.Bytes(img)
		if err != nil {
			return sum, fmt.Errorf("agent: state %s: %w", state.Name, err)
		}
		cfg.Hub.Publish(&stream.Frame{
			Data:        data,
			ContentType: cfg.Encoder.Format.ContentType(),
			Image:       img,
		})
		sum.Rendered++

		flushed := cfg.Queues.Mouse.Flush()
		log.Debug("agent: frame",
			"state", state.Name,
			"event", ev.Kind,
			"x", ev.X,
			"y", ev.Y,
			"flushed", flushed,
			"bytes", len(data),
			"elapsed", time.Since(start))
	}
}
