package stream

import (
	"context"
	"image"
	"sync"
)

// Frame is one published, already-encoded frame.
type Frame struct {
	Seq         uint64
	Data        []byte
	ContentType string
	Image       *image.NRGBA // unencoded color grid, used for snapshots
}

// Hub keeps only the latest frame. Subscribers that fall behind skip
// straight to the newest one.
type Hub struct {
	mu     sync.Mutex
	cur    *Frame
	notify chan struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{notify: make(chan struct{})}
}

// Publish replaces the latest frame and wakes all waiters. It assigns Seq.
func (h *Hub) Publish(f *Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur != nil {
		f.Seq = h.cur.Seq + 1
	} else {
		f.Seq = 1
	}
	h.cur = f
	close(h.notify)
	h.notify = make(chan struct{})
}

// Latest returns the newest frame, or nil before the first Publish.
func (h *Hub) Latest() *Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cur
}

// Wait blocks until a frame newer than after is available.
func (h *Hub) Wait(ctx context.Context, after uint64) (*Frame, error) {
	for {
		h.mu.Lock()
		cur, ch := h.cur, h.notify
		h.mu.Unlock()
		if cur != nil && cur.Seq > after {
			return cur, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
