package raster

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// A cell packs a biased depth in the high word and a draw-order tag in the
// low word. Tag 0 is whatever the buffer held before the pass; object k of
// the draw list has tag k+1. Comparing packed cells as unsigned integers
// orders by depth first and draw order second, which is exactly the
// first-drawn-wins rule of the sequential path.
func packCell(depth int32, tag uint32) uint64 {
	return uint64(uint32(depth)^0x80000000)<<32 | uint64(tag)
}

func cellDepth(c uint64) int32 {
	return int32(uint32(c>>32) ^ 0x80000000)
}

func cellTag(c uint64) uint32 {
	return uint32(c)
}

// compositeConcurrent draws all sprites in parallel. The read-compare-write
// on each pixel is one CAS on its cell; a second pass copies the winners'
// depth and color into the grids.
func compositeConcurrent(fb *FrameBuffer, list []sprite, workers int) {
	if len(list) == 0 {
		return
	}
	n := fb.Width * fb.Height
	if len(fb.cells) != n {
		fb.cells = make([]atomic.Uint64, n)
	}
	for i := range fb.cells {
		fb.cells[i].Store(packCell(fb.Depth[i], 0))
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for k := range list {
		sp := &list[k]
		tag := uint32(k + 1)
		g.Go(func() error {
			claimRows(fb, sp, tag)
			return nil
		})
	}
	g.Wait()

	var settle errgroup.Group
	band := (fb.Height + workers - 1) / workers
	for y := 0; y < fb.Height; y += band {
		y0, y1 := y, min(y+band, fb.Height)
		settle.Go(func() error {
			settleRows(fb, list, y0, y1)
			return nil
		})
	}
	settle.Wait()
}

func claimRows(fb *FrameBuffer, sp *sprite, tag uint32) {
	cand := packCell(sp.depth, tag)
	for y := sp.clip.Min.Y; y < sp.clip.Max.Y; y++ {
		row := y * fb.Width
		for x := sp.clip.Min.X; x < sp.clip.Max.X; x++ {
			cell := &fb.cells[row+x]
			for {
				old := cell.Load()
				if cand >= old || cell.CompareAndSwap(old, cand) {
					break
				}
			}
		}
	}
}

func settleRows(fb *FrameBuffer, list []sprite, y0, y1 int) {
	for y := y0; y < y1; y++ {
		row := y * fb.Width
		for x := 0; x < fb.Width; x++ {
			i := row + x
			c := fb.cells[i].Load()
			tag := cellTag(c)
			if tag == 0 {
				continue
			}
			sp := &list[tag-1]
			src := (y-sp.at.Y)*sp.img.Width*4 + (x-sp.at.X)*4
			fb.Depth[i] = cellDepth(c)
			copy(fb.Color[i*4:i*4+4], sp.img.Pix[src:src+4])
		}
	}
}
