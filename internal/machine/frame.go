package machine

// frame.go is the physical frame allocator.

import (
	"errors"
	"fmt"
)

// NumFrames is the number of page frames in physical memory.
const NumFrames = Frame(AddrSpace / PageSize)

// ReservedFrames is the count of frames consumed by the low-memory region
// reserved for the interrupt save area; the allocator never hands these out.
const ReservedFrames = Frame(UserSpaceAddr/PageSize) + 1

// FrameAllocator hands out physical frames by bumping a monotonically
// increasing counter. Frames are never reclaimed: the kernel this machine
// supports is short-lived enough that frame reuse is not worth the added
// bookkeeping (see spec Open Question 3).
type FrameAllocator struct {
	next Frame
}

// NewFrameAllocator creates an allocator whose first frame sits just past
// the reserved low-memory region.
func NewFrameAllocator() *FrameAllocator {
	return &FrameAllocator{next: ReservedFrames}
}

// AllocContiguous returns the first frame of a contiguous run of n frames,
// or ErrOutOfFrames if physical memory is exhausted.
func (a *FrameAllocator) AllocContiguous(n int) (Frame, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: non-positive frame count", ErrOutOfFrames)
	}

	start := a.next
	end := start + Frame(n)

	if end > NumFrames {
		return 0, fmt.Errorf("%w: want %d frames from %s", ErrOutOfFrames, n, start)
	}

	a.next = end

	return start, nil
}

var ErrOutOfFrames = errors.New("out of frames")
