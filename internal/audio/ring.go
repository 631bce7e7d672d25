// SPDX-License-Identifier: MIT
package audio

import (
	"sync"

	"loopcheck/pkg/bitint"
)

// RingBuffer is a bounded FIFO of float32 samples with explicit read and
// write cursors. Writes never grow the buffer: samples that do not fit are
// dropped and counted. It is safe for one producer (the audio callback) and
// one consumer.
type RingBuffer struct {
	mu      sync.Mutex
	buf     []float32
	mask    int
	r, w    int // Monotonic cursors, w-r is the fill level.
	dropped int
}

// NewRingBuffer returns a ring holding at least minCapacity samples. The
// capacity is rounded up to a power of two.
func NewRingBuffer(minCapacity int) *RingBuffer {
	capacity := bitint.NextPowerOfTwo(minCapacity)
	return &RingBuffer{
		buf:  make([]float32, capacity),
		mask: bitint.WrapMask(capacity),
	}
}

// Write appends as many samples of p as fit and returns how many were stored.
func (b *RingBuffer) Write(p []float32) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(len(p), len(b.buf)-(b.w-b.r))
	start := b.w & b.mask
	k := copy(b.buf[start:], p[:n])
	copy(b.buf, p[k:n])

	b.w += n
	b.dropped += len(p) - n
	return n
}

// Read moves up to len(p) of the oldest samples into p and returns the count.
func (b *RingBuffer) Read(p []float32) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(len(p), b.w-b.r)
	start := b.r & b.mask
	k := copy(p[:n], b.buf[start:])
	copy(p[k:n], b.buf)

	b.r += n
	return n
}

// Len returns the number of unread samples.
func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.w - b.r
}

// Cap returns the fixed capacity.
func (b *RingBuffer) Cap() int {
	return len(b.buf)
}

// Dropped returns how many samples were discarded because the ring was full.
func (b *RingBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Reset discards all unread samples and the drop counter.
func (b *RingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.r, b.w, b.dropped = 0, 0, 0
}
