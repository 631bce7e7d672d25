// SPDX-License-Identifier: MIT
//
// Package bitint provides the power-of-two helpers used to size capture
// buffers. A power-of-two capacity lets ring cursors wrap with a bit mask
// instead of a modulo in the audio callback.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Sizes <= 0
// return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
//
// size-1 keeps exact powers of two unchanged: bits.Len(7) is 3 and 1<<3 is 8,
// whereas bits.Len(8) would be 4 and double the input.
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// WrapMask returns the index mask for a ring of the given power-of-two
// capacity. It panics on any other capacity.
func WrapMask(capacity int) int {
	if !IsPowerOfTwo(capacity) {
		panic("bitint: capacity must be a power of two")
	}
	return capacity - 1
}
