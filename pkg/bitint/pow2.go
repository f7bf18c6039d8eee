/*
Package bitint provides the power-of-two helpers used to size FFT windows
and analysis buffers.

Design Principles:
- Zero Allocations: All operations use stack memory only
- Real-Time Safe: No locks, syscalls, or blocking operations

Usage:

	// Round a configured YIN buffer up to a transform-friendly size
	size := bitint.NextPowerOfTwo(3000) // Returns 4096

	// Validate a configured FFT size
	ok := bitint.IsPowerOfTwo(cfg.Analysis.SpectrumFFTSize)

----------------------------------------------------------------------

NextPowerOfTwo subtracts one before taking the bit length so that an
exact power of two maps to itself:

	size = 8, size-1 = 7 (0111), bits.Len(7) = 3, 1<<3 = 8
	size = 9, size-1 = 8 (1000), bits.Len(8) = 4, 1<<4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has exactly one bit set, so clearing its lowest set bit yields zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
