package catalog

import "math/rand/v2"

// Source supplies uniform random integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// pick returns a uniformly chosen element of pool, or the zero value for an empty pool.
func pick[T any](src Source, pool []T) T {
	var zero T
	if len(pool) == 0 {
		return zero
	}
	return pool[src.IntN(len(pool))]
}

// sample returns n distinct elements of pool in random order.
func sample[T any](src Source, pool []T, n int) []T {
	n = min(n, len(pool))
	cp := append([]T(nil), pool...)
	for i := 0; i < n; i++ {
		j := i + src.IntN(len(cp)-i)
		cp[i], cp[j] = cp[j], cp[i]
	}
	return cp[:n]
}
