package vmath

// FastRand is a xorshift64 generator; deterministic for a given seed, not safe for concurrent use
type FastRand struct {
	state uint64
}

// NewFastRand creates a generator; a zero seed is replaced by 1
func NewFastRand(seed uint64) *FastRand {
	if seed == 0 {
		seed = 1
	}
	return &FastRand{state: seed}
}

// Next returns the next raw value
func (r *FastRand) Next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

// Intn returns a value in [0, n)
func (r *FastRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() % uint64(n))
}

// Float64 returns a value in [0, 1)
func (r *FastRand) Float64() float64 {
	return float64(r.Next()>>11) / (1 << 53)
}

// Chance returns true with probability p
func (r *FastRand) Chance(p float64) bool {
	return r.Float64() < p
}
