// Package randutil derives reproducible random sources from int64 seeds. It
// exists for simulations and tests; live hands use crypto/rand.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Reader is a deterministic byte stream. It can stand in for crypto/rand
// wherever an io.Reader entropy source is accepted. Not safe for concurrent
// use.
type Reader struct {
	rng *rand.Rand
}

// NewReader returns a Reader producing the stream for seed.
func NewReader(seed int64) *Reader {
	return &Reader{rng: New(seed)}
}

// Read fills p and never fails.
func (r *Reader) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := r.rng.Uint64()
		for j := 0; j < 8 && i+j < len(p); j++ {
			p[i+j] = byte(v >> (8 * j))
		}
	}
	return len(p), nil
}

// Derive mixes a stream index into seed, giving independent seeds for the
// hands of one simulation.
func Derive(seed int64, index int) int64 {
	return int64(mix(uint64(seed) + uint64(index)*goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
