package testutil

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Alphabet mixes ASCII, Latin-1, Cyrillic, CJK and a supplementary-plane rune
// so generated strings exercise one- and two-unit UTF-16 encodings.
var Alphabet = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789äöüßжщ中文😀")

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed^0x9e3779b97f4a7c15))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Int64 returns a pseudo-random int64.
func (r *RNG) Int64() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(r.rand.Uint64()) //nolint:gosec // any bit pattern is wanted
}

// Bytes returns n random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.rand.Uint32())
	}
	return b
}

// String returns a string of n runes drawn from Alphabet.
func (r *RNG) String(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sb strings.Builder
	for range n {
		sb.WriteRune(Alphabet[r.rand.IntN(len(Alphabet))])
	}
	return sb.String()
}

// Value is one generated record of a variable-width column.
type Value struct {
	Str  string
	Null bool
}

// Values generates n records. Roughly nullRatio of them are null and the rest
// have between 0 and maxLen runes.
func (r *RNG) Values(n, maxLen int, nullRatio float64) []Value {
	out := make([]Value, n)
	for i := range out {
		r.mu.Lock()
		null := r.rand.Float64() < nullRatio
		length := r.rand.IntN(maxLen + 1)
		r.mu.Unlock()
		if null {
			out[i] = Value{Null: true}
			continue
		}
		out[i] = Value{Str: r.String(length)}
	}
	return out
}
