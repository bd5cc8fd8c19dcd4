// Package testutil provides deterministic test data for column tests.
//
// This package is intended for use in tests and benchmarks only.
//
//	rng := testutil.NewRNG(4711)
//	s := rng.String(100)             // mixed-width UTF-16 content
//	vals := rng.Values(1000, 64, 0.1) // strings with ~10% nulls
package testutil
