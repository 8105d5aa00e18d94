// Package testutil provides deterministic random datasets for tests and
// benchmarks.
//
// All generators draw from an RNG seeded explicitly, so a failing test can be
// replayed with the same rows.
package testutil
