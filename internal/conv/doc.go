// Package conv provides checked integer conversions between row positions
// (int) and bitmap positions (uint32).
package conv
