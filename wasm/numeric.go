package wasm

import "golang.org/x/exp/constraints"

// InBounds reports whether v falls within [lo, hi] inclusive. Used to
// structurally validate limits (min <= max).
func InBounds[T constraints.Integer](v, lo, hi T) bool {
	return lo <= v && v <= hi
}

// Clamp restricts v to [lo, hi] inclusive.
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
