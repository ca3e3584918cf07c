// Package conv provides checked integer conversions.
//
// They guard conversions of values that come from outside the process, such
// as snapshot counts, and of counters that may outgrow the 32-bit slot space.
// Provably safe conversions use plain casts.
package conv
