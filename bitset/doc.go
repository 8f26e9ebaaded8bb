
// Package bitset provides support for treating a []uintptr as a bitset.  It's
// essentially a less-abstracted variant of github.com/willf/bitset.
package bitset
