// Package crypt supplies the cryptographic capabilities consumed by the key
// and block layers: the SHA-256 digest helper and its wire identifier, DSA
// signing/verification over caller-supplied domain parameters (including the
// legacy truncated-digest form still found on old blocks), and the symmetric
// block-cipher capability used to bind document names to subspace keys.
//
// Nothing in this package holds mutable state after initialization; all
// operations are safe for concurrent use.
package crypt
