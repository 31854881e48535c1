// Package block implements key-block verification: proving that a raw
// data+headers pair delivered by an untrusted peer is consistent with the
// key it was requested under.
//
// Verification is pure, synchronous and CPU-bound. A constructor either
// returns a fully verified block or an error; no partially verified block is
// ever observable. Constructed blocks are immutable and safe to share.
package block
