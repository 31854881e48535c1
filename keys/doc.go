// Package keys implements the addressing layer of the store: node-level key
// material (CHK and SSK), the codecs those keys are written in, and the
// locator (URI) parser that turns a human-facing string into a typed key
// descriptor.
//
// All values in this package are immutable once constructed and safe to
// share between goroutines without locking.
package keys
