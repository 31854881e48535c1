package keys

import "errors"

// Kind is a stable category for programmatic error handling. Callers should
// branch on Kind rather than matching error strings; Error() text is for
// humans and may evolve.
type Kind string

const (
	// KindMalformedURI marks a locator string that violates the grammar:
	// missing @, unknown key type, bad escape sequence, bad base64.
	KindMalformedURI Kind = "MalformedURI"
	// KindLength marks key material whose byte length does not match the
	// scheme's fixed size.
	KindLength Kind = "Length"
	// KindCrypto marks key material that cannot be turned into a usable
	// cryptographic key (unknown algorithm tag, missing derivation input).
	KindCrypto Kind = "Crypto"
)

// Error is the package's structured error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return newError(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
