package block

import "errors"

// Kind is a stable category for programmatic error handling. Callers should
// branch on Kind rather than matching error strings.
type Kind string

const (
	// KindLength marks a header or data payload whose byte length does not
	// match the scheme's fixed size.
	KindLength Kind = "Length"
	// KindVerify marks a cryptographic or structural mismatch: the block
	// must be rejected and the sending peer treated as having sent bad
	// data. It is never a transient condition.
	KindVerify Kind = "Verify"
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

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
