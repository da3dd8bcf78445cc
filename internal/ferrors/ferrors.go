// Package ferrors defines the closed taxonomy of failures every remote
// filesystem backend surfaces, per spec.md §7.
package ferrors

import "fmt"

// Kind is the closed set of error kinds shared by all backends.
type Kind int

const (
	AuthenticationFailed Kind = iota
	BadAddress
	ConnectionRefused
	ConnectionError
	DirStatFailed
	FileCreateDenied
	IoErr
	NoSuchFile
	PexError
	ProtocolError
	UninitializedSession
	UnsupportedFeature
	InvalidFormat
)

func (k Kind) String() string {
	switch k {
	case AuthenticationFailed:
		return "authentication failed"
	case BadAddress:
		return "bad address"
	case ConnectionRefused:
		return "connection refused"
	case ConnectionError:
		return "connection error"
	case DirStatFailed:
		return "could not stat directory"
	case FileCreateDenied:
		return "failed to create file"
	case IoErr:
		return "io error"
	case NoSuchFile:
		return "no such file or directory"
	case PexError:
		return "permission denied"
	case ProtocolError:
		return "protocol error"
	case UninitializedSession:
		return "uninitialized session"
	case UnsupportedFeature:
		return "unsupported feature"
	case InvalidFormat:
		return "invalid format"
	default:
		return "unknown error"
	}
}

// Error is the concrete error value every contract operation returns on
// failure. Message carries backend-specific detail; Kind is what callers
// branch on.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no extra message.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that carries an underlying cause, typically an
// *os.PathError or similar stdlib error translated into the taxonomy.
func Wrap(kind Kind, cause error) *Error {
	if cause == nil {
		return New(kind)
	}
	return &Error{Kind: kind, Message: cause.Error(), Cause: cause}
}

// Is reports whether err is an *Error of the given Kind. It follows the
// error chain via errors.As semantics manually since Kind has no
// identity beyond this package.
func Is(err error, kind Kind) bool {
	var fe *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			fe = asErr
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return fe != nil && fe.Kind == kind
}
