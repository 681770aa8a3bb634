package types

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindConnection      ErrKind = iota // host unreachable, auth failure, transport refusal
	ErrKindKeyNotFound                    // subkey path missing under the hive
	ErrKindValueNotFound                  // named value missing under a valid key
	ErrKindInvalidArgument                // caller data violates a codec precondition
	ErrKindWrite                          // platform rejected the write
	ErrKindSessionClosed                  // operation on a released session/handle (usage bug)
	ErrKindTypeMismatch                   // stored bytes cannot be decoded as the reported kind
	ErrKindDeclined                       // confirmation gate answered no
)

var errKindNames = [...]string{
	ErrKindConnection:      "ConnectionError",
	ErrKindKeyNotFound:     "KeyNotFound",
	ErrKindValueNotFound:   "ValueNotFound",
	ErrKindInvalidArgument: "InvalidArgument",
	ErrKindWrite:           "WriteError",
	ErrKindSessionClosed:   "SessionClosed",
	ErrKindTypeMismatch:    "TypeMismatch",
	ErrKindDeclined:        "Declined",
}

func (k ErrKind) String() string {
	if k < 0 || int(k) >= len(errKindNames) {
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
	return errKindNames[k]
}

// MarshalText renders the kind by name.
func (k ErrKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Fatal reports whether the kind signals a bug in the calling layer rather
// than a misbehaving host.
func (k ErrKind) Fatal() bool {
	return k == ErrKindSessionClosed
}

// Error is a typed error with optional host/operation context and an
// underlying cause.
type Error struct {
	Kind ErrKind
	Host string // target host, when known
	Op   string // operation that failed (e.g., "open-key", "set-value")
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Host != "" {
		b.WriteString(e.Host)
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrKeyNotFound)
// holds for every key-not-found error regardless of message or context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// WithHost returns a copy of e carrying host.
func (e *Error) WithHost(host string) *Error {
	c := *e
	c.Host = host
	return &c
}

// WithOp returns a copy of e carrying op.
func (e *Error) WithOp(op string) *Error {
	c := *e
	c.Op = op
	return &c
}

// Sentinels commonly returned by implementations.
var (
	// ErrConnection indicates the session could not be established.
	ErrConnection = &Error{Kind: ErrKindConnection, Msg: "connection failed"}
	// ErrKeyNotFound indicates a missing subkey path.
	ErrKeyNotFound = &Error{Kind: ErrKindKeyNotFound, Msg: "key not found"}
	// ErrValueNotFound indicates a missing value under an existing key.
	ErrValueNotFound = &Error{Kind: ErrKindValueNotFound, Msg: "value not found"}
	// ErrInvalidArgument indicates caller data rejected before any platform call.
	ErrInvalidArgument = &Error{Kind: ErrKindInvalidArgument, Msg: "invalid argument"}
	// ErrWrite indicates the platform rejected a mutation.
	ErrWrite = &Error{Kind: ErrKindWrite, Msg: "write failed"}
	// ErrSessionClosed indicates use of a released session or key handle.
	ErrSessionClosed = &Error{Kind: ErrKindSessionClosed, Msg: "session closed"}
	// ErrTypeMismatch indicates stored data does not decode as its reported type.
	ErrTypeMismatch = &Error{Kind: ErrKindTypeMismatch, Msg: "registry value has different type"}
	// ErrDeclined indicates the confirmation gate refused a mutation.
	ErrDeclined = &Error{Kind: ErrKindDeclined, Msg: "operation declined"}
)

// Errorf builds a typed error with a formatted message.
func Errorf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a typed error around cause.
func Wrap(kind ErrKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
