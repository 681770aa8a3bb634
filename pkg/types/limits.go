package types

import (
	"strings"
	"unicode/utf8"
)

// ============================================================================
// Windows Registry Limits Constants
// ============================================================================
// These constants define the official limits imposed by Windows Registry.
// Different Windows versions may have slightly different limits, but these
// represent the most commonly documented values.

const (
	// WindowsMaxValueSize1MB is the standard maximum size for a single
	// registry value's data (1 MB).
	WindowsMaxValueSize1MB = 1 << 20 // 1,048,576 bytes

	// WindowsMaxValueSize10MB is a relaxed maximum for large binary data.
	WindowsMaxValueSize10MB = 10 << 20 // 10,485,760 bytes

	// WindowsMaxValueSize64KB is a conservative maximum for constrained
	// environments.
	WindowsMaxValueSize64KB = 64 << 10 // 65,536 bytes

	// WindowsMaxKeyNameLen is the hard limit for a single path component
	// (measured in characters, not bytes).
	WindowsMaxKeyNameLen = 255

	// WindowsMaxValueNameLen is the hard limit for registry value names
	// (measured in characters, not bytes).
	WindowsMaxValueNameLen = 16383

	// WindowsMaxValueNameLenSmall is a much smaller limit for strict
	// validation scenarios.
	WindowsMaxValueNameLenSmall = 255

	// WindowsMaxTreeDepthPractical is the practical limit for key path depth.
	WindowsMaxTreeDepthPractical = 512
)

// Limits defines caller-side constraints checked before any platform call,
// so oversized input surfaces as InvalidArgument instead of a transport error.
type Limits struct {
	// MaxValueSize is the maximum size of a single value's encoded data in bytes.
	MaxValueSize int

	// MaxKeyNameLen is the maximum length of one key path component in characters.
	MaxKeyNameLen int

	// MaxValueNameLen is the maximum length of a value name in characters.
	MaxValueNameLen int

	// MaxTreeDepth is the maximum number of components in a key path.
	MaxTreeDepth int
}

// DefaultLimits returns the standard Windows registry limits.
func DefaultLimits() Limits {
	return Limits{
		MaxValueSize:    WindowsMaxValueSize1MB,
		MaxKeyNameLen:   WindowsMaxKeyNameLen,
		MaxValueNameLen: WindowsMaxValueNameLen,
		MaxTreeDepth:    WindowsMaxTreeDepthPractical,
	}
}

// RelaxedLimits allows large binary payloads.
// Use with caution - the platform may still reject them.
func RelaxedLimits() Limits {
	l := DefaultLimits()
	l.MaxValueSize = WindowsMaxValueSize10MB
	return l
}

// StrictLimits returns conservative limits for constrained environments.
func StrictLimits() Limits {
	l := DefaultLimits()
	l.MaxValueSize = WindowsMaxValueSize64KB
	l.MaxValueNameLen = WindowsMaxValueNameLenSmall
	return l
}

// CheckValueName validates a value name ("" is the default value).
func (l Limits) CheckValueName(name string) error {
	if n := utf8.RuneCountInString(name); l.MaxValueNameLen > 0 && n > l.MaxValueNameLen {
		return Errorf(ErrKindInvalidArgument, "value name is %d characters, limit is %d", n, l.MaxValueNameLen)
	}
	return nil
}

// CheckKeyPath validates a backslash-delimited, already normalized key path.
func (l Limits) CheckKeyPath(path string) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, `\`)
	if l.MaxTreeDepth > 0 && len(parts) > l.MaxTreeDepth {
		return Errorf(ErrKindInvalidArgument, "key path has %d components, limit is %d", len(parts), l.MaxTreeDepth)
	}
	for _, p := range parts {
		if p == "" {
			return Errorf(ErrKindInvalidArgument, "key path %q has an empty component", path)
		}
		if n := utf8.RuneCountInString(p); l.MaxKeyNameLen > 0 && n > l.MaxKeyNameLen {
			return Errorf(ErrKindInvalidArgument, "key name %q is %d characters, limit is %d", p, n, l.MaxKeyNameLen)
		}
	}
	return nil
}

// CheckDataSize validates an encoded payload length.
func (l Limits) CheckDataSize(n int) error {
	if l.MaxValueSize > 0 && n > l.MaxValueSize {
		return Errorf(ErrKindInvalidArgument, "value data is %d bytes, limit is %d", n, l.MaxValueSize)
	}
	return nil
}

// NormalizeKeyPath converts forward slashes to backslashes and trims
// surrounding separators, so "/Software/Vendor/" becomes `Software\Vendor`.
func NormalizeKeyPath(path string) string {
	path = strings.ReplaceAll(path, "/", `\`)
	for strings.Contains(path, `\\`) {
		path = strings.ReplaceAll(path, `\\`, `\`)
	}
	return strings.Trim(path, `\`)
}
