// Package codec maps between the registry's native value encodings and the
// typed data the access layer hands to callers.
//
// The mapping is one table keyed by types.ValueKind:
//
//	DWord        uint32              <-> 4 bytes little-endian (REG_DWORD_BE decodes big-endian)
//	QWord        uint64              <-> 8 bytes little-endian
//	String       string              <-> UTF-16LE, NUL terminated
//	ExpandString types.ExpandString  <-> UTF-16LE, NUL terminated, %VAR% kept verbatim
//	MultiString  []string            <-> UTF-16LE strings, each NUL terminated, final extra NUL
//	Binary       []byte              <-> raw bytes
//	None         []byte              <-> raw bytes
//
// Encode validates caller data before anything reaches a transport: a
// MultiString with no elements, or any string holding an embedded NUL, is an
// InvalidArgument. Decode failures on platform data are TypeMismatch.
//
// Hex rendering (FormatHex) is a read-side presentation transform only; it
// never changes what is stored.
package codec
