// Package access reads and writes typed registry values through an open
// session.Key, using pkg/codec for every conversion.
//
// Absence is reported explicitly: Get and Remove fail with ValueNotFound when
// the value does not exist, while Exists never fails for a missing value. A
// present value with zero-length data is found, not absent.
//
// Mutations take a resolved confirmation flag. Callers obtain confirmation
// (force flag, prompt) before calling; an unconfirmed Set or Remove returns a
// Declined error without touching the key.
package access
