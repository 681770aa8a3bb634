package codec

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// utf16LE is the wire encoding for every string-shaped registry value.
var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// encodeUTF16Z encodes s to UTF-16LE followed by a NUL code unit.
func encodeUTF16Z(s string) ([]byte, error) {
	out, err := utf16LE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	return append(out, 0, 0), nil
}

// decodeUTF16 decodes UTF-16LE bytes. A dangling odd byte is dropped.
func decodeUTF16(raw []byte) (string, error) {
	if len(raw)%2 == 1 {
		raw = raw[:len(raw)-1]
	}
	if len(raw) == 0 {
		return "", nil
	}
	out, err := utf16LE.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// decodeUTF16Z decodes a NUL-terminated UTF-16LE string; anything after the
// first NUL code unit is ignored.
func decodeUTF16Z(raw []byte) (string, error) {
	s, err := decodeUTF16(raw)
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s, nil
}
