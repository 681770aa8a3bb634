package regtext

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	errUnsupportedEncoding = errors.New("regtext: unsupported encoding")

	utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// decodeInput converts input data to UTF-8 text. A byte order mark wins over
// the requested encoding.
func decodeInput(data []byte, enc string) (string, error) {
	if bytes.HasPrefix(data, UTF16LEBOM) {
		return decodeUTF16LE(data[len(UTF16LEBOM):])
	}
	if bytes.HasPrefix(data, UTF8BOM) {
		return string(data[len(UTF8BOM):]), nil
	}
	switch strings.ToUpper(enc) {
	case "", EncodingUTF8:
		return string(data), nil
	case EncodingUTF16LE:
		return decodeUTF16LE(data)
	case EncodingWindows1252:
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", errUnsupportedEncoding
	}
}

// decodeUTF16LE decodes UTF-16LE bytes; a dangling odd byte is dropped.
func decodeUTF16LE(data []byte) (string, error) {
	if len(data)%2 == 1 {
		data = data[:len(data)-1]
	}
	out, err := utf16LE.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// encodeOutput converts UTF-8 text into the requested output encoding.
func encodeOutput(text string, enc string, withBOM bool) ([]byte, error) {
	switch strings.ToUpper(enc) {
	case "", EncodingUTF8:
		return []byte(text), nil
	case EncodingUTF16LE:
		out, err := utf16LE.NewEncoder().Bytes([]byte(text))
		if err != nil {
			return nil, err
		}
		if withBOM {
			out = append(append([]byte(nil), UTF16LEBOM...), out...)
		}
		return out, nil
	default:
		return nil, errUnsupportedEncoding
	}
}

// encodeUTF16LEZeroTerminated encodes a string to UTF-16LE with a NUL terminator.
func encodeUTF16LEZeroTerminated(s string) ([]byte, error) {
	out, err := utf16LE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	return append(out, 0, 0), nil
}

// plainString reports whether data is a NUL-terminated UTF-16LE string with
// no control characters, so it can be written in quoted form on one line and
// read back to the same bytes.
func plainString(data []byte) (string, bool) {
	if len(data) < 2 || len(data)%2 != 0 || data[len(data)-1] != 0 || data[len(data)-2] != 0 {
		return "", false
	}
	s, err := decodeUTF16LE(data[:len(data)-2])
	if err != nil || strings.ContainsRune(s, '\uFFFD') || strings.ContainsFunc(s, isControl) {
		return "", false
	}
	if enc, err := encodeUTF16LEZeroTerminated(s); err != nil || !bytes.Equal(enc, data) {
		return "", false
	}
	return s, true
}

// isControl matches C0 and C1 control characters, which includes CR and LF.
func isControl(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r < 0xa0)
}
