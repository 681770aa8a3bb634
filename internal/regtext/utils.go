package regtext

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// unescapeRegString unescapes a string from .reg format.
// .reg files escape backslashes as \\ and quotes as \"
func unescapeRegString(s string) string {
	if strings.IndexByte(s, '\\') == -1 {
		return s // no backslashes, no escapes
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '"') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// escapeRegString is the inverse of unescapeRegString.
func escapeRegString(s string) string {
	s = strings.ReplaceAll(s, Backslash, EscapedBackslash)
	s = strings.ReplaceAll(s, Quote, EscapedQuote)
	return s
}

// findClosingQuote finds the position of the closing quote in a line,
// accounting for escaped quotes (preceded by an odd number of backslashes).
// Returns -1 if no valid closing quote is found.
// The search starts at position 1 (assuming the opening quote is at position 0).
func findClosingQuote(line string) int {
	for i := 1; i < len(line); i++ {
		if line[i] != '"' {
			continue
		}
		numBackslashes := 0
		for j := i - 1; j >= 1 && line[j] == '\\'; j-- {
			numBackslashes++
		}
		if numBackslashes%2 == 1 {
			continue // escaped quote, keep looking
		}
		return i
	}
	return -1
}

// parseHexBytes parses hex data from .reg format (hex:01,02,03,...).
// It handles:
// - Removing the prefix (hex:, hex(7):, etc.) via the colon position
// - Whitespace left over from joined continuation lines
// - Comma-separated hex bytes
// - Single-digit bytes (auto-pads with 0).
func parseHexBytes(hexStr string) ([]byte, error) {
	colonPos := strings.Index(hexStr, ":")
	if colonPos == -1 {
		return nil, errors.New("invalid hex data format: missing colon")
	}
	hexStr = removeWhitespace(hexStr[colonPos+1:])

	parts := strings.Split(hexStr, HexByteSeparator)
	buf := make([]byte, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len(p) == 1 {
			p = "0" + p
		}
		b, err := hex.DecodeString(p)
		if err != nil || len(b) != 1 {
			return nil, fmt.Errorf("invalid hex byte %q", p)
		}
		buf = append(buf, b[0])
	}
	return buf, nil
}

// removeWhitespace removes whitespace and stray continuation characters.
func removeWhitespace(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, ch := range s {
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' && ch != '\\' {
			result.WriteRune(ch)
		}
	}
	return result.String()
}

// parseHexValueType extracts the type number from a hex(N): prefix.
// For example, "hex(2):" returns "2" and "hex(b):" returns "b".
func parseHexValueType(payload string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(payload), HexTypedPrefix) {
		return "", false
	}
	closeParen := strings.IndexByte(payload, ')')
	if closeParen <= len(HexTypedPrefix) {
		return "", false
	}
	return payload[len(HexTypedPrefix):closeParen], true
}
