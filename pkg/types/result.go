package types

import (
	"strings"
)

// DefaultValueMarker is reported as the value name of a key's unnamed slot.
const DefaultValueMarker = "(default)"

// ExpandString is REG_EXPAND_SZ data. It keeps %VAR% references verbatim
// until Expand is called explicitly.
type ExpandString string

// Expand substitutes %NAME% references using lookup. References lookup does
// not know, and unterminated '%' runs, are left as written.
func (s ExpandString) Expand(lookup func(name string) (string, bool)) string {
	in := string(s)
	var b strings.Builder
	b.Grow(len(in))
	for {
		start := strings.IndexByte(in, '%')
		if start < 0 {
			b.WriteString(in)
			return b.String()
		}
		end := strings.IndexByte(in[start+1:], '%')
		if end < 0 {
			b.WriteString(in)
			return b.String()
		}
		end += start + 1
		name := in[start+1 : end]
		if val, ok := lookup(name); ok && name != "" {
			b.WriteString(in[:start])
			b.WriteString(val)
			in = in[end+1:]
			continue
		}
		// keep the opening '%' and rescan from the closing one
		b.WriteString(in[:end])
		in = in[end:]
	}
}

// Result is the uniform record returned per host/value combination.
// Results are built by the codec after a successful decode and must be
// treated as immutable by callers.
type Result struct {
	ComputerName string    `json:"computerName"`
	Hive         Hive      `json:"hive"`
	Key          string    `json:"key"`
	Value        string    `json:"value"`
	Data         any       `json:"data"`
	Type         ValueKind `json:"type"`
	RegType      RegType   `json:"regType"`

	// Hex is the 0x-prefixed lowercase rendering of DWord/QWord data, set
	// only when hex presentation was requested.
	Hex string `json:"hex,omitempty"`
	// Expanded holds ExpandString data with references expanded, set only
	// when expansion was requested.
	Expanded string `json:"expanded,omitempty"`
}

// IsDefault reports whether the result describes the unnamed value.
func (r *Result) IsDefault() bool {
	return r.Value == DefaultValueMarker
}

// ValueName returns the platform value name ("" for the default value).
func (r *Result) ValueName() string {
	if r.IsDefault() {
		return ""
	}
	return r.Value
}

// DisplayName maps the platform value name onto the result's Value field.
func DisplayName(name string) string {
	if name == "" {
		return DefaultValueMarker
	}
	return name
}

// DataMatchesKind reports whether data has the Go shape kind promises:
// uint32 for DWord, uint64 for QWord, string for String, ExpandString for
// ExpandString, []string for MultiString and []byte for Binary/None.
func DataMatchesKind(kind ValueKind, data any) bool {
	switch kind {
	case KindDWord:
		_, ok := data.(uint32)
		return ok
	case KindQWord:
		_, ok := data.(uint64)
		return ok
	case KindString:
		_, ok := data.(string)
		return ok
	case KindExpandString:
		_, ok := data.(ExpandString)
		return ok
	case KindMultiString:
		_, ok := data.([]string)
		return ok
	case KindBinary, KindNone:
		_, ok := data.([]byte)
		return ok
	}
	return false
}

// MarshalText renders the native tag by name.
func (t RegType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
