package regtext

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/joshuapare/regremote/pkg/types"
)

// Key is one section of an emitted file.
type Key struct {
	Hive   types.Hive
	Path   string // relative to the hive root
	Values []Value
}

// Value is one line of a section.
type Value struct {
	Name string // "" for the default value
	Type types.RegType
	Data []byte
}

// EmitOptions controls output encoding.
type EmitOptions struct {
	// OutputEncoding is "" or UTF-8, or UTF-16LE (what regedit writes).
	OutputEncoding string
	// WithBOM prefixes UTF-16LE output with a byte order mark.
	WithBOM bool
}

// Emit renders keys as .reg text in the order given.
func Emit(keys []Key, opts EmitOptions) ([]byte, error) {
	var buf strings.Builder
	buf.WriteString(RegFileHeader + CRLF + CRLF)
	for _, k := range keys {
		buf.WriteString(KeyOpenBracket)
		buf.WriteString(sectionName(k.Hive, k.Path))
		buf.WriteString(KeyCloseBracket + CRLF)
		for _, v := range k.Values {
			emitValue(&buf, v)
		}
		buf.WriteString(CRLF)
	}
	return encodeOutput(buf.String(), opts.OutputEncoding, opts.WithBOM)
}

func sectionName(hive types.Hive, path string) string {
	if path == "" {
		return hive.RootName()
	}
	return hive.RootName() + Backslash + path
}

func emitValue(buf *strings.Builder, v Value) {
	var prefix string
	if v.Name == "" {
		prefix = DefaultValuePrefix
	} else {
		prefix = Quote + escapeRegString(v.Name) + Quote + ValueAssignment
	}
	buf.WriteString(prefix)

	switch v.Type {
	case types.REG_SZ:
		if s, ok := plainString(v.Data); ok {
			buf.WriteString(Quote + escapeRegString(s) + Quote)
			break
		}
		writeHex(buf, len(prefix), fmt.Sprintf(HexTypeFormat, uint32(v.Type)), v.Data)
	case types.REG_DWORD:
		if len(v.Data) == 4 {
			buf.WriteString(DWORDPrefix)
			fmt.Fprintf(buf, DWORDHexFormat, binary.LittleEndian.Uint32(v.Data))
			break
		}
		writeHex(buf, len(prefix), fmt.Sprintf(HexTypeFormat, uint32(v.Type)), v.Data)
	case types.REG_BINARY:
		writeHex(buf, len(prefix), HexPrefix, v.Data)
	default:
		writeHex(buf, len(prefix), fmt.Sprintf(HexTypeFormat, uint32(v.Type)), v.Data)
	}
	buf.WriteString(CRLF)
}

// writeHex writes comma-separated bytes, wrapping with a trailing backslash
// once a line passes HexLineWidth.
func writeHex(buf *strings.Builder, col int, prefix string, data []byte) {
	buf.WriteString(prefix)
	col += len(prefix)
	for i, b := range data {
		fmt.Fprintf(buf, HexByteFormat, b)
		col += 2
		if i == len(data)-1 {
			break
		}
		buf.WriteString(HexByteSeparator)
		col++
		if col >= HexLineWidth {
			buf.WriteString(Backslash + CRLF + HexContinuationIndent)
			col = len(HexContinuationIndent)
		}
	}
}
