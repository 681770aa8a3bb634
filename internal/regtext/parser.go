package regtext

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/regremote/pkg/types"
)

// Op is one change described by a .reg file.
type Op interface {
	op()
}

// CreateKey ensures a key exists.
type CreateKey struct {
	Hive types.Hive
	Path string
}

// DeleteKey removes a key and everything below it.
type DeleteKey struct {
	Hive types.Hive
	Path string
}

// SetValue stores raw value data.
type SetValue struct {
	Hive types.Hive
	Path string
	Name string // "" for the default value
	Type types.RegType
	Data []byte
}

// DeleteValue removes one value.
type DeleteValue struct {
	Hive types.Hive
	Path string
	Name string
}

func (CreateKey) op()   {}
func (DeleteKey) op()   {}
func (SetValue) op()    {}
func (DeleteValue) op() {}

// ParseOptions controls input decoding.
type ParseOptions struct {
	// InputEncoding is used when the data carries no byte order mark:
	// "" or UTF-8, UTF-16LE, or WINDOWS-1252.
	InputEncoding string
}

type section struct {
	hive types.Hive
	path string
}

// Parse converts .reg text into operations, in file order.
func Parse(data []byte, opts ParseOptions) ([]Op, error) {
	text, err := decodeInput(data, opts.InputEncoding)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, ScannerInitialBufferSize), ScannerMaxLineSize)

	seenHeader := false
	var ops []Op
	var current *section
	var pending strings.Builder
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		trim := strings.TrimSpace(strings.TrimRight(scanner.Text(), CR))

		if pending.Len() > 0 {
			// hex data continued from the previous line
			if strings.HasSuffix(trim, Backslash) {
				pending.WriteString(strings.TrimSuffix(trim, Backslash))
				continue
			}
			pending.WriteString(trim)
			trim = pending.String()
			pending.Reset()
		} else if trim == "" || strings.HasPrefix(trim, CommentPrefix) {
			continue
		}

		if !seenHeader {
			if trim != RegFileHeader && trim != RegFileHeaderV4 {
				return nil, errors.New("regtext: missing header")
			}
			seenHeader = true
			continue
		}

		if strings.HasPrefix(trim, KeyOpenBracket) {
			if !strings.HasSuffix(trim, KeyCloseBracket) {
				return nil, fmt.Errorf("regtext: line %d: malformed section %q", lineNo, trim)
			}
			name := strings.TrimSuffix(strings.TrimPrefix(trim, KeyOpenBracket), KeyCloseBracket)
			if strings.HasPrefix(name, DeleteKeyPrefix) {
				sec, err := parseSection(strings.TrimSpace(name[1:]))
				if err != nil {
					return nil, fmt.Errorf("regtext: line %d: %w", lineNo, err)
				}
				ops = append(ops, DeleteKey{Hive: sec.hive, Path: sec.path})
				current = nil
				continue
			}
			sec, err := parseSection(name)
			if err != nil {
				return nil, fmt.Errorf("regtext: line %d: %w", lineNo, err)
			}
			current = &sec
			ops = append(ops, CreateKey{Hive: sec.hive, Path: sec.path})
			continue
		}

		if strings.HasSuffix(trim, Backslash) && !strings.HasSuffix(trim, Quote) {
			pending.WriteString(strings.TrimSuffix(trim, Backslash))
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("regtext: line %d: value without section: %q", lineNo, trim)
		}
		op, err := parseValueLine(*current, trim)
		if err != nil {
			return nil, fmt.Errorf("regtext: line %d: %w", lineNo, err)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !seenHeader {
		return nil, errors.New("regtext: missing header")
	}
	if pending.Len() > 0 {
		return nil, errors.New("regtext: unterminated line continuation at end of input")
	}
	return ops, nil
}

// parseSection splits "HKEY_LOCAL_MACHINE\SOFTWARE\Vendor" into its hive and
// relative path. Abbreviated roots (HKLM) are accepted.
func parseSection(name string) (section, error) {
	root, rest, _ := strings.Cut(name, Backslash)
	hive, err := types.ParseHive(root)
	if err != nil {
		return section{}, fmt.Errorf("unknown root in section %q", name)
	}
	return section{hive: hive, path: types.NormalizeKeyPath(rest)}, nil
}

func parseValueLine(sec section, line string) (Op, error) {
	if strings.HasPrefix(line, DefaultValuePrefix) {
		return parseValue(sec, "", line[len(DefaultValuePrefix):])
	}
	if !strings.HasPrefix(line, Quote) {
		return nil, fmt.Errorf("malformed value line %q", line)
	}
	end := findClosingQuote(line)
	if end < 0 {
		return nil, fmt.Errorf("unterminated value name in %q", line)
	}
	name := unescapeRegString(line[1:end])
	rest := strings.TrimLeft(line[end+1:], " \t")
	if !strings.HasPrefix(rest, ValueAssignment) {
		return nil, fmt.Errorf("missing '=' in %q", line)
	}
	return parseValue(sec, name, rest[1:])
}

func parseValue(sec section, name, payload string) (Op, error) {
	payload = strings.TrimSpace(payload)
	if payload == DeleteValueToken {
		return DeleteValue{Hive: sec.hive, Path: sec.path, Name: name}, nil
	}
	set := SetValue{Hive: sec.hive, Path: sec.path, Name: name}

	switch {
	case strings.HasPrefix(payload, Quote):
		if len(payload) < 2 || !strings.HasSuffix(payload, Quote) {
			return nil, fmt.Errorf("unterminated string %q", payload)
		}
		data, err := encodeUTF16LEZeroTerminated(unescapeRegString(payload[1 : len(payload)-1]))
		if err != nil {
			return nil, err
		}
		set.Type, set.Data = types.REG_SZ, data

	case strings.HasPrefix(strings.ToLower(payload), DWORDPrefix):
		hexPart := payload[len(DWORDPrefix):]
		if len(hexPart) != DWORDHexLength {
			return nil, fmt.Errorf("invalid dword %q", payload)
		}
		n, err := strconv.ParseUint(hexPart, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid dword %q: %w", payload, err)
		}
		set.Type, set.Data = types.REG_DWORD, binary.LittleEndian.AppendUint32(nil, uint32(n))

	case strings.HasPrefix(strings.ToLower(payload), "hex"):
		typ, data, err := parseHexPayload(payload)
		if err != nil {
			return nil, err
		}
		set.Type, set.Data = typ, data

	default:
		return nil, fmt.Errorf("unsupported value %q", payload)
	}
	return set, nil
}

func parseHexPayload(payload string) (types.RegType, []byte, error) {
	typ := types.REG_BINARY

	// typed hex values: hex(2), hex(7), hex(b), ...
	if typeNum, found := parseHexValueType(payload); found {
		n, err := strconv.ParseUint(typeNum, 16, 32)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid hex type %q", typeNum)
		}
		typ = types.RegType(n)
	}

	data, err := parseHexBytes(payload)
	if err != nil {
		return 0, nil, err
	}
	return typ, data, nil
}
