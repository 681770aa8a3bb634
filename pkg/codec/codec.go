package codec

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/joshuapare/regremote/pkg/types"
)

const (
	dwordSize = 4
	qwordSize = 8
)

type entry struct {
	encode func(data any) ([]byte, error)
	decode func(raw []byte) (any, error)
}

// table holds one entry per ValueKind; REG_DWORD_BE is special-cased in Decode.
var table = map[types.ValueKind]entry{
	types.KindDWord:        {encode: encodeDWord, decode: decodeDWord},
	types.KindQWord:        {encode: encodeQWord, decode: decodeQWord},
	types.KindString:       {encode: encodeString, decode: decodeString},
	types.KindExpandString: {encode: encodeExpandString, decode: decodeExpandString},
	types.KindMultiString:  {encode: encodeMultiString, decode: decodeMultiString},
	types.KindBinary:       {encode: encodeBytes, decode: decodeBytes},
	types.KindNone:         {encode: encodeBytes, decode: decodeBytes},
}

// Encode converts typed data into the native tag and bytes for kind.
func Encode(kind types.ValueKind, data any) (types.RegType, []byte, error) {
	e, ok := table[kind]
	if !ok {
		return 0, nil, types.Errorf(types.ErrKindInvalidArgument, "unsupported value kind %s", kind)
	}
	raw, err := e.encode(data)
	if err != nil {
		return 0, nil, err
	}
	return kind.RegType(), raw, nil
}

// Decode converts native bytes into the kind and typed data they represent.
// Unknown native tags decode as KindNone raw bytes.
func Decode(rt types.RegType, raw []byte) (types.ValueKind, any, error) {
	kind := types.KindOfRegType(rt)
	if rt == types.REG_DWORD_BE {
		if len(raw) != dwordSize {
			return kind, nil, sizeMismatch(rt, dwordSize, len(raw))
		}
		return kind, binary.BigEndian.Uint32(raw), nil
	}
	data, err := table[kind].decode(raw)
	if err != nil {
		if _, typed := types.KindOf(err); !typed {
			err = types.Wrap(types.ErrKindTypeMismatch, err, "decode %s", rt)
		}
		return kind, nil, err
	}
	return kind, data, nil
}

func invalidShape(kind types.ValueKind, want string, got any) error {
	return types.Errorf(types.ErrKindInvalidArgument, "%s data must be %s, got %T", kind, want, got)
}

func sizeMismatch(rt types.RegType, want, got int) error {
	return types.Errorf(types.ErrKindTypeMismatch, "%s data is %d bytes, expected %d", rt, got, want)
}

func checkNoNUL(kind types.ValueKind, s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return types.Errorf(types.ErrKindInvalidArgument, "%s data must not contain NUL characters", kind)
	}
	return nil
}

func encodeDWord(data any) ([]byte, error) {
	v, ok := data.(uint32)
	if !ok {
		return nil, invalidShape(types.KindDWord, "uint32", data)
	}
	buf := make([]byte, dwordSize)
	binary.LittleEndian.PutUint32(buf, v)
	return buf, nil
}

func decodeDWord(raw []byte) (any, error) {
	if len(raw) != dwordSize {
		return nil, sizeMismatch(types.REG_DWORD, dwordSize, len(raw))
	}
	return binary.LittleEndian.Uint32(raw), nil
}

func encodeQWord(data any) ([]byte, error) {
	v, ok := data.(uint64)
	if !ok {
		return nil, invalidShape(types.KindQWord, "uint64", data)
	}
	buf := make([]byte, qwordSize)
	binary.LittleEndian.PutUint64(buf, v)
	return buf, nil
}

func decodeQWord(raw []byte) (any, error) {
	if len(raw) != qwordSize {
		return nil, sizeMismatch(types.REG_QWORD, qwordSize, len(raw))
	}
	return binary.LittleEndian.Uint64(raw), nil
}

func encodeString(data any) ([]byte, error) {
	s, ok := data.(string)
	if !ok {
		return nil, invalidShape(types.KindString, "string", data)
	}
	if err := checkNoNUL(types.KindString, s); err != nil {
		return nil, err
	}
	return encodeUTF16Z(s)
}

func decodeString(raw []byte) (any, error) {
	return decodeUTF16Z(raw)
}

func encodeExpandString(data any) ([]byte, error) {
	var s string
	switch v := data.(type) {
	case types.ExpandString:
		s = string(v)
	case string:
		s = v
	default:
		return nil, invalidShape(types.KindExpandString, "types.ExpandString", data)
	}
	if err := checkNoNUL(types.KindExpandString, s); err != nil {
		return nil, err
	}
	return encodeUTF16Z(s)
}

func decodeExpandString(raw []byte) (any, error) {
	s, err := decodeUTF16Z(raw)
	if err != nil {
		return nil, err
	}
	return types.ExpandString(s), nil
}

func encodeMultiString(data any) ([]byte, error) {
	values, ok := data.([]string)
	if !ok {
		return nil, invalidShape(types.KindMultiString, "[]string", data)
	}
	if len(values) == 0 {
		return nil, types.Errorf(types.ErrKindInvalidArgument, "MultiString data must contain at least one string")
	}
	var buf bytes.Buffer
	for i, v := range values {
		if v == "" {
			// an empty element would read back as the end of the list
			return nil, types.Errorf(types.ErrKindInvalidArgument, "MultiString element %d is empty", i)
		}
		if err := checkNoNUL(types.KindMultiString, v); err != nil {
			return nil, err
		}
		enc, err := encodeUTF16Z(v)
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
	}
	buf.Write([]byte{0, 0})
	return buf.Bytes(), nil
}

func decodeMultiString(raw []byte) (any, error) {
	s, err := decodeUTF16(raw)
	if err != nil {
		return nil, err
	}
	values := []string{}
	for _, part := range strings.Split(s, "\x00") {
		if part == "" {
			break
		}
		values = append(values, part)
	}
	return values, nil
}

func encodeBytes(data any) ([]byte, error) {
	b, ok := data.([]byte)
	if !ok {
		return nil, invalidShape(types.KindBinary, "[]byte", data)
	}
	return bytes.Clone(b), nil
}

func decodeBytes(raw []byte) (any, error) {
	if raw == nil {
		return []byte{}, nil
	}
	return bytes.Clone(raw), nil
}
