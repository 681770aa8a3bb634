package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/regremote/pkg/types"
)

// ParseText converts command-line arguments into typed data for kind.
// MultiString takes one argument per element; every other kind takes
// exactly one argument.
//
// Example:
//
//	data, err := codec.ParseText(types.KindDWord, []string{"0xd3d"})
//	// data == uint32(3389)
func ParseText(kind types.ValueKind, args []string) (any, error) {
	if kind == types.KindMultiString {
		if len(args) == 0 {
			return nil, types.Errorf(types.ErrKindInvalidArgument, "MultiString needs at least one element")
		}
		return append([]string(nil), args...), nil
	}
	if len(args) != 1 {
		return nil, types.Errorf(types.ErrKindInvalidArgument, "%s takes exactly one value, got %d", kind, len(args))
	}
	s := args[0]

	switch kind {
	case types.KindString:
		return s, nil

	case types.KindExpandString:
		return types.ExpandString(s), nil

	case types.KindDWord:
		v, err := parseInteger(s, 32)
		if err != nil {
			return nil, types.Wrap(types.ErrKindInvalidArgument, err, "invalid DWord value %q", s)
		}
		return uint32(v), nil

	case types.KindQWord:
		v, err := parseInteger(s, 64)
		if err != nil {
			return nil, types.Wrap(types.ErrKindInvalidArgument, err, "invalid QWord value %q", s)
		}
		return v, nil

	case types.KindBinary, types.KindNone:
		data, err := parseHexString(s)
		if err != nil {
			return nil, types.Wrap(types.ErrKindInvalidArgument, err, "invalid Binary value %q", s)
		}
		return data, nil
	}
	return nil, types.Errorf(types.ErrKindInvalidArgument, "unsupported value kind %s", kind)
}

// parseInteger accepts unsigned values in any base strconv understands
// (0x.., 0o.., decimal) and negative decimals, which wrap to their two's
// complement bit pattern.
func parseInteger(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, bits)
		if err != nil {
			return 0, err
		}
		if bits == 32 {
			return uint64(uint32(int32(v))), nil
		}
		return uint64(v), nil
	}
	return strconv.ParseUint(s, 0, bits)
}

// parseHexString parses a hex string (with or without 0x prefix, with or without separators)
func parseHexString(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ",", "", ":", "", "-", "").Replace(s)

	if len(s)%2 != 0 {
		return nil, errors.New("hex string must have even number of characters")
	}

	data := make([]byte, len(s)/2)
	for i := 0; i < len(data); i++ {
		val, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex at position %d: %w", i*2, err)
		}
		data[i] = byte(val)
	}

	return data, nil
}
