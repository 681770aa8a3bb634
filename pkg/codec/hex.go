package codec

import (
	"strconv"
)

// FormatHex renders DWord/QWord data as "0x" followed by lowercase hex
// digits with no padding, e.g. 3389 -> "0xd3d". Other shapes report false.
func FormatHex(data any) (string, bool) {
	switch v := data.(type) {
	case uint32:
		return "0x" + strconv.FormatUint(uint64(v), 16), true
	case uint64:
		return "0x" + strconv.FormatUint(v, 16), true
	}
	return "", false
}
