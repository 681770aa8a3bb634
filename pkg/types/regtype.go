package types

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Native registry type tags
// -----------------------------------------------------------------------------

// RegType enumerates Windows registry value types.
// (The numbers align with Windows definitions.)
type RegType uint32

const (
	REG_NONE                       RegType = 0
	REG_SZ                         RegType = 1
	REG_EXPAND_SZ                  RegType = 2
	REG_BINARY                     RegType = 3
	REG_DWORD                      RegType = 4
	REG_DWORD_LE                   RegType = 4 // alias for clarity
	REG_DWORD_BE                   RegType = 5
	REG_LINK                       RegType = 6
	REG_MULTI_SZ                   RegType = 7
	REG_RESOURCE_LIST              RegType = 8
	REG_FULL_RESOURCE_DESCRIPTOR   RegType = 9
	REG_RESOURCE_REQUIREMENTS_LIST RegType = 10
	REG_QWORD                      RegType = 11
)

// String implements the Stringer interface for RegType
func (t RegType) String() string {
	switch t {
	case REG_NONE:
		return "REG_NONE"
	case REG_SZ:
		return "REG_SZ"
	case REG_EXPAND_SZ:
		return "REG_EXPAND_SZ"
	case REG_BINARY:
		return "REG_BINARY"
	case REG_DWORD:
		return "REG_DWORD"
	case REG_DWORD_BE:
		return "REG_DWORD_BE"
	case REG_LINK:
		return "REG_LINK"
	case REG_MULTI_SZ:
		return "REG_MULTI_SZ"
	case REG_RESOURCE_LIST:
		return "REG_RESOURCE_LIST"
	case REG_FULL_RESOURCE_DESCRIPTOR:
		return "REG_FULL_RESOURCE_DESCRIPTOR"
	case REG_RESOURCE_REQUIREMENTS_LIST:
		return "REG_RESOURCE_REQUIREMENTS_LIST"
	case REG_QWORD:
		return "REG_QWORD"
	default:
		return fmt.Sprintf("UNKNOWN_TYPE_%d", int32(t))
	}
}

// -----------------------------------------------------------------------------
// Value kinds
// -----------------------------------------------------------------------------

// ValueKind is the closed set of value shapes the access layer understands.
// It mirrors the native type tags that carry data the codec can decode; every
// other native tag collapses into KindNone and is surfaced as raw bytes.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindString
	KindExpandString
	KindBinary
	KindDWord
	KindMultiString
	KindQWord
)

var kindNames = [...]string{
	KindNone:         "None",
	KindString:       "String",
	KindExpandString: "ExpandString",
	KindBinary:       "Binary",
	KindDWord:        "DWord",
	KindMultiString:  "MultiString",
	KindQWord:        "QWord",
}

func (k ValueKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText renders the kind by name so JSON output stays readable.
func (k ValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RegType returns the native tag written for values of this kind.
func (k ValueKind) RegType() RegType {
	switch k {
	case KindString:
		return REG_SZ
	case KindExpandString:
		return REG_EXPAND_SZ
	case KindBinary:
		return REG_BINARY
	case KindDWord:
		return REG_DWORD
	case KindMultiString:
		return REG_MULTI_SZ
	case KindQWord:
		return REG_QWORD
	default:
		return REG_NONE
	}
}

// KindOfRegType maps a native tag onto the kind used to decode it.
// REG_DWORD_BE decodes as a DWord; unknown tags are KindNone.
func KindOfRegType(t RegType) ValueKind {
	switch t {
	case REG_SZ:
		return KindString
	case REG_EXPAND_SZ:
		return KindExpandString
	case REG_BINARY:
		return KindBinary
	case REG_DWORD, REG_DWORD_BE:
		return KindDWord
	case REG_MULTI_SZ:
		return KindMultiString
	case REG_QWORD:
		return KindQWord
	default:
		return KindNone
	}
}

// ParseValueKind accepts kind names ("DWord"), native names ("REG_DWORD") and
// the short CLI spellings ("dword", "sz", "expand_sz", "multi_sz").
func ParseValueKind(s string) (ValueKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STRING", "SZ", "REG_SZ":
		return KindString, nil
	case "EXPANDSTRING", "EXPAND_SZ", "REG_EXPAND_SZ":
		return KindExpandString, nil
	case "BINARY", "REG_BINARY":
		return KindBinary, nil
	case "DWORD", "REG_DWORD":
		return KindDWord, nil
	case "MULTISTRING", "MULTI_SZ", "REG_MULTI_SZ":
		return KindMultiString, nil
	case "QWORD", "REG_QWORD":
		return KindQWord, nil
	case "NONE", "REG_NONE":
		return KindNone, nil
	}
	return KindNone, Errorf(ErrKindInvalidArgument, "unknown value kind %q", s)
}

// -----------------------------------------------------------------------------
// Hives
// -----------------------------------------------------------------------------

// Hive selects one of the fixed registry roots.
type Hive int

const (
	ClassesRoot Hive = iota
	CurrentUser
	LocalMachine
	Users
	PerformanceData
	CurrentConfig
	DynData
)

type hiveName struct {
	full, short, pretty string
}

var hiveNames = [...]hiveName{
	ClassesRoot:     {"HKEY_CLASSES_ROOT", "HKCR", "ClassesRoot"},
	CurrentUser:     {"HKEY_CURRENT_USER", "HKCU", "CurrentUser"},
	LocalMachine:    {"HKEY_LOCAL_MACHINE", "HKLM", "LocalMachine"},
	Users:           {"HKEY_USERS", "HKU", "Users"},
	PerformanceData: {"HKEY_PERFORMANCE_DATA", "HKPD", "PerformanceData"},
	CurrentConfig:   {"HKEY_CURRENT_CONFIG", "HKCC", "CurrentConfig"},
	DynData:         {"HKEY_DYN_DATA", "HKDD", "DynData"},
}

// Hives lists every hive in declaration order.
func Hives() []Hive {
	return []Hive{ClassesRoot, CurrentUser, LocalMachine, Users, PerformanceData, CurrentConfig, DynData}
}

// Valid reports whether h is one of the declared hives.
func (h Hive) Valid() bool {
	return h >= ClassesRoot && h <= DynData
}

// String returns the enum name used in results ("LocalMachine").
func (h Hive) String() string {
	if !h.Valid() {
		return fmt.Sprintf("Hive(%d)", int(h))
	}
	return hiveNames[h].pretty
}

// RootName returns the full root name used in .reg files ("HKEY_LOCAL_MACHINE").
func (h Hive) RootName() string {
	if !h.Valid() {
		return ""
	}
	return hiveNames[h].full
}

// MarshalText renders the hive by enum name.
func (h Hive) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// ParseHive accepts enum names, full root names and abbreviations,
// case-insensitively.
func ParseHive(s string) (Hive, error) {
	want := strings.TrimSpace(s)
	for i, n := range hiveNames {
		if strings.EqualFold(want, n.full) || strings.EqualFold(want, n.short) || strings.EqualFold(want, n.pretty) {
			return Hive(i), nil
		}
	}
	return 0, Errorf(ErrKindInvalidArgument, "unknown hive %q", s)
}

// -----------------------------------------------------------------------------
// Access modes
// -----------------------------------------------------------------------------

// AccessMode is requested when a subkey is opened. Only mutating operations
// ask for ReadWrite.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	ReadWrite
)

func (m AccessMode) String() string {
	if m == ReadWrite {
		return "ReadWrite"
	}
	return "ReadOnly"
}
