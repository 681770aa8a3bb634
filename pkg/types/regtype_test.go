package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegType_String(t *testing.T) {
	tests := []struct {
		name     string
		regType  RegType
		expected string
	}{
		{name: "REG_NONE", regType: REG_NONE, expected: "REG_NONE"},
		{name: "REG_SZ", regType: REG_SZ, expected: "REG_SZ"},
		{name: "REG_EXPAND_SZ", regType: REG_EXPAND_SZ, expected: "REG_EXPAND_SZ"},
		{name: "REG_BINARY", regType: REG_BINARY, expected: "REG_BINARY"},
		{name: "REG_DWORD", regType: REG_DWORD, expected: "REG_DWORD"},
		{name: "REG_DWORD_BE", regType: REG_DWORD_BE, expected: "REG_DWORD_BE"},
		{name: "REG_MULTI_SZ", regType: REG_MULTI_SZ, expected: "REG_MULTI_SZ"},
		{name: "REG_QWORD", regType: REG_QWORD, expected: "REG_QWORD"},
		{name: "REG_RESOURCE_LIST", regType: REG_RESOURCE_LIST, expected: "REG_RESOURCE_LIST"},
		// Unknown types render as signed int32, matching hivex
		{name: "Unknown type 100", regType: RegType(100), expected: "UNKNOWN_TYPE_100"},
		{name: "Invalid type -1 (0xFFFFFFFF)", regType: RegType(0xFFFFFFFF), expected: "UNKNOWN_TYPE_-1"},
		{name: "Invalid type -65511 (0xFFFF0019)", regType: RegType(0xFFFF0019), expected: "UNKNOWN_TYPE_-65511"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.regType.String())
		})
	}
}

func TestValueKind_RegTypeMapping(t *testing.T) {
	kinds := []ValueKind{KindString, KindExpandString, KindBinary, KindDWord, KindMultiString, KindQWord}
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			assert.Equal(t, k, KindOfRegType(k.RegType()))
		})
	}

	assert.Equal(t, KindDWord, KindOfRegType(REG_DWORD_BE))
	assert.Equal(t, KindNone, KindOfRegType(REG_LINK))
	assert.Equal(t, KindNone, KindOfRegType(RegType(99)))
	assert.Equal(t, REG_NONE, KindNone.RegType())
}

func TestParseValueKind(t *testing.T) {
	tests := []struct {
		in   string
		want ValueKind
	}{
		{"dword", KindDWord},
		{"REG_DWORD", KindDWord},
		{"QWord", KindQWord},
		{"sz", KindString},
		{"expand_sz", KindExpandString},
		{"ExpandString", KindExpandString},
		{"multi_sz", KindMultiString},
		{"binary", KindBinary},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValueKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseValueKind("float")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseHive(t *testing.T) {
	tests := []struct {
		in   string
		want Hive
	}{
		{"HKLM", LocalMachine},
		{"hklm", LocalMachine},
		{"HKEY_LOCAL_MACHINE", LocalMachine},
		{"LocalMachine", LocalMachine},
		{"HKCU", CurrentUser},
		{"Users", Users},
		{"HKCR", ClassesRoot},
		{"HKEY_PERFORMANCE_DATA", PerformanceData},
		{"CurrentConfig", CurrentConfig},
		{"DynData", DynData},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHive(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseHive("HKEY_NOWHERE")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHive_Names(t *testing.T) {
	for _, h := range Hives() {
		parsed, err := ParseHive(h.RootName())
		require.NoError(t, err)
		assert.Equal(t, h, parsed)
	}
	assert.Equal(t, "HKEY_LOCAL_MACHINE", LocalMachine.RootName())
	assert.Equal(t, "LocalMachine", LocalMachine.String())
	assert.False(t, Hive(42).Valid())
	assert.Equal(t, "", Hive(42).RootName())
}

func TestKindsMarshalByName(t *testing.T) {
	out, err := json.Marshal(struct {
		Hive Hive
		Kind ValueKind
		Reg  RegType
	}{LocalMachine, KindMultiString, REG_MULTI_SZ})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Hive":"LocalMachine","Kind":"MultiString","Reg":"REG_MULTI_SZ"}`, string(out))
}
