package regtext

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regremote/pkg/types"
)

const sample = "Windows Registry Editor Version 5.00\r\n" +
	"\r\n" +
	"; machine settings\r\n" +
	"[HKEY_LOCAL_MACHINE\\SOFTWARE\\Vendor]\r\n" +
	"@=\"Vendor App\"\r\n" +
	"\"Port\"=dword:00000d3d\r\n" +
	"\"Path\"=\"C:\\\\Program Files\\\\\\\"App\\\"\"\r\n" +
	"\"Blob\"=hex:de,ad,\\\r\n" +
	"  be,ef\r\n" +
	"\"Env\"=hex(2):25,00,41,00,25,00,00,00\r\n" +
	"\"Big\"=hex(b):01,00,00,00,00,00,00,00\r\n" +
	"\"Old\"=-\r\n" +
	"\r\n" +
	"[-HKCU\\Software\\Gone]\r\n"

func TestParse(t *testing.T) {
	ops, err := Parse([]byte(sample), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, ops, 9)

	assert.Equal(t, CreateKey{Hive: types.LocalMachine, Path: `SOFTWARE\Vendor`}, ops[0])

	def := ops[1].(SetValue)
	assert.Equal(t, "", def.Name)
	assert.Equal(t, types.REG_SZ, def.Type)

	port := ops[2].(SetValue)
	assert.Equal(t, "Port", port.Name)
	assert.Equal(t, []byte{0x3d, 0x0d, 0, 0}, port.Data)

	path := ops[3].(SetValue)
	want, err := encodeUTF16LEZeroTerminated(`C:\Program Files\"App"`)
	require.NoError(t, err)
	assert.Equal(t, want, path.Data)

	blob := ops[4].(SetValue)
	assert.Equal(t, types.REG_BINARY, blob.Type)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, blob.Data)

	assert.Equal(t, types.REG_EXPAND_SZ, ops[5].(SetValue).Type)
	assert.Equal(t, types.REG_QWORD, ops[6].(SetValue).Type)
	assert.Equal(t, DeleteValue{Hive: types.LocalMachine, Path: `SOFTWARE\Vendor`, Name: "Old"}, ops[7])
}

func TestParse_DeleteKey(t *testing.T) {
	ops, err := Parse([]byte(sample), ParseOptions{})
	require.NoError(t, err)
	last := ops[len(ops)-1]
	assert.Equal(t, DeleteKey{Hive: types.CurrentUser, Path: `Software\Gone`}, last)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no header", "[HKEY_LOCAL_MACHINE\\X]\r\n"},
		{"empty", ""},
		{"unknown root", RegFileHeader + "\r\n[HKEY_NOWHERE\\X]\r\n"},
		{"value before section", RegFileHeader + "\r\n\"a\"=dword:00000001\r\n"},
		{"bad dword", RegFileHeader + "\r\n[HKLM\\X]\r\n\"a\"=dword:1\r\n"},
		{"bad hex", RegFileHeader + "\r\n[HKLM\\X]\r\n\"a\"=hex:zz\r\n"},
		{"dangling continuation", RegFileHeader + "\r\n[HKLM\\X]\r\n\"a\"=hex:01,\\\r\n"},
		{"unterminated name", RegFileHeader + "\r\n[HKLM\\X]\r\n\"a=dword:00000001\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), ParseOptions{})
			assert.Error(t, err)
		})
	}
}

func TestParse_Encodings(t *testing.T) {
	utf16, err := encodeOutput(sample, EncodingUTF16LE, true)
	require.NoError(t, err)
	ops, err := Parse(utf16, ParseOptions{})
	require.NoError(t, err, "BOM selects UTF-16LE")
	assert.Len(t, ops, 9)

	ansi := []byte("REGEDIT4\r\n[HKEY_CURRENT_USER\\X]\r\n\"Name\"=\"caf\xe9\"\r\n")
	ops, err = Parse(ansi, ParseOptions{InputEncoding: EncodingWindows1252})
	require.NoError(t, err)
	want, err := encodeUTF16LEZeroTerminated("café")
	require.NoError(t, err)
	assert.Equal(t, want, ops[1].(SetValue).Data)

	_, err = Parse([]byte(sample), ParseOptions{InputEncoding: "EBCDIC"})
	assert.ErrorIs(t, err, errUnsupportedEncoding)
}

func TestEmitParseRoundTrip(t *testing.T) {
	str, err := encodeUTF16LEZeroTerminated(`quote " and \ slash`)
	require.NoError(t, err)
	long := make([]byte, 100)
	for i := range long {
		long[i] = byte(i)
	}
	keys := []Key{
		{Hive: types.LocalMachine, Path: `SOFTWARE\Vendor`, Values: []Value{
			{Name: "", Type: types.REG_SZ, Data: str},
			{Name: `we"ird\name`, Type: types.REG_DWORD, Data: []byte{1, 2, 3, 4}},
			{Name: "Long", Type: types.REG_BINARY, Data: long},
			{Name: "Empty", Type: types.REG_SZ, Data: nil},
			{Name: "ShortDword", Type: types.REG_DWORD, Data: []byte{1}},
			{Name: "None", Type: types.REG_NONE, Data: []byte{}},
		}},
		{Hive: types.Users, Path: `S-1-5-18\Env`},
	}

	for _, enc := range []string{"", EncodingUTF16LE} {
		out, err := Emit(keys, EmitOptions{OutputEncoding: enc, WithBOM: true})
		require.NoError(t, err)

		ops, err := Parse(out, ParseOptions{})
		require.NoError(t, err)
		require.Len(t, ops, 8)
		assert.Equal(t, CreateKey{Hive: types.LocalMachine, Path: `SOFTWARE\Vendor`}, ops[0])
		for i, v := range keys[0].Values {
			got := ops[i+1].(SetValue)
			assert.Equal(t, v.Name, got.Name)
			assert.Equal(t, v.Type, got.Type)
			if len(v.Data) == 0 {
				assert.Empty(t, got.Data)
			} else {
				assert.Equal(t, v.Data, got.Data)
			}
		}
		assert.Equal(t, CreateKey{Hive: types.Users, Path: `S-1-5-18\Env`}, ops[7])
	}
}

func TestEmitParseRoundTrip_ControlCharacters(t *testing.T) {
	values := []string{"line1\nline2", "crlf\r\nend", "tab\there", "bell\a"}
	var vals []Value
	for i, v := range values {
		data, err := encodeUTF16LEZeroTerminated(v)
		require.NoError(t, err)
		vals = append(vals, Value{Name: fmt.Sprintf("V%d", i), Type: types.REG_SZ, Data: data})
	}
	out, err := Emit([]Key{{Hive: types.LocalMachine, Path: "App", Values: vals}}, EmitOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"V0"=hex(1):`)

	ops, err := Parse(out, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, ops, len(vals)+1)
	for i, v := range vals {
		got := ops[i+1].(SetValue)
		assert.Equal(t, v.Name, got.Name)
		assert.Equal(t, types.REG_SZ, got.Type)
		assert.Equal(t, v.Data, got.Data, values[i])
	}

	_, ok := plainString(vals[0].Data)
	assert.False(t, ok)
}

func TestEmit_Format(t *testing.T) {
	str, err := encodeUTF16LEZeroTerminated("hi")
	require.NoError(t, err)
	out, err := Emit([]Key{{Hive: types.CurrentUser, Path: "App", Values: []Value{
		{Name: "S", Type: types.REG_SZ, Data: str},
		{Name: "D", Type: types.REG_DWORD, Data: []byte{0x3d, 0x0d, 0, 0}},
		{Name: "Q", Type: types.REG_QWORD, Data: []byte{1, 0, 0, 0, 0, 0, 0, 0}},
	}}}, EmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, RegFileHeader+"\r\n\r\n"+
		"[HKEY_CURRENT_USER\\App]\r\n"+
		"\"S\"=\"hi\"\r\n"+
		"\"D\"=dword:00000d3d\r\n"+
		"\"Q\"=hex(b):01,00,00,00,00,00,00,00\r\n"+
		"\r\n", string(out))
}
