package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regremote/internal/transport/memreg"
	"github.com/joshuapare/regremote/pkg/session"
	"github.com/joshuapare/regremote/pkg/types"
)

const testKey = `SOFTWARE\Vendor\App`

func openKey(t *testing.T, r *memreg.Registry, mode types.AccessMode) *session.Key {
	t.Helper()
	s, err := session.Open(context.Background(), r, "srv1", types.LocalMachine, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	k, err := s.OpenKey(testKey, mode)
	require.NoError(t, err)
	return k
}

func newRegistry() *memreg.Registry {
	r := memreg.New()
	r.PutKey("srv1", types.LocalMachine, testKey)
	return r
}

func TestSetGet_ReadYourWrite(t *testing.T) {
	tests := []struct {
		name string
		kind types.ValueKind
		data any
	}{
		{"DWordValue", types.KindDWord, uint32(3389)},
		{"QWordValue", types.KindQWord, uint64(1) << 40},
		{"StringValue", types.KindString, "hello"},
		{"EmptyString", types.KindString, ""},
		{"ExpandValue", types.KindExpandString, types.ExpandString(`%ProgramFiles%\App`)},
		{"MultiValue", types.KindMultiString, []string{"one", "two"}},
		{"BinaryValue", types.KindBinary, []byte{0xde, 0xad}},
		{"EmptyBinary", types.KindBinary, []byte{}},
	}

	k := openKey(t, newRegistry(), types.ReadWrite)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			written, err := Set(k, tt.name, tt.kind, tt.data, true)
			require.NoError(t, err)
			assert.Equal(t, tt.data, written.Data)
			assert.Equal(t, tt.kind, written.Type)

			got, err := Get(k, tt.name, GetOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.data, got.Data)
			assert.Equal(t, tt.kind, got.Type)
			assert.Equal(t, "srv1", got.ComputerName)
			assert.Equal(t, types.LocalMachine, got.Hive)
			assert.Equal(t, testKey, got.Key)
			assert.Equal(t, tt.name, got.Value)
			assert.True(t, types.DataMatchesKind(got.Type, got.Data))
		})
	}
}

func TestGet_ValueNotFound(t *testing.T) {
	k := openKey(t, newRegistry(), types.ReadOnly)

	_, err := Get(k, "Missing", GetOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrValueNotFound)

	var te *types.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "srv1", te.Host)
	assert.Equal(t, "get-value", te.Op)
}

func TestGet_HexPresentation(t *testing.T) {
	r := newRegistry()
	r.Put("srv1", types.LocalMachine, testKey, "PortNumber", types.REG_DWORD, []byte{0x3d, 0x0d, 0, 0})
	k := openKey(t, r, types.ReadOnly)

	got, err := Get(k, "PortNumber", GetOptions{Hex: true})
	require.NoError(t, err)
	assert.Equal(t, "0xd3d", got.Hex)
	assert.Equal(t, uint32(3389), got.Data)

	got, err = Get(k, "PortNumber", GetOptions{})
	require.NoError(t, err)
	assert.Empty(t, got.Hex)
}

func TestGet_Expand(t *testing.T) {
	r := newRegistry()
	k := openKey(t, r, types.ReadWrite)
	_, err := Set(k, "Path", types.KindExpandString, types.ExpandString(`%ROOT%\bin;%NOPE%`), true)
	require.NoError(t, err)

	lookup := func(name string) (string, bool) {
		if name == "ROOT" {
			return `C:\App`, true
		}
		return "", false
	}

	got, err := Get(k, "Path", GetOptions{Expand: true, Lookup: lookup})
	require.NoError(t, err)
	assert.Equal(t, `C:\App\bin;%NOPE%`, got.Expanded)
	assert.Equal(t, types.ExpandString(`%ROOT%\bin;%NOPE%`), got.Data, "stored data stays unexpanded")

	got, err = Get(k, "Path", GetOptions{})
	require.NoError(t, err)
	assert.Empty(t, got.Expanded)
}

func TestGet_KindFilter(t *testing.T) {
	r := newRegistry()
	r.Put("srv1", types.LocalMachine, testKey, "Name", types.REG_SZ, []byte{0x41, 0, 0, 0})
	k := openKey(t, r, types.ReadOnly)

	_, err := Get(k, "Name", GetOptions{Kinds: []types.ValueKind{types.KindDWord}})
	assert.ErrorIs(t, err, types.ErrTypeMismatch)

	got, err := Get(k, "Name", GetOptions{Kinds: []types.ValueKind{types.KindString, types.KindExpandString}})
	require.NoError(t, err)
	assert.Equal(t, "A", got.Data)
}

func TestGet_CorruptData(t *testing.T) {
	r := newRegistry()
	r.Put("srv1", types.LocalMachine, testKey, "Broken", types.REG_DWORD, []byte{1, 2})
	k := openKey(t, r, types.ReadOnly)

	_, err := Get(k, "Broken", GetOptions{})
	assert.ErrorIs(t, err, types.ErrTypeMismatch)

	results, err := List(k, "", GetOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.KindNone, results[0].Type)
	assert.Equal(t, types.REG_DWORD, results[0].RegType)
	assert.Equal(t, []byte{1, 2}, results[0].Data)
}

func TestSet_EmptyMultiStringNeverWrites(t *testing.T) {
	r := newRegistry()
	k := openKey(t, r, types.ReadWrite)
	before := r.Generation("srv1")

	_, err := Set(k, "Multi", types.KindMultiString, []string{}, true)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, before, r.Generation("srv1"))

	exists, err := Exists(k, "Multi")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSet_Unconfirmed(t *testing.T) {
	r := newRegistry()
	k := openKey(t, r, types.ReadWrite)

	_, err := Set(k, "X", types.KindDWord, uint32(1), false)
	assert.ErrorIs(t, err, types.ErrDeclined)
	_, _, found := r.Get("srv1", types.LocalMachine, testKey, "X")
	assert.False(t, found)
}

func TestSet_UnconfirmedInvalidData(t *testing.T) {
	r := newRegistry()
	k := openKey(t, r, types.ReadWrite)

	_, err := Set(k, "Multi", types.KindMultiString, []string{}, false)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.NotErrorIs(t, err, types.ErrDeclined)
}

func TestEncode(t *testing.T) {
	limits := types.DefaultLimits()

	rt, raw, err := Encode(limits, "Port", types.KindDWord, uint32(3389))
	require.NoError(t, err)
	assert.Equal(t, types.REG_DWORD, rt)
	assert.Equal(t, []byte{0x3d, 0x0d, 0, 0}, raw)

	_, _, err = Encode(limits, "Multi", types.KindMultiString, []string{})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	limits.MaxValueSize = 4
	_, _, err = Encode(limits, "Blob", types.KindBinary, []byte{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestSet_WriteError(t *testing.T) {
	r := newRegistry()
	r.FailWrites("srv1", errors.New("access denied"))
	k := openKey(t, r, types.ReadWrite)

	_, err := Set(k, "X", types.KindDWord, uint32(1), true)
	assert.ErrorIs(t, err, types.ErrWrite)
}

func TestSet_ReadOnlyKey(t *testing.T) {
	k := openKey(t, newRegistry(), types.ReadOnly)
	_, err := Set(k, "X", types.KindDWord, uint32(1), true)
	assert.ErrorIs(t, err, types.ErrWrite)
}

func TestSet_SizeLimit(t *testing.T) {
	r := newRegistry()
	s, err := session.Open(context.Background(), r, "srv1", types.LocalMachine, &session.Options{
		Limits: types.Limits{MaxValueSize: 4},
	})
	require.NoError(t, err)
	defer s.Close()
	k, err := s.OpenKey(testKey, types.ReadWrite)
	require.NoError(t, err)

	_, err = Set(k, "Big", types.KindBinary, make([]byte, 5), true)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = Set(k, "Small", types.KindBinary, make([]byte, 4), true)
	assert.NoError(t, err)
}

func TestDefaultValue(t *testing.T) {
	r := newRegistry()
	k := openKey(t, r, types.ReadWrite)

	_, err := GetDefault(k, GetOptions{})
	assert.ErrorIs(t, err, types.ErrValueNotFound)

	written, err := SetDefault(k, "default data", true)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultValueMarker, written.Value)
	assert.True(t, written.IsDefault())
	assert.Equal(t, types.KindString, written.Type)
	assert.Equal(t, types.REG_SZ, written.RegType)

	got, err := GetDefault(k, GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "default data", got.Data)
	assert.Equal(t, "", got.ValueName())
}

func TestRemove(t *testing.T) {
	r := newRegistry()
	k := openKey(t, r, types.ReadWrite)

	err := Remove(k, "Absent", true)
	assert.ErrorIs(t, err, types.ErrValueNotFound)

	_, err = Set(k, "Temp", types.KindString, "x", true)
	require.NoError(t, err)

	assert.ErrorIs(t, Remove(k, "Temp", false), types.ErrDeclined)
	require.NoError(t, Remove(k, "Temp", true))

	_, err = Get(k, "Temp", GetOptions{})
	assert.ErrorIs(t, err, types.ErrValueNotFound)
	assert.ErrorIs(t, Remove(k, "Temp", true), types.ErrValueNotFound)
}

func TestExists(t *testing.T) {
	r := newRegistry()
	r.Put("srv1", types.LocalMachine, testKey, "Empty", types.REG_BINARY, nil)
	r.Put("srv1", types.LocalMachine, testKey, "EmptySZ", types.REG_SZ, nil)
	k := openKey(t, r, types.ReadOnly)

	for name, want := range map[string]bool{"Empty": true, "EmptySZ": true, "Missing": false} {
		got, err := Exists(k, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestList(t *testing.T) {
	r := newRegistry()
	r.Put("srv1", types.LocalMachine, testKey, "", types.REG_SZ, []byte{0x44, 0, 0, 0})
	r.Put("srv1", types.LocalMachine, testKey, "LogLevel", types.REG_DWORD, []byte{2, 0, 0, 0})
	r.Put("srv1", types.LocalMachine, testKey, "LogPath", types.REG_SZ, []byte{0x43, 0, 0, 0})
	r.Put("srv1", types.LocalMachine, testKey, "Port", types.REG_DWORD, []byte{0x3d, 0x0d, 0, 0})
	r.PutKey("srv1", types.LocalMachine, testKey+`\Plugins`)
	r.PutKey("srv1", types.LocalMachine, testKey+`\Profiles`)
	r.PutKey("srv1", types.LocalMachine, testKey+`\Cache`)
	k := openKey(t, r, types.ReadOnly)

	all, err := List(k, "", GetOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, types.DefaultValueMarker, all[0].Value)

	logs, err := List(k, "log*", GetOptions{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "LogLevel", logs[0].Value)
	assert.Equal(t, "LogPath", logs[1].Value)

	dwords, err := List(k, "*", GetOptions{Kinds: []types.ValueKind{types.KindDWord}, Hex: true})
	require.NoError(t, err)
	require.Len(t, dwords, 2)
	assert.Equal(t, "0x2", dwords[0].Hex)
	assert.Equal(t, "0xd3d", dwords[1].Hex)

	def, err := List(k, "(default)", GetOptions{})
	require.NoError(t, err)
	require.Len(t, def, 1)

	keys, err := ListKeys(k, "p*")
	require.NoError(t, err)
	assert.Equal(t, []string{"Plugins", "Profiles"}, keys)

	keys, err = ListKeys(k, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cache", "Plugins", "Profiles"}, keys)
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("", "anything"))
	assert.True(t, Match("*", ""))
	assert.True(t, Match("Log*", "logpath"))
	assert.True(t, Match("*path", "LogPath"))
	assert.False(t, Match("Log*", "Port"))
}

func TestClosedKey(t *testing.T) {
	r := newRegistry()
	s, err := session.Open(context.Background(), r, "srv1", types.LocalMachine, nil)
	require.NoError(t, err)
	k, err := s.OpenKey(testKey, types.ReadWrite)
	require.NoError(t, err)
	s.Close()

	_, err = Get(k, "x", GetOptions{})
	assert.ErrorIs(t, err, types.ErrSessionClosed)
	_, err = Exists(k, "x")
	assert.ErrorIs(t, err, types.ErrSessionClosed)
	_, err = Set(k, "x", types.KindString, "v", true)
	assert.ErrorIs(t, err, types.ErrSessionClosed)
}
