package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandString_Expand(t *testing.T) {
	env := map[string]string{
		"SystemRoot":  `C:\Windows`,
		"ProgramData": `C:\ProgramData`,
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	tests := []struct {
		in, want string
	}{
		{`%SystemRoot%\System32`, `C:\Windows\System32`},
		{`%SystemRoot%;%ProgramData%`, `C:\Windows;C:\ProgramData`},
		{`%Unknown%\x`, `%Unknown%\x`},
		{`100%`, `100%`},
		{`%%`, `%%`},
		{`50% of %SystemRoot%`, `50% of C:\Windows`},
		{`plain`, `plain`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandString(tt.in).Expand(lookup))
		})
	}
}

func TestDataMatchesKind(t *testing.T) {
	assert.True(t, DataMatchesKind(KindDWord, uint32(1)))
	assert.False(t, DataMatchesKind(KindDWord, 1))
	assert.True(t, DataMatchesKind(KindQWord, uint64(1)))
	assert.True(t, DataMatchesKind(KindString, "x"))
	assert.False(t, DataMatchesKind(KindString, ExpandString("x")))
	assert.True(t, DataMatchesKind(KindExpandString, ExpandString("%x%")))
	assert.True(t, DataMatchesKind(KindMultiString, []string{"a"}))
	assert.True(t, DataMatchesKind(KindBinary, []byte{}))
	assert.True(t, DataMatchesKind(KindNone, []byte{1}))
}

func TestResult_DefaultValueName(t *testing.T) {
	r := &Result{Value: DisplayName("")}
	assert.True(t, r.IsDefault())
	assert.Equal(t, "", r.ValueName())

	named := &Result{Value: DisplayName("Port")}
	assert.False(t, named.IsDefault())
	assert.Equal(t, "Port", named.ValueName())
}

func TestLimits(t *testing.T) {
	l := DefaultLimits()
	assert.NoError(t, l.CheckKeyPath(`Software\Vendor`))
	assert.ErrorIs(t, l.CheckKeyPath(`Software\\Vendor`), ErrInvalidArgument)
	assert.NoError(t, l.CheckValueName(""))
	assert.ErrorIs(t, StrictLimits().CheckDataSize(WindowsMaxValueSize64KB+1), ErrInvalidArgument)
	assert.NoError(t, l.CheckDataSize(WindowsMaxValueSize64KB+1))
}

func TestNormalizeKeyPath(t *testing.T) {
	assert.Equal(t, `Software\Vendor`, NormalizeKeyPath("/Software/Vendor/"))
	assert.Equal(t, `Software\Vendor`, NormalizeKeyPath(`\Software\\Vendor\`))
	assert.Equal(t, "", NormalizeKeyPath(`\`))
}
