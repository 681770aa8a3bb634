package memreg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regremote/pkg/types"
)

func seeded(t *testing.T) *Registry {
	t.Helper()
	r := New()
	r.Put("srv1", types.LocalMachine, `Software\Vendor`, "Port", types.REG_DWORD, []byte{0x3d, 0x0d, 0, 0})
	r.Put("srv1", types.LocalMachine, `Software\Vendor`, "", types.REG_SZ, []byte{0x41, 0, 0, 0})
	r.PutKey("srv1", types.LocalMachine, `Software\Vendor\Sub`)
	return r
}

func TestConnect_Faults(t *testing.T) {
	ctx := context.Background()
	r := seeded(t)

	_, err := r.Connect(ctx, "missing", types.LocalMachine)
	assert.ErrorIs(t, err, types.ErrConnection)

	r.SetUnreachable("srv1", true)
	_, err = r.Connect(ctx, "srv1", types.LocalMachine)
	assert.ErrorIs(t, err, types.ErrConnection)
	r.SetUnreachable("srv1", false)

	r.FailConnects("srv1", 2)
	for i := 0; i < 2; i++ {
		_, err = r.Connect(ctx, "srv1", types.LocalMachine)
		assert.ErrorIs(t, err, types.ErrConnection)
	}
	c, err := r.Connect(ctx, "SRV1", types.LocalMachine)
	require.NoError(t, err)
	assert.Equal(t, 1, r.OpenConns("srv1"))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 0, r.OpenConns("srv1"))
}

func TestConnect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seeded(t).Connect(ctx, "srv1", types.LocalMachine)
	assert.ErrorIs(t, err, types.ErrConnection)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKey_ReadWrite(t *testing.T) {
	r := seeded(t)
	c, err := r.Connect(context.Background(), "srv1", types.LocalMachine)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.OpenKey(`Software\Missing`, types.ReadOnly)
	assert.ErrorIs(t, err, types.ErrKeyNotFound)

	k, err := c.OpenKey(`software/vendor`, types.ReadWrite)
	require.NoError(t, err)
	assert.Equal(t, 1, r.OpenKeys("srv1"))

	rt, data, found, err := k.QueryValue("PORT")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.REG_DWORD, rt)
	assert.Equal(t, []byte{0x3d, 0x0d, 0, 0}, data)

	_, _, found, err = k.QueryValue("Nope")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, k.SetValue("Empty", types.REG_BINARY, nil))
	_, data, found, err = k.QueryValue("Empty")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, data)

	names, err := k.ValueNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Port", "", "Empty"}, names)

	subs, err := k.SubkeyNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Sub"}, subs)

	found, err = k.DeleteValue("port")
	require.NoError(t, err)
	assert.True(t, found)
	found, err = k.DeleteValue("port")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, k.Close())
	assert.Equal(t, 0, r.OpenKeys("srv1"))
	_, _, _, err = k.QueryValue("Empty")
	assert.ErrorIs(t, err, types.ErrSessionClosed)
}

func TestKey_ReadOnlyRejectsWrites(t *testing.T) {
	r := seeded(t)
	c, err := r.Connect(context.Background(), "srv1", types.LocalMachine)
	require.NoError(t, err)
	defer c.Close()
	k, err := c.OpenKey(`Software\Vendor`, types.ReadOnly)
	require.NoError(t, err)
	defer k.Close()

	assert.ErrorIs(t, k.SetValue("x", types.REG_SZ, nil), types.ErrWrite)
}

func TestFailWrites(t *testing.T) {
	r := seeded(t)
	cause := errors.New("access denied")
	r.FailWrites("srv1", cause)

	c, err := r.Connect(context.Background(), "srv1", types.LocalMachine)
	require.NoError(t, err)
	defer c.Close()
	k, err := c.OpenKey(`Software\Vendor`, types.ReadWrite)
	require.NoError(t, err)
	defer k.Close()

	err = k.SetValue("Port", types.REG_DWORD, []byte{1, 0, 0, 0})
	assert.ErrorIs(t, err, types.ErrWrite)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, c.CreateKey(`Software\New`), types.ErrWrite)
	assert.Equal(t, uint64(0), r.Generation("srv1"))
}

func TestKeyLifecycle(t *testing.T) {
	r := seeded(t)
	c, err := r.Connect(context.Background(), "srv1", types.LocalMachine)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.CreateKey(`Software\A\B\C`))
	require.NoError(t, c.CreateKey(`Software\A\B\C`))

	err = c.DeleteKey(`Software\A`, false)
	assert.ErrorIs(t, err, types.ErrWrite)

	k, err := c.OpenKey(`Software\A\B`, types.ReadOnly)
	require.NoError(t, err)
	defer k.Close()

	require.NoError(t, c.DeleteKey(`Software\A`, true))
	_, err = c.OpenKey(`Software\A`, types.ReadOnly)
	assert.ErrorIs(t, err, types.ErrKeyNotFound)

	_, err = k.ValueNames()
	assert.ErrorIs(t, err, types.ErrKeyNotFound)

	assert.ErrorIs(t, c.DeleteKey(`Software\A`, true), types.ErrKeyNotFound)
	assert.ErrorIs(t, c.DeleteKey(``, true), types.ErrInvalidArgument)
}

func TestDump(t *testing.T) {
	r := seeded(t)
	r.Put("srv1", types.CurrentUser, `Env`, "Path", types.REG_EXPAND_SZ, []byte{0x25, 0, 0, 0})

	dump := r.Dump("srv1")
	require.Len(t, dump, 4)
	assert.Equal(t, types.CurrentUser, dump[0].Hive)
	assert.Equal(t, "Env", dump[0].Path)
	assert.Equal(t, `Software`, dump[1].Path)
	assert.Equal(t, `Software\Vendor`, dump[2].Path)
	assert.Len(t, dump[2].Values, 2)
	assert.Equal(t, `Software\Vendor\Sub`, dump[3].Path)

	assert.Nil(t, r.Dump("unknown"))
}
