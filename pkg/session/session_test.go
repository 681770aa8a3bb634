package session

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regremote/internal/transport/memreg"
	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

func newRegistry() *memreg.Registry {
	r := memreg.New()
	r.Put("srv1", types.LocalMachine, `SOFTWARE\Vendor`, "Port", types.REG_DWORD, []byte{1, 0, 0, 0})
	r.PutKey("srv1", types.LocalMachine, `SOFTWARE\Vendor\Child`)
	return r
}

func TestResolveHost(t *testing.T) {
	orig := hostname
	t.Cleanup(func() { hostname = orig })

	hostname = func() (string, error) { return "WORKSTATION", nil }
	assert.Equal(t, "WORKSTATION", ResolveHost(""))
	assert.Equal(t, "WORKSTATION", ResolveHost("  "))
	assert.Equal(t, "WORKSTATION", ResolveHost("."))
	assert.Equal(t, "srv1", ResolveHost("srv1"))

	hostname = func() (string, error) { return "", errors.New("no name") }
	assert.Equal(t, LocalHost, ResolveHost(""))
}

func TestOpen_EmptyHostResolvesLocal(t *testing.T) {
	orig := hostname
	t.Cleanup(func() { hostname = orig })
	hostname = func() (string, error) { return "srv1", nil }

	s, err := Open(context.Background(), newRegistry(), "", types.LocalMachine, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "srv1", s.Host())
	assert.Equal(t, types.LocalMachine, s.Hive())
}

func TestOpen_ConnectionError(t *testing.T) {
	r := newRegistry()
	r.SetUnreachable("srv1", true)

	_, err := Open(context.Background(), r, "srv1", types.LocalMachine, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConnection)

	var te *types.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "srv1", te.Host)
	assert.Equal(t, "connect", te.Op)
}

func TestOpen_InvalidHive(t *testing.T) {
	_, err := Open(context.Background(), newRegistry(), "srv1", types.Hive(42), nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestOpen_BoundedRetry(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	r.FailConnects("srv1", 2)
	_, err := Open(ctx, r, "srv1", types.LocalMachine, &Options{ConnectAttempts: 2})
	assert.ErrorIs(t, err, types.ErrConnection)

	r.FailConnects("srv1", 2)
	s, err := Open(ctx, r, "srv1", types.LocalMachine, &Options{ConnectAttempts: 3})
	require.NoError(t, err)
	s.Close()
	assert.Equal(t, 0, r.OpenConns("srv1"))
}

func TestOpen_NoImplicitRetry(t *testing.T) {
	r := newRegistry()
	r.FailConnects("srv1", 1)

	_, err := Open(context.Background(), r, "srv1", types.LocalMachine, nil)
	assert.ErrorIs(t, err, types.ErrConnection)
}

func TestOpenKey(t *testing.T) {
	r := newRegistry()
	s, err := Open(context.Background(), r, "srv1", types.LocalMachine, nil)
	require.NoError(t, err)
	defer s.Close()

	k, err := s.OpenKey("software/vendor/", types.ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, `software\vendor`, k.Path())
	assert.Equal(t, types.ReadOnly, k.Mode())
	assert.Equal(t, "srv1", k.Host())

	rt, data, found, err := k.Query("port")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, types.REG_DWORD, rt)
	assert.Equal(t, []byte{1, 0, 0, 0}, data)

	err = k.Write("Port", types.REG_DWORD, []byte{2, 0, 0, 0})
	assert.ErrorIs(t, err, types.ErrWrite)

	_, err = s.OpenKey(`SOFTWARE\Missing`, types.ReadOnly)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrKeyNotFound)
	assert.NotErrorIs(t, err, types.ErrConnection)

	_, err = s.OpenKey(`SOFTWARE\\\Vendor`, types.ReadOnly)
	require.NoError(t, err, "repeated separators collapse")

	names, err := k.SubkeyNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Child"}, names)
}

func TestClose_ReleasesEverything(t *testing.T) {
	r := newRegistry()
	s, err := Open(context.Background(), r, "srv1", types.LocalMachine, nil)
	require.NoError(t, err)

	k1, err := s.OpenKey(`SOFTWARE\Vendor`, types.ReadWrite)
	require.NoError(t, err)
	k2, err := s.OpenKey(`SOFTWARE`, types.ReadOnly)
	require.NoError(t, err)
	k2.Close()
	k2.Close()
	assert.Equal(t, 1, r.OpenKeys("srv1"))

	s.Close()
	s.Close()
	assert.True(t, s.Closed())
	assert.Equal(t, 0, r.OpenKeys("srv1"))
	assert.Equal(t, 0, r.OpenConns("srv1"))

	_, _, _, err = k1.Query("Port")
	assert.ErrorIs(t, err, types.ErrSessionClosed)
	assert.ErrorIs(t, k1.Write("Port", types.REG_DWORD, []byte{0, 0, 0, 0}), types.ErrSessionClosed)
	_, err = s.OpenKey(`SOFTWARE`, types.ReadOnly)
	assert.ErrorIs(t, err, types.ErrSessionClosed)
	assert.ErrorIs(t, s.CreateKey(`SOFTWARE\X`), types.ErrSessionClosed)
	k1.Close()

	s2, err := Open(context.Background(), r, "srv1", types.LocalMachine, nil)
	require.NoError(t, err, "no handle leak blocks a new session")
	s2.Close()
}

func TestKeyLifecycle(t *testing.T) {
	r := newRegistry()
	s, err := Open(context.Background(), r, "srv1", types.LocalMachine, nil)
	require.NoError(t, err)
	defer s.Close()

	ok, err := s.KeyExists(`SOFTWARE\New\Deep`)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.CreateKey(`SOFTWARE\New\Deep`))
	ok, err = s.KeyExists(`SOFTWARE\New\Deep`)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, r.OpenKeys("srv1"))

	assert.ErrorIs(t, s.DeleteKey(`SOFTWARE\New`, false), types.ErrWrite)
	require.NoError(t, s.DeleteKey(`SOFTWARE\New`, true))
	assert.ErrorIs(t, s.DeleteKey(`SOFTWARE\New`, true), types.ErrKeyNotFound)
	assert.ErrorIs(t, s.DeleteKey(``, true), types.ErrInvalidArgument)
	assert.ErrorIs(t, s.CreateKey(`/`), types.ErrInvalidArgument)
}

func TestLimits(t *testing.T) {
	s, err := Open(context.Background(), newRegistry(), "srv1", types.LocalMachine, &Options{
		Limits: types.Limits{MaxKeyNameLen: 4, MaxTreeDepth: 2},
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.OpenKey(`SOFTWARE`, types.ReadOnly)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = s.OpenKey(`a\b\c`, types.ReadOnly)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

// untypedTransport returns plain errors so classification can be observed.
type untypedTransport struct {
	connectErr error
	openErr    error
}

func (u untypedTransport) Connect(context.Context, string, types.Hive) (transport.Conn, error) {
	if u.connectErr != nil {
		return nil, u.connectErr
	}
	return untypedConn{openErr: u.openErr}, nil
}

type untypedConn struct{ openErr error }

func (c untypedConn) OpenKey(string, types.AccessMode) (transport.Key, error) { return nil, c.openErr }
func (untypedConn) CreateKey(string) error                                   { return errors.New("denied") }
func (untypedConn) DeleteKey(string, bool) error                             { return fs.ErrNotExist }
func (untypedConn) Close() error                                              { return errors.New("already gone") }

func TestClassification(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, untypedTransport{connectErr: errors.New("rpc unavailable")}, "h", types.Users, nil)
	assert.ErrorIs(t, err, types.ErrConnection)

	s, err := Open(ctx, untypedTransport{openErr: fs.ErrNotExist}, "h", types.Users, nil)
	require.NoError(t, err)
	_, err = s.OpenKey("x", types.ReadOnly)
	assert.ErrorIs(t, err, types.ErrKeyNotFound)
	assert.ErrorIs(t, s.CreateKey("x"), types.ErrWrite)
	assert.ErrorIs(t, s.DeleteKey("x", false), types.ErrKeyNotFound)
	s.Close() // close error is swallowed

	s, err = Open(ctx, untypedTransport{openErr: errors.New("access is denied")}, "h", types.Users, nil)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.OpenKey("x", types.ReadOnly)
	assert.ErrorIs(t, err, types.ErrConnection)
}
