//go:build windows

package winreg

import (
	"context"
	"errors"
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/joshuapare/regremote/pkg/codec"
	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

// hkeyDynData is the Windows 9x HKEY_DYN_DATA handle; x/sys has no constant
// for it.
const hkeyDynData = registry.Key(0x80000006)

var roots = map[types.Hive]registry.Key{
	types.ClassesRoot:     registry.CLASSES_ROOT,
	types.CurrentUser:     registry.CURRENT_USER,
	types.LocalMachine:    registry.LOCAL_MACHINE,
	types.Users:           registry.USERS,
	types.PerformanceData: registry.PERFORMANCE_DATA,
	types.CurrentConfig:   registry.CURRENT_CONFIG,
	types.DynData:         hkeyDynData,
}

// Transport opens hives through the Windows registry API.
type Transport struct{}

// New returns the native transport.
func New() *Transport { return &Transport{} }

// Connect opens hive on host. The local machine is opened directly, which
// makes every hive available; other hosts go through the remote registry
// service.
func (*Transport) Connect(ctx context.Context, host string, hive types.Hive) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.Wrap(types.ErrKindConnection, err, "connect %s", hive)
	}
	root, ok := roots[hive]
	if !ok {
		return nil, types.Errorf(types.ErrKindInvalidArgument, "invalid hive %d", int(hive))
	}
	if isLocal(host) {
		// predefined handles need no connection and must not be closed
		return &conn{root: root, owned: false}, nil
	}
	k, err := registry.OpenRemoteKey(host, root)
	if err != nil {
		return nil, types.Wrap(types.ErrKindConnection, err, "open %s on %s", hive.RootName(), host)
	}
	return &conn{root: k, owned: true}, nil
}

func isLocal(host string) bool {
	if strings.EqualFold(host, "localhost") || host == "." {
		return true
	}
	name, err := os.Hostname()
	return err == nil && strings.EqualFold(host, name)
}

type conn struct {
	root   registry.Key
	owned  bool
	closed bool
}

func (c *conn) OpenKey(path string, mode types.AccessMode) (transport.Key, error) {
	if c.closed {
		return nil, types.ErrSessionClosed
	}
	access := uint32(registry.READ)
	if mode == types.ReadWrite {
		access |= registry.WRITE
	}
	k, err := registry.OpenKey(c.root, path, access)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, types.Wrap(types.ErrKindKeyNotFound, err, "key %s not found", path)
		}
		return nil, types.Wrap(types.ErrKindConnection, err, "open key %s", path)
	}
	return &key{k: k, path: path}, nil
}

func (c *conn) CreateKey(path string) error {
	if c.closed {
		return types.ErrSessionClosed
	}
	k, _, err := registry.CreateKey(c.root, path, registry.READ|registry.WRITE)
	if err != nil {
		return types.Wrap(types.ErrKindWrite, err, "create key %s", path)
	}
	return k.Close()
}

func (c *conn) DeleteKey(path string, recursive bool) error {
	if c.closed {
		return types.ErrSessionClosed
	}
	if recursive {
		return deleteTree(c.root, path)
	}
	return deleteOne(c.root, path)
}

func deleteOne(parent registry.Key, path string) error {
	if err := registry.DeleteKey(parent, path); err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return types.Wrap(types.ErrKindKeyNotFound, err, "key %s not found", path)
		}
		return types.Wrap(types.ErrKindWrite, err, "delete key %s", path)
	}
	return nil
}

func deleteTree(parent registry.Key, path string) error {
	k, err := registry.OpenKey(parent, path, registry.READ|registry.WRITE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return types.Wrap(types.ErrKindKeyNotFound, err, "key %s not found", path)
		}
		return types.Wrap(types.ErrKindWrite, err, "open key %s", path)
	}
	names, err := k.ReadSubKeyNames(0)
	if err != nil {
		k.Close()
		return types.Wrap(types.ErrKindWrite, err, "enumerate %s", path)
	}
	for _, n := range names {
		if err := deleteTree(k, n); err != nil {
			k.Close()
			return err
		}
	}
	k.Close()
	return deleteOne(parent, path)
}

func (c *conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if !c.owned {
		return nil
	}
	return c.root.Close()
}

type key struct {
	k      registry.Key
	path   string
	closed bool
}

func (k *key) QueryValue(name string) (types.RegType, []byte, bool, error) {
	if k.closed {
		return 0, nil, false, types.ErrSessionClosed
	}
	n, _, err := k.k.GetValue(name, nil)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return 0, nil, false, nil
		}
		return 0, nil, false, types.Wrap(types.ErrKindConnection, err, "query %q", name)
	}
	for {
		buf := make([]byte, n)
		got, vt, err := k.k.GetValue(name, buf)
		if errors.Is(err, windows.ERROR_MORE_DATA) && got > n {
			// value grew between the size probe and the read
			n = got
			continue
		}
		if err != nil {
			if errors.Is(err, registry.ErrNotExist) {
				return 0, nil, false, nil
			}
			return 0, nil, false, types.Wrap(types.ErrKindConnection, err, "query %q", name)
		}
		return types.RegType(vt), buf[:got], true, nil
	}
}

// SetValue routes raw bytes through the typed setters, the only write
// primitives the registry package exports.
func (k *key) SetValue(name string, rt types.RegType, data []byte) error {
	if k.closed {
		return types.ErrSessionClosed
	}
	_, v, err := codec.Decode(rt, data)
	if err != nil {
		return err
	}
	switch rt {
	case types.REG_DWORD:
		err = k.k.SetDWordValue(name, v.(uint32))
	case types.REG_QWORD:
		err = k.k.SetQWordValue(name, v.(uint64))
	case types.REG_SZ:
		err = k.k.SetStringValue(name, v.(string))
	case types.REG_EXPAND_SZ:
		err = k.k.SetExpandStringValue(name, string(v.(types.ExpandString)))
	case types.REG_MULTI_SZ:
		err = k.k.SetStringsValue(name, v.([]string))
	case types.REG_BINARY:
		err = k.k.SetBinaryValue(name, v.([]byte))
	default:
		return types.Errorf(types.ErrKindWrite, "cannot write %s values", rt)
	}
	if err != nil {
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
			return types.Wrap(types.ErrKindWrite, err, "access denied writing %q", name)
		}
		return types.Wrap(types.ErrKindWrite, err, "write %q", name)
	}
	return nil
}

func (k *key) DeleteValue(name string) (bool, error) {
	if k.closed {
		return false, types.ErrSessionClosed
	}
	if err := k.k.DeleteValue(name); err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, types.Wrap(types.ErrKindWrite, err, "delete %q", name)
	}
	return true, nil
}

func (k *key) ValueNames() ([]string, error) {
	if k.closed {
		return nil, types.ErrSessionClosed
	}
	names, err := k.k.ReadValueNames(0)
	if err != nil {
		return nil, types.Wrap(types.ErrKindConnection, err, "enumerate values of %s", k.path)
	}
	return names, nil
}

func (k *key) SubkeyNames() ([]string, error) {
	if k.closed {
		return nil, types.ErrSessionClosed
	}
	names, err := k.k.ReadSubKeyNames(0)
	if err != nil {
		return nil, types.Wrap(types.ErrKindConnection, err, "enumerate subkeys of %s", k.path)
	}
	return names, nil
}

func (k *key) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true
	return k.k.Close()
}
