package memreg

import (
	"sort"
	"strings"

	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

type conn struct {
	reg    *Registry
	m      *machine
	root   *node
	closed bool
}

func (c *conn) OpenKey(path string, mode types.AccessMode) (transport.Key, error) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	if c.closed {
		return nil, types.ErrSessionClosed
	}
	n := c.root.lookup(splitPath(path))
	if n == nil {
		return nil, types.Errorf(types.ErrKindKeyNotFound, "key %s not found", path)
	}
	c.m.openKeys++
	return &key{conn: c, n: n, path: path, mode: mode}, nil
}

func (c *conn) CreateKey(path string) error {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	if c.closed {
		return types.ErrSessionClosed
	}
	if err := c.writable(); err != nil {
		return err
	}
	parts := splitPath(path)
	if len(parts) == 0 {
		return types.Errorf(types.ErrKindInvalidArgument, "cannot create the hive root")
	}
	if c.root.lookup(parts) != nil {
		return nil
	}
	c.root.create(parts)
	c.m.generation++
	return nil
}

func (c *conn) DeleteKey(path string, recursive bool) error {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	if c.closed {
		return types.ErrSessionClosed
	}
	parts := splitPath(path)
	if len(parts) == 0 {
		return types.Errorf(types.ErrKindInvalidArgument, "cannot delete the hive root")
	}
	n := c.root.lookup(parts)
	if n == nil {
		return types.Errorf(types.ErrKindKeyNotFound, "key %s not found", path)
	}
	if err := c.writable(); err != nil {
		return err
	}
	if len(n.subkeys) > 0 && !recursive {
		return types.Errorf(types.ErrKindWrite, "key %s has %d subkeys", path, len(n.subkeys))
	}
	n.parent.removeChild(n)
	n.markDeleted()
	c.m.generation++
	return nil
}

func (c *conn) Close() error {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.m.openConns--
	return nil
}

// writable reports the injected write failure, if any. Callers hold the lock.
func (c *conn) writable() error {
	if c.m.writeErr != nil {
		return types.Wrap(types.ErrKindWrite, c.m.writeErr, "write rejected")
	}
	return nil
}

type key struct {
	conn   *conn
	n      *node
	path   string
	mode   types.AccessMode
	closed bool
}

// check validates the handle. Callers hold the lock.
func (k *key) check() error {
	if k.closed || k.conn.closed {
		return types.ErrSessionClosed
	}
	if k.n.deleted {
		return types.Errorf(types.ErrKindKeyNotFound, "key %s was deleted", k.path)
	}
	return nil
}

func (k *key) checkWrite() error {
	if err := k.check(); err != nil {
		return err
	}
	if k.mode != types.ReadWrite {
		return types.Errorf(types.ErrKindWrite, "key %s is open read-only", k.path)
	}
	return k.conn.writable()
}

func (k *key) QueryValue(name string) (types.RegType, []byte, bool, error) {
	k.conn.reg.mu.Lock()
	defer k.conn.reg.mu.Unlock()
	if err := k.check(); err != nil {
		return 0, nil, false, err
	}
	v := k.n.findValue(name)
	if v == nil {
		return 0, nil, false, nil
	}
	return v.rt, append([]byte(nil), v.data...), true, nil
}

func (k *key) SetValue(name string, rt types.RegType, data []byte) error {
	k.conn.reg.mu.Lock()
	defer k.conn.reg.mu.Unlock()
	if err := k.checkWrite(); err != nil {
		return err
	}
	k.n.setValue(name, rt, data)
	k.conn.m.generation++
	return nil
}

func (k *key) DeleteValue(name string) (bool, error) {
	k.conn.reg.mu.Lock()
	defer k.conn.reg.mu.Unlock()
	if err := k.checkWrite(); err != nil {
		return false, err
	}
	if !k.n.deleteValue(name) {
		return false, nil
	}
	k.conn.m.generation++
	return true, nil
}

func (k *key) ValueNames() ([]string, error) {
	k.conn.reg.mu.Lock()
	defer k.conn.reg.mu.Unlock()
	if err := k.check(); err != nil {
		return nil, err
	}
	names := make([]string, len(k.n.values))
	for i, v := range k.n.values {
		names[i] = v.name
	}
	return names, nil
}

func (k *key) SubkeyNames() ([]string, error) {
	k.conn.reg.mu.Lock()
	defer k.conn.reg.mu.Unlock()
	if err := k.check(); err != nil {
		return nil, err
	}
	names := make([]string, len(k.n.subkeys))
	for i, c := range k.n.subkeys {
		names[i] = c.name
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

func (k *key) Close() error {
	k.conn.reg.mu.Lock()
	defer k.conn.reg.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	k.conn.m.openKeys--
	return nil
}
