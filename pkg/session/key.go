package session

import (
	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

// Key is an open subkey handle. It holds a non-owning reference to its
// session and is released by Close or by closing the session.
type Key struct {
	s      *Session
	k      transport.Key
	path   string
	mode   types.AccessMode
	closed bool
}

// Path returns the normalized key path.
func (k *Key) Path() string { return k.path }

// Mode returns the access mode the key was opened with.
func (k *Key) Mode() types.AccessMode { return k.mode }

// Host returns the owning session's host.
func (k *Key) Host() string { return k.s.host }

// Hive returns the owning session's hive.
func (k *Key) Hive() types.Hive { return k.s.hive }

// Limits returns the owning session's limits.
func (k *Key) Limits() types.Limits { return k.s.limits }

// Close releases the handle. It is idempotent and never fails.
func (k *Key) Close() {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	if k.closed {
		return
	}
	k.release()
	k.s.forget(k)
}

// release closes the transport handle. Callers hold k.s.mu.
func (k *Key) release() {
	if k.closed {
		return
	}
	k.closed = true
	if err := k.k.Close(); err != nil {
		k.s.log.Debug().Err(err).Str("key", k.path).Msg("key close failed")
	}
}

// usable reports SessionClosed for a released key or session.
// Callers hold k.s.mu.
func (k *Key) usable(op string) error {
	if k.closed || k.s.closed {
		return k.s.closedErr(op)
	}
	return nil
}

// Query reads the raw value. found is false when the value does not exist.
func (k *Key) Query(name string) (types.RegType, []byte, bool, error) {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	if err := k.usable("query-value"); err != nil {
		return 0, nil, false, err
	}
	rt, data, found, err := k.k.QueryValue(name)
	if err != nil {
		return 0, nil, false, classify(err, types.ErrKindConnection, k.s.host, "query-value")
	}
	return rt, data, found, nil
}

// Write stores raw data under name. The key must be open ReadWrite.
func (k *Key) Write(name string, rt types.RegType, data []byte) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	if err := k.writable("set-value"); err != nil {
		return err
	}
	if err := k.k.SetValue(name, rt, data); err != nil {
		return classify(err, types.ErrKindWrite, k.s.host, "set-value")
	}
	return nil
}

// Delete removes name. found is false when the value did not exist.
func (k *Key) Delete(name string) (bool, error) {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	if err := k.writable("delete-value"); err != nil {
		return false, err
	}
	found, err := k.k.DeleteValue(name)
	if err != nil {
		return false, classify(err, types.ErrKindWrite, k.s.host, "delete-value")
	}
	return found, nil
}

// ValueNames lists value names in platform order ("" is the default value).
func (k *Key) ValueNames() ([]string, error) {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	if err := k.usable("list-values"); err != nil {
		return nil, err
	}
	names, err := k.k.ValueNames()
	if err != nil {
		return nil, classify(err, types.ErrKindConnection, k.s.host, "list-values")
	}
	return names, nil
}

// SubkeyNames lists immediate subkey names.
func (k *Key) SubkeyNames() ([]string, error) {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	if err := k.usable("list-keys"); err != nil {
		return nil, err
	}
	names, err := k.k.SubkeyNames()
	if err != nil {
		return nil, classify(err, types.ErrKindConnection, k.s.host, "list-keys")
	}
	return names, nil
}

func (k *Key) writable(op string) error {
	if err := k.usable(op); err != nil {
		return err
	}
	if k.mode != types.ReadWrite {
		return types.Errorf(types.ErrKindWrite, "key %s is open read-only", k.path).WithHost(k.s.host).WithOp(op)
	}
	return nil
}
