// Package transport defines the remote-registry primitives the session layer
// is built on. A Transport addresses (host, hive) pairs and hands out
// connections; a connection opens keys by path; a key reads and writes raw
// value bytes tagged with their native type.
//
// Implementations live under internal/transport: the native Windows remote
// registry, an in-memory model, and a .reg snapshot store. Higher layers never
// see platform handles, only these interfaces.
//
// Error contract: implementations should return *types.Error values with the
// kind already set (ConnectionError from Connect, KeyNotFound from OpenKey,
// WriteError from mutations). Untyped errors are classified by the session
// layer: Connect failures become ConnectionError, OpenKey failures wrapping
// fs.ErrNotExist become KeyNotFound.
package transport

import (
	"context"

	"github.com/joshuapare/regremote/pkg/types"
)

// Transport opens hive connections on named hosts.
type Transport interface {
	// Connect establishes a connection to hive on host. host is never empty;
	// the session layer resolves the local machine before calling.
	Connect(ctx context.Context, host string, hive types.Hive) (Conn, error)
}

// Conn is one open hive connection. It is owned by exactly one session and is
// never used concurrently.
type Conn interface {
	// OpenKey opens an existing subkey. path is backslash-delimited and
	// relative to the hive root; "" opens the root itself.
	OpenKey(path string, mode types.AccessMode) (Key, error)

	// CreateKey creates path and any missing intermediate keys. Creating an
	// existing key is not an error.
	CreateKey(path string) error

	// DeleteKey removes path. Without recursive, a key that still has
	// subkeys is rejected with a WriteError.
	DeleteKey(path string, recursive bool) error

	// Close releases the connection. Calling it twice is allowed.
	Close() error
}

// Key is an open subkey handle.
type Key interface {
	// QueryValue reads name ("" for the default value). found reports
	// whether the value exists; a present value may have zero-length data.
	QueryValue(name string) (rt types.RegType, data []byte, found bool, err error)

	// SetValue writes raw data tagged rt under name.
	SetValue(name string, rt types.RegType, data []byte) error

	// DeleteValue removes name. found is false when the value did not exist.
	DeleteValue(name string) (found bool, err error)

	// ValueNames lists value names in platform order; the default value,
	// when set, is reported as "".
	ValueNames() ([]string, error)

	// SubkeyNames lists immediate subkey names.
	SubkeyNames() ([]string, error)

	// Close releases the handle. Calling it twice is allowed.
	Close() error
}
