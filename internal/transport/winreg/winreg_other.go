//go:build !windows

package winreg

import (
	"context"
	"runtime"

	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

// Transport is unavailable on this platform.
type Transport struct{}

// New returns the native transport.
func New() *Transport { return &Transport{} }

// Connect always fails: the remote registry protocol is only reachable
// through the Windows API.
func (*Transport) Connect(_ context.Context, host string, _ types.Hive) (transport.Conn, error) {
	return nil, types.Errorf(types.ErrKindConnection, "native registry transport is not available on %s", runtime.GOOS).
		WithHost(host).WithOp("connect")
}
