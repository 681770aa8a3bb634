// Package winreg is the native transport: it connects to a host's registry
// through the Windows remote registry service (RegConnectRegistry) via
// golang.org/x/sys/windows/registry.
//
// Windows only allows HKEY_LOCAL_MACHINE, HKEY_USERS and
// HKEY_PERFORMANCE_DATA to be opened remotely; the other hives are served
// only when the target is the local machine. On other platforms every
// Connect fails with a ConnectionError.
package winreg

import "github.com/joshuapare/regremote/pkg/transport"

var _ transport.Transport = (*Transport)(nil)
