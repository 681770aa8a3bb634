package session

import (
	"os"
	"strings"
)

// LocalHost is reported when the machine name cannot be determined.
const LocalHost = "localhost"

// hostname is replaced in tests.
var hostname = os.Hostname

// ResolveHost returns host, or the local machine's name when host is empty,
// whitespace, or the "." placeholder.
func ResolveHost(host string) string {
	host = strings.TrimSpace(host)
	if host != "" && host != "." {
		return host
	}
	name, err := hostname()
	if err != nil || name == "" {
		return LocalHost
	}
	return name
}
