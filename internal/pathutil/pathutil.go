// Package pathutil resolves relative paths against a working directory
// and parses the address-URI form Gateway accepts on its command line
// (spec.md §6).
package pathutil

import (
	"os/user"
	"strconv"
	"strings"

	"gateway/internal/ferrors"
	"gateway/internal/fsmodel"
)

// Resolve resolves p (which may be relative, absolute, ".", or "..")
// against cwd, returning a normalized absolute path. Both cwd and the
// result are forward-slash separated.
func Resolve(cwd, p string) string {
	if p == "" || p == "." {
		return fsmodel.Normalize(cwd)
	}
	if strings.HasPrefix(p, "/") {
		return fsmodel.Normalize(p)
	}
	return fsmodel.Normalize(cwd + "/" + p)
}

// Address is a parsed connection URI.
type Address struct {
	Protocol string
	Username string
	Host     string
	Port     int
}

var defaultPorts = map[string]int{
	"sftp": 22,
	"scp":  22,
	"ftp":  21,
	"ftps": 21,
}

// ParseAddress parses "[protocol://][username@]host[:port]". Protocol
// defaults to sftp; port defaults per protocol; username defaults to the
// current OS user (spec.md §6.1).
func ParseAddress(raw string) (Address, error) {
	addr := Address{Protocol: "sftp"}

	rest := raw
	if idx := strings.Index(rest, "://"); idx >= 0 {
		addr.Protocol = strings.ToLower(rest[:idx])
		rest = rest[idx+3:]
	}
	if _, ok := defaultPorts[addr.Protocol]; !ok {
		return Address{}, ferrors.Newf(ferrors.BadAddress, "unsupported protocol %q", addr.Protocol)
	}

	if idx := strings.Index(rest, "@"); idx >= 0 {
		addr.Username = rest[:idx]
		rest = rest[idx+1:]
	}

	host := rest
	port := defaultPorts[addr.Protocol]
	if idx := strings.LastIndex(rest, ":"); idx >= 0 {
		portStr := rest[idx+1:]
		parsedPort, err := strconv.Atoi(portStr)
		if err != nil {
			return Address{}, ferrors.Newf(ferrors.BadAddress, "invalid port %q", portStr)
		}
		port = parsedPort
		host = rest[:idx]
	}
	if host == "" {
		return Address{}, ferrors.New(ferrors.BadAddress)
	}
	addr.Host = host
	addr.Port = port

	if addr.Username == "" {
		if u, err := user.Current(); err == nil {
			addr.Username = u.Username
		}
	}

	return addr, nil
}
