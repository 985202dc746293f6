// Package multiaddrutil extracts the host component from a core node's
// multiaddress (V1) and a resource node's URL address (V2) for uniqueness
// validation.
package multiaddrutil

import (
	"errors"
	"net/url"

	ma "github.com/multiformats/go-multiaddr"
)

// hostProtocols is checked in order; the first protocol present in the
// multiaddress supplies the uniqueness host, mirroring the original
// multiaddr library's value_for_protocol lookup order.
var hostProtocols = []string{"ip4", "ip6", "dns", "dns4", "dns6"}

// ErrNoHost is returned when none of the recognized host protocols are
// present in the multiaddress.
var ErrNoHost = errors.New("multiaddress carries no recognized host component")

// Host extracts the host component from a core node multiaddress string,
// used by V1 to check cross-node uniqueness.
func Host(multiaddress string) (string, error) {
	addr, err := ma.NewMultiaddr(multiaddress)
	if err != nil {
		return "", err
	}
	for _, proto := range hostProtocols {
		if value, err := addr.ValueForProtocol(protocolCode(proto)); err == nil {
			return value, nil
		}
	}
	return "", ErrNoHost
}

func protocolCode(name string) int {
	p := ma.ProtocolWithName(name)
	return p.Code
}

// URLHost extracts the hostname component of a resource node's address URL,
// used by V2 to check cross-node uniqueness.
func URLHost(address string) (string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", ErrNoHost
	}
	return u.Hostname(), nil
}
