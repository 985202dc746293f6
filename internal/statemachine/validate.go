package statemachine

import "github.com/aleph-im/nodestatus/internal/multiaddrutil"

// validateMultiaddress implements V1: the host component of multiaddress
// must be unique across all core nodes other than excludeHash. An empty
// input is trivially accepted (nothing to validate). On rejection the
// caller must store "" instead of the raw value.
func (sm *StateMachine) validateMultiaddress(multiaddress, excludeHash string) (string, bool) {
	if multiaddress == "" {
		return "", true
	}

	host, err := multiaddrutil.Host(multiaddress)
	if err != nil {
		return "", false
	}

	for hash, other := range sm.CoreNodes {
		if hash == excludeHash || other.Multiaddress == "" {
			continue
		}
		otherHost, err := multiaddrutil.Host(other.Multiaddress)
		if err != nil {
			continue
		}
		if otherHost == host {
			return "", false
		}
	}

	return multiaddress, true
}

// validateResourceAddress implements V2: the URL hostname of a resource
// node's address must be unique across all resource nodes other than
// excludeHash.
func (sm *StateMachine) validateResourceAddress(address, excludeHash string) (string, bool) {
	if address == "" {
		return "", true
	}

	host, err := multiaddrutil.URLHost(address)
	if err != nil {
		return "", false
	}

	for hash, other := range sm.ResourceNodes {
		if hash == excludeHash || other.Address == "" {
			continue
		}
		otherHost, err := multiaddrutil.URLHost(other.Address)
		if err != nil {
			continue
		}
		if otherHost == host {
			return "", false
		}
	}

	return address, true
}
