package ledgertest

import (
	"testing"

	"github.com/iov-one/tokenflow"
)

// ParseAddress takes an address in a human readable format and returns
// its binary representation. This function is a test helper that is using
// tokenflow.ParseAddress function functionality.
func ParseAddress(t testing.TB, encodedAddress string) tokenflow.Address {
	t.Helper()

	addr, err := tokenflow.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}

// SequenceAddress returns a valid address built from given number. Use it
// when the identity has no key behind it.
func SequenceAddress(n byte) tokenflow.Address {
	addr := make(tokenflow.Address, tokenflow.AddressLength)
	addr[len(addr)-1] = n
	return addr
}
