package crypto

import (
	"github.com/iov-one/tokenflow"
)

// ExtensionName is used for the Conditions we get from signatures
const ExtensionName = "sigs"

// PubKey represents a crypto public key we use
type PubKey interface {
	Verify(message []byte, sig *Signature) bool
	Condition() tokenflow.Condition
	Address() tokenflow.Address
}

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

// SignerAddress returns the identity of the party holding given key.
func SignerAddress(s Signer) tokenflow.Address {
	return s.PublicKey().Address()
}
