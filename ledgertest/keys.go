package ledgertest

import (
	"crypto/sha256"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/crypto"
)

// NewKey returns a random ed25519 key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the condition of a random key.
func NewCondition() tokenflow.Condition {
	return NewKey().PublicKey().Condition()
}

// SeedKey returns a key deterministically derived from given name, so that
// tests can refer to well known parties.
func SeedKey(name string) *crypto.PrivateKey {
	seed := sha256.Sum256([]byte("ledgertest/" + name))
	key, err := crypto.PrivKeyEd25519FromSeed(seed[:])
	if err != nil {
		panic(err)
	}
	return key
}

// Party is a test identity holding its own key.
type Party struct {
	Name string
	Key  *crypto.PrivateKey
}

// NewParty returns a party with a key derived from its name.
func NewParty(name string) Party {
	return Party{Name: name, Key: SeedKey(name)}
}

// Address returns the identity of this party.
func (p Party) Address() tokenflow.Address {
	return p.Key.PublicKey().Address()
}
