package crypto

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	"golang.org/x/crypto/ed25519"
)

// PublicKey is an ed25519 public key.
type PublicKey struct {
	Ed25519 []byte
}

var _ PubKey = (*PublicKey)(nil)

// Verify verifies the signature was created with this message and public key
func (p *PublicKey) Verify(message []byte, sig *Signature) bool {
	if sig == nil || len(p.Ed25519) != ed25519.PublicKeySize || len(sig.Ed25519) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p.Ed25519), message, sig.Ed25519)
}

// Condition encodes the public key into a tokenflow condition
func (p *PublicKey) Condition() tokenflow.Condition {
	return tokenflow.NewCondition(ExtensionName, "ed25519", p.Ed25519)
}

// Address is the identity of this key holder.
func (p *PublicKey) Address() tokenflow.Address {
	return p.Condition().Address()
}

// Equals returns true if both keys are the same.
func (p *PublicKey) Equals(o *PublicKey) bool {
	if p == nil || o == nil {
		return p == o
	}
	return bytes.Equal(p.Ed25519, o.Ed25519)
}

// Validate returns an error if the key is malformed.
func (p *PublicKey) Validate() error {
	if p == nil || len(p.Ed25519) != ed25519.PublicKeySize {
		return errors.Wrap(errors.ErrInvalidInput, "invalid ed25519 public key")
	}
	return nil
}

func (p *PublicKey) String() string {
	return strings.ToUpper(hex.EncodeToString(p.Ed25519))
}

// PrivateKey is an ed25519 private key.
type PrivateKey struct {
	Ed25519 []byte
}

var _ Signer = (*PrivateKey)(nil)

// Sign returns a matching signature for this private key
func (p *PrivateKey) Sign(message []byte) (*Signature, error) {
	if len(p.Ed25519) != ed25519.PrivateKeySize {
		return nil, errors.Wrap(errors.ErrInvalidInput, "invalid ed25519 private key")
	}
	bz := ed25519.Sign(ed25519.PrivateKey(p.Ed25519), message)
	return &Signature{Ed25519: bz}, nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() *PublicKey {
	pub := ed25519.PrivateKey(p.Ed25519).Public().(ed25519.PublicKey)
	return &PublicKey{Ed25519: pub}
}

// Signature is an ed25519 signature.
type Signature struct {
	Ed25519 []byte
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
//
// The seed must be ed25519.SeedSize bytes long.
func PrivKeyEd25519FromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "seed must be %d bytes", ed25519.SeedSize)
	}
	return &PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}, nil
}

// Seed returns the seed this key can be restored from.
func (p *PrivateKey) Seed() []byte {
	return ed25519.PrivateKey(p.Ed25519).Seed()
}
