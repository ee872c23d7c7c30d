package ledger

import (
	"crypto/sha512"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	amino "github.com/tendermint/go-amino"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a party signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// NotaryCodeV1 prefixes the bytes a notary signs to certify a transaction.
// A party signature can never be replayed as a certification.
var NotaryCodeV1 = []byte{0, 0xCA, 0xFE, 1}

// BuildSignBytes returns the bytes a party signs to approve given
// transaction.
func BuildSignBytes(id TxID) []byte {
	return buildBytes(SignCodeV1, id)
}

// BuildCertifyBytes returns the bytes a notary signs to certify given
// transaction.
func BuildCertifyBytes(id TxID) []byte {
	return buildBytes(NotaryCodeV1, id)
}

func buildBytes(prefix []byte, id TxID) []byte {
	h := sha512.Sum512(id)
	res := make([]byte, 0, len(prefix)+len(h))
	res = append(res, prefix...)
	return append(res, h[:]...)
}

// TxSignature is the approval of one signer.
type TxSignature struct {
	Signer    tokenflow.Address
	PubKey    *crypto.PublicKey
	Signature *crypto.Signature
}

// Verify checks the signature was produced by the declared signer for
// given transaction.
func (s TxSignature) Verify(id TxID) error {
	if s.PubKey == nil || s.Signature == nil {
		return errors.Wrapf(errors.ErrInvalidSignature, "empty signature of %s", s.Signer)
	}
	if !s.PubKey.Address().Equals(s.Signer) {
		return errors.Wrapf(errors.ErrInvalidSignature, "key does not belong to %s", s.Signer)
	}
	if !s.PubKey.Verify(BuildSignBytes(id), s.Signature) {
		return errors.Wrapf(errors.ErrInvalidSignature, "signature of %s", s.Signer)
	}
	return nil
}

// SignTx returns a signature of given signer over the transaction.
func SignTx(signer crypto.Signer, id TxID) (TxSignature, error) {
	sig, err := signer.Sign(BuildSignBytes(id))
	if err != nil {
		return TxSignature{}, errors.Wrap(err, "sign")
	}
	pub := signer.PublicKey()
	return TxSignature{
		Signer:    pub.Address(),
		PubKey:    pub,
		Signature: sig,
	}, nil
}

// Sign adds the signature of every given signer to the transaction. Keys of
// identities that are not required signers are ignored.
func Sign(stx SignedTx, signers ...crypto.Signer) (SignedTx, error) {
	id, err := stx.ID()
	if err != nil {
		return stx, err
	}
	for _, s := range signers {
		if !stx.Tx.Command.IsRequiredSigner(crypto.SignerAddress(s)) {
			continue
		}
		sig, err := SignTx(s, id)
		if err != nil {
			return stx, err
		}
		if stx, err = stx.AddSignature(sig); err != nil {
			return stx, err
		}
	}
	return stx, nil
}

// Certification is the notary statement that a transaction does not
// consume any state twice.
type Certification struct {
	TxID      TxID
	Notary    tokenflow.Address
	PubKey    *crypto.PublicKey
	Signature *crypto.Signature
}

// Certify returns the certification of given transaction signed by the
// notary key.
func Certify(notary crypto.Signer, id TxID) (Certification, error) {
	sig, err := notary.Sign(BuildCertifyBytes(id))
	if err != nil {
		return Certification{}, errors.Wrap(err, "certify")
	}
	pub := notary.PublicKey()
	return Certification{
		TxID:      id,
		Notary:    pub.Address(),
		PubKey:    pub,
		Signature: sig,
	}, nil
}

// Verify checks the certification was issued by its notary for given
// transaction.
func (c Certification) Verify(id TxID) error {
	if !c.TxID.Equals(id) {
		return errors.Wrapf(errors.ErrInvalidSignature, "certification of %s, want %s", c.TxID, id)
	}
	if c.PubKey == nil || c.Signature == nil {
		return errors.Wrap(errors.ErrInvalidSignature, "empty certification")
	}
	if !c.PubKey.Address().Equals(c.Notary) {
		return errors.Wrap(errors.ErrInvalidSignature, "key does not belong to notary")
	}
	if !c.PubKey.Verify(BuildCertifyBytes(id), c.Signature) {
		return errors.Wrap(errors.ErrInvalidSignature, "certification signature")
	}
	return nil
}

// Marshal encodes the certification.
func (c *Certification) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(c)
}

// Unmarshal decodes a certification.
func (c *Certification) Unmarshal(raw []byte) error {
	*c = Certification{}
	return amino.UnmarshalBinaryBare(raw, c)
}
