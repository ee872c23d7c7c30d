package ledger

import (
	"crypto/sha256"
	"sort"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	amino "github.com/tendermint/go-amino"
)

// SaltLength is the size of a transaction salt.
const SaltLength = 32

// ProposedTx is a candidate state transition, not yet committed.
type ProposedTx struct {
	Inputs  []StateAndRef
	Outputs []TokenState
	Command Command
	Notary  tokenflow.Address
	// Salt keeps otherwise identical transactions apart.
	Salt []byte
}

// Marshal returns the canonical encoding of the transaction.
func (tx *ProposedTx) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(tx)
}

// Unmarshal decodes a transaction.
func (tx *ProposedTx) Unmarshal(raw []byte) error {
	*tx = ProposedTx{}
	return amino.UnmarshalBinaryBare(raw, tx)
}

// ID returns the sha256 digest of the canonical encoding. The notary and
// the salt are part of it, so two transactions moving the same states
// under another notary or salt have different identifiers.
func (tx *ProposedTx) ID() (TxID, error) {
	raw, err := tx.Marshal()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot serialize transaction: %s", err)
	}
	h := sha256.Sum256(raw)
	return h[:], nil
}

// InputRefs returns references of all consumed states.
func (tx *ProposedTx) InputRefs() []StateRef {
	refs := make([]StateRef, len(tx.Inputs))
	for i, in := range tx.Inputs {
		refs[i] = in.Ref
	}
	return refs
}

// Participants returns every identity concerned by this transaction: all
// required signers and the participants of every input and output state.
// The order is deterministic.
func (tx *ProposedTx) Participants() []tokenflow.Address {
	var res []tokenflow.Address
	add := func(addrs ...tokenflow.Address) {
	next:
		for _, a := range addrs {
			for _, have := range res {
				if have.Equals(a) {
					continue next
				}
			}
			res = append(res, a)
		}
	}
	add(tx.Command.Signers...)
	for _, in := range tx.Inputs {
		add(in.State.Participants()...)
	}
	for _, out := range tx.Outputs {
		add(out.Participants()...)
	}
	return res
}

// OutputRefs returns the references the outputs get once this transaction
// is committed.
func OutputRefs(id TxID, tx *ProposedTx) []StateAndRef {
	res := make([]StateAndRef, len(tx.Outputs))
	for i, out := range tx.Outputs {
		res[i] = StateAndRef{
			State: out,
			Ref:   StateRef{TxID: id, Index: uint32(i)},
		}
	}
	return res
}

// SignedTx is a proposed transaction and the signatures collected so far,
// sorted by signer.
type SignedTx struct {
	Tx         ProposedTx
	Signatures []TxSignature
}

// NewSignedTx returns a transaction without any signature.
func NewSignedTx(tx ProposedTx) SignedTx {
	return SignedTx{Tx: tx}
}

// Marshal encodes the signed transaction.
func (s *SignedTx) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(s)
}

// Unmarshal decodes a signed transaction.
func (s *SignedTx) Unmarshal(raw []byte) error {
	*s = SignedTx{}
	return amino.UnmarshalBinaryBare(raw, s)
}

// ID returns the identifier of the underlying transaction.
func (s *SignedTx) ID() (TxID, error) {
	return s.Tx.ID()
}

// Signature returns the signature of given identity, if present.
func (s *SignedTx) Signature(signer tokenflow.Address) (TxSignature, bool) {
	for _, sig := range s.Signatures {
		if sig.Signer.Equals(signer) {
			return sig, true
		}
	}
	return TxSignature{}, false
}

// AddSignature returns a copy of this transaction with a signature added.
// Only required signers may sign, the signer set can never grow. A new
// signature of the same signer replaces the previous one.
func (s SignedTx) AddSignature(sig TxSignature) (SignedTx, error) {
	if !s.Tx.Command.IsRequiredSigner(sig.Signer) {
		return s, errors.Wrapf(errors.ErrUnauthorized, "%s is not a required signer", sig.Signer)
	}
	sigs := make([]TxSignature, 0, len(s.Signatures)+1)
	for _, have := range s.Signatures {
		if !have.Signer.Equals(sig.Signer) {
			sigs = append(sigs, have)
		}
	}
	sigs = append(sigs, sig)
	sort.Slice(sigs, func(i, j int) bool {
		return string(sigs[i].Signer) < string(sigs[j].Signer)
	})
	return SignedTx{Tx: s.Tx, Signatures: sigs}, nil
}

// Missing returns the required signers that did not sign yet, in the
// command order.
func (s *SignedTx) Missing() []tokenflow.Address {
	var res []tokenflow.Address
	for _, req := range s.Tx.Command.Signers {
		if _, ok := s.Signature(req); !ok {
			res = append(res, req)
		}
	}
	return res
}

// FullySigned returns true if every required signer signed.
func (s *SignedTx) FullySigned() bool {
	return len(s.Missing()) == 0
}

// VerifySignatures checks every present signature against the transaction
// identifier and the identity of its signer.
func (s *SignedTx) VerifySignatures() error {
	id, err := s.ID()
	if err != nil {
		return err
	}
	for _, sig := range s.Signatures {
		if err := sig.Verify(id); err != nil {
			return err
		}
		if !s.Tx.Command.IsRequiredSigner(sig.Signer) {
			return errors.Wrapf(errors.ErrInvalidSignature, "%s is not a required signer", sig.Signer)
		}
	}
	return nil
}

// CommittedTx is the immutable record of a transaction certified by the
// notary.
type CommittedTx struct {
	Tx            ProposedTx
	Signatures    []TxSignature
	Certification Certification
}

// NewCommittedTx joins a fully signed transaction with its certification.
func NewCommittedTx(stx SignedTx, cert Certification) *CommittedTx {
	return &CommittedTx{
		Tx:            stx.Tx,
		Signatures:    stx.Signatures,
		Certification: cert,
	}
}

// ID returns the identifier of the committed transaction.
func (c *CommittedTx) ID() (TxID, error) {
	return c.Tx.ID()
}

// SignedTx returns the signed form of this transaction.
func (c *CommittedTx) SignedTx() SignedTx {
	return SignedTx{Tx: c.Tx, Signatures: c.Signatures}
}

// Verify checks the transaction is fully signed and certified by its
// notary.
func (c *CommittedTx) Verify() error {
	stx := c.SignedTx()
	if !stx.FullySigned() {
		return errors.Wrapf(errors.ErrIncompleteSignature, "missing %d signatures", len(stx.Missing()))
	}
	if err := stx.VerifySignatures(); err != nil {
		return err
	}
	id, err := c.ID()
	if err != nil {
		return err
	}
	if !c.Certification.Notary.Equals(c.Tx.Notary) {
		return errors.Wrap(errors.ErrInvalidSignature, "certified by another notary")
	}
	return c.Certification.Verify(id)
}

// Marshal encodes the committed transaction.
func (c *CommittedTx) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(c)
}

// Unmarshal decodes a committed transaction.
func (c *CommittedTx) Unmarshal(raw []byte) error {
	*c = CommittedTx{}
	return amino.UnmarshalBinaryBare(raw, c)
}
