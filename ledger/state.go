package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	amino "github.com/tendermint/go-amino"
)

// TokenState represents one unit of value. It is never modified, use
// WithOwner to produce a replacement.
type TokenState struct {
	Issuer tokenflow.Address
	Owner  tokenflow.Address
	Amount int64
}

// NewTokenState returns a validated token state.
func NewTokenState(issuer, owner tokenflow.Address, amount int64) (TokenState, error) {
	s := TokenState{
		Issuer: issuer.Clone(),
		Owner:  owner.Clone(),
		Amount: amount,
	}
	if err := s.Validate(); err != nil {
		return TokenState{}, err
	}
	return s, nil
}

// Validate returns a validation error if the state cannot exist on the
// ledger.
func (s TokenState) Validate() error {
	var err error
	if e := s.Issuer.Validate(); e != nil {
		err = errors.AppendField(err, "Issuer", errors.Wrap(errors.ErrValidation, e.Error()))
	}
	if e := s.Owner.Validate(); e != nil {
		err = errors.AppendField(err, "Owner", errors.Wrap(errors.ErrValidation, e.Error()))
	}
	if s.Amount <= 0 {
		err = errors.AppendField(err, "Amount", errors.Wrap(errors.ErrValidation, "amount must be positive"))
	}
	return err
}

// Equals compares two states by value.
func (s TokenState) Equals(o TokenState) bool {
	return s.Issuer.Equals(o.Issuer) && s.Owner.Equals(o.Owner) && s.Amount == o.Amount
}

// Participants returns every identity that must see this state.
func (s TokenState) Participants() []tokenflow.Address {
	if s.Issuer.Equals(s.Owner) {
		return []tokenflow.Address{s.Issuer}
	}
	return []tokenflow.Address{s.Issuer, s.Owner}
}

// IsParticipant returns true if given identity must see this state.
func (s TokenState) IsParticipant(a tokenflow.Address) bool {
	return s.Issuer.Equals(a) || s.Owner.Equals(a)
}

// WithOwner returns a copy of this state held by another owner.
func (s TokenState) WithOwner(owner tokenflow.Address) (TokenState, error) {
	return NewTokenState(s.Issuer, owner, s.Amount)
}

func (s TokenState) String() string {
	return fmt.Sprintf("TokenState(issuer=%s, owner=%s, amount=%d)", s.Issuer, s.Owner, s.Amount)
}

// TxID identifies a transaction.
type TxID []byte

func (id TxID) String() string {
	return strings.ToUpper(hex.EncodeToString(id))
}

// Equals returns true if both identifiers are the same.
func (id TxID) Equals(o TxID) bool {
	return tokenflow.Address(id).Equals(tokenflow.Address(o))
}

// ParseTxID decodes the hex representation of a transaction identifier.
func ParseTxID(s string) (TxID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != TxIDLength {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid transaction id %q", s)
	}
	return raw, nil
}

// TxIDLength is the size of sha256 digest.
const TxIDLength = 32

// StateRef names an output of a committed transaction.
type StateRef struct {
	TxID  TxID
	Index uint32
}

// Key returns the store key of the referenced state: the transaction id
// followed by the big endian output index.
func (r StateRef) Key() []byte {
	key := make([]byte, len(r.TxID)+4)
	copy(key, r.TxID)
	binary.BigEndian.PutUint32(key[len(r.TxID):], r.Index)
	return key
}

// Validate returns an error if the reference is malformed.
func (r StateRef) Validate() error {
	if len(r.TxID) != TxIDLength {
		return errors.Wrap(errors.ErrValidation, "invalid state reference transaction id")
	}
	return nil
}

// Equals returns true if both references name the same output.
func (r StateRef) Equals(o StateRef) bool {
	return r.TxID.Equals(o.TxID) && r.Index == o.Index
}

func (r StateRef) String() string {
	return fmt.Sprintf("%s(%d)", r.TxID, r.Index)
}

// StateAndRef is a state with the reference to where it was created.
type StateAndRef struct {
	State TokenState
	Ref   StateRef
}

// Marshal encodes the state and its reference.
func (s *StateAndRef) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(s)
}

// Unmarshal decodes a state and its reference.
func (s *StateAndRef) Unmarshal(raw []byte) error {
	*s = StateAndRef{}
	return amino.UnmarshalBinaryBare(raw, s)
}
