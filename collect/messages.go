package collect

import (
	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	amino "github.com/tendermint/go-amino"
)

// Request is the payload of a sign request: the transaction with the
// signatures collected so far and the identities asked to sign.
type Request struct {
	Tx      ledger.SignedTx
	Signers []tokenflow.Address
}

// Marshal encodes the sign request.
func (r *Request) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(r)
}

// Unmarshal decodes a sign request, failing with ErrInvalidInput.
func (r *Request) Unmarshal(raw []byte) error {
	*r = Request{}
	if err := amino.UnmarshalBinaryBare(raw, r); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "sign request: %s", err)
	}
	return nil
}

// Response is the payload of a signatures envelope.
type Response struct {
	Signatures []ledger.TxSignature
}

// Marshal encodes the response.
func (r *Response) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(r)
}

// Unmarshal decodes a response, failing with ErrInvalidInput.
func (r *Response) Unmarshal(raw []byte) error {
	*r = Response{}
	if err := amino.UnmarshalBinaryBare(raw, r); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "signatures: %s", err)
	}
	return nil
}
