package collect

import (
	"context"
	"fmt"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/contract"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/transport"
)

// ResponderState is the progress of a sign request on the receiving side.
type ResponderState int32

const (
	Received ResponderState = iota
	Validated
	Rejected
	Signed
	ResponderAborted
)

func (s ResponderState) String() string {
	switch s {
	case Received:
		return "Received"
	case Validated:
		return "Validated"
	case Rejected:
		return "Rejected"
	case Signed:
		return "Signed"
	case ResponderAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("ResponderState(%d)", int32(s))
	}
}

// Checker runs flow specific checks on a transaction before it is signed.
type Checker interface {
	Check(ctx context.Context, tx ledger.ProposedTx) error
}

// CheckerFunc is an adapter to use a function as a Checker.
type CheckerFunc func(ctx context.Context, tx ledger.ProposedTx) error

func (fn CheckerFunc) Check(ctx context.Context, tx ledger.ProposedTx) error {
	return fn(ctx, tx)
}

// Responder answers a single sign request.
type Responder struct {
	state ResponderState
}

// NewResponder returns a responder in the received state.
func NewResponder() *Responder {
	return &Responder{state: Received}
}

// State returns the current state.
func (r *Responder) State() ResponderState {
	return r.state
}

// Respond validates the request independently of the initiator and signs
// with every requested identity one of the keys belongs to. Any failure is
// reported to the initiator with a reject envelope. The signed transaction
// is returned so that the caller can match the finality that follows.
func (r *Responder) Respond(ctx context.Context, s transport.Session, env *transport.Envelope, keys []crypto.Signer, check Checker) (ledger.SignedTx, error) {
	if r.state != Received {
		return ledger.SignedTx{}, errors.Wrapf(errors.ErrInvalidState, "responder is %s", r.state)
	}
	log := tokenflow.GetLogger(ctx).With("flow", env.Flow, "peer", s.Peer())

	stx, resp, err := r.validate(ctx, env, keys, check)
	if err != nil {
		r.state = Rejected
		log.Info("sign request rejected", "err", err)
		if serr := s.Send(ctx, transport.RejectEnvelope(env.Flow, err)); serr != nil {
			return ledger.SignedTx{}, errors.Append(err, serr)
		}
		return ledger.SignedTx{}, err
	}
	r.state = Validated

	raw, err := resp.Marshal()
	if err != nil {
		r.state = ResponderAborted
		return ledger.SignedTx{}, errors.Wrapf(errors.ErrInvalidState, "encode response: %s", err)
	}
	if err := s.Send(ctx, &transport.Envelope{Kind: transport.Signatures, Flow: env.Flow, Payload: raw}); err != nil {
		r.state = ResponderAborted
		return ledger.SignedTx{}, err
	}
	r.state = Signed
	log.Debug("signed", "signatures", len(resp.Signatures))
	return stx, nil
}

func (r *Responder) validate(ctx context.Context, env *transport.Envelope, keys []crypto.Signer, check Checker) (ledger.SignedTx, Response, error) {
	if err := transport.Expect(env, transport.SignRequest); err != nil {
		return ledger.SignedTx{}, Response{}, err
	}
	var req Request
	if err := req.Unmarshal(env.Payload); err != nil {
		return ledger.SignedTx{}, Response{}, err
	}
	stx := req.Tx
	if err := contract.VerifyTx(stx.Tx); err != nil {
		return stx, Response{}, err
	}
	if err := stx.VerifySignatures(); err != nil {
		return stx, Response{}, err
	}
	if check != nil {
		if err := check.Check(ctx, stx.Tx); err != nil {
			return stx, Response{}, err
		}
	}

	id, err := stx.ID()
	if err != nil {
		return stx, Response{}, err
	}
	var resp Response
	for _, k := range keys {
		addr := crypto.SignerAddress(k)
		if !contains(req.Signers, addr) {
			continue
		}
		sig, err := ledger.SignTx(k, id)
		if err != nil {
			return stx, Response{}, err
		}
		if stx, err = stx.AddSignature(sig); err != nil {
			return stx, Response{}, err
		}
		resp.Signatures = append(resp.Signatures, sig)
	}
	if len(resp.Signatures) == 0 {
		return stx, Response{}, errors.Wrap(errors.ErrUnauthorized, "no key for any requested signer")
	}
	return stx, resp, nil
}
