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

// InitiatorState is the progress of the signature collection on the
// proposing side.
type InitiatorState int32

const (
	Building InitiatorState = iota
	AwaitingSignatures
	FullySigned
	Aborted
)

func (s InitiatorState) String() string {
	switch s {
	case Building:
		return "Building"
	case AwaitingSignatures:
		return "AwaitingSignatures"
	case FullySigned:
		return "FullySigned"
	case Aborted:
		return "Aborted"
	default:
		return fmt.Sprintf("InitiatorState(%d)", int32(s))
	}
}

// Peer is a session to a host and the identities that host signs for.
type Peer struct {
	Session transport.Session
	Signers []tokenflow.Address
}

// Initiator drives the collection of all signatures a transaction
// requires. One instance serves a single transaction.
type Initiator struct {
	flow  string
	state InitiatorState
}

// NewInitiator returns an initiator of given flow.
func NewInitiator(flow string) *Initiator {
	return &Initiator{flow: flow}
}

// State returns the current state.
func (in *Initiator) State() InitiatorState {
	return in.state
}

// Collect signs the transaction with the local keys and asks every peer
// for the missing signatures. It returns a fully signed transaction or
// aborts. On abort all peer sessions are closed.
//
// A deadline of the context aborts with ErrTimeout. Nothing is retried.
func (in *Initiator) Collect(ctx context.Context, tx ledger.ProposedTx, local []crypto.Signer, peers []Peer) (ledger.SignedTx, error) {
	if in.state != Building {
		return ledger.SignedTx{}, errors.Wrapf(errors.ErrInvalidState, "initiator is %s", in.state)
	}
	stx, err := in.collect(ctx, tx, local, peers)
	if err != nil {
		in.state = Aborted
		for _, p := range peers {
			p.Session.Close()
		}
		tokenflow.GetLogger(ctx).Error("signature collection aborted", "flow", in.flow, "err", err)
		return ledger.SignedTx{}, err
	}
	in.state = FullySigned
	return stx, nil
}

func (in *Initiator) collect(ctx context.Context, tx ledger.ProposedTx, local []crypto.Signer, peers []Peer) (ledger.SignedTx, error) {
	if err := contract.VerifyTx(tx); err != nil {
		return ledger.SignedTx{}, err
	}
	stx, err := ledger.Sign(ledger.NewSignedTx(tx), local...)
	if err != nil {
		return ledger.SignedTx{}, err
	}
	id, err := stx.ID()
	if err != nil {
		return ledger.SignedTx{}, err
	}
	log := tokenflow.GetLogger(ctx).With("flow", in.flow, "tx", id)

	in.state = AwaitingSignatures
	for _, p := range peers {
		wanted := intersect(stx.Missing(), p.Signers)
		if len(wanted) == 0 {
			continue
		}
		log.Debug("requesting signatures", "peer", p.Session.Peer(), "signers", len(wanted))
		stx, err = in.request(ctx, id, stx, p.Session, wanted)
		if err != nil {
			return ledger.SignedTx{}, errors.Wrapf(err, "peer %s", p.Session.Peer())
		}
	}
	if missing := stx.Missing(); len(missing) != 0 {
		return ledger.SignedTx{}, errors.Wrapf(errors.ErrIncompleteSignature, "no peer signs for %s", missing[0])
	}
	return stx, nil
}

func (in *Initiator) request(ctx context.Context, id ledger.TxID, stx ledger.SignedTx, s transport.Session, wanted []tokenflow.Address) (ledger.SignedTx, error) {
	req := Request{Tx: stx, Signers: wanted}
	raw, err := req.Marshal()
	if err != nil {
		return stx, errors.Wrapf(errors.ErrInvalidState, "encode request: %s", err)
	}
	if err := s.Send(ctx, &transport.Envelope{Kind: transport.SignRequest, Flow: in.flow, Payload: raw}); err != nil {
		return stx, err
	}
	env, err := s.Receive(ctx)
	if err != nil {
		return stx, err
	}
	if err := transport.Expect(env, transport.Signatures); err != nil {
		return stx, err
	}
	var resp Response
	if err := resp.Unmarshal(env.Payload); err != nil {
		return stx, err
	}

	for _, sig := range resp.Signatures {
		if !contains(wanted, sig.Signer) {
			return stx, errors.Wrapf(errors.ErrInvalidSignature, "signature of %s was not requested", sig.Signer)
		}
		if err := sig.Verify(id); err != nil {
			return stx, err
		}
		if stx, err = stx.AddSignature(sig); err != nil {
			return stx, err
		}
	}
	for _, w := range wanted {
		if _, ok := stx.Signature(w); !ok {
			return stx, errors.Wrapf(errors.ErrIncompleteSignature, "%s did not sign", w)
		}
	}
	return stx, nil
}

func contains(set []tokenflow.Address, a tokenflow.Address) bool {
	for _, s := range set {
		if s.Equals(a) {
			return true
		}
	}
	return false
}

func intersect(a, b []tokenflow.Address) []tokenflow.Address {
	var res []tokenflow.Address
	for _, x := range a {
		if contains(b, x) {
			res = append(res, x)
		}
	}
	return res
}
