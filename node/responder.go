package node

import (
	"context"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/collect"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/finality"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/transport"
)

// checker is the flow check a node runs before signing as a counterparty.
type checker func(ctx context.Context, tx ledger.ProposedTx) error

// Serve answers a session opened by another node. A session either
// carries a sign request followed by the finality of the signed
// transaction, or only a finality for a participant that did not sign.
func (n *Node) Serve(ctx context.Context, s transport.Session) {
	log := tokenflow.GetLogger(ctx)
	env, err := s.Receive(ctx)
	if err != nil {
		log.Debug("session closed before any request", "err", err)
		return
	}
	ctx = tokenflow.WithFlow(ctx, env.Flow)
	ctx = tokenflow.WithLogInfo(ctx, "flow", env.Flow)

	switch env.Kind {
	case transport.SignRequest:
		n.respond(ctx, s, env)
	case transport.Finality:
		// failures are logged and reported to the peer by Receive
		finality.Receive(ctx, s, env, n.vault, n.notaryAddr, nil)
	default:
		err := errors.Wrapf(errors.ErrSession, "unexpected %s envelope", env.Kind)
		if serr := s.Send(ctx, transport.RejectEnvelope(env.Flow, err)); serr != nil {
			log.Error("cannot reject", "err", serr)
		}
	}
}

func (n *Node) respond(ctx context.Context, s transport.Session, env *transport.Envelope) {
	log := tokenflow.GetLogger(ctx)
	check, ok := n.checkers[env.Flow]
	if !ok {
		err := errors.Wrapf(errors.ErrInvalidInput, "unknown flow %q", env.Flow)
		if serr := s.Send(ctx, transport.RejectEnvelope(env.Flow, err)); serr != nil {
			log.Error("cannot reject", "err", serr)
		}
		return
	}

	stx, err := collect.NewResponder().Respond(ctx, s, env, n.keys, collect.CheckerFunc(check))
	if err != nil {
		return
	}
	id, err := stx.ID()
	if err != nil {
		log.Error("cannot compute transaction id", "err", err)
		return
	}

	next, err := s.Receive(ctx)
	if err != nil {
		log.Info("no finality received", "tx", id, "err", err)
		return
	}
	if _, err := finality.Receive(ctx, s, next, n.vault, n.notaryAddr, id); err != nil {
		return
	}
	log.Info("transaction committed", "tx", id)
}

// checkIssue accepts an issue of a token owned by an account of this node.
func (n *Node) checkIssue(ctx context.Context, tx ledger.ProposedTx) error {
	if tx.Command.Kind != ledger.Issue {
		return errors.Wrapf(errors.ErrValidation, "issue flow with %s command", tx.Command.Kind)
	}
	if err := n.checkNotary(tx); err != nil {
		return err
	}
	return n.checkOwner(tx)
}

// checkSwap accepts a token moved to an account of this node.
func (n *Node) checkSwap(ctx context.Context, tx ledger.ProposedTx) error {
	switch tx.Command.Kind {
	case ledger.Swap, ledger.Transfer:
	default:
		return errors.Wrapf(errors.ErrValidation, "swap flow with %s command", tx.Command.Kind)
	}
	if err := n.checkNotary(tx); err != nil {
		return err
	}
	return n.checkOwner(tx)
}

func (n *Node) checkNotary(tx ledger.ProposedTx) error {
	if !tx.Notary.Equals(n.notaryAddr) {
		return errors.Wrapf(errors.ErrUnauthorized, "notary %s is not trusted", tx.Notary)
	}
	return nil
}

func (n *Node) checkOwner(tx ledger.ProposedTx) error {
	for _, out := range tx.Outputs {
		if _, ok := n.key(out.Owner); ok {
			return nil
		}
	}
	return errors.Wrap(errors.ErrUnauthorized, "no output is owned by this node")
}
