package node

import (
	"context"
	"fmt"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/accounts"
	"github.com/iov-one/tokenflow/builder"
	"github.com/iov-one/tokenflow/collect"
	"github.com/iov-one/tokenflow/contract"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/finality"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/transport"
)

// Flow names, used to route sessions on the responding side.
const (
	FlowIssue = "issue"
	FlowSwap  = "swap"
	FlowQuery = "query"
)

// Issue creates a token of given amount issued by one account to another.
// The issuer must be hosted by this node.
func (n *Node) Issue(ctx context.Context, issuerName, ownerName string, amount int64) (string, error) {
	ctx = n.flowContext(ctx, FlowIssue)
	res, err := n.issue(ctx, issuerName, ownerName, amount)
	n.metrics.observe(FlowIssue, err)
	return res, err
}

func (n *Node) issue(ctx context.Context, issuerName, ownerName string, amount int64) (string, error) {
	issuer, owner, err := n.pair(issuerName, ownerName)
	if err != nil {
		return "", err
	}
	if _, ok := n.key(issuer.Address()); !ok {
		return "", errors.Wrapf(errors.ErrUnauthorized, "account %q is not hosted by %s", issuerName, n.host)
	}
	state, err := ledger.NewTokenState(issuer.Address(), owner.Address(), amount)
	if err != nil {
		return "", err
	}
	tx, err := builder.New(n.notaryAddr).
		AddOutput(state).
		AddCommand(ledger.Issue, issuer.Address(), owner.Address()).
		Build()
	if err != nil {
		return "", err
	}
	// a committed transaction is reported even if a peer missed its finality
	committed, err := n.run(ctx, FlowIssue, tx)
	if committed == nil {
		return "", err
	}
	id, ierr := committed.ID()
	if ierr != nil {
		return "", errors.Append(err, ierr)
	}
	return fmt.Sprintf("One Token State issued to %s from %s with amount: %d\ntxId: %s", ownerName, issuerName, amount, id), err
}

// Swap moves a token of given amount from its owner to a new owner. The
// owner must be hosted by this node.
func (n *Node) Swap(ctx context.Context, amount int64, ownerName, newOwnerName string) (string, error) {
	ctx = n.flowContext(ctx, FlowSwap)
	res, err := n.swap(ctx, amount, ownerName, newOwnerName)
	n.metrics.observe(FlowSwap, err)
	return res, err
}

func (n *Node) swap(ctx context.Context, amount int64, ownerName, newOwnerName string) (string, error) {
	owner, newOwner, err := n.pair(ownerName, newOwnerName)
	if err != nil {
		return "", err
	}
	if _, ok := n.key(owner.Address()); !ok {
		return "", errors.Wrapf(errors.ErrUnauthorized, "account %q is not hosted by %s", ownerName, n.host)
	}
	prior, err := n.swappable(amount, owner.Address())
	if err != nil {
		return "", err
	}
	next, err := prior.State.WithOwner(newOwner.Address())
	if err != nil {
		return "", err
	}

	b := builder.New(n.notaryAddr).AddOutput(next)
	switch n.conf.SwapMode {
	case SwapReference:
		b.AddCommand(ledger.Swap, owner.Address(), newOwner.Address())
	default:
		b.AddInput(prior).AddCommand(ledger.Transfer, owner.Address(), newOwner.Address())
	}
	tx, err := b.Build()
	if err != nil {
		return "", err
	}
	committed, err := n.run(ctx, FlowSwap, tx)
	if committed == nil {
		return "", err
	}
	return fmt.Sprintf("Token swap successful. %d tokens transferred from %s to %s.", amount, ownerName, newOwnerName), err
}

// swappable returns the first unspent state of given amount held by the
// owner.
func (n *Node) swappable(amount int64, owner tokenflow.Address) (ledger.StateAndRef, error) {
	unspent, err := n.vault.Unspent()
	if err != nil {
		return ledger.StateAndRef{}, err
	}
	if len(unspent) == 0 {
		return ledger.StateAndRef{}, errors.Wrap(errors.ErrNotFound, "no tokens found in the vault")
	}
	var matching []ledger.StateAndRef
	for _, s := range unspent {
		if s.State.Amount == amount {
			matching = append(matching, s)
		}
	}
	if len(matching) == 0 {
		return ledger.StateAndRef{}, errors.Wrap(errors.ErrValidation, "the specified amount does not match the amount of the token")
	}
	for _, s := range matching {
		if s.State.Owner.Equals(owner) {
			return s, nil
		}
	}
	return ledger.StateAndRef{}, errors.Wrap(errors.ErrValidation, "the specified owner is not the owner of the token")
}

// QueryByAccount describes the first unspent token given account takes
// part in.
func (n *Node) QueryByAccount(ctx context.Context, name string) (string, error) {
	ctx = n.flowContext(ctx, FlowQuery)
	res, err := n.query(ctx, name)
	n.metrics.observe(FlowQuery, err)
	return res, err
}

func (n *Node) query(ctx context.Context, name string) (string, error) {
	acc, err := n.dir.ByName(name)
	if err != nil {
		return "", err
	}
	states, err := n.vault.UnspentFor(acc.Address())
	if err != nil {
		return "", err
	}
	tokenflow.GetLogger(ctx).Debug("unspent states", "account", name, "count", len(states))
	if len(states) == 0 {
		return "No TokenState mapped to this account on this node. So either this account is not a participant or account to key mapping is not known to this node.", nil
	}
	state := states[0].State
	issuer, issuerKnown, err := n.dir.ByIdentity(state.Issuer)
	if err != nil {
		return "", err
	}
	owner, ownerKnown, err := n.dir.ByIdentity(state.Owner)
	if err != nil {
		return "", err
	}
	switch {
	case !issuerKnown:
		return fmt.Sprintf("Issuer key to account mapping is not available with this node. Amount is : %d Owner is : %s",
			state.Amount, displayName(owner, ownerKnown, state.Owner)), nil
	case !ownerKnown:
		return fmt.Sprintf("Owner key to account mapping is not available with this node. Amount is : %d Issuer is : %s",
			state.Amount, issuer.Name), nil
	default:
		return fmt.Sprintf("Amount is : %d Issuer is : %s Owner is : %s", state.Amount, issuer.Name, owner.Name), nil
	}
}

func displayName(acc *accounts.Account, known bool, addr tokenflow.Address) string {
	if !known {
		return addr.String()
	}
	return acc.Name
}

func (n *Node) pair(a, b string) (*accounts.Account, *accounts.Account, error) {
	first, err := n.dir.ByName(a)
	if err != nil {
		return nil, nil, err
	}
	second, err := n.dir.ByName(b)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

func (n *Node) flowContext(ctx context.Context, flow string) context.Context {
	ctx = tokenflow.WithFlow(ctx, flow)
	return tokenflow.WithLogInfo(ctx, "flow", flow, "party", n.host)
}

// run collects the signatures of a built transaction and finalizes it
// with every participating host.
func (n *Node) run(ctx context.Context, flow string, tx ledger.ProposedTx) (*ledger.CommittedTx, error) {
	if err := contract.VerifyTx(tx); err != nil {
		return nil, err
	}
	order, signers, err := n.hosts(tx)
	if err != nil {
		return nil, err
	}

	var local []crypto.Signer
	for _, s := range tx.Command.Signers {
		if k, ok := n.key(s); ok {
			local = append(local, k)
		}
	}

	sessions := make([]transport.Session, 0, len(order))
	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()
	var peers []collect.Peer
	for _, host := range order {
		s, err := n.net.Open(ctx, n.host, host)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
		if len(signers[host]) != 0 {
			peers = append(peers, collect.Peer{Session: s, Signers: signers[host]})
		}
	}

	cctx, cancel := context.WithTimeout(ctx, n.signatureTimeout())
	stx, err := collect.NewInitiator(flow).Collect(cctx, tx, local, peers)
	cancel()
	if err != nil {
		return nil, err
	}

	committed, err := finality.NewCoordinator(flow, n.notary, n.vault).Finalize(ctx, stx, sessions)
	if err != nil {
		if committed != nil {
			tokenflow.GetLogger(ctx).Error("committed but not delivered", "err", err)
		}
		return committed, err
	}
	return committed, nil
}
