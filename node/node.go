/*
Package node runs the token flows of one host.

A node holds the keys of the accounts it hosts, a vault with the ledger it
took part in and an account directory. It initiates issue and swap flows
and answers the flows other nodes initiate.
*/
package node

import (
	"context"
	"time"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/accounts"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/notary"
	"github.com/iov-one/tokenflow/transport"
	"github.com/iov-one/tokenflow/vault"
)

// Network connects a node to other hosts.
type Network interface {
	Listen(host string, a transport.Acceptor) error
	Open(ctx context.Context, from, to string) (transport.Session, error)
}

// Config is everything a node is made of.
type Config struct {
	Host      string
	Keys      []crypto.Signer
	Vault     *vault.Vault
	Directory *accounts.Directory
	// Notary certifies transactions, its identity is NotaryAddress.
	Notary        notary.Notary
	NotaryAddress tokenflow.Address
	Network       Network
	Settings      Configuration
	// Metrics is optional.
	Metrics *Metrics
}

// Node is a host running flows.
type Node struct {
	host       string
	keys       []crypto.Signer
	vault      *vault.Vault
	dir        *accounts.Directory
	notary     notary.Notary
	notaryAddr tokenflow.Address
	net        Network
	conf       Configuration
	metrics    *Metrics
	checkers   map[string]checker
}

// New returns a node listening on its host.
func New(c Config) (*Node, error) {
	if err := c.Settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "settings")
	}
	if err := c.NotaryAddress.Validate(); err != nil {
		return nil, errors.Field("NotaryAddress", err, "invalid notary")
	}
	if c.Host == "" || c.Vault == nil || c.Directory == nil || c.Notary == nil || c.Network == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "incomplete node configuration")
	}
	n := &Node{
		host:       c.Host,
		keys:       c.Keys,
		vault:      c.Vault,
		dir:        c.Directory,
		notary:     c.Notary,
		notaryAddr: c.NotaryAddress,
		net:        c.Network,
		conf:       c.Settings,
		metrics:    c.Metrics,
	}
	n.checkers = map[string]checker{
		FlowIssue: n.checkIssue,
		FlowSwap:  n.checkSwap,
	}
	if err := c.Network.Listen(c.Host, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Host returns the name this node listens on.
func (n *Node) Host() string {
	return n.host
}

// Vault returns the ledger view of this node.
func (n *Node) Vault() *vault.Vault {
	return n.vault
}

// Relevance returns the vault relevance of a node holding given keys: it
// keeps the states one of these accounts participates in.
func Relevance(keys []crypto.Signer) vault.Relevance {
	ids := make([]tokenflow.Address, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, crypto.SignerAddress(k))
	}
	return vault.ParticipantOf(ids...)
}

func (n *Node) signatureTimeout() time.Duration {
	return time.Duration(n.conf.SignatureTimeout)
}

// key returns the key of given identity if this node holds it.
func (n *Node) key(addr tokenflow.Address) (crypto.Signer, bool) {
	for _, k := range n.keys {
		if crypto.SignerAddress(k).Equals(addr) {
			return k, true
		}
	}
	return nil, false
}

// hosts returns the hosts that must take part in the flow of a
// transaction, without this node, in a deterministic order. Required
// signers not held locally are listed with their host.
func (n *Node) hosts(tx ledger.ProposedTx) ([]string, map[string][]tokenflow.Address, error) {
	var order []string
	signers := make(map[string][]tokenflow.Address)
	for _, p := range tx.Participants() {
		if _, ok := n.key(p); ok {
			continue
		}
		acc, ok, err := n.dir.ByIdentity(p)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			if tx.Command.IsRequiredSigner(p) {
				return nil, nil, errors.Wrapf(errors.ErrNotFound, "no account for signer %s", p)
			}
			// unknown participants cannot be reached
			continue
		}
		if acc.Host == n.host {
			if tx.Command.IsRequiredSigner(p) {
				return nil, nil, errors.Wrapf(errors.ErrUnauthorized, "no key of %s on this host", acc.Name)
			}
			continue
		}
		if _, ok := signers[acc.Host]; !ok {
			order = append(order, acc.Host)
			signers[acc.Host] = nil
		}
		if tx.Command.IsRequiredSigner(p) {
			signers[acc.Host] = append(signers[acc.Host], p)
		}
	}
	return order, signers, nil
}
