/*
Package ledger defines the values moving through a transaction lifecycle.

A TokenState is an immutable unit of value. A ProposedTx consumes some
states (inputs) and creates new ones (outputs) under a single Command. The
command declares which identities must sign. A SignedTx collects those
signatures and a CommittedTx is the terminal record certified by the
notary.

  ProposedTx -> SignedTx (all required signers) -> CommittedTx

All values are encoded with go-amino. The transaction identifier is a
sha256 digest of the canonical encoding of the proposed transaction.
*/
package ledger
