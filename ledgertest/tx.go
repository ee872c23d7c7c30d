package ledgertest

import (
	"bytes"
	"testing"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/ledger"
)

// Salt returns a deterministic salt derived from given number.
func Salt(n byte) []byte {
	return bytes.Repeat([]byte{n}, ledger.SaltLength)
}

// IssueTx returns a proposed Issue transaction without running any
// contract check.
func IssueTx(t testing.TB, notary, issuer, owner tokenflow.Address, amount int64) ledger.ProposedTx {
	t.Helper()
	return ledger.ProposedTx{
		Outputs: []ledger.TokenState{{Issuer: issuer, Owner: owner, Amount: amount}},
		Command: ledger.NewCommand(ledger.Issue, issuer, owner),
		Notary:  notary,
		Salt:    Salt(1),
	}
}

// SignAll returns the transaction signed by every given key.
func SignAll(t testing.TB, tx ledger.ProposedTx, keys ...crypto.Signer) ledger.SignedTx {
	t.Helper()
	stx, err := ledger.Sign(ledger.NewSignedTx(tx), keys...)
	if err != nil {
		t.Fatalf("cannot sign: %+v", err)
	}
	return stx
}

// TxID returns the identifier of given transaction.
func TxID(t testing.TB, tx ledger.ProposedTx) ledger.TxID {
	t.Helper()
	id, err := tx.ID()
	if err != nil {
		t.Fatalf("cannot compute transaction id: %+v", err)
	}
	return id
}
