package ledger_test

import (
	"testing"

	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/ledgertest"
	"github.com/iov-one/tokenflow/ledgertest/assert"
)

func TestTransactionID(t *testing.T) {
	alice := ledgertest.NewParty("alice")
	bob := ledgertest.NewParty("bob")
	notary := ledgertest.NewParty("notary")

	tx := ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), 100)
	same := ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), 100)
	assert.Equal(t, ledgertest.TxID(t, tx), ledgertest.TxID(t, same))

	cases := map[string]func(*ledger.ProposedTx){
		"salt":   func(tx *ledger.ProposedTx) { tx.Salt = ledgertest.Salt(2) },
		"amount": func(tx *ledger.ProposedTx) { tx.Outputs[0].Amount = 99 },
		"notary": func(tx *ledger.ProposedTx) { tx.Notary = alice.Address() },
		"signers": func(tx *ledger.ProposedTx) {
			tx.Command = ledger.NewCommand(ledger.Issue, alice.Address())
		},
	}
	for testName, modify := range cases {
		t.Run(testName, func(t *testing.T) {
			changed := ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), 100)
			modify(&changed)
			if ledgertest.TxID(t, changed).Equals(ledgertest.TxID(t, tx)) {
				t.Fatal("modified transaction must have another id")
			}
		})
	}
}

func TestTransactionEncoding(t *testing.T) {
	alice := ledgertest.NewParty("alice")
	bob := ledgertest.NewParty("bob")
	tx := ledgertest.IssueTx(t, ledgertest.SequenceAddress(7), alice.Address(), bob.Address(), 3)
	stx := ledgertest.SignAll(t, tx, alice.Key, bob.Key)

	raw, err := stx.Marshal()
	assert.Nil(t, err)
	var got ledger.SignedTx
	assert.Nil(t, got.Unmarshal(raw))

	assert.Equal(t, ledgertest.TxID(t, tx), ledgertest.TxID(t, got.Tx))
	assert.Nil(t, got.VerifySignatures())
	if !got.FullySigned() {
		t.Fatal("decoded transaction must stay fully signed")
	}
}

func TestSignatures(t *testing.T) {
	alice := ledgertest.NewParty("alice")
	bob := ledgertest.NewParty("bob")
	mallory := ledgertest.NewParty("mallory")
	tx := ledgertest.IssueTx(t, ledgertest.SequenceAddress(7), alice.Address(), bob.Address(), 3)

	stx := ledgertest.SignAll(t, tx, alice.Key)
	if stx.FullySigned() {
		t.Fatal("bob did not sign yet")
	}
	missing := stx.Missing()
	assert.Equal(t, 1, len(missing))
	assert.Equal(t, bob.Address().String(), missing[0].String())

	// keys of foreign identities are ignored
	stx = ledgertest.SignAll(t, stx.Tx, alice.Key, mallory.Key)
	assert.Equal(t, 1, len(stx.Signatures))

	// the signer set can never grow
	sig, err := ledger.SignTx(mallory.Key, ledgertest.TxID(t, tx))
	assert.Nil(t, err)
	_, err = stx.AddSignature(sig)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	bobSig, err := ledger.SignTx(bob.Key, ledgertest.TxID(t, tx))
	assert.Nil(t, err)
	full, err := stx.AddSignature(bobSig)
	assert.Nil(t, err)
	if !full.FullySigned() {
		t.Fatal("all signatures present")
	}
	assert.Nil(t, full.VerifySignatures())
	// AddSignature never modifies the receiver
	assert.Equal(t, 1, len(stx.Signatures))

	// a signature of a modified transaction does not verify
	forged := full
	forged.Tx.Outputs = []ledger.TokenState{{Issuer: alice.Address(), Owner: bob.Address(), Amount: 1000}}
	assert.IsErr(t, errors.ErrInvalidSignature, forged.VerifySignatures())

	// a key that does not match the declared signer is rejected
	stolen := bobSig
	stolen.Signer = alice.Address()
	assert.IsErr(t, errors.ErrInvalidSignature, stolen.Verify(ledgertest.TxID(t, tx)))
}

func TestCertification(t *testing.T) {
	alice := ledgertest.NewParty("alice")
	notary := ledgertest.NewParty("notary")
	tx := ledgertest.IssueTx(t, notary.Address(), alice.Address(), alice.Address(), 3)
	stx := ledgertest.SignAll(t, tx, alice.Key)
	id := ledgertest.TxID(t, tx)

	cert, err := ledger.Certify(notary.Key, id)
	assert.Nil(t, err)
	assert.Nil(t, cert.Verify(id))

	committed := ledger.NewCommittedTx(stx, cert)
	assert.Nil(t, committed.Verify())

	raw, err := committed.Marshal()
	assert.Nil(t, err)
	var got ledger.CommittedTx
	assert.Nil(t, got.Unmarshal(raw))
	assert.Nil(t, got.Verify())

	// a party signature cannot be used as a certification
	partySig, err := ledger.SignTx(notary.Key, id)
	assert.Nil(t, err)
	forged := cert
	forged.Signature = partySig.Signature
	assert.IsErr(t, errors.ErrInvalidSignature, forged.Verify(id))

	other := ledgertest.NewParty("other notary")
	otherCert, err := ledger.Certify(other.Key, id)
	assert.Nil(t, err)
	assert.IsErr(t, errors.ErrInvalidSignature, ledger.NewCommittedTx(stx, otherCert).Verify())
}

func TestOutputRefsAndParticipants(t *testing.T) {
	alice := ledgertest.NewParty("alice")
	bob := ledgertest.NewParty("bob")
	tx := ledgertest.IssueTx(t, ledgertest.SequenceAddress(7), alice.Address(), bob.Address(), 3)
	id := ledgertest.TxID(t, tx)

	outs := ledger.OutputRefs(id, &tx)
	assert.Equal(t, 1, len(outs))
	assert.Equal(t, uint32(0), outs[0].Ref.Index)
	if !outs[0].Ref.TxID.Equals(id) {
		t.Fatal("output must reference the transaction")
	}
	assert.Equal(t, 2, len(tx.Participants()))
}
