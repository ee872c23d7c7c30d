package notary

import (
	"context"
	"sync"
	"testing"

	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/ledgertest"
	"github.com/iov-one/tokenflow/ledgertest/assert"
	"github.com/iov-one/tokenflow/store"
	"github.com/iov-one/tokenflow/store/iavl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	alice  = ledgertest.NewParty("alice")
	bob    = ledgertest.NewParty("bob")
	carol  = ledgertest.NewParty("carol")
	notary = ledgertest.NewParty("notary")
)

// issued returns the output of a signed issuance of alice to bob.
func issued(t *testing.T) ledger.StateAndRef {
	tx := ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), 100)
	return ledger.OutputRefs(ledgertest.TxID(t, tx), &tx)[0]
}

func transfer(t *testing.T, in ledger.StateAndRef, to ledgertest.Party, salt byte) ledger.SignedTx {
	out, err := in.State.WithOwner(to.Address())
	assert.Nil(t, err)
	tx := ledger.ProposedTx{
		Inputs:  []ledger.StateAndRef{in},
		Outputs: []ledger.TokenState{out},
		Command: ledger.NewCommand(ledger.Transfer, in.State.Owner, to.Address()),
		Notary:  notary.Address(),
		Salt:    ledgertest.Salt(salt),
	}
	return ledgertest.SignAll(t, tx, bob.Key, carol.Key, alice.Key)
}

func TestNotarise(t *testing.T) {
	issue := ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), 100)
	stranger := ledgertest.NewParty("stranger")

	cases := map[string]struct {
		stx     func(t *testing.T) ledger.SignedTx
		wantErr *errors.Error
	}{
		"issue": {
			stx: func(t *testing.T) ledger.SignedTx {
				return ledgertest.SignAll(t, issue, alice.Key, bob.Key)
			},
		},
		"transfer": {
			stx: func(t *testing.T) ledger.SignedTx {
				return transfer(t, issued(t), carol, 2)
			},
		},
		"missing signature": {
			stx: func(t *testing.T) ledger.SignedTx {
				return ledgertest.SignAll(t, issue, alice.Key)
			},
			wantErr: errors.ErrIncompleteSignature,
		},
		"another notary": {
			stx: func(t *testing.T) ledger.SignedTx {
				tx := ledgertest.IssueTx(t, stranger.Address(), alice.Address(), bob.Address(), 100)
				return ledgertest.SignAll(t, tx, alice.Key, bob.Key)
			},
			wantErr: errors.ErrUnauthorized,
		},
		"signature over another transaction": {
			stx: func(t *testing.T) ledger.SignedTx {
				stx := ledgertest.SignAll(t, issue, alice.Key, bob.Key)
				stx.Tx.Outputs = []ledger.TokenState{{Issuer: alice.Address(), Owner: bob.Address(), Amount: 5}}
				return stx
			},
			wantErr: errors.ErrInvalidSignature,
		},
		"contract violation": {
			stx: func(t *testing.T) ledger.SignedTx {
				tx := ledger.ProposedTx{
					Outputs: []ledger.TokenState{{Issuer: alice.Address(), Owner: bob.Address(), Amount: 100}},
					Command: ledger.NewCommand(ledger.Issue, alice.Address()),
					Notary:  notary.Address(),
					Salt:    ledgertest.Salt(1),
				}
				return ledgertest.SignAll(t, tx, alice.Key)
			},
			wantErr: errors.ErrValidation,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			svc := NewService(notary.Key, store.MemStore())
			stx := tc.stx(t)
			cert, err := svc.Notarise(context.Background(), stx)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if err != nil {
				return
			}
			id, err := stx.ID()
			assert.Nil(t, err)
			assert.Nil(t, cert.Verify(id))
			assert.Equal(t, notary.Address(), cert.Notary)
			for _, ref := range stx.Tx.InputRefs() {
				consumed, err := svc.IsConsumed(ref)
				assert.Nil(t, err)
				assert.Equal(t, true, consumed)
			}
		})
	}
}

func TestDoubleSpend(t *testing.T) {
	ctx := context.Background()
	svc := NewService(notary.Key, store.MemStore())
	in := issued(t)

	first := transfer(t, in, carol, 2)
	_, err := svc.Notarise(ctx, first)
	assert.Nil(t, err)

	// notarising the same transaction again is accepted
	_, err = svc.Notarise(ctx, first)
	assert.Nil(t, err)

	second := transfer(t, in, alice, 3)
	_, err = svc.Notarise(ctx, second)
	assert.IsErr(t, errors.ErrDoubleSpend, err)

	by, err := svc.ConsumedBy(in.Ref)
	assert.Nil(t, err)
	assert.Equal(t, ledgertest.TxID(t, first.Tx), by)
}

func TestCheckAndConsumeIsAtomic(t *testing.T) {
	svc := NewService(notary.Key, store.MemStore())
	a := ledger.StateRef{TxID: ledgertest.Salt(7), Index: 0}
	b := ledger.StateRef{TxID: ledgertest.Salt(7), Index: 1}
	first := ledger.TxID(ledgertest.Salt(1))
	second := ledger.TxID(ledgertest.Salt(2))

	assert.Nil(t, svc.CheckAndConsume([]ledger.StateRef{b}, first))
	err := svc.CheckAndConsume([]ledger.StateRef{a, b}, second)
	assert.IsErr(t, errors.ErrDoubleSpend, err)

	// a was not marked by the rejected call
	consumed, err := svc.IsConsumed(a)
	assert.Nil(t, err)
	assert.Equal(t, false, consumed)

	err = svc.CheckAndConsume([]ledger.StateRef{{TxID: []byte("short")}}, first)
	assert.IsErr(t, errors.ErrValidation, err)
}

func TestConcurrentDoubleSpend(t *testing.T) {
	const contenders = 16
	ctx := context.Background()
	svc := NewService(notary.Key, store.MemStore())
	in := issued(t)

	txs := make([]ledger.SignedTx, contenders)
	for i := range txs {
		to := carol
		if i%2 == 0 {
			to = alice
		}
		txs[i] = transfer(t, in, to, byte(10+i))
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		spends int
	)
	for _, stx := range txs {
		wg.Add(1)
		go func(stx ledger.SignedTx) {
			defer wg.Done()
			_, err := svc.Notarise(ctx, stx)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.ErrDoubleSpend.Is(err):
				spends++
			default:
				t.Errorf("unexpected error: %+v", err)
			}
		}(stx)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, contenders-1, spends)
}

func TestPersistentService(t *testing.T) {
	ctx := context.Background()
	cs := iavl.MockCommitStore()
	svc := NewPersistentService(notary.Key, cs)

	in := issued(t)
	_, err := svc.Notarise(ctx, transfer(t, in, carol, 2))
	assert.Nil(t, err)

	id, err := cs.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id.Version)

	// markers survive a new service on the same store
	again := NewPersistentService(notary.Key, cs)
	_, err = again.Notarise(ctx, transfer(t, in, alice, 3))
	assert.IsErr(t, errors.ErrDoubleSpend, err)
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	svc := NewService(notary.Key, store.MemStore()).WithMetrics(m)

	in := issued(t)
	_, err := svc.Notarise(ctx, transfer(t, in, carol, 2))
	assert.Nil(t, err)
	_, err = svc.Notarise(ctx, transfer(t, in, alice, 3))
	assert.IsErr(t, errors.ErrDoubleSpend, err)
	_, err = svc.Notarise(ctx, ledger.NewSignedTx(ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), 1)))
	assert.IsErr(t, errors.ErrIncompleteSignature, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Certified))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Rejected.WithLabelValues("double_spend")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Rejected.WithLabelValues("signature")))
}
