package notary

import (
	"context"
	"testing"

	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledgertest"
	"github.com/iov-one/tokenflow/ledgertest/assert"
	"github.com/iov-one/tokenflow/store"
	"github.com/iov-one/tokenflow/transport"
)

func TestRemoteNotary(t *testing.T) {
	ctx := context.Background()
	net := transport.NewNetwork(ctx)
	defer net.Close()

	svc := NewService(notary.Key, store.MemStore())
	assert.Nil(t, net.Listen("notary", NewServer(svc)))
	client := NewClient(net, "partya", "notary", notary.Address())

	in := issued(t)
	first := transfer(t, in, carol, 2)
	cert, err := client.Notarise(ctx, first)
	assert.Nil(t, err)
	assert.Nil(t, cert.Verify(ledgertest.TxID(t, first.Tx)))

	// the rejection reason travels back with its type
	_, err = client.Notarise(ctx, transfer(t, in, alice, 3))
	assert.IsErr(t, errors.ErrDoubleSpend, err)

	consumed, err := svc.IsConsumed(in.Ref)
	assert.Nil(t, err)
	assert.Equal(t, true, consumed)
}

func TestRemoteNotaryIdentity(t *testing.T) {
	ctx := context.Background()
	net := transport.NewNetwork(ctx)
	defer net.Close()

	// the host answers with certifications of another key
	impostor := ledgertest.NewParty("impostor")
	assert.Nil(t, net.Listen("notary", NewServer(NewService(impostor.Key, store.MemStore()))))
	client := NewClient(net, "partya", "notary", notary.Address())

	_, err := client.Notarise(ctx, transfer(t, issued(t), carol, 2))
	// the impostor refuses a transaction assigned to another notary
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = NewClient(net, "partya", "nowhere", notary.Address()).Notarise(ctx, transfer(t, issued(t), carol, 2))
	assert.IsErr(t, errors.ErrSession, err)
}
