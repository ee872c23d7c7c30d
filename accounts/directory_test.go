package accounts

import (
	"testing"

	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledgertest"
	"github.com/iov-one/tokenflow/ledgertest/assert"
	"github.com/iov-one/tokenflow/store"
	"github.com/iov-one/tokenflow/store/iavl"
)

func TestCreate(t *testing.T) {
	alice := ledgertest.NewParty("alice").Key.PublicKey()
	bob := ledgertest.NewParty("bob").Key.PublicKey()

	cases := map[string]struct {
		name    string
		host    string
		pub     *crypto.PublicKey
		wantErr *errors.Error
	}{
		"valid": {
			name: "bob", host: "partyb", pub: bob,
		},
		"duplicated name": {
			name: "alice", host: "partyb", pub: bob,
			wantErr: errors.ErrDuplicate,
		},
		"identity mapped to another account": {
			name: "alice2", host: "partya", pub: alice,
			wantErr: errors.ErrDuplicate,
		},
		"invalid name": {
			name: "no spaces allowed", host: "partyb", pub: bob,
			wantErr: errors.ErrInvalidInput,
		},
		"missing host": {
			name: "bob", pub: bob,
			wantErr: errors.ErrEmpty,
		},
		"missing key": {
			name: "bob", host: "partyb",
			wantErr: errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			d := NewDirectory(store.MemStore())
			_, err := d.Create("alice", "partya", alice)
			assert.Nil(t, err)

			acc, err := d.Create(tc.name, tc.host, tc.pub)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if err != nil {
				return
			}
			assert.Equal(t, tc.name, acc.Name)
			assert.Equal(t, tc.pub.Address(), acc.Address())
		})
	}
}

func TestLookup(t *testing.T) {
	alice := ledgertest.NewParty("alice").Key.PublicKey()
	bob := ledgertest.NewParty("bob").Key.PublicKey()
	carol := ledgertest.NewParty("carol").Key.PublicKey()

	d := NewDirectory(store.MemStore())
	for name, pub := range map[string]*crypto.PublicKey{"alice": alice, "bob": bob, "carol": carol} {
		host := "partya"
		if name == "carol" {
			host = "partyb"
		}
		_, err := d.Create(name, host, pub)
		assert.Nil(t, err)
	}

	acc, err := d.ByName("bob")
	assert.Nil(t, err)
	assert.Equal(t, "partya", acc.Host)
	assert.Equal(t, true, bob.Equals(acc.PubKey))

	_, err = d.ByName("dave")
	assert.IsErr(t, errors.ErrNotFound, err)

	acc, ok, err := d.ByIdentity(carol.Address())
	assert.Nil(t, err)
	assert.Equal(t, true, ok)
	assert.Equal(t, "carol", acc.Name)

	// an unmapped identity is not an error
	_, ok, err = d.ByIdentity(ledgertest.NewParty("dave").Address())
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	hosted, err := d.ByHost("partya")
	assert.Nil(t, err)
	assert.Equal(t, 2, len(hosted))
}

func TestPersistentDirectory(t *testing.T) {
	cs := iavl.MockCommitStore()
	d := NewPersistentDirectory(cs)
	_, err := d.Create("alice", "partya", ledgertest.NewParty("alice").Key.PublicKey())
	assert.Nil(t, err)

	id, err := cs.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id.Version)

	acc, err := NewPersistentDirectory(cs).ByName("alice")
	assert.Nil(t, err)
	assert.Equal(t, "partya", acc.Host)
}
