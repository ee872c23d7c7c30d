package crypto

import (
	"bytes"
	"testing"

	"github.com/iov-one/tokenflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	priv := GenPrivKeyEd25519()
	pub := priv.PublicKey()
	msg := []byte("token transfer")

	sig, err := priv.Sign(msg)
	require.NoError(t, err)
	assert.True(t, pub.Verify(msg, sig))
	assert.False(t, pub.Verify([]byte("another message"), sig))
	assert.False(t, pub.Verify(msg, nil))

	other := GenPrivKeyEd25519().PublicKey()
	assert.False(t, other.Verify(msg, sig))
	assert.False(t, pub.Equals(other))
	assert.True(t, pub.Equals(priv.PublicKey()))
}

func TestFromSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)
	a, err := PrivKeyEd25519FromSeed(seed)
	require.NoError(t, err)
	b, err := PrivKeyEd25519FromSeed(seed)
	require.NoError(t, err)

	assert.Equal(t, a.Ed25519, b.Ed25519)
	assert.Equal(t, seed, a.Seed())
	assert.True(t, a.PublicKey().Address().Equals(b.PublicKey().Address()))

	_, err = PrivKeyEd25519FromSeed([]byte("short"))
	assert.True(t, errors.ErrInvalidInput.Is(err))
}

func TestConditionAndAddress(t *testing.T) {
	pub := GenPrivKeyEd25519().PublicKey()
	cond := pub.Condition()

	ext, typ, data, err := cond.Parse()
	require.NoError(t, err)
	assert.Equal(t, ExtensionName, ext)
	assert.Equal(t, "ed25519", typ)
	assert.Equal(t, pub.Ed25519, data)

	addr := pub.Address()
	require.NoError(t, addr.Validate())
	assert.True(t, addr.Equals(cond.Address()))

	require.NoError(t, pub.Validate())
	assert.True(t, errors.ErrInvalidInput.Is((&PublicKey{}).Validate()))
}
