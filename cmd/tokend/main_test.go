package main

import (
	"context"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledgertest/assert"
)

func TestFlowCommands(t *testing.T) {
	home, err := ioutil.TempDir("", "tokend")
	assert.Nil(t, err)
	defer os.RemoveAll(home)
	ctx := context.Background()

	_, err = flowCmd(ctx, home, "query", []string{"bob"})
	assert.IsErr(t, errors.ErrNotFound, err)

	_, err = initCmd(home)
	assert.Nil(t, err)
	_, err = initCmd(home)
	assert.IsErr(t, errors.ErrDuplicate, err)

	out, err := flowCmd(ctx, home, "issue", []string{"alice", "bob", "100"})
	assert.Nil(t, err)
	if !strings.HasPrefix(out, "One Token State issued to bob from alice with amount: 100") {
		t.Fatalf("unexpected output %q", out)
	}

	// every invocation reopens the stores
	out, err = flowCmd(ctx, home, "query", []string{"bob"})
	assert.Nil(t, err)
	assert.Equal(t, "Amount is : 100 Issuer is : alice Owner is : bob", out)

	_, err = flowCmd(ctx, home, "swap", []string{"50", "bob", "carol"})
	assert.ErrMessages(t, err, "amount does not match")

	out, err = flowCmd(ctx, home, "swap", []string{"100", "bob", "carol"})
	assert.Nil(t, err)
	assert.Equal(t, "Token swap successful. 100 tokens transferred from bob to carol.", out)

	out, err = flowCmd(ctx, home, "query", []string{"carol"})
	assert.Nil(t, err)
	assert.Equal(t, "Amount is : 100 Issuer is : alice Owner is : carol", out)
}

func TestFlowCommandArguments(t *testing.T) {
	home, err := ioutil.TempDir("", "tokend")
	assert.Nil(t, err)
	defer os.RemoveAll(home)
	_, err = initCmd(home)
	assert.Nil(t, err)

	cases := map[string]struct {
		Cmd     string
		Args    []string
		WantErr *errors.Error
	}{
		"issue without amount": {
			Cmd:     "issue",
			Args:    []string{"alice", "bob"},
			WantErr: errors.ErrInvalidInput,
		},
		"issue with a word amount": {
			Cmd:     "issue",
			Args:    []string{"alice", "bob", "many"},
			WantErr: errors.ErrInvalidAmount,
		},
		"swap of an unknown owner": {
			Cmd:     "swap",
			Args:    []string{"10", "dave", "bob"},
			WantErr: errors.ErrNotFound,
		},
		"query too many accounts": {
			Cmd:     "query",
			Args:    []string{"alice", "bob"},
			WantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := flowCmd(context.Background(), home, tc.Cmd, tc.Args)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}
