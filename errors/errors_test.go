package errors

import (
	stdlib "errors"
	"fmt"
	"testing"

	"github.com/pkg/errors"
)

func TestCause(t *testing.T) {
	std := stdlib.New("this is a stdlib error")

	cases := map[string]struct {
		err  error
		root error
	}{
		"Errors are self-causing": {
			err:  ErrNotFound,
			root: ErrNotFound,
		},
		"Wrap reveals root cause": {
			err:  Wrap(ErrNotFound, "foo"),
			root: ErrNotFound,
		},
		"Cause works for stderr as root": {
			err:  Wrap(std, "Some helpful text"),
			root: std,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := errors.Cause(tc.err); got != tc.root {
				t.Fatal("unexpected result")
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrNotFound,
			b:      ErrNotFound,
			wantIs: true,
		},
		"two different coded errors": {
			a:      ErrNotFound,
			b:      ErrDoubleSpend,
			wantIs: false,
		},
		"successful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      errors.Wrap(ErrNotFound, "gone"),
			wantIs: true,
		},
		"unsuccessful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      errors.Wrap(ErrSession, "closed"),
			wantIs: false,
		},
		"not equal to stdlib error": {
			a:      ErrNotFound,
			b:      fmt.Errorf("stdlib error"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"nil is any error nil": {
			a:      nil,
			b:      (*customError)(nil),
			wantIs: true,
		},
		"nil is not not-nil": {
			a:      nil,
			b:      ErrNotFound,
			wantIs: false,
		},
		"not-nil is not nil": {
			a:      ErrNotFound,
			b:      nil,
			wantIs: false,
		},
		"aggregate with the same error": {
			a:      ErrNotFound,
			b:      Append(ErrNotFound, ErrInvalidState),
			wantIs: true,
		},
		"aggregate with random order": {
			a:      ErrNotFound,
			b:      Append(ErrInvalidState, Wrap(ErrNotFound, "test")),
			wantIs: true,
		},
		"aggregate with different errors": {
			a:      ErrNotFound,
			b:      Append(ErrInvalidState, ErrSession),
			wantIs: false,
		},
		"field error is unwrapped": {
			a:      ErrInvalidAmount,
			b:      Field("Amount", ErrInvalidAmount, "must be positive"),
			wantIs: true,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result - got:%v want: %v", got, tc.wantIs)
			}
		})
	}
}

type customError struct {
}

func (customError) Error() string {
	return "custom error"
}

func TestWrapEmpty(t *testing.T) {
	if err := Wrap(nil, "wrapping <nil>"); err != nil {
		t.Fatal(err)
	}
}

func TestIsValidation(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"validation":           {err: ErrValidation.New("amount must be positive"), want: true},
		"unrecognized command": {err: Wrap(ErrUnrecognizedCommand, "kind 7"), want: true},
		"aggregate":            {err: Append(ErrValidation.New("a"), ErrValidation.New("b")), want: true},
		"double spend":         {err: ErrDoubleSpend.New("consumed"), want: false},
		"nil":                  {err: nil, want: false},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := IsValidation(tc.err); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	if err := fn(); !ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %+v", err)
	}
}
