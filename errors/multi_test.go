package errors

import (
	"reflect"
	"testing"
)

func TestAppend(t *testing.T) {
	first := ErrValidation.New("transaction must have no input states")
	second := ErrValidation.New("amount must be positive")
	third := ErrValidation.New("issuer must not change")

	cases := map[string]struct {
		errs      []error
		wantNil   bool
		wantFirst error
		wantLen   int
	}{
		"no errors": {
			errs:    nil,
			wantNil: true,
		},
		"only nil errors": {
			errs:    []error{nil, nil},
			wantNil: true,
		},
		"single error is returned as it is": {
			errs:      []error{nil, first},
			wantFirst: first,
			wantLen:   1,
		},
		"order is preserved": {
			errs:      []error{first, second},
			wantFirst: first,
			wantLen:   2,
		},
		"nested aggregates are flattened": {
			errs:      []error{Append(first, second), third},
			wantFirst: first,
			wantLen:   3,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := Append(tc.errs...)
			if tc.wantNil {
				if err != nil {
					t.Fatalf("want nil, got %v", err)
				}
				return
			}
			if got := First(err); got != tc.wantFirst {
				t.Fatalf("want first %q, got %q", tc.wantFirst, got)
			}
			n := 1
			if u, ok := err.(unpacker); ok {
				n = len(u.Unpack())
			}
			if n != tc.wantLen {
				t.Fatalf("want %d errors, got %d", tc.wantLen, n)
			}
		})
	}
}

func TestAppendUnpackIsCopy(t *testing.T) {
	a, b := ErrEmpty.New("a"), ErrEmpty.New("b")
	err := Append(a, b).(unpacker)
	errs := err.Unpack()
	errs[0] = nil
	if !reflect.DeepEqual(err.Unpack(), []error{a, b}) {
		t.Fatal("aggregate modified through unpacked slice")
	}
}
