package errors

import (
	"github.com/pkg/errors"
)

const (
	// SuccessCode is used to signal that the processing was successful
	// and no error is returned.
	SuccessCode = 0

	// All unclassified errors that do not provide a code are clubbed
	// under an internal error code and a generic message instead of
	// detailed error string.
	internalCode uint32 = 1
	internalLog         = "internal error"
)

type coder interface {
	Code() uint32
}

// Code returns the code and the message that describe given error to a
// remote party. Errors that do not wrap a registered root error are
// redacted to a generic internal error so that no implementation detail
// leaks through a session.
func Code(err error) (uint32, string) {
	if isNilErr(err) {
		return SuccessCode, ""
	}
	code := rootCode(err)
	if code == internalCode {
		return internalCode, internalLog
	}
	return code, err.Error()
}

// rootCode test if given error contains a code and returns the value of it
// if available. This function is testing for the causer interface as well
// and unwraps the error. An aggregate reports the code of its first member.
func rootCode(err error) uint32 {
	for {
		if isNilErr(err) {
			return SuccessCode
		}
		if c, ok := err.(coder); ok {
			return c.Code()
		}
		if u, ok := err.(unpacker); ok {
			errs := u.Unpack()
			if len(errs) == 0 {
				return internalCode
			}
			err = errs[0]
			continue
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return internalCode
		}
	}
}

// FromCode rebuilds an error received from a remote party. The returned
// error has the registered root error of that code as its cause, so that
// the usual Is tests work, and displays the original message unchanged.
//
// An unknown code is represented as an internal error.
func FromCode(code uint32, log string) error {
	if code == SuccessCode {
		return nil
	}
	root, ok := usedCodes[code]
	if !ok || root == nil {
		return &remoteError{root: errors.New(internalLog), log: log}
	}
	return &remoteError{root: root, log: log}
}

type remoteError struct {
	root error
	log  string
}

func (e *remoteError) Error() string {
	if e.log == "" {
		return e.root.Error()
	}
	return e.log
}

func (e *remoteError) Cause() error {
	return e.root
}
