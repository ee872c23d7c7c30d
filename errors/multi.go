package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If no error is given, nil is returned. A single non nil error is returned
// as it is. Aggregated errors keep the order in which they were given and
// nested aggregates are flattened.
func Append(errs ...error) error {
	var res []error
	for _, err := range errs {
		if isNilErr(err) {
			continue
		}
		if m, ok := err.(*multiErr); ok {
			res = append(res, m.errs...)
			continue
		}
		res = append(res, err)
	}

	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return &multiErr{errs: res}
	}
}

// multiErr is an aggregate of errors. The first error is considered the
// primary one: its code represents the whole group.
type multiErr struct {
	errs []error
}

var _ unpacker = (*multiErr)(nil)

func (m *multiErr) Error() string {
	points := make([]string, len(m.errs))
	for i, err := range m.errs {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(m.errs), strings.Join(points, "\n\t"))
}

// Unpack returns all aggregated errors in the order they were added.
func (m *multiErr) Unpack() []error {
	out := make([]error, len(m.errs))
	copy(out, m.errs)
	return out
}

// First returns the first error of an aggregate, the error itself for a
// single error or nil. Use it to surface the earliest failing check.
func First(err error) error {
	if isNilErr(err) {
		return nil
	}
	if u, ok := err.(unpacker); ok {
		if errs := u.Unpack(); len(errs) > 0 {
			return errs[0]
		}
	}
	return err
}
