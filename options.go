package tokenflow

import (
	"encoding/json"

	"github.com/iov-one/tokenflow/errors"
)

// Options are the genesis document contents.
// Each component can look up its key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "cannot parse %q: %s", key, err)
	}
	return nil
}

// Stream expects an array of json elements and allows to process them one by
// one. Each element is decoded into a fresh instance returned by alloc.
// Noop and no error if key is missing.
func (o Options) Stream(key string, alloc func() interface{}, fn func(interface{}) error) error {
	var raw []json.RawMessage
	if err := o.ReadOptions(key, &raw); err != nil {
		return err
	}
	for i, elem := range raw {
		obj := alloc()
		if err := json.Unmarshal(elem, obj); err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "cannot parse %q element %d: %s", key, i, err)
		}
		if err := fn(obj); err != nil {
			return errors.Wrapf(err, "%q element %d", key, i)
		}
	}
	return nil
}
