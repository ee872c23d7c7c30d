package node

import (
	"encoding/json"
	"time"

	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/gconf"
	amino "github.com/tendermint/go-amino"
)

// ConfigPkg is the name the node configuration is stored under.
const ConfigPkg = "node"

// Swap modes.
const (
	// SwapConsume spends the swapped state as the input of a transfer.
	SwapConsume = "consume"
	// SwapReference emits the replacement state without consuming the
	// prior one.
	SwapReference = "reference"
)

// Duration is a time.Duration read from JSON as a string, for example
// "30s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "duration must be a string")
	}
	val, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "duration: %s", err)
	}
	*d = Duration(val)
	return nil
}

// Configuration of the flows run by a node.
type Configuration struct {
	// SignatureTimeout bounds the signature round trip of a flow.
	SignatureTimeout Duration `json:"signature_timeout"`
	SwapMode         string   `json:"swap_mode"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// DefaultConfiguration returns the configuration used when none is given.
func DefaultConfiguration() Configuration {
	return Configuration{
		SignatureTimeout: Duration(30 * time.Second),
		SwapMode:         SwapConsume,
	}
}

func (c *Configuration) Validate() error {
	var err error
	if c.SignatureTimeout <= 0 {
		err = errors.AppendField(err, "SignatureTimeout", errors.Wrap(errors.ErrInvalidInput, "must be positive"))
	}
	switch c.SwapMode {
	case SwapConsume, SwapReference:
	default:
		err = errors.AppendField(err, "SwapMode", errors.Wrapf(errors.ErrInvalidInput, "unknown swap mode %q", c.SwapMode))
	}
	return err
}

func (c *Configuration) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	*c = Configuration{}
	return amino.UnmarshalBinaryBare(raw, c)
}

// LoadConfiguration reads the node configuration from db. The default
// configuration is returned if none was stored.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var c Configuration
	switch err := gconf.Load(db, ConfigPkg, &c); {
	case err == nil:
		return c, nil
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	default:
		return Configuration{}, err
	}
}
