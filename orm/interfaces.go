package orm

import (
	"github.com/iov-one/tokenflow"
)

// Object is what is stored in the bucket
// Key is joined with the prefix to set the full key
// Value is the data stored
type Object interface {
	Keyed
	Cloneable
	// Validate returns error if the object is not in a valid
	// state to save to the db (eg. field missing, out of range, ...)
	tokenflow.Validater
	Value() tokenflow.Persistent
}

// Keyed is anything that can identify itself
type Keyed interface {
	Key() []byte
	SetKey([]byte)
}

// Cloneable will create a new object that can be loaded into
type Cloneable interface {
	Clone() Object
}

// CloneableData is an intelligent Value that can be embedded
// in a simple object to handle much of the details.
type CloneableData interface {
	tokenflow.Validater
	tokenflow.Persistent
	Copy() CloneableData
}
