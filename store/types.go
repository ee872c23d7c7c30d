package store

import "github.com/iov-one/tokenflow"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = tokenflow.ReadOnlyKVStore
type SetDeleter = tokenflow.SetDeleter
type KVStore = tokenflow.KVStore
type Batch = tokenflow.Batch
type Iterator = tokenflow.Iterator
type CacheableKVStore = tokenflow.CacheableKVStore
type KVCacheWrap = tokenflow.KVCacheWrap
type CommitKVStore = tokenflow.CommitKVStore
type CommitID = tokenflow.CommitID
