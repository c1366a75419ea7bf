package cbstore

import (
	"net/url"
	"time"
)

// AuthCredentials holds the login used to establish a cluster session.
type AuthCredentials struct {
	Username string
	Password string
}

// Driver is the underlying synchronous node-oriented driver this layer is
// built on. Implementations own the wire protocol, topology discovery and
// connection pooling.
type Driver interface {
	// OpenSession establishes an authenticated cluster session against a
	// single candidate node.
	OpenSession(address string, creds AuthCredentials) (Session, error)
}

// Session is an authenticated cluster session.
type Session interface {
	// OpenBucket opens a named bucket on the session.
	OpenBucket(name string) (Bucket, error)

	// Close releases the session.
	Close() error
}

// KvResult is the uniform per-key result returned from read operations at
// the driver boundary.
type KvResult struct {
	Value    []byte
	Flags    uint32
	Datatype uint8
	Cas      Cas
}

// StoreOptions carries the optional parameters of a mutation. A nil
// Durability means no durability fields are sent; when set, both counts are
// always sent together. ExpirySet distinguishes an expiry of zero from an
// omitted expiry, which some operations must not send at all.
type StoreOptions struct {
	Cas        Cas
	Expiry     uint32
	ExpirySet  bool
	Durability *DurabilityRequirement
}

// RemoveOptions carries the optional parameters of a remove.
type RemoveOptions struct {
	Cas        Cas
	Durability *DurabilityRequirement
}

// CounterOptions carries the parameters of a counter operation. Expiry and
// Initial are only sent when Create is set.
type CounterOptions struct {
	Delta     int64
	Initial   uint64
	Create    bool
	Expiry    uint32
	ExpirySet bool
}

// Bucket is an open bucket handle. All operations are synchronous, a single
// attempt per call, returning coded errors from the sentinel set in this
// package (ErrKeyNotFound, ErrKeyExists, ErrNotStored and so on).
type Bucket interface {
	Get(key string) (KvResult, error)
	GetAndLock(key string, lockTime uint32) (KvResult, error)
	GetAndTouch(key string, expiry uint32) (KvResult, error)
	Touch(key string, expiry uint32) (Cas, error)

	Upsert(key string, value []byte, flags uint32, opts StoreOptions) (Cas, error)
	Replace(key string, value []byte, flags uint32, opts StoreOptions) (Cas, error)
	Insert(key string, value []byte, flags uint32, opts StoreOptions) (Cas, error)
	Append(key string, value []byte, opts StoreOptions) (Cas, error)
	Prepend(key string, value []byte, opts StoreOptions) (Cas, error)
	Remove(key string, opts RemoveOptions) (Cas, error)
	Counter(key string, opts CounterOptions) (uint64, Cas, error)
	Unlock(key string, cas Cas) error

	// ViewQuery executes an index query against a design document view with
	// pre-encoded query parameters.
	ViewQuery(designDoc, viewName string, params url.Values) (*ViewResult, error)

	// SetTranscoder installs the decode path used for every subsequent read
	// on this bucket.
	SetTranscoder(t Transcoder)

	// OperationTimeout is the per-operation timeout applied by the driver.
	OperationTimeout() time.Duration
	SetOperationTimeout(timeout time.Duration)
}
