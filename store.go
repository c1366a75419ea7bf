// Package cbstore implements a versioned, multi-format client layer over a
// clustered key-value document store. It combines a corrected value
// transcoder, expiry resolution, durability normalization and node-failover
// connection establishment behind a synchronous document-oriented facade.
package cbstore

import (
	"errors"
	"time"
)

// StoreConfig configures a DocumentStore.
type StoreConfig struct {
	// Nodes is the unordered list of candidate node addresses.
	Nodes []string

	// Username and Password authenticate the cluster session.
	Username string
	Password string

	// BucketName is the bucket opened on the session.
	BucketName string

	// Transcoder configures value encoding and decoding.
	Transcoder TranscoderOptions

	// OperationTimeout overrides the driver's per-operation timeout when
	// non-zero.
	OperationTimeout time.Duration
}

// MutateOptions carries the optional parameters accepted by the mutation
// operations. A zero Cas means unconditional; a zero Expiry means never
// expire (or, for operations without an expiry default, that none was
// supplied). PersistTo and ReplicateTo request durability acknowledgements
// and are normalized together before being sent.
type MutateOptions struct {
	Cas         Cas
	Expiry      uint32
	PersistTo   int
	ReplicateTo int
}

// MutationResult is the per-document outcome of a multi-document mutation.
type MutationResult struct {
	Cas    Cas
	Stored bool
}

// DocumentStore is the synchronous facade over a bucket. A store owns a
// single session and bucket handle for its lifetime; it performs exactly one
// driver attempt per operation and never retries internally.
//
// Reads report a missing document as a nil value with no error. Mutations
// report expected negative outcomes (already exists, not stored) as a false
// result with no error; version conflicts, connection failures and unexpected
// store errors always surface as errors.
type DocumentStore struct {
	connMgr    *ConnectionManager
	transcoder Transcoder
	session    Session
	bucket     Bucket
}

// NewDocumentStore connects to the cluster described by config, using driver
// for all node communication, and returns a ready document store.
func NewDocumentStore(driver Driver, config StoreConfig) (*DocumentStore, error) {
	transcoder := NewTranscoder(config.Transcoder)
	connMgr := newConnectionManager(driver, config.Nodes, AuthCredentials{
		Username: config.Username,
		Password: config.Password,
	}, config.BucketName, transcoder)

	session, bucket, err := connMgr.Connect()
	if err != nil {
		return nil, err
	}

	if config.OperationTimeout > 0 {
		bucket.SetOperationTimeout(config.OperationTimeout)
	}

	return &DocumentStore{
		connMgr:    connMgr,
		transcoder: transcoder,
		session:    session,
		bucket:     bucket,
	}, nil
}

// ConnectionManager exposes the manager that established this store's
// session, including its last connection status.
func (store *DocumentStore) ConnectionManager() *ConnectionManager {
	return store.connMgr
}

// OperationTimeout is the per-operation timeout applied by the driver.
func (store *DocumentStore) OperationTimeout() time.Duration {
	if store.bucket == nil {
		return 0
	}
	return store.bucket.OperationTimeout()
}

// SetOperationTimeout sets the per-operation timeout applied by the driver.
func (store *DocumentStore) SetOperationTimeout(timeout time.Duration) {
	if store.bucket != nil {
		store.bucket.SetOperationTimeout(timeout)
	}
}

// Close releases the session. The store cannot be used afterwards.
func (store *DocumentStore) Close() error {
	if store.session == nil {
		return ErrShutdown
	}

	err := store.session.Close()
	store.session = nil
	store.bucket = nil
	return err
}

func (store *DocumentStore) kv() (Bucket, error) {
	if store.bucket == nil {
		return nil, ErrShutdown
	}
	return store.bucket, nil
}

// decodeValue runs a read result through the transcoder and applies the
// empty-string correction: historical encoders wrote empty strings as an
// empty payload with no serialization flags, which the decoder reports as
// absence. Those must surface as empty strings, not as missing values.
func (store *DocumentStore) decodeValue(res KvResult) (interface{}, error) {
	value, err := store.transcoder.Decode(res.Value, res.Flags, res.Datatype)
	if err != nil {
		return nil, err
	}

	if value == nil && res.Flags&cfSerMask == 0 {
		return "", nil
	}
	return value, nil
}

func durabilityFor(opts MutateOptions) *DurabilityRequirement {
	if req, ok := normalizeDurability(opts.PersistTo, opts.ReplicateTo); ok {
		return &req
	}
	return nil
}

// Get retrieves a document. A missing key yields a nil value, a zero cas and
// no error.
func (store *DocumentStore) Get(key string) (interface{}, Cas, error) {
	bucket, err := store.kv()
	if err != nil {
		return nil, 0, err
	}

	res, err := bucket.Get(key)
	switch classifyKvError(err) {
	case outcomeOK:
	case outcomeNotFound:
		return nil, 0, nil
	default:
		return nil, 0, wrapKvError("get", key, err)
	}

	value, err := store.decodeValue(res)
	if err != nil {
		return nil, 0, wrapKvError("get", key, err)
	}
	return value, res.Cas, nil
}

// GetMulti retrieves several documents at once. Keys that fail at the driver
// or come back without a cas are silently omitted from both maps.
func (store *DocumentStore) GetMulti(keys []string) (map[string]interface{}, map[string]Cas, error) {
	bucket, err := store.kv()
	if err != nil {
		return nil, nil, err
	}

	values := make(map[string]interface{}, len(keys))
	cass := make(map[string]Cas, len(keys))
	for _, key := range keys {
		res, err := bucket.Get(key)
		if err != nil || res.Cas == 0 {
			continue
		}

		value, err := store.decodeValue(res)
		if err != nil {
			return nil, nil, wrapKvError("getMulti", key, err)
		}

		values[key] = value
		cass[key] = res.Cas
	}

	return values, cass, nil
}

// GetAndLock retrieves a document and write-locks it for lockTime seconds.
// A missing key yields a nil value and no error. The value may also be nil
// when the lock succeeded but the payload held nothing.
func (store *DocumentStore) GetAndLock(key string, lockTime uint32) (interface{}, Cas, error) {
	bucket, err := store.kv()
	if err != nil {
		return nil, 0, err
	}

	res, err := bucket.GetAndLock(key, lockTime)
	switch classifyKvError(err) {
	case outcomeOK:
	case outcomeNotFound:
		return nil, 0, nil
	default:
		return nil, 0, wrapKvError("getAndLock", key, err)
	}

	value, err := store.decodeValue(res)
	if err != nil {
		return nil, 0, wrapKvError("getAndLock", key, err)
	}
	return value, res.Cas, nil
}

// GetAndTouch retrieves a document and updates its expiry. A missing key
// yields a nil value and no error.
func (store *DocumentStore) GetAndTouch(key string, expiry uint32) (interface{}, Cas, error) {
	bucket, err := store.kv()
	if err != nil {
		return nil, 0, err
	}

	res, err := bucket.GetAndTouch(key, resolveExpiry(int64(expiry), 0))
	switch classifyKvError(err) {
	case outcomeOK:
	case outcomeNotFound:
		return nil, 0, nil
	default:
		return nil, 0, wrapKvError("getAndTouch", key, err)
	}

	value, err := store.decodeValue(res)
	if err != nil {
		return nil, 0, wrapKvError("getAndTouch", key, err)
	}
	return value, res.Cas, nil
}

// Touch updates the expiry of a document without reading it. A missing key
// yields false with no error.
func (store *DocumentStore) Touch(key string, expiry uint32) (bool, error) {
	bucket, err := store.kv()
	if err != nil {
		return false, err
	}

	_, err = bucket.Touch(key, resolveExpiry(int64(expiry), 0))
	switch classifyKvError(err) {
	case outcomeOK:
		return true, nil
	case outcomeNotFound:
		return false, nil
	default:
		return false, wrapKvError("touch", key, err)
	}
}

// Set stores a document unconditionally, or conditionally when opts.Cas is
// set. A cas conflict surfaces as an ErrCasMismatch error, never as a false
// result.
func (store *DocumentStore) Set(key string, value interface{}, opts MutateOptions) (Cas, error) {
	bucket, err := store.kv()
	if err != nil {
		return 0, err
	}

	data, flags, err := store.transcoder.Encode(value)
	if err != nil {
		return 0, wrapKvError("set", key, err)
	}

	cas, err := bucket.Upsert(key, data, flags, StoreOptions{
		Cas:        opts.Cas,
		Expiry:     resolveExpiry(int64(opts.Expiry), 0),
		ExpirySet:  true,
		Durability: durabilityFor(opts),
	})
	if err != nil {
		if opts.Cas != 0 && classifyKvError(err) == outcomeExists {
			return 0, wrapKvError("set", key, ErrCasMismatch)
		}
		return 0, wrapKvError("set", key, err)
	}

	return cas, nil
}

// SetMulti stores several documents at once. Documents the store rejects for
// an expected reason are reported with Stored false; connection failures and
// unexpected store errors abort the call.
func (store *DocumentStore) SetMulti(values map[string]interface{}, opts MutateOptions) (map[string]MutationResult, error) {
	bucket, err := store.kv()
	if err != nil {
		return nil, err
	}

	expiry := resolveExpiry(int64(opts.Expiry), 0)
	durability := durabilityFor(opts)

	results := make(map[string]MutationResult, len(values))
	for key, value := range values {
		data, flags, err := store.transcoder.Encode(value)
		if err != nil {
			return nil, wrapKvError("setMulti", key, err)
		}

		cas, err := bucket.Upsert(key, data, flags, StoreOptions{
			Expiry:     expiry,
			ExpirySet:  true,
			Durability: durability,
		})
		if err != nil {
			if classifyKvError(err) == outcomeFatal {
				return nil, wrapKvError("setMulti", key, err)
			}
			results[key] = MutationResult{}
			continue
		}

		results[key] = MutationResult{Cas: cas, Stored: true}
	}

	return results, nil
}

// Replace stores a document only if it already exists. A missing key yields
// false with no error; a stale cas surfaces as an ErrCasMismatch error so the
// two failure modes stay distinguishable.
func (store *DocumentStore) Replace(key string, value interface{}, opts MutateOptions) (Cas, bool, error) {
	bucket, err := store.kv()
	if err != nil {
		return 0, false, err
	}

	data, flags, err := store.transcoder.Encode(value)
	if err != nil {
		return 0, false, wrapKvError("replace", key, err)
	}

	cas, err := bucket.Replace(key, data, flags, StoreOptions{
		Cas:        opts.Cas,
		Expiry:     resolveExpiry(int64(opts.Expiry), 0),
		ExpirySet:  true,
		Durability: durabilityFor(opts),
	})
	switch classifyKvError(err) {
	case outcomeOK:
		return cas, true, nil
	case outcomeNotFound:
		return 0, false, nil
	case outcomeExists:
		return 0, false, wrapKvError("replace", key, ErrCasMismatch)
	default:
		return 0, false, wrapKvError("replace", key, err)
	}
}

// Add stores a document only if it does not exist yet. An existing key yields
// false with no error. When no expiry is supplied none is sent to the store.
func (store *DocumentStore) Add(key string, value interface{}, opts MutateOptions) (Cas, bool, error) {
	bucket, err := store.kv()
	if err != nil {
		return 0, false, err
	}

	data, flags, err := store.transcoder.Encode(value)
	if err != nil {
		return 0, false, wrapKvError("add", key, err)
	}

	sopts := StoreOptions{
		Durability: durabilityFor(opts),
	}
	if opts.Expiry != 0 {
		sopts.Expiry = resolveExpiry(int64(opts.Expiry), 0)
		sopts.ExpirySet = true
	}

	cas, err := bucket.Insert(key, data, flags, sopts)
	switch classifyKvError(err) {
	case outcomeOK:
		return cas, true, nil
	case outcomeExists:
		return 0, false, nil
	default:
		return 0, false, wrapKvError("add", key, err)
	}
}

// Append appends a fragment to an existing document. A document the store
// cannot append to yields false with no error. An expiry in opts is accepted
// but not forwarded; the underlying store ignores it for this operation.
func (store *DocumentStore) Append(key string, fragment interface{}, opts MutateOptions) (Cas, bool, error) {
	return store.concat("append", key, fragment, opts)
}

// Prepend prepends a fragment to an existing document, with the same
// contract as Append.
func (store *DocumentStore) Prepend(key string, fragment interface{}, opts MutateOptions) (Cas, bool, error) {
	return store.concat("prepend", key, fragment, opts)
}

func (store *DocumentStore) concat(op, key string, fragment interface{}, opts MutateOptions) (Cas, bool, error) {
	bucket, err := store.kv()
	if err != nil {
		return 0, false, err
	}

	data, _, err := store.transcoder.Encode(fragment)
	if err != nil {
		return 0, false, wrapKvError(op, key, err)
	}

	sopts := StoreOptions{
		Cas:        opts.Cas,
		Durability: durabilityFor(opts),
	}

	var cas Cas
	if op == "append" {
		cas, err = bucket.Append(key, data, sopts)
	} else {
		cas, err = bucket.Prepend(key, data, sopts)
	}
	switch classifyKvError(err) {
	case outcomeOK:
		return cas, true, nil
	case outcomeNotStored, outcomeNotFound:
		return 0, false, nil
	case outcomeExists:
		return 0, false, wrapKvError(op, key, ErrCasMismatch)
	default:
		return 0, false, wrapKvError(op, key, err)
	}
}

// Delete removes a document. Unless durability is requested explicitly the
// tombstone must be persisted on at least one node. A document that cannot
// be removed for an expected reason yields false with no error.
func (store *DocumentStore) Delete(key string, opts MutateOptions) (Cas, bool, error) {
	bucket, err := store.kv()
	if err != nil {
		return 0, false, err
	}

	persistTo := opts.PersistTo
	if opts.PersistTo == 0 && opts.ReplicateTo == 0 {
		persistTo = 1
	}

	ropts := RemoveOptions{Cas: opts.Cas}
	if req, ok := normalizeDurability(persistTo, opts.ReplicateTo); ok {
		ropts.Durability = &req
	}

	cas, err := bucket.Remove(key, ropts)
	if err != nil {
		if classifyKvError(err) == outcomeFatal {
			return 0, false, wrapKvError("delete", key, err)
		}
		return 0, false, nil
	}

	return cas, true, nil
}

// Increment adjusts a counter document by delta. When create is set a missing
// counter is initialized to initial with the given expiry; otherwise a
// missing key yields false with no error and neither initial nor expiry is
// sent to the store. The expiry only takes effect when the counter is
// created; the underlying store resets the expiry of an existing counter to
// never when one is sent, so this layer never sends it for existing keys.
func (store *DocumentStore) Increment(key string, delta int64, create bool, expiry uint32, initial uint64) (uint64, bool, error) {
	bucket, err := store.kv()
	if err != nil {
		return 0, false, err
	}

	copts := CounterOptions{
		Delta:  delta,
		Create: create,
	}
	if create {
		copts.Initial = initial
		copts.Expiry = resolveExpiry(int64(expiry), 0)
		copts.ExpirySet = true
	}

	value, _, err := bucket.Counter(key, copts)
	switch classifyKvError(err) {
	case outcomeOK:
		return value, true, nil
	case outcomeNotFound:
		return 0, false, nil
	default:
		return 0, false, wrapKvError("increment", key, err)
	}
}

// Unlock releases a lock taken by GetAndLock. A lock that cannot be released
// with the provided cas yields false with no error.
func (store *DocumentStore) Unlock(key string, cas Cas) (bool, error) {
	bucket, err := store.kv()
	if err != nil {
		return false, err
	}

	err = bucket.Unlock(key, cas)
	switch {
	case err == nil:
		return true, nil
	case classifyKvError(err) != outcomeFatal:
		return false, nil
	case errors.Is(err, ErrTmpLockError):
		return false, nil
	default:
		return false, wrapKvError("unlock", key, err)
	}
}

// View runs an index query against a design document view. The option bag is
// translated for the view engine; see ViewOptions for the accepted keys. When
// returnErrors is set, per-node errors are returned inside the result,
// otherwise their presence fails the query.
func (store *DocumentStore) View(designDoc, viewName string, opts ViewOptions, returnErrors bool) (*ViewResult, error) {
	bucket, err := store.kv()
	if err != nil {
		return nil, err
	}

	params, err := buildViewParams(opts)
	if err != nil {
		return nil, err
	}

	res, err := bucket.ViewQuery(designDoc, viewName, params)
	if err != nil {
		return nil, wrapKvError("view", designDoc+"/"+viewName, err)
	}

	if len(res.Errors) > 0 && !returnErrors {
		logErrorf("View query %s/%s reported %d errors", designDoc, viewName, len(res.Errors))
		return nil, wrapKvError("view", designDoc+"/"+viewName, ErrViewError)
	}

	return res, nil
}
