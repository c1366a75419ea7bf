package cbstore

import (
	"net/url"
	"strconv"
	"time"
)

// testDoc is a document held by the in-memory test bucket.
type testDoc struct {
	value    []byte
	flags    uint32
	datatype uint8
	cas      Cas
	expiry   uint32
}

// testBucket implements Bucket against an in-memory document map and records
// the options of the last request of each shape so tests can assert on what
// would have gone over the wire.
type testBucket struct {
	docs       map[string]*testDoc
	transcoder Transcoder
	timeout    time.Duration
	nextCas    Cas

	lastStoreOpts   StoreOptions
	lastRemoveOpts  RemoveOptions
	lastCounterOpts CounterOptions
	lastViewParams  url.Values

	viewResult *ViewResult
	viewErr    error
}

func newTestBucket() *testBucket {
	return &testBucket{
		docs:    make(map[string]*testDoc),
		nextCas: 1000,
	}
}

func (b *testBucket) put(key string, value []byte, flags uint32) Cas {
	b.nextCas++
	b.docs[key] = &testDoc{
		value: value,
		flags: flags,
		cas:   b.nextCas,
	}
	return b.nextCas
}

func (b *testBucket) Get(key string) (KvResult, error) {
	doc, ok := b.docs[key]
	if !ok {
		return KvResult{}, ErrKeyNotFound
	}
	return KvResult{
		Value:    doc.value,
		Flags:    doc.flags,
		Datatype: doc.datatype,
		Cas:      doc.cas,
	}, nil
}

func (b *testBucket) GetAndLock(key string, lockTime uint32) (KvResult, error) {
	return b.Get(key)
}

func (b *testBucket) GetAndTouch(key string, expiry uint32) (KvResult, error) {
	doc, ok := b.docs[key]
	if !ok {
		return KvResult{}, ErrKeyNotFound
	}
	doc.expiry = expiry
	return b.Get(key)
}

func (b *testBucket) Touch(key string, expiry uint32) (Cas, error) {
	doc, ok := b.docs[key]
	if !ok {
		return 0, ErrKeyNotFound
	}
	doc.expiry = expiry
	return doc.cas, nil
}

func (b *testBucket) Upsert(key string, value []byte, flags uint32, opts StoreOptions) (Cas, error) {
	b.lastStoreOpts = opts
	if doc, ok := b.docs[key]; ok && opts.Cas != 0 && opts.Cas != doc.cas {
		return 0, ErrKeyExists
	}
	cas := b.put(key, value, flags)
	if opts.ExpirySet {
		b.docs[key].expiry = opts.Expiry
	}
	return cas, nil
}

func (b *testBucket) Replace(key string, value []byte, flags uint32, opts StoreOptions) (Cas, error) {
	b.lastStoreOpts = opts
	doc, ok := b.docs[key]
	if !ok {
		return 0, ErrKeyNotFound
	}
	if opts.Cas != 0 && opts.Cas != doc.cas {
		return 0, ErrKeyExists
	}
	return b.put(key, value, flags), nil
}

func (b *testBucket) Insert(key string, value []byte, flags uint32, opts StoreOptions) (Cas, error) {
	b.lastStoreOpts = opts
	if _, ok := b.docs[key]; ok {
		return 0, ErrKeyExists
	}
	cas := b.put(key, value, flags)
	if opts.ExpirySet {
		b.docs[key].expiry = opts.Expiry
	}
	return cas, nil
}

func (b *testBucket) Append(key string, value []byte, opts StoreOptions) (Cas, error) {
	b.lastStoreOpts = opts
	doc, ok := b.docs[key]
	if !ok {
		return 0, ErrNotStored
	}
	if opts.Cas != 0 && opts.Cas != doc.cas {
		return 0, ErrKeyExists
	}
	return b.put(key, append(append([]byte(nil), doc.value...), value...), doc.flags), nil
}

func (b *testBucket) Prepend(key string, value []byte, opts StoreOptions) (Cas, error) {
	b.lastStoreOpts = opts
	doc, ok := b.docs[key]
	if !ok {
		return 0, ErrNotStored
	}
	if opts.Cas != 0 && opts.Cas != doc.cas {
		return 0, ErrKeyExists
	}
	return b.put(key, append(append([]byte(nil), value...), doc.value...), doc.flags), nil
}

func (b *testBucket) Remove(key string, opts RemoveOptions) (Cas, error) {
	b.lastRemoveOpts = opts
	doc, ok := b.docs[key]
	if !ok {
		return 0, ErrKeyNotFound
	}
	if opts.Cas != 0 && opts.Cas != doc.cas {
		return 0, ErrKeyExists
	}
	delete(b.docs, key)
	b.nextCas++
	return b.nextCas, nil
}

func (b *testBucket) Counter(key string, opts CounterOptions) (uint64, Cas, error) {
	b.lastCounterOpts = opts
	doc, ok := b.docs[key]
	if !ok {
		if !opts.Create {
			return 0, 0, ErrKeyNotFound
		}
		cas := b.put(key, strconv.AppendUint(nil, opts.Initial, 10), 0)
		if opts.ExpirySet {
			b.docs[key].expiry = opts.Expiry
		}
		return opts.Initial, cas, nil
	}

	current, err := strconv.ParseInt(string(doc.value), 10, 64)
	if err != nil {
		return 0, 0, ErrBadDelta
	}
	next := current + opts.Delta
	if next < 0 {
		next = 0
	}
	cas := b.put(key, strconv.AppendInt(nil, next, 10), doc.flags)
	return uint64(next), cas, nil
}

func (b *testBucket) Unlock(key string, cas Cas) error {
	doc, ok := b.docs[key]
	if !ok {
		return ErrKeyNotFound
	}
	if cas != doc.cas {
		return ErrTmpLockError
	}
	return nil
}

func (b *testBucket) ViewQuery(designDoc, viewName string, params url.Values) (*ViewResult, error) {
	b.lastViewParams = params
	if b.viewErr != nil {
		return nil, b.viewErr
	}
	if b.viewResult != nil {
		return b.viewResult, nil
	}
	return &ViewResult{}, nil
}

func (b *testBucket) SetTranscoder(t Transcoder) {
	b.transcoder = t
}

func (b *testBucket) OperationTimeout() time.Duration {
	return b.timeout
}

func (b *testBucket) SetOperationTimeout(timeout time.Duration) {
	b.timeout = timeout
}

type testSession struct {
	bucket    *testBucket
	bucketErr error
	closed    bool
}

func (s *testSession) OpenBucket(name string) (Bucket, error) {
	if s.bucketErr != nil {
		return nil, s.bucketErr
	}
	return s.bucket, nil
}

func (s *testSession) Close() error {
	s.closed = true
	return nil
}

// testDriver hands out sessions over a shared test bucket, failing the
// addresses listed in failing and recording the order of attempts.
type testDriver struct {
	bucket    *testBucket
	failing   map[string]error
	bucketErr error
	attempts  []string
	sessions  []*testSession
}

func newTestDriver() *testDriver {
	return &testDriver{
		bucket:  newTestBucket(),
		failing: make(map[string]error),
	}
}

func (d *testDriver) OpenSession(address string, creds AuthCredentials) (Session, error) {
	d.attempts = append(d.attempts, address)
	if err := d.failing[address]; err != nil {
		return nil, err
	}
	session := &testSession{
		bucket:    d.bucket,
		bucketErr: d.bucketErr,
	}
	d.sessions = append(d.sessions, session)
	return session, nil
}

func testStoreConfig(nodes ...string) StoreConfig {
	if len(nodes) == 0 {
		nodes = []string{"10.0.0.1:11210"}
	}
	return StoreConfig{
		Nodes:      nodes,
		Username:   "tester",
		Password:   "hunter2",
		BucketName: "default",
	}
}
