package cbstore

import (
	"errors"
	"fmt"
	"log"
)

var statusCodeErrorMap = make(map[StatusCode]error)

func makeKvStatusError(code StatusCode) error {
	err := errors.New(getKvStatusCodeText(code))
	if statusCodeErrorMap[code] != nil {
		log.Fatal("error handling setup failure")
	}
	statusCodeErrorMap[code] = err
	return err
}

var (
	// ErrKeyNotFound occurs when an operation is performed on a key that does not exist.
	ErrKeyNotFound = makeKvStatusError(StatusKeyNotFound)

	// ErrKeyExists occurs when an operation is performed on a key that already exists,
	// or when a provided cas no longer matches the stored document.
	ErrKeyExists = makeKvStatusError(StatusKeyExists)

	// ErrTooBig occurs when an operation attempts to store more data in a single
	// document than the server is willing to accept.
	ErrTooBig = makeKvStatusError(StatusTooBig)

	// ErrInvalidArgs occurs when the server receives invalid arguments for an operation.
	ErrInvalidArgs = makeKvStatusError(StatusInvalidArgs)

	// ErrNotStored occurs when the server fails to store a key.
	ErrNotStored = makeKvStatusError(StatusNotStored)

	// ErrBadDelta occurs when an invalid delta value is specified to a counter operation.
	ErrBadDelta = makeKvStatusError(StatusBadDelta)

	// ErrNoBucket occurs when no bucket was selected on a connection.
	ErrNoBucket = makeKvStatusError(StatusNoBucket)

	// ErrLocked occurs when a mutation is attempted against a locked document.
	ErrLocked = makeKvStatusError(StatusLocked)

	// ErrAuthStale occurs when authentication credentials have become invalidated.
	ErrAuthStale = makeKvStatusError(StatusAuthStale)

	// ErrAuthError occurs when the authentication information provided was not valid.
	ErrAuthError = makeKvStatusError(StatusAuthError)

	// ErrRangeError occurs when the range specified to the server is not valid.
	ErrRangeError = makeKvStatusError(StatusRangeError)

	// ErrAccessError occurs when an access error occurs.
	ErrAccessError = makeKvStatusError(StatusAccessError)

	// ErrTmpLockError occurs when a document could not be unlocked with the
	// provided cas.
	ErrTmpLockError = makeKvStatusError(StatusTmpLockError)

	// ErrOutOfMemory occurs when the server cannot service a request due to
	// memory limitations.
	ErrOutOfMemory = makeKvStatusError(StatusOutOfMemory)

	// ErrInternalError occurs when internal errors prevent the server from
	// processing a request.
	ErrInternalError = makeKvStatusError(StatusInternalError)

	// ErrBusy occurs when the server is too busy to process a request right away.
	ErrBusy = makeKvStatusError(StatusBusy)

	// ErrTmpFail occurs when a temporary failure is preventing the server from
	// processing a request.
	ErrTmpFail = makeKvStatusError(StatusTmpFail)

	// ErrDurabilityTimeout occurs when a mutation completed but the requested
	// persistence or replication acknowledgements did not arrive in time.
	ErrDurabilityTimeout = makeKvStatusError(StatusDurabilityTimeout)
)

var (
	// ErrNoHosts occurs when an empty list of candidate nodes is provided.
	ErrNoHosts = errors.New("at least one node address must be specified")

	// ErrBadHosts occurs when none of the specified candidate nodes could be
	// contacted.
	ErrBadHosts = errors.New("failed to connect to any of the specified hosts")

	// ErrCasMismatch occurs when a mutation guarded by a cas value is rejected
	// because the document has been modified since the cas was observed.
	ErrCasMismatch = errors.New("cas mismatch, the document was modified concurrently")

	// ErrUnknownFlags occurs when a stored value carries a flags field that
	// does not correspond to any known client format. This is unrecoverable,
	// the payload cannot be interpreted.
	ErrUnknownFlags = errors.New("unknown flags value")

	// ErrShutdown occurs when operations are performed on a previously closed
	// document store.
	ErrShutdown = errors.New("connection shut down")

	// ErrViewError occurs when an index query reports per-node errors and the
	// caller did not request errors to be returned inline.
	ErrViewError = errors.New("view query completed with errors")
)

// KvError wraps an underlying store error with the operation and key it
// occurred for.
type KvError struct {
	InnerError error
	StatusCode StatusCode
	Operation  string
	Key        string
}

func (e KvError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s operation failed: %s", e.Operation, e.InnerError.Error())
	}
	return e.InnerError.Error()
}

// Unwrap returns the underlying error.
func (e KvError) Unwrap() error {
	return e.InnerError
}

func wrapKvError(op, key string, err error) error {
	code := StatusSuccess
	for c, e := range statusCodeErrorMap {
		if errors.Is(err, e) {
			code = c
			break
		}
	}
	return KvError{
		InnerError: err,
		StatusCode: code,
		Operation:  op,
		Key:        key,
	}
}

// kvOutcome classifies a driver error into the expected-failure categories
// that the store facade translates into sentinel return values, keeping them
// statically distinct from fatal failures at each call site.
type kvOutcome int

const (
	outcomeOK kvOutcome = iota
	outcomeNotFound
	outcomeExists
	outcomeNotStored
	outcomeFatal
)

func classifyKvError(err error) kvOutcome {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrKeyNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrKeyExists):
		return outcomeExists
	case errors.Is(err, ErrNotStored):
		return outcomeNotStored
	default:
		return outcomeFatal
	}
}
