package cbstore

import "fmt"

const (
	cbstoreVersionStr = "v1-dev"
)

// Cas represents a unique revision of a document. This can be used to perform
// optimistic locking. A Cas is compared by identity, never interpreted.
type Cas uint64

// StatusCode represents a status code returned by the underlying store for
// an operation.
type StatusCode uint16

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess = StatusCode(0x00)

	// StatusKeyNotFound occurs when an operation is performed on a key that does not exist.
	StatusKeyNotFound = StatusCode(0x01)

	// StatusKeyExists occurs when an operation is performed on a key that already exists,
	// or when a provided cas no longer matches the document.
	StatusKeyExists = StatusCode(0x02)

	// StatusTooBig occurs when an operation attempts to store more data in a single
	// document than the server is willing to accept.
	StatusTooBig = StatusCode(0x03)

	// StatusInvalidArgs occurs when the server receives invalid arguments for an operation.
	StatusInvalidArgs = StatusCode(0x04)

	// StatusNotStored occurs when the server fails to store a key.
	StatusNotStored = StatusCode(0x05)

	// StatusBadDelta occurs when an invalid delta is passed to a counter operation.
	StatusBadDelta = StatusCode(0x06)

	// StatusNoBucket occurs when no bucket was selected on a connection.
	StatusNoBucket = StatusCode(0x08)

	// StatusLocked occurs when a document is locked by another holder.
	StatusLocked = StatusCode(0x09)

	// StatusAuthStale occurs when authentication credentials have become invalidated.
	StatusAuthStale = StatusCode(0x1f)

	// StatusAuthError occurs when the authentication information provided was not valid.
	StatusAuthError = StatusCode(0x20)

	// StatusRangeError occurs when the range specified to the server is not valid.
	StatusRangeError = StatusCode(0x22)

	// StatusAccessError occurs when an access error occurs.
	StatusAccessError = StatusCode(0x24)

	// StatusTmpLockError occurs when a document could not be unlocked with the
	// provided cas.
	StatusTmpLockError = StatusCode(0x42)

	// StatusOutOfMemory occurs when the server cannot service a request due to
	// memory limitations.
	StatusOutOfMemory = StatusCode(0x82)

	// StatusInternalError occurs when internal errors prevent the server from
	// processing a request.
	StatusInternalError = StatusCode(0x84)

	// StatusBusy occurs when the server is too busy to process a request right away.
	StatusBusy = StatusCode(0x85)

	// StatusTmpFail occurs when a temporary failure is preventing the server from
	// processing a request.
	StatusTmpFail = StatusCode(0x86)

	// StatusDurabilityTimeout occurs when a mutation completed but the requested
	// persistence or replication acknowledgements did not arrive in time.
	StatusDurabilityTimeout = StatusCode(0xa1)
)

func getKvStatusCodeText(code StatusCode) string {
	switch code {
	case StatusSuccess:
		return "success"
	case StatusKeyNotFound:
		return "key not found"
	case StatusKeyExists:
		return "key already exists, if a cas was provided the key exists with a different cas"
	case StatusTooBig:
		return "document value was too large"
	case StatusInvalidArgs:
		return "invalid arguments"
	case StatusNotStored:
		return "document could not be stored"
	case StatusBadDelta:
		return "invalid delta was passed"
	case StatusNoBucket:
		return "not connected to a bucket"
	case StatusLocked:
		return "document is locked"
	case StatusAuthStale:
		return "authentication context is stale, try re-authenticating"
	case StatusAuthError:
		return "authentication error"
	case StatusRangeError:
		return "requested value is outside range"
	case StatusAccessError:
		return "no access"
	case StatusTmpLockError:
		return "document could not be unlocked with the provided cas"
	case StatusOutOfMemory:
		return "server is out of memory"
	case StatusInternalError:
		return "internal server error"
	case StatusBusy:
		return "server is busy, try again later"
	case StatusTmpFail:
		return "temporary failure occurred, try again later"
	case StatusDurabilityTimeout:
		return "durability requirements were not met in time"
	default:
		return fmt.Sprintf("unknown kv status code (%d)", code)
	}
}
