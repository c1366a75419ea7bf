package cbstore

import (
	"math"
	"time"
)

const (
	// relativeExpiryThreshold is one day in seconds. Expiry values under one
	// day are passed to the store as-is so the server computes the absolute
	// timestamp itself, which is more precise for short delays.
	relativeExpiryThreshold = 24 * 60 * 60

	// maxWireExpiry is the largest expiry timestamp representable on the wire.
	maxWireExpiry = math.MaxUint32
)

// resolveExpiry converts a caller-supplied expiry into the wire value the
// underlying store expects. A negative expiry means the caller supplied
// nothing, which yields defaultWhenAbsent.
func resolveExpiry(expiry int64, defaultWhenAbsent uint32) uint32 {
	return resolveExpiryAt(expiry, defaultWhenAbsent, time.Now().Unix())
}

// resolveExpiryAt is resolveExpiry against an explicit clock.
//
// Zero means never expire and is never converted to a timestamp. A value in
// the future is already an absolute timestamp and passes through unchanged,
// as does any delay under one day. Anything else is a relative delay, added
// to now and clamped to the maximum wire timestamp on overflow.
func resolveExpiryAt(expiry int64, defaultWhenAbsent uint32, now int64) uint32 {
	if expiry < 0 {
		return defaultWhenAbsent
	}
	if expiry == 0 {
		return 0
	}
	if expiry > now {
		if expiry > maxWireExpiry {
			return maxWireExpiry
		}
		return uint32(expiry)
	}
	if expiry < relativeExpiryThreshold {
		return uint32(expiry)
	}

	abs := now + expiry
	if abs > maxWireExpiry || abs < 0 {
		return maxWireExpiry
	}
	return uint32(abs)
}
