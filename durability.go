package cbstore

// DurabilityRequirement describes how many nodes must acknowledge a mutation
// before it is considered committed. PersistTo counts nodes that must write
// the mutation to disk, ReplicateTo counts nodes that must hold it in memory.
// The underlying store requires both fields whenever either is requested.
type DurabilityRequirement struct {
	PersistTo   int
	ReplicateTo int
}

// normalizeDurability converts caller-supplied persist and replicate counts
// into the pair the underlying store accepts. It reports false when neither
// was requested, in which case no durability fields may be sent at all.
//
// When only a persist count is given, the replicate count defaults to one
// less, never negative.
func normalizeDurability(persistTo, replicateTo int) (DurabilityRequirement, bool) {
	if persistTo <= 0 && replicateTo <= 0 {
		return DurabilityRequirement{}, false
	}

	if persistTo < 0 {
		persistTo = 0
	}
	if replicateTo <= 0 {
		replicateTo = persistTo - 1
		if replicateTo < 0 {
			replicateTo = 0
		}
	}

	return DurabilityRequirement{
		PersistTo:   persistTo,
		ReplicateTo: replicateTo,
	}, true
}
