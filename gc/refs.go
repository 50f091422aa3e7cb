package gc

// Collect aggregates ID sets from all snapshots in others using the given
// accessor. Snapshots that don't support the accessor return nil and are
// silently skipped.
//
// Usage:
//
//	tracked := gc.Collect(others, gc.RemoteIDs)
func Collect(others map[string]any, accessor func(any) map[string]struct{}) map[string]struct{} {
	result := make(map[string]struct{})
	for _, snap := range others {
		for id := range accessor(snap) {
			result[id] = struct{}{}
		}
	}
	return result
}

// --- Cross-module protocols ---
//
// Each protocol is an unexported interface paired with an exported accessor
// function. Snapshot types in other packages implement the interface by
// adding the matching method.

// trackedRemoteIDs is implemented by snapshots that know which hypervisor
// VM ids belong to a local record.
type trackedRemoteIDs interface {
	TrackedRemoteIDs() map[string]struct{}
}

// RemoteIDs extracts tracked hypervisor VM ids from a snapshot.
// Returns nil if the snapshot does not implement TrackedRemoteIDs.
func RemoteIDs(snap any) map[string]struct{} {
	if t, ok := snap.(trackedRemoteIDs); ok {
		return t.TrackedRemoteIDs()
	}
	return nil
}
