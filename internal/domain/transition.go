package domain

// Snapshot is the transition-relevant slice of a commit's state, captured
// immediately before and after a mutation.
type Snapshot struct {
	Ready   bool
	Loading bool
}

// JustBecameReady reports whether readiness turned on between the two
// snapshots. It is deliberately one-directional: readiness turning off is
// not covered here because the GitHub-style target must not fire on it,
// while the Stash-style target detects regress separately via ReadyChanged.
func JustBecameReady(before, after Snapshot) bool {
	return !before.Ready && after.Ready
}

// JustFinishedLoading reports whether the import finished between the two
// snapshots, i.e. loading flipped from true to false.
func JustFinishedLoading(before, after Snapshot) bool {
	return before.Loading && !after.Loading
}

// ReadyChanged reports any change to the ready flag, in either direction.
func ReadyChanged(before, after Snapshot) bool {
	return before.Ready != after.Ready
}

// LoadingChanged reports any change to the loading flag, in either direction.
func LoadingChanged(before, after Snapshot) bool {
	return before.Loading != after.Loading
}
