package idle

import (
	"maps"

	"codeberg.org/mutker/diskctl/internal/diskstats"
)

// Snapshot is the counter snapshot type the machine consumes
type Snapshot = diskstats.Snapshot

// Changed reports whether any counter of any tracked device differs
// between the two snapshots. A nil old snapshot means there is nothing
// to compare against yet and counts as no activity. Every field counts
// equally; there is no weighting or thresholding. A device appearing in
// or disappearing from the snapshot is also a change.
func Changed(old, cur Snapshot) bool {
	if old == nil {
		return false
	}

	return !maps.Equal(old, cur)
}
