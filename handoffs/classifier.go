package handoffs

// Classification holds the placement split for one device within a single
// check run.  A locally found partition is either a primary or a handoff,
// never both.
type Classification struct {
	Primary  int
	Handoffs PartitionSet
}

// Classify splits the locally found partitions of one device into primaries
// and handoffs.  A device missing from the index has an empty primary set,
// so everything it holds counts as a handoff; that is the expected signal
// for a freshly added, not yet rebalanced device.
func Classify(idx PrimaryIndex, device string, parts []uint64) Classification {
	c := Classification{Handoffs: make(PartitionSet)}
	primaries := idx[device]
	for _, p := range parts {
		if primaries.Contains(p) {
			c.Primary++
		} else {
			c.Handoffs[p] = struct{}{}
		}
	}
	return c
}
