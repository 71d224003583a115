// Package handoffs reconciles the partition placement a ring intends against
// what is actually sitting on a node's disks, counting correctly placed
// primaries and misplaced handoffs per device.
package handoffs

import "github.com/swiftwatch/swiftwatch/ring"

// PartitionSet holds partition numbers for one device.
type PartitionSet map[uint64]struct{}

func (s PartitionSet) Contains(p uint64) bool {
	_, ok := s[p]
	return ok
}

// PrimaryIndex maps a device name to the partitions the ring assigns it as a
// primary holder.  Devices the ring knows nothing about are simply absent.
type PrimaryIndex map[string]PartitionSet

// BuildPrimaryIndex inverts the ring's replica tables.  Every replica is
// walked, so a partition lands in one device set per replica; within a single
// device the set collapses duplicate assignments.
func BuildPrimaryIndex(r *ring.Ring) PrimaryIndex {
	idx := make(PrimaryIndex, len(r.Devs()))
	for replica := 0; replica < r.ReplicaCount(); replica++ {
		for part := uint64(0); part < r.PartitionCount(); part++ {
			dev, ok := r.Device(replica, part)
			if !ok {
				continue
			}
			set, ok := idx[dev.Device]
			if !ok {
				set = make(PartitionSet)
				idx[dev.Device] = set
			}
			set[part] = struct{}{}
		}
	}
	return idx
}
