package handoffs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	idx := PrimaryIndex{
		"sda1": PartitionSet{1: {}, 2: {}, 3: {}},
	}

	c := Classify(idx, "sda1", []uint64{1, 2, 5})
	require.Equal(t, 2, c.Primary)
	require.Equal(t, PartitionSet{5: {}}, c.Handoffs)

	// Exclusive and exhaustive over everything scanned.
	require.Equal(t, 3, c.Primary+len(c.Handoffs))
}

func TestClassifyUnknownDevice(t *testing.T) {
	// A device the ring has never heard of: every local partition is a
	// handoff, the signal for a newly added drive awaiting rebalance.
	c := Classify(PrimaryIndex{}, "sdz9", []uint64{7, 8})
	require.Equal(t, 0, c.Primary)
	require.Len(t, c.Handoffs, 2)
}

func TestClassifyEmptyScan(t *testing.T) {
	idx := PrimaryIndex{"sda1": PartitionSet{1: {}}}
	c := Classify(idx, "sda1", nil)
	require.Equal(t, 0, c.Primary)
	require.Empty(t, c.Handoffs)
}

func TestClassifyIdempotent(t *testing.T) {
	idx := PrimaryIndex{"sda1": PartitionSet{1: {}, 2: {}, 3: {}}}
	parts := []uint64{1, 2, 5, 9}

	first := Classify(idx, "sda1", parts)
	second := Classify(idx, "sda1", parts)
	require.Equal(t, first, second)
}
