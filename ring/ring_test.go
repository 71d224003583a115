package ring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testBuilder assigns 8 partitions (part_shift 29) across three devices,
// round-robin per replica with an offset, the way a tiny balanced ring would.
func testBuilder() *Builder {
	devs := []*Device{
		{ID: 0, Device: "sda1", IP: "10.0.0.1", Port: 6200, Weight: 100},
		{ID: 1, Device: "sdb1", IP: "10.0.0.1", Port: 6200, Weight: 100},
		{ID: 2, Device: "sdc1", IP: "10.0.0.2", Port: 6200, Weight: 100},
	}

	tables := make([][]uint16, 3)
	for replica := range tables {
		table := make([]uint16, 8)
		for part := range table {
			table[part] = uint16((part + replica) % len(devs))
		}
		tables[replica] = table
	}
	return &Builder{Devs: devs, Replica2Part2Dev: tables, PartShift: 29}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.ring.gz")
	require.NoError(t, testBuilder().WriteFile(path))

	r, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 3, r.ReplicaCount())
	require.Equal(t, uint64(8), r.PartitionCount())
	require.Len(t, r.Devs(), 3)

	dev, ok := r.Device(0, 0)
	require.True(t, ok)
	require.Equal(t, "sda1", dev.Device)

	dev, ok = r.Device(2, 3)
	require.True(t, ok)
	require.Equal(t, "sdc1", dev.Device)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ring.gz"))
	require.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a regular file")
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.ring.gz")
	require.NoError(t, os.WriteFile(path, []byte("not a ring"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDeviceOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.ring.gz")
	b := testBuilder()
	// Point one slot at a removed device id.
	b.Replica2Part2Dev[0][0] = 65535
	require.NoError(t, b.WriteFile(path))

	r, err := Load(path)
	require.NoError(t, err)

	_, ok := r.Device(0, 0)
	require.False(t, ok)
	_, ok = r.Device(3, 0)
	require.False(t, ok)
	_, ok = r.Device(0, 100)
	require.False(t, ok)
}

func TestLoadNilDeviceEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.ring.gz")
	b := testBuilder()
	b.Devs[1] = nil
	require.NoError(t, b.WriteFile(path))

	r, err := Load(path)
	require.NoError(t, err)

	_, ok := r.Device(1, 0)
	require.False(t, ok, "replica 1 partition 0 maps to the removed device")
}
