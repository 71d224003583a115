package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swiftwatch/swiftwatch/handoffs"
	"github.com/swiftwatch/swiftwatch/metrics"
	"github.com/swiftwatch/swiftwatch/ring"
)

func writeObjectRing(t *testing.T) string {
	t.Helper()
	b := &ring.Builder{
		Devs: []*ring.Device{
			{ID: 0, Device: "sda1", Weight: 100},
		},
		Replica2Part2Dev: [][]uint16{{0, 0, 0, 0}},
		PartShift:        30,
	}
	path := filepath.Join(t.TempDir(), "object.ring.gz")
	require.NoError(t, b.WriteFile(path))
	return path
}

func TestServiceRunRound(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "sda1", "objects")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dataDir, "2"), 0o755))

	sink := &metrics.FakeSink{}
	svc := NewService(&ServiceOpts{
		Interval: time.Minute,
		Handoffs: []handoffs.CheckerOpts{{
			DeviceRoot: root,
			RingPath:   writeObjectRing(t),
		}},
		Sink: sink,
	})

	svc.runRound(context.Background())

	require.Equal(t, []float64{1}, sink.Values("swift_handoffs.primary"))
	require.Equal(t, []float64{0}, sink.Values("swift_handoffs.handoffs"))
}

func TestServiceOpenClose(t *testing.T) {
	sink := &metrics.FakeSink{}
	svc := NewService(&ServiceOpts{
		Interval: time.Hour,
		Sink:     sink,
	})

	require.NoError(t, svc.Open(context.Background()))
	require.NoError(t, svc.Close())
}
