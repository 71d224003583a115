package handoffs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/swiftwatch/swiftwatch/metrics"
	"github.com/swiftwatch/swiftwatch/ring"
)

const (
	GranularityServer = "server"
	GranularityDevice = "device"

	metricPrimary  = "swift_handoffs.primary"
	metricHandoffs = "swift_handoffs.handoffs"
)

type CheckerOpts struct {
	// DeviceRoot is the directory holding one subdirectory per storage
	// device, /srv/node on a standard install.
	DeviceRoot string

	// RingPath points at the ring to reconcile against.
	RingPath string

	// Granularity selects server-wide totals or a per-device breakdown.
	Granularity string

	// Dimensions are attached verbatim to every emitted gauge.
	Dimensions map[string]string

	// ScanConcurrency bounds the number of devices scanned in parallel.
	// Zero means one goroutine per device.
	ScanConcurrency int
}

// Checker reconciles one ring against the local disks.
type Checker struct {
	opts CheckerOpts
	sink metrics.Sink
	log  *slog.Logger
}

func NewChecker(opts CheckerOpts, sink metrics.Sink, log *slog.Logger) *Checker {
	if opts.DeviceRoot == "" {
		opts.DeviceRoot = "/srv/node"
	}
	if opts.RingPath == "" {
		opts.RingPath = "/etc/swift/object.ring.gz"
	}
	if opts.Granularity == "" {
		opts.Granularity = GranularityServer
	}
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		opts: opts,
		sink: sink,
		log:  log.With(slog.String("component", "handoffs"), slog.String("ring", opts.RingPath)),
	}
}

func (c *Checker) Name() string { return "swift-handoffs" }

// Validate reports configuration errors.  It is called by Run before any
// scanning so a misconfigured check emits nothing.
func (c *Checker) Validate() error {
	fi, err := os.Stat(c.opts.DeviceRoot)
	if err != nil {
		return fmt.Errorf("devices: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("devices %s: not a directory", c.opts.DeviceRoot)
	}

	switch c.opts.Granularity {
	case GranularityServer, GranularityDevice:
	default:
		return fmt.Errorf("granularity must be %q or %q, got %q",
			GranularityServer, GranularityDevice, c.opts.Granularity)
	}
	return nil
}

// Run performs one full reconciliation: load the ring, invert it into the
// primary index, scan every device directory and classify what was found.
// Either the whole pass succeeds and its gauges are emitted, or it aborts
// with an error and emits nothing.
func (c *Checker) Run(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	r, err := ring.Load(c.opts.RingPath)
	if err != nil {
		return err
	}
	ringName, dataDir := ring.NameAndDataDir(c.opts.RingPath)

	idx := BuildPrimaryIndex(r)

	devices, err := ListDevices(c.opts.DeviceRoot)
	if err != nil {
		return err
	}

	// Device scans are independent of each other; the totals are only
	// assembled once every scan has finished.
	results := make([]Classification, len(devices))
	g, _ := errgroup.WithContext(ctx)
	if c.opts.ScanConcurrency > 0 {
		g.SetLimit(c.opts.ScanConcurrency)
	}
	for i, device := range devices {
		i, device := i, device
		g.Go(func() error {
			parts, err := ScanPartitions(c.opts.DeviceRoot, device, dataDir)
			if err != nil {
				return err
			}
			results[i] = Classify(idx, device, parts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.report(ringName, devices, results)
	return nil
}

func (c *Checker) report(ringName string, devices []string, results []Classification) {
	dims := metrics.MergeDims(c.opts.Dimensions, map[string]string{"ring": ringName})

	if c.opts.Granularity == GranularityServer {
		var primary, handoffs int
		for _, r := range results {
			primary += r.Primary
			handoffs += len(r.Handoffs)
		}
		c.sink.Gauge(metricPrimary, float64(primary), dims)
		c.sink.Gauge(metricHandoffs, float64(handoffs), dims)

		if handoffs > 0 {
			c.log.Info("handoff partitions found",
				slog.Int("handoffs", handoffs), slog.Int("primary", primary))
		}
		return
	}

	// Device granularity reports every observed device directory, including
	// ones holding no partitions at all.
	for i, device := range devices {
		devDims := metrics.MergeDims(dims, map[string]string{"device": device})
		c.sink.Gauge(metricPrimary, float64(results[i].Primary), devDims)
		c.sink.Gauge(metricHandoffs, float64(len(results[i].Handoffs)), devDims)
	}
}
