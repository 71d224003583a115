package recon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/swiftwatch/swiftwatch/metrics"
)

const (
	ServerTypeObject    = "object"
	ServerTypeContainer = "container"
	ServerTypeAccount   = "account"
)

type CheckerOpts struct {
	Hostname string
	Port     int

	// ServerType selects which checks run beyond the common set.  Empty
	// means common checks only.
	ServerType string

	Timeout time.Duration

	// Dimensions are attached verbatim to every emitted gauge.
	Dimensions map[string]string

	// BaseURL overrides the recon URL, used by tests.
	BaseURL string
}

// Checker polls one storage node's recon endpoint.  Individual recon types
// fail independently: a node that cannot answer its replication report still
// gets its disk usage collected.
type Checker struct {
	opts   CheckerOpts
	client *Client
	sink   metrics.Sink
	log    *slog.Logger
	now    func() time.Time
}

func NewChecker(opts CheckerOpts, sink metrics.Sink, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		opts: opts,
		client: NewClient(ClientOpts{
			Hostname: opts.Hostname,
			Port:     opts.Port,
			Timeout:  opts.Timeout,
			BaseURL:  opts.BaseURL,
		}),
		sink: sink,
		log:  log.With(slog.String("component", "recon"), slog.String("hostname", opts.Hostname)),
		now:  time.Now,
	}
}

func (c *Checker) Name() string { return "swift-recon" }

func (c *Checker) Run(ctx context.Context) error {
	if c.opts.Hostname == "" && c.opts.BaseURL == "" {
		return errors.New("missing hostname")
	}
	if c.opts.Port == 0 && c.opts.BaseURL == "" {
		return errors.New("missing port")
	}

	dims := metrics.MergeDims(c.opts.Dimensions, map[string]string{"hostname": c.opts.Hostname})

	var errs error
	run := func(reconType string, fn func(ctx context.Context, dims map[string]string) error) {
		if err := fn(ctx, dims); err != nil {
			metrics.ReconScrapeErrorsTotal.WithLabelValues(reconType).Inc()
			c.log.Error("recon scrape failed",
				slog.String("recon_type", reconType), slog.String("error", err.Error()))
			errs = multierr.Append(errs, err)
		}
	}

	run("unmounted", c.unmounted)
	run("diskusage", c.diskUsage)
	run("quarantined", c.quarantined)
	run("driveaudit", c.driveAudit)

	switch c.opts.ServerType {
	case ServerTypeObject:
		run("async", c.asyncPending)
		run("auditor/object", c.objectAuditor)
		run("updater/object", c.updater(ServerTypeObject))
		run("expirer/object", c.expirer)
		run("replication/object", c.replication(ServerTypeObject))
	case ServerTypeContainer:
		run("updater/container", c.updater(ServerTypeContainer))
		run("auditor/container", c.auditor(ServerTypeContainer))
		run("replication/container", c.replication(ServerTypeContainer))
	case ServerTypeAccount:
		run("auditor/account", c.auditor(ServerTypeAccount))
		run("replication/account", c.replication(ServerTypeAccount))
	case "":
		c.log.Warn("missing server-type, only common checks attempted")
	default:
		errs = multierr.Append(errs, fmt.Errorf("invalid server-type %q", c.opts.ServerType))
	}
	return errs
}

// unmounted reports how many drives the node considers unmounted.
func (c *Checker) unmounted(ctx context.Context, dims map[string]string) error {
	var drives []struct {
		Device  string `json:"device"`
		Mounted bool   `json:"mounted"`
	}
	if err := c.client.Scout(ctx, "unmounted", &drives); err != nil {
		return err
	}
	c.sink.Gauge("swift_recon.unmounted", float64(len(drives)), dims)
	return nil
}

// diskUsage reports capacity per device.  Swift serializes some values as
// strings and leaves them empty on unmounted drives; non-numeric values are
// skipped rather than reported as zero.
func (c *Checker) diskUsage(ctx context.Context, dims map[string]string) error {
	var disks []map[string]any
	if err := c.client.Scout(ctx, "diskusage", &disks); err != nil {
		return err
	}

	for _, disk := range disks {
		device, _ := disk["device"].(string)
		devDims := metrics.MergeDims(dims, map[string]string{"device": device})
		for _, field := range []string{"mounted", "size", "used", "avail"} {
			if v, ok := asFloat(disk[field]); ok {
				c.sink.Gauge("swift_recon.disk_usage."+field, v, devDims)
			}
		}
	}
	return nil
}

// quarantined reports quarantine counts per ring.  Nodes running with
// storage policies report objects per policy; older nodes report a single
// objects count.
func (c *Checker) quarantined(ctx context.Context, dims map[string]string) error {
	var content map[string]any
	if err := c.client.Scout(ctx, "quarantined", &content); err != nil {
		return err
	}

	emit := func(ringName string, v any) {
		if f, ok := asFloat(v); ok {
			c.sink.Gauge("swift_recon.quarantined", f,
				metrics.MergeDims(dims, map[string]string{"ring": ringName}))
		}
	}

	emit("account", content["accounts"])
	emit("container", content["containers"])

	if policies, ok := content["policies"].(map[string]any); ok {
		indexes := make([]string, 0, len(policies))
		for idx := range policies {
			indexes = append(indexes, idx)
		}
		sort.Strings(indexes)
		for _, idx := range indexes {
			entry, ok := policies[idx].(map[string]any)
			if !ok {
				continue
			}
			ringName := "object"
			if idx != "0" {
				ringName = "object-" + idx
			}
			emit(ringName, entry["objects"])
		}
		return nil
	}

	emit("object", content["objects"])
	return nil
}

func (c *Checker) driveAudit(ctx context.Context, dims map[string]string) error {
	var content map[string]any
	if err := c.client.Scout(ctx, "driveaudit", &content); err != nil {
		return err
	}
	if v, ok := asFloat(content["drive_audit_errors"]); ok {
		c.sink.Gauge("swift_recon.drive_audit_errors", v, dims)
	}
	return nil
}

func (c *Checker) asyncPending(ctx context.Context, dims map[string]string) error {
	var content map[string]any
	if err := c.client.Scout(ctx, "async", &content); err != nil {
		return err
	}
	if v, ok := asFloat(content["async_pending"]); ok {
		c.sink.Gauge("swift_recon.async_pending", v, dims)
	}
	return nil
}

// objectAuditor reports both auditor passes, the full audit and the
// zero-byte-file audit.
func (c *Checker) objectAuditor(ctx context.Context, dims map[string]string) error {
	var content map[string]any
	if err := c.client.Scout(ctx, "auditor/object", &content); err != nil {
		return err
	}

	for section, auditType := range map[string]string{
		"object_auditor_stats_ALL": "ALL",
		"object_auditor_stats_ZBF": "ZBF",
	} {
		stats, ok := content[section].(map[string]any)
		if !ok {
			continue
		}
		auditDims := metrics.MergeDims(dims, map[string]string{"audit_type": auditType})
		for _, field := range []string{"audit_time", "bytes_processed", "passes", "quarantined", "errors"} {
			if v, ok := asFloat(stats[field]); ok {
				c.sink.Gauge("swift_recon.object_auditor."+field, v, auditDims)
			}
		}
	}
	return nil
}

func (c *Checker) updater(serverType string) func(ctx context.Context, dims map[string]string) error {
	return func(ctx context.Context, dims map[string]string) error {
		var content map[string]any
		if err := c.client.Scout(ctx, "updater/"+serverType, &content); err != nil {
			return err
		}
		if v, ok := asFloat(content[serverType+"_updater_sweep"]); ok {
			c.sink.Gauge("swift_recon.updater_sweep", v,
				metrics.MergeDims(dims, map[string]string{"ring": serverType}))
		}
		return nil
	}
}

func (c *Checker) expirer(ctx context.Context, dims map[string]string) error {
	var content map[string]any
	if err := c.client.Scout(ctx, "expirer/object", &content); err != nil {
		return err
	}
	if v, ok := asFloat(content["object_expiration_pass"]); ok {
		c.sink.Gauge("swift_recon.object_expiration_pass", v, dims)
	}
	if v, ok := asFloat(content["expired_last_pass"]); ok {
		c.sink.Gauge("swift_recon.expired_last_pass", v, dims)
	}
	return nil
}

func (c *Checker) auditor(serverType string) func(ctx context.Context, dims map[string]string) error {
	return func(ctx context.Context, dims map[string]string) error {
		var content map[string]any
		if err := c.client.Scout(ctx, "auditor/"+serverType, &content); err != nil {
			return err
		}
		ringDims := metrics.MergeDims(dims, map[string]string{"ring": serverType})
		for suffix, name := range map[string]string{
			"_audits_passed":          "audits_passed",
			"_audits_failed":          "audits_failed",
			"_auditor_pass_completed": "auditor_pass_completed",
		} {
			if v, ok := asFloat(content[serverType+suffix]); ok {
				c.sink.Gauge("swift_recon."+name, v, ringDims)
			}
		}
		return nil
	}
}

// replication reports sweep duration, per-sweep stats and how long ago the
// last sweep completed.  Object servers prefix their fields with the server
// type; account and container servers do not.
func (c *Checker) replication(serverType string) func(ctx context.Context, dims map[string]string) error {
	return func(ctx context.Context, dims map[string]string) error {
		var content map[string]any
		if err := c.client.Scout(ctx, "replication/"+serverType, &content); err != nil {
			return err
		}
		ringDims := metrics.MergeDims(dims, map[string]string{"ring": serverType})

		for _, key := range []string{serverType + "_replication_time", "replication_time"} {
			if v, ok := asFloat(content[key]); ok {
				c.sink.Gauge("swift_recon.replication.duration", v, ringDims)
				break
			}
		}

		for _, key := range []string{serverType + "_replication_last", "replication_last"} {
			if v, ok := asFloat(content[key]); ok {
				lag := c.now().Sub(time.Unix(int64(v), 0)).Seconds()
				c.sink.Gauge("swift_recon.replication.lag", lag, ringDims)
				break
			}
		}

		if stats, ok := content["replication_stats"].(map[string]any); ok {
			for _, field := range []string{"attempted", "failure", "success", "remove"} {
				if v, ok := asFloat(stats[field]); ok {
					c.sink.Gauge("swift_recon.replication."+field, v, ringDims)
				}
			}
		}
		return nil
	}
}

// asFloat coerces the loosely typed values recon reports: numbers, booleans
// and numeric strings count, everything else is skipped.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
