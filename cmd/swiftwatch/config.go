package main

import (
	"fmt"

	"github.com/swiftwatch/swiftwatch/handoffs"
	"github.com/swiftwatch/swiftwatch/recon"
)

var DefaultConfig = Config{
	ListenAddr:          ":9852",
	IntervalSeconds:     60,
	WriteTimeoutSeconds: 30,
	AddDimensions:       map[string]string{},
	Handoffs: []*HandoffsCheck{
		{
			Devices:     "/srv/node",
			Ring:        "/etc/swift/object.ring.gz",
			Granularity: handoffs.GranularityServer,
		},
	},
	Recon: []*ReconCheck{},
}

type Config struct {
	ListenAddr          string            `toml:"listen-addr" comment:"Address to serve /metrics and /healthz on."`
	IntervalSeconds     int               `toml:"interval-seconds" comment:"Seconds between check rounds."`
	Endpoints           []string          `toml:"endpoints" comment:"Prometheus remote write endpoints to forward gauges to.  Empty logs gauges at debug level instead."`
	WriteTimeoutSeconds int               `toml:"write-timeout-seconds" comment:"Timeout for remote write requests."`
	AddDimensions       map[string]string `toml:"add-dimensions" comment:"Key/value pairs attached to every emitted gauge."`

	Handoffs []*HandoffsCheck `toml:"handoffs" comment:"Placement reconciliation checks, one per ring."`
	Recon    []*ReconCheck    `toml:"recon" comment:"Recon endpoint checks, one per storage server."`
}

type HandoffsCheck struct {
	Devices         string `toml:"devices" comment:"Device mount root, one subdirectory per storage device."`
	Ring            string `toml:"ring" comment:"Path to the ring file to reconcile against."`
	Granularity     string `toml:"granularity" comment:"Aggregation level: server or device."`
	ScanConcurrency int    `toml:"scan-concurrency" comment:"Max devices scanned in parallel.  0 scans all devices at once."`
}

type ReconCheck struct {
	Hostname       string `toml:"hostname" comment:"Storage server to poll."`
	Port           int    `toml:"port" comment:"Recon port, usually the server's own port."`
	ServerType     string `toml:"server-type" comment:"object, container or account.  Empty runs only the common checks."`
	TimeoutSeconds int    `toml:"timeout-seconds" comment:"Per-request timeout.  0 uses the 5s default."`
}

func (c *Config) Validate() error {
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval-seconds must be positive, got %d", c.IntervalSeconds)
	}
	if len(c.Handoffs) == 0 && len(c.Recon) == 0 {
		return fmt.Errorf("no checks configured")
	}

	for i, h := range c.Handoffs {
		if h.Devices == "" {
			h.Devices = "/srv/node"
		}
		if h.Ring == "" {
			return fmt.Errorf("handoffs[%d]: ring is required", i)
		}
		if h.Granularity == "" {
			h.Granularity = handoffs.GranularityServer
		}
		switch h.Granularity {
		case handoffs.GranularityServer, handoffs.GranularityDevice:
		default:
			return fmt.Errorf("handoffs[%d]: granularity must be %q or %q, got %q",
				i, handoffs.GranularityServer, handoffs.GranularityDevice, h.Granularity)
		}
	}

	for i, r := range c.Recon {
		if r.Hostname == "" {
			return fmt.Errorf("recon[%d]: hostname is required", i)
		}
		if r.Port == 0 {
			return fmt.Errorf("recon[%d]: port is required", i)
		}
		switch r.ServerType {
		case "", recon.ServerTypeObject, recon.ServerTypeContainer, recon.ServerTypeAccount:
		default:
			return fmt.Errorf("recon[%d]: invalid server-type %q", i, r.ServerType)
		}
	}
	return nil
}
