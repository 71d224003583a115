package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Namespace = "swiftwatch"

	ChecksRunTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "agent",
		Name:      "checks_run_total",
		Help:      "Counter of check executions",
	}, []string{"check"})

	CheckErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "agent",
		Name:      "check_errors_total",
		Help:      "Counter of check executions that returned an error",
	}, []string{"check"})

	ReconScrapeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "recon",
		Name:      "scrape_errors_total",
		Help:      "Counter of failed recon endpoint scrapes",
	}, []string{"recon_type"})

	SamplesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "sink",
		Name:      "samples_sent_total",
		Help:      "Counter of samples forwarded to remote write endpoints",
	}, []string{"endpoint"})

	RemoteWriteErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "sink",
		Name:      "remote_write_errors_total",
		Help:      "Counter of failed remote write requests",
	}, []string{"endpoint"})
)
