package metrics

import (
	"context"
	"log/slog"
)

// Sink receives dimensioned gauge values produced by checks.  Implementations
// must be safe for concurrent use; checks within one agent share a sink.
type Sink interface {
	Gauge(name string, value float64, dims map[string]string)
}

// Flusher is implemented by sinks that batch samples between check rounds.
type Flusher interface {
	Flush(ctx context.Context) error
}

// MergeDims copies base and overlays extra on top of it.  The inputs are
// never mutated.
func MergeDims(base map[string]string, extra ...map[string]string) map[string]string {
	out := make(map[string]string, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, m := range extra {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// DebugSink logs samples instead of forwarding them.  Used when no remote
// write endpoints are configured.
type DebugSink struct {
	Log *slog.Logger
}

func (s *DebugSink) Gauge(name string, value float64, dims map[string]string) {
	attrs := make([]any, 0, len(dims)*2+2)
	attrs = append(attrs, slog.Float64("value", value))
	for k, v := range dims {
		attrs = append(attrs, slog.String(k, v))
	}
	s.Log.Debug(name, attrs...)
}
