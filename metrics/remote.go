package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/easyproto"
	"github.com/golang/snappy"
	"golang.org/x/sync/errgroup"
)

var marshalerPool = &easyproto.MarshalerPool{}

type sample struct {
	name      string
	value     float64
	timestamp int64
	dims      map[string]string
}

// RemoteWriteSink batches gauges between check runs and forwards them to one
// or more prometheus remote write endpoints on Flush.
type RemoteWriteSink struct {
	endpoints  []string
	httpClient *http.Client

	mu      sync.Mutex
	pending []sample
}

type RemoteWriteOpts struct {
	Endpoints []string
	Timeout   time.Duration
}

func NewRemoteWriteSink(opts RemoteWriteOpts) *RemoteWriteSink {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 10
	t.ResponseHeaderTimeout = timeout
	t.IdleConnTimeout = time.Minute

	return &RemoteWriteSink{
		endpoints: opts.Endpoints,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: t,
		},
	}
}

func (s *RemoteWriteSink) Gauge(name string, value float64, dims map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, sample{
		name:      name,
		value:     value,
		timestamp: time.Now().UnixMilli(),
		dims:      MergeDims(dims),
	})
}

// Flush sends everything gauged since the last flush.  All endpoints receive
// the same batch; a failed endpoint does not block the others.
func (s *RemoteWriteSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 || len(s.endpoints) == 0 {
		return nil
	}

	encoded := snappy.Encode(nil, marshalWriteRequest(batch))

	g, gCtx := errgroup.WithContext(ctx)
	for _, endpoint := range s.endpoints {
		endpoint := endpoint
		g.Go(func() error {
			if err := s.post(gCtx, endpoint, encoded); err != nil {
				RemoteWriteErrorsTotal.WithLabelValues(endpoint).Inc()
				return fmt.Errorf("remote write to %s: %w", endpoint, err)
			}
			SamplesSentTotal.WithLabelValues(endpoint).Add(float64(len(batch)))
			return nil
		})
	}
	return g.Wait()
}

func (s *RemoteWriteSink) CloseIdleConnections() {
	s.httpClient.CloseIdleConnections()
}

func (s *RemoteWriteSink) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "snappy")
	req.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	req.Header.Set("User-Agent", "swiftwatch")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("write failed: %s: %s", resp.Status, string(msg))
	}
	return nil
}

// marshalWriteRequest encodes samples as a prometheus remote write request:
// repeated TimeSeries(1) of repeated Label(1){name(1), value(2)} and
// repeated Sample(2){value(1), timestamp(2)}.  Receivers require labels
// sorted by name; __name__ sorts first on its own.
func marshalWriteRequest(batch []sample) []byte {
	m := marshalerPool.Get()
	defer marshalerPool.Put(m)

	mm := m.MessageMarshaler()
	for _, sm := range batch {
		ts := mm.AppendMessage(1)

		name := ts.AppendMessage(1)
		name.AppendString(1, "__name__")
		name.AppendString(2, normalizeName(sm.name))

		for _, k := range sortedKeys(sm.dims) {
			l := ts.AppendMessage(1)
			l.AppendString(1, normalizeName(k))
			l.AppendString(2, sm.dims[k])
		}

		sp := ts.AppendMessage(2)
		sp.AppendDouble(1, sm.value)
		sp.AppendInt64(2, sm.timestamp)
	}
	return m.Marshal(nil)
}

// normalizeName maps dotted gauge names like swift_handoffs.primary onto the
// prometheus label charset.
func normalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		default:
			return '_'
		}
	}, name)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
