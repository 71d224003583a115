package metrics

import "sync"

// GaugeCall records a single Gauge invocation.
type GaugeCall struct {
	Name  string
	Value float64
	Dims  map[string]string
}

// FakeSink records gauge calls for tests.
type FakeSink struct {
	mu    sync.Mutex
	calls []GaugeCall
}

func (s *FakeSink) Gauge(name string, value float64, dims map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, GaugeCall{Name: name, Value: value, Dims: MergeDims(dims)})
}

func (s *FakeSink) Calls() []GaugeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]GaugeCall(nil), s.calls...)
}

// Values returns the recorded values for a metric name, in emission order.
func (s *FakeSink) Values(name string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var vals []float64
	for _, c := range s.calls {
		if c.Name == name {
			vals = append(vals, c.Value)
		}
	}
	return vals
}

func (s *FakeSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
