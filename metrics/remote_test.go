package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/VictoriaMetrics/easyproto"
	"github.com/golang/snappy"
	"github.com/stretchr/testify/require"
)

type decodedSeries struct {
	labels map[string]string
	value  float64
}

func decodeWriteRequest(t *testing.T, body []byte) []decodedSeries {
	t.Helper()

	var series []decodedSeries
	var fc easyproto.FieldContext
	var err error
	for len(body) > 0 {
		body, err = fc.NextField(body)
		require.NoError(t, err)
		require.Equal(t, uint32(1), fc.FieldNum)

		tsData, ok := fc.MessageData()
		require.True(t, ok)
		series = append(series, decodeTimeSeries(t, tsData))
	}
	return series
}

func decodeTimeSeries(t *testing.T, src []byte) decodedSeries {
	t.Helper()

	ds := decodedSeries{labels: map[string]string{}}
	var fc easyproto.FieldContext
	var err error
	for len(src) > 0 {
		src, err = fc.NextField(src)
		require.NoError(t, err)
		data, ok := fc.MessageData()
		require.True(t, ok)

		switch fc.FieldNum {
		case 1:
			var name, value string
			var lf easyproto.FieldContext
			for len(data) > 0 {
				data, err = lf.NextField(data)
				require.NoError(t, err)
				s, ok := lf.String()
				require.True(t, ok)
				if lf.FieldNum == 1 {
					name = s
				} else {
					value = s
				}
			}
			ds.labels[name] = value
		case 2:
			var sf easyproto.FieldContext
			for len(data) > 0 {
				data, err = sf.NextField(data)
				require.NoError(t, err)
				if sf.FieldNum == 1 {
					v, ok := sf.Double()
					require.True(t, ok)
					ds.value = v
				}
			}
		}
	}
	return ds
}

func TestRemoteWriteSink_Flush(t *testing.T) {
	var received []decodedSeries
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "snappy", r.Header.Get("Content-Encoding"))
		require.Equal(t, "application/x-protobuf", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		raw, err := snappy.Decode(nil, body)
		require.NoError(t, err)
		received = decodeWriteRequest(t, raw)
	}))
	defer srv.Close()

	sink := NewRemoteWriteSink(RemoteWriteOpts{Endpoints: []string{srv.URL}})
	sink.Gauge("swift_handoffs.primary", 5, map[string]string{"ring": "object"})
	sink.Gauge("swift_handoffs.handoffs", 1, map[string]string{"ring": "object", "device": "sda1"})

	require.NoError(t, sink.Flush(context.Background()))
	require.Len(t, received, 2)

	require.Equal(t, "swift_handoffs_primary", received[0].labels["__name__"])
	require.Equal(t, "object", received[0].labels["ring"])
	require.Equal(t, 5.0, received[0].value)

	require.Equal(t, "swift_handoffs_handoffs", received[1].labels["__name__"])
	require.Equal(t, "sda1", received[1].labels["device"])
	require.Equal(t, 1.0, received[1].value)

	// A second flush with nothing pending sends nothing.
	received = nil
	require.NoError(t, sink.Flush(context.Background()))
	require.Nil(t, received)
}

func TestRemoteWriteSink_FlushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no thanks", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewRemoteWriteSink(RemoteWriteOpts{Endpoints: []string{srv.URL}})
	sink.Gauge("swift_recon.unmounted", 2, nil)
	require.Error(t, sink.Flush(context.Background()))
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "swift_handoffs_primary", normalizeName("swift_handoffs.primary"))
	require.Equal(t, "disk_usage_avail", normalizeName("disk-usage.avail"))
}
