package main

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigRoundTrip(t *testing.T) {
	encoded, err := toml.Marshal(DefaultConfig)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, toml.Unmarshal(encoded, &decoded))
	require.Equal(t, DefaultConfig.ListenAddr, decoded.ListenAddr)
	require.Equal(t, DefaultConfig.IntervalSeconds, decoded.IntervalSeconds)
	require.Len(t, decoded.Handoffs, 1)
	require.Equal(t, "/srv/node", decoded.Handoffs[0].Devices)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.IntervalSeconds = 0 },
			wantErr: "interval-seconds",
		},
		{
			name:    "no checks",
			mutate:  func(c *Config) { c.Handoffs = nil },
			wantErr: "no checks",
		},
		{
			name: "missing ring",
			mutate: func(c *Config) {
				c.Handoffs = []*HandoffsCheck{{Devices: "/srv/node"}}
			},
			wantErr: "ring is required",
		},
		{
			name: "bad granularity",
			mutate: func(c *Config) {
				c.Handoffs = []*HandoffsCheck{{Ring: "/etc/swift/object.ring.gz", Granularity: "drive"}}
			},
			wantErr: "granularity",
		},
		{
			name: "recon missing hostname",
			mutate: func(c *Config) {
				c.Recon = []*ReconCheck{{Port: 6200}}
			},
			wantErr: "hostname is required",
		},
		{
			name: "recon missing port",
			mutate: func(c *Config) {
				c.Recon = []*ReconCheck{{Hostname: "node1"}}
			},
			wantErr: "port is required",
		},
		{
			name: "recon bad server type",
			mutate: func(c *Config) {
				c.Recon = []*ReconCheck{{Hostname: "node1", Port: 6200, ServerType: "proxy"}}
			},
			wantErr: "server-type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				IntervalSeconds: 60,
				Handoffs: []*HandoffsCheck{
					{Devices: "/srv/node", Ring: "/etc/swift/object.ring.gz", Granularity: "server"},
				},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := Config{
		IntervalSeconds: 60,
		Handoffs:        []*HandoffsCheck{{Ring: "/etc/swift/container.ring.gz"}},
	}
	require.NoError(t, cfg.Validate())
	require.Equal(t, "/srv/node", cfg.Handoffs[0].Devices)
	require.Equal(t, "server", cfg.Handoffs[0].Granularity)
}
