package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v2"

	"github.com/swiftwatch/swiftwatch/collector"
	"github.com/swiftwatch/swiftwatch/handoffs"
	"github.com/swiftwatch/swiftwatch/metrics"
	swhttp "github.com/swiftwatch/swiftwatch/pkg/http"
	"github.com/swiftwatch/swiftwatch/pkg/logger"
	"github.com/swiftwatch/swiftwatch/pkg/service"
	"github.com/swiftwatch/swiftwatch/pkg/version"
	"github.com/swiftwatch/swiftwatch/recon"
)

func main() {
	app := &cli.App{
		Name:  "swiftwatch",
		Usage: "swift cluster placement and recon monitoring agent",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Config file path"},
			&cli.StringFlag{Name: "devices", Usage: "Device mount root override for the default handoffs check"},
			&cli.StringFlag{Name: "ring", Usage: "Ring path override for the default handoffs check"},
			&cli.StringFlag{Name: "granularity", Usage: "Granularity override: server or device"},
		},

		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Generate a config file",
				Action: func(c *cli.Context) error {
					buf := bytes.Buffer{}
					enc := toml.NewEncoder(&buf)
					enc.SetIndentTables(true)
					if err := enc.Encode(DefaultConfig); err != nil {
						return err
					}

					fmt.Println(buf.String())
					return nil
				},
			},
		},

		Action: func(ctx *cli.Context) error {
			return realMain(ctx)
		},

		Version: version.String(),
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func realMain(ctx *cli.Context) error {
	log := logger.New()
	slog.SetDefault(log)
	log.Info("swiftwatch starting", slog.String("version", version.String()))

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var sink metrics.Sink
	if len(cfg.Endpoints) > 0 {
		sink = metrics.NewRemoteWriteSink(metrics.RemoteWriteOpts{
			Endpoints: cfg.Endpoints,
			Timeout:   time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		})
	} else {
		log.Warn("no remote write endpoints configured, gauges will be logged at debug level")
		sink = &metrics.DebugSink{Log: log}
	}

	opts := &collector.ServiceOpts{
		Interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		Sink:     sink,
		Log:      log,
	}
	for _, h := range cfg.Handoffs {
		opts.Handoffs = append(opts.Handoffs, handoffs.CheckerOpts{
			DeviceRoot:      h.Devices,
			RingPath:        h.Ring,
			Granularity:     h.Granularity,
			Dimensions:      cfg.AddDimensions,
			ScanConcurrency: h.ScanConcurrency,
		})
	}
	for _, r := range cfg.Recon {
		opts.Recon = append(opts.Recon, recon.CheckerOpts{
			Hostname:   r.Hostname,
			Port:       r.Port,
			ServerType: r.ServerType,
			Timeout:    time.Duration(r.TimeoutSeconds) * time.Second,
			Dimensions: cfg.AddDimensions,
		})
	}

	components := []service.Component{
		swhttp.NewServer(swhttp.ServerOpts{ListenAddr: cfg.ListenAddr, Log: log}),
		collector.NewService(opts),
	}

	svcCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, c := range components {
		if err := c.Open(svcCtx); err != nil {
			return err
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")

	for i := len(components) - 1; i >= 0; i-- {
		if err := components[i].Close(); err != nil {
			log.Error("close failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func loadConfig(ctx *cli.Context) (Config, error) {
	cfg := DefaultConfig

	if configFile := ctx.String("config"); configFile != "" {
		configBytes, err := os.ReadFile(configFile)
		if err != nil {
			return cfg, err
		}

		var fileConfig Config
		if err := toml.Unmarshal(configBytes, &fileConfig); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return cfg, fmt.Errorf("parse %s at row %d column %d: %w", configFile, row, col, err)
			}
			return cfg, err
		}
		cfg = fileConfig
	}

	// Flag overrides apply to the first handoffs check, matching the common
	// single-ring deployment.
	if len(cfg.Handoffs) > 0 {
		h := cfg.Handoffs[0]
		if v := ctx.String("devices"); v != "" {
			h.Devices = v
		}
		if v := ctx.String("ring"); v != "" {
			h.Ring = v
		}
		if v := ctx.String("granularity"); v != "" {
			h.Granularity = v
		}
	}
	return cfg, nil
}
