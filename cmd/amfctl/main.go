// amfctl drives a game account over the AMF remoting endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/amfctl/internal/client"
	"github.com/danmuck/amfctl/internal/config"
	"github.com/danmuck/amfctl/internal/game"
	"github.com/danmuck/amfctl/internal/logging"
	"github.com/danmuck/amfctl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// Version is set by ldflags.
var Version = "snapshot"

var (
	longctx  context.Context
	shutdown context.CancelFunc
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "amfctl",
		Usage:   "drive a game account over AMF remoting",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "account name, looked up as NAME.toml in the working directory"},
			&cli.PathFlag{Name: "config", Aliases: []string{"c"}, Usage: "account file path"},
			&cli.UintFlag{Name: "repeat", Value: 1, Usage: "times to repeat (only some commands)"},
			&cli.DurationFlag{Name: "timeout", Usage: "abort the whole run after this long (0 disables)"},
			&cli.StringFlag{Name: "log-level", Usage: "trace|debug|info|warn|error|off"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve prometheus metrics on this address"},
			&cli.PathFlag{Name: "registry", Usage: "game data JSON for lookups"},
		},
		Before: setup,
		After: func(*cli.Context) error {
			if shutdown != nil {
				shutdown()
			}
			return nil
		},
		Commands: []*cli.Command{
			qualityUpCmd,
			skillUpCmd,
			openCmd,
			challengeCmd,
			dutyCmd,
			fubenCmd,
			inspectCmd,
			lookupCmd,
			initCmd,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "amfctl: %v\n", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	logging.ConfigureRuntime()
	if raw := c.String("log-level"); raw != "" && !logging.SetLevel(raw) {
		return fmt.Errorf("unknown log level %q", raw)
	}

	base, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if d := c.Duration("timeout"); d > 0 {
		ctx, cancel := context.WithTimeout(base, d)
		longctx, shutdown = ctx, func() { cancel(); stop() }
	} else {
		longctx, shutdown = base, stop
	}

	if addr := c.String("metrics-addr"); addr != "" {
		serveMetrics(addr)
	}

	if path := c.Path("registry"); path != "" {
		reg, err := game.LoadRegistryFile(path)
		if err != nil {
			return err
		}
		if err := game.InstallRegistry(reg); err != nil {
			return err
		}
	}
	return nil
}

func serveMetrics(addr string) {
	observability.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger := logging.Component("metrics")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()
	go func() {
		<-longctx.Done()
		_ = srv.Close()
	}()
	logger.Info().Str("addr", addr).Msg("serving metrics")
}

func newClient(c *cli.Context) (*client.Client, error) {
	path, err := config.ResolveAccountPath(c.String("user"), c.Path("config"))
	if err != nil {
		return nil, err
	}
	acct, err := config.LoadAccount(path)
	if err != nil {
		return nil, err
	}
	return client.New(acct)
}

func runContext() context.Context {
	if longctx == nil {
		return context.Background()
	}
	return longctx
}
