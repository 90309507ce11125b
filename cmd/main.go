// Package main is the entry point of the ISO-TP to HTTP UDS gateway. It parses the command line (parseArgs),
// loads configuration (LoadConfig: defaults, YAML, env, flags), builds the controller client (adapters.ControllerHTTP),
// the ISO-TP socket opener and the orchestrator, discovers instances once and runs one relay worker per instance.
// When a status address is configured an echo server exposes the worker registry. SIGINT/SIGTERM cancels all
// workers and shuts the status server down with a 5s timeout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"isotpgateway/adapters"
	"isotpgateway/domain"
	"isotpgateway/handlers"
	"isotpgateway/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without os.Exit. Returns the process exit code: 0 on clean shutdown, help or version;
// 1 on configuration, discovery or status server setup failure; 2 on a usage error.
func run(args []string, stdout, stderr io.Writer) int {
	cli, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		printUsage(stderr)
		return 2
	}
	if cli.Help {
		printUsage(stdout)
		return 0
	}
	if cli.Version {
		fmt.Fprintln(stdout, version)
		return 0
	}

	baseLogger := log.NewLogfmtLogger(log.NewSyncWriter(stderr))
	baseLogger = log.WithPrefix(baseLogger, "ts", log.DefaultTimestampUTC)
	baseLogger = log.WithPrefix(baseLogger, "caller", log.DefaultCaller)

	cfg, err := LoadConfig(cli)
	if err != nil {
		level.Error(baseLogger).Log("msg", "Failed to load configuration", "err", err)
		return 1
	}
	logger := level.NewFilter(baseLogger, levelOption(cfg.LogLevel))
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"controller_url", cfg.ControllerURL,
		"txid", domain.FormatAddress(cfg.TxID),
		"interface", cfg.Interface,
		"relay_error_policy", cfg.ErrorPolicy,
		"restart_enabled", cfg.RestartOnFailure,
		"status_addr", cfg.StatusAddr,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var orchestrator *service.Orchestrator
	{
		controller := adapters.ControllerHTTP(cfg.ControllerURL, &http.Client{}, cfg.HTTPTimeout)
		clock := service.NewTimeProvider(func() time.Time { return time.Now().UTC() })
		orchestrator = service.NewOrchestrator(service.OrchestratorConfig{
			Interface:            cfg.Interface,
			TxID:                 cfg.TxID,
			FlowControl:          cfg.FlowControl,
			FlowControlOverrides: cfg.FlowControlOverrides,
			ReceiveTimeout:       cfg.ReceiveTimeout,
			IdleBackoff:          cfg.IdleBackoff,
			RebindBackoff:        cfg.RebindBackoff,
			ErrorPolicy:          cfg.ErrorPolicy,
			RestartOnFailure:     cfg.RestartOnFailure,
			RestartDelay:         cfg.RestartDelay,
			KeepRunning:          cfg.StatusAddr != "",
		}, controller, adapters.ISOTPSocketOpener(), clock, logger)
	}

	instances, err := orchestrator.Discover(ctx)
	if err != nil {
		level.Error(logger).Log("msg", "Failed to discover instances", "err", err)
		return 1
	}
	level.Info(logger).Log("msg", "Instances discovered", "workers", len(instances))

	var e *echo.Echo
	if cfg.StatusAddr != "" {
		e, err = newStatusServer(orchestrator, logger)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to create status server", "err", err)
			return 1
		}
		go func() {
			level.Info(logger).Log("msg", "Starting status server", "addr", cfg.StatusAddr)
			if err := e.Start(cfg.StatusAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				level.Error(logger).Log("msg", "Status server error", "err", err)
			}
		}()
	}

	if err := orchestrator.Run(ctx); err != nil {
		level.Error(logger).Log("msg", "Orchestrator error", "err", err)
	}
	level.Info(logger).Log("msg", "Workers stopped")

	if e != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			level.Error(logger).Log("msg", "Error during status server shutdown", "err", err)
		}
	}

	level.Info(logger).Log("msg", "Gateway stopped")
	return 0
}

// newStatusServer builds the echo server of the worker status API with request validation and error mapping.
func newStatusServer(orchestrator *service.Orchestrator, logger log.Logger) (*echo.Echo, error) {
	validator, err := handlers.NewRequestValidator()
	if err != nil {
		return nil, err
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(validator)
	service.RegisterErrorHandler(e, logger)
	handlers.RegisterHandlers(e, handlers.NewStatusServer(orchestrator, logger))
	return e, nil
}

// levelOption maps a validated log_level to the go-kit level filter.
func levelOption(name string) level.Option {
	switch name {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
