package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/n8nhub/n8nhub/pkg/log"
	"github.com/n8nhub/n8nhub/pkg/status"
	"github.com/n8nhub/n8nhub/pkg/tracer"
)

const defaultPort = 9080

// NewServeCommand runs the REST API with background status refresh.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the n8nhub API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.DurationFlag{
				Name:    "status-interval",
				Usage:   "Interval between background reachability probes",
				Value:   status.DefaultRefreshInterval,
				Sources: cli.EnvVars("N8NHUB_STATUS_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "service-id",
				Aliases: []string{"id"},
				Usage:   "Custom service ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("N8NHUB_SERVICE_ID"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			serviceID := command.String("service-id")
			if serviceID == "" {
				serviceID = fmt.Sprintf("hub-%s", uuid.New().String()[:8])
			}

			h, closer, err := newHub(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			logger := log.WithModule("serve").With("service_id", serviceID)

			tracerProvider, err := tracer.InitTracer(ctx, "n8nhub")
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}
			defer func() {
				if err := tracerProvider.Shutdown(context.Background()); err != nil {
					logger.Error("Failed to shutdown tracer provider", "error", err)
				}
			}()

			stopRefresh, err := h.StartAutoRefresh(command.Duration("status-interval"))
			if err != nil {
				return fmt.Errorf("failed to start status auto-refresh: %w", err)
			}
			defer stopRefresh()

			api := NewAPI(logger, h)
			app := api.App()

			errCh := make(chan error, 1)

			go func() {
				errCh <- app.Listen(":" + fmt.Sprint(command.Int("port")))
			}()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

			logger.Info("n8nhub API listening", "port", command.Int("port"))

			select {
			case err := <-errCh:
				return err
			case sig := <-signals:
				logger.Info("Received signal, shutting down", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := app.ShutdownWithContext(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}

				return nil
			}
		},
	}
}
