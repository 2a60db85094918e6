package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/n8nhub/n8nhub/pkg/cmd"
	"github.com/n8nhub/n8nhub/pkg/hub"
	"github.com/n8nhub/n8nhub/pkg/log"
)

const defaultStoreURL = "file://./data"

func main() {
	root := &cli.Command{
		Name:                  "n8nhub",
		Usage:                 "Aggregate, search, and activate workflows across n8n instances",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store-url",
				Aliases: []string{"s"},
				Usage:   "Store URL (file path, redis:// URL, or postgres:// URL)",
				Value:   defaultStoreURL,
				Sources: cli.EnvVars("N8NHUB_STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.IntFlag{
				Name:    "probe-retries",
				Usage:   "Attempts per instance status probe before reporting it down",
				Value:   1,
				Sources: cli.EnvVars("N8NHUB_PROBE_RETRIES"),
			},
		},
		Commands: []*cli.Command{
			NewInstanceCommand(),
			NewRefreshCommand(),
			NewSearchCommand(),
			NewToggleCommand(),
			NewStatusCommand(),
			NewServeCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newHub builds the hub and its store from the global flags. The returned
// closer releases the store.
func newHub(ctx context.Context, command *cli.Command) (*hub.Hub, func(), error) {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("n8nhub")

	s, err := cmd.NewStore(ctx, logger, command.String("store-url"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	closer := func() {
		if err := s.Close(context.Background()); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}

	options := hub.Options{
		ProbeAttempts: command.Int("probe-retries"),
	}

	return hub.New(s, logger, options), closer, nil
}
