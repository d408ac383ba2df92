package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowpad/flowpad/pkg/autosave"
	"github.com/flowpad/flowpad/pkg/cmd"
	"github.com/flowpad/flowpad/pkg/history"
	"github.com/flowpad/flowpad/pkg/log"
	"github.com/flowpad/flowpad/pkg/registry"
	"github.com/flowpad/flowpad/pkg/workflow"
)

const defaultPort = 9090

func main() {
	root := &cli.Command{
		Name:                  "flowpad-api",
		Usage:                 "Serve the flowpad workflow editor API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Storage backend URL (postgres://, redis://) or a directory for file storage",
				Value:   "./data/workflows",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "autosave-dir",
				Usage:   "Directory the autosave mirror writes export documents to",
				Value:   "./data/autosave",
				Sources: cli.EnvVars("AUTOSAVE_DIR"),
			},
			&cli.StringFlag{
				Name:    "autosave-interval",
				Usage:   "Autosave flush schedule in cron syntax",
				Value:   autosave.DefaultSchedule,
				Sources: cli.EnvVars("AUTOSAVE_INTERVAL"),
			},
			&cli.DurationFlag{
				Name:    "execution-delay",
				Usage:   "Pacing delay between node executions",
				Value:   workflow.DefaultPacingDelay,
				Sources: cli.EnvVars("EXECUTION_DELAY"),
			},
			&cli.IntFlag{
				Name:    "log-cap",
				Usage:   "Maximum entries kept in one execution log",
				Value:   workflow.DefaultLogCapacity,
				Sources: cli.EnvVars("EXECUTION_LOG_CAPACITY"),
			},
			&cli.IntFlag{
				Name:    "history-depth",
				Usage:   "Undo snapshots kept per workflow",
				Value:   history.DefaultDepth,
				Sources: cli.EnvVars("HISTORY_DEPTH"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Flowpad API")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to initialize persistence: %w", err)
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return fmt.Errorf("failed to initialize event bus: %w", err)
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			saver := autosave.NewSaver(
				logger,
				persistence,
				command.String("autosave-dir"),
				autosave.WithSchedule(command.String("autosave-interval")),
			)

			api := NewAPI(
				logger,
				persistence,
				registry.NewRegistry(logger),
				eventBus,
				saver,
				APIConfig{
					HistoryDepth:   command.Int("history-depth"),
					ExecutionDelay: command.Duration("execution-delay"),
					LogCapacity:    command.Int("log-cap"),
				},
			)

			return api.Start(ctx, command.Int("port"))
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
