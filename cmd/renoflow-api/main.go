package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/renoflow/renoflow/pkg/cmd"
	"github.com/renoflow/renoflow/pkg/config"
	"github.com/renoflow/renoflow/pkg/log"
	"github.com/renoflow/renoflow/pkg/otelhelper"
	"github.com/renoflow/renoflow/pkg/registry"
)

const defaultPort = 9080

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "renoflow-api",
		Usage:                 "Draft store API for renovation case files",
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
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file://, postgres://, redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "modules-config",
				Usage:   "Path to a modules.yaml overriding module display texts",
				Sources: cli.EnvVars("MODULES_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces for draft operations",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Renoflow API")

			reg := registry.NewDefaultRegistry(logger)

			if path := command.String("modules-config"); path != "" {
				moduleConfig, err := config.LoadModuleConfig(path)
				if err != nil {
					return err
				}

				if err := config.ApplyModuleConfig(reg, moduleConfig); err != nil {
					return err
				}
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				reg,
				eventBus,
			)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "renoflow-api")
				if err != nil {
					return err
				}

				api.WithTracer(tracer)
			}

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
