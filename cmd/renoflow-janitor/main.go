package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/renoflow/renoflow/pkg/cmd"
	"github.com/renoflow/renoflow/pkg/janitor"
	"github.com/renoflow/renoflow/pkg/log"
	"github.com/renoflow/renoflow/pkg/registry"
	"github.com/renoflow/renoflow/pkg/services"
)

const defaultRetentionDays = 90

func main() {
	logger := log.WithModule("janitor")

	command := &cli.Command{
		Name:                  "renoflow-janitor",
		Usage:                 "Archive stale case-file drafts on a schedule",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
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
				Name:    "schedule",
				Usage:   "Cron expression for the sweep",
				Value:   "0 3 * * *",
				Sources: cli.EnvVars("JANITOR_SCHEDULE"),
			},
			&cli.IntFlag{
				Name:    "retention-days",
				Usage:   "Archive drafts untouched for more than this many days",
				Value:   defaultRetentionDays,
				Sources: cli.EnvVars("RETENTION_DAYS"),
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single sweep and exit instead of scheduling",
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

			logger.InfoContext(ctx, "Initializing Renoflow janitor")

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

			reg := registry.NewDefaultRegistry(logger)
			draftService := services.NewDrafts(persistence, reg, eventBus)

			retention := time.Duration(command.Int("retention-days")) * 24 * time.Hour
			sweeper := janitor.NewJanitor(draftService, logger, retention)

			if command.Bool("once") {
				archived, err := sweeper.Sweep(ctx)
				logger.InfoContext(ctx, "Sweep finished", "archived", archived)

				return err
			}

			scheduler := cron.New(cron.WithChain(
				cron.SkipIfStillRunning(cron.DefaultLogger),
				cron.Recover(cron.DefaultLogger),
			))

			_, err = scheduler.AddFunc(command.String("schedule"), func() {
				archived, err := sweeper.Sweep(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Sweep failed", "error", err)

					return
				}

				logger.InfoContext(ctx, "Sweep finished", "archived", archived)
			})
			if err != nil {
				return err
			}

			scheduler.Start()

			logger.InfoContext(ctx, "Janitor scheduled", "schedule", command.String("schedule"))

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			<-scheduler.Stop().Done()

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
