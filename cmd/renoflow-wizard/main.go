// Package main provides a terminal wizard for filling out case-file drafts
// against a running API or an embedded file store.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/renoflow/renoflow/pkg/client"
	"github.com/renoflow/renoflow/pkg/cmd"
	"github.com/renoflow/renoflow/pkg/log"
	"github.com/renoflow/renoflow/pkg/registry"
	"github.com/renoflow/renoflow/pkg/services"
	"github.com/renoflow/renoflow/pkg/wizard"
)

func main() {
	logger := log.WithModule("wizard")

	command := &cli.Command{
		Name:                  "renoflow-wizard",
		Usage:                 "Fill out a case-file draft step by step",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "module",
				Aliases:  []string{"m"},
				Usage:    "Regulatory module code (e.g. BAR-TH-171)",
				Required: true,
				Sources:  cli.EnvVars("RENOFLOW_MODULE"),
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the draft store API; empty runs against an embedded store",
				Sources: cli.EnvVars("RENOFLOW_API_URL"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database URL for the embedded store when no API URL is set",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "draft-id",
				Usage:   "Resume an existing draft instead of starting fresh",
				Sources: cli.EnvVars("RENOFLOW_DRAFT_ID"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			reg := registry.NewDefaultRegistry(logger)

			store, cleanup, err := newStore(ctx, command, reg)
			if err != nil {
				return err
			}
			defer cleanup()

			runner := NewRunner(os.Stdin, os.Stdout, reg)

			session := wizard.NewSession(store, command.String("module"),
				wizard.WithNotifier(runner),
				wizard.WithRouter(runner),
				wizard.WithLogger(logger),
			)

			if draftID := command.String("draft-id"); draftID != "" {
				if err := session.LoadDraft(ctx, draftID); err != nil {
					return err
				}
			}

			orchestrator, err := wizard.NewOrchestrator(session, reg)
			if err != nil {
				return err
			}

			return runner.Run(ctx, session, orchestrator)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

// newStore picks the HTTP store when an API URL is given, otherwise wires an
// in-process service over the configured persistence.
func newStore(ctx context.Context, command *cli.Command, reg *registry.Registry) (wizard.DraftStore, func(), error) {
	logger := log.WithModule("wizard")

	if apiURL := command.String("api-url"); apiURL != "" {
		httpClient := &http.Client{Timeout: 30 * time.Second}

		return client.NewHTTPStore(apiURL, httpClient), func() {}, nil
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := persistence.Close(ctx); err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}

	draftService := services.NewDrafts(persistence, reg, nil)

	return client.NewLocalStore(draftService), cleanup, nil
}
