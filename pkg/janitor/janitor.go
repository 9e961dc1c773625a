// Package janitor archives drafts that have gone stale, keeping duplicate
// detection and draft listings free of abandoned sessions.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/renoflow/renoflow/pkg/services"
)

const sweepPageSize = 100

// Janitor sweeps active drafts and archives those untouched for longer than
// the retention period. Archiving goes through the draft service so the
// usual lifecycle events are published.
type Janitor struct {
	drafts    *services.Drafts
	logger    *slog.Logger
	retention time.Duration
}

// NewJanitor creates a janitor with the given retention period.
func NewJanitor(drafts *services.Drafts, logger *slog.Logger, retention time.Duration) *Janitor {
	return &Janitor{
		drafts:    drafts,
		logger:    logger.With("module", "janitor"),
		retention: retention,
	}
}

// Sweep archives every active draft whose last update is older than the
// retention period and returns the number archived. Individual archive
// failures are logged and skipped so one bad draft does not stall the sweep.
//
// Listing is oldest first, and archived drafts drop out of the active
// listing, so each pass re-reads the first page until it hits a fresh draft.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-j.retention)
	archived := 0
	skipped := 0

	for {
		result, err := j.drafts.List(ctx, services.ListDraftsRequest{
			Limit:      sweepPageSize,
			Offset:     skipped,
			ActiveOnly: true,
			SortBy:     "updated_at",
			SortOrder:  "asc",
		})
		if err != nil {
			return archived, fmt.Errorf("failed to list drafts: %w", err)
		}

		if len(result.Drafts) == 0 {
			return archived, nil
		}

		archivedOnPage := 0

		for _, draft := range result.Drafts {
			if !draft.UpdatedAt.Before(cutoff) {
				return archived, nil
			}

			err := j.drafts.Archive(ctx, draft.ID, "stale draft")
			if err != nil {
				j.logger.WarnContext(ctx, "Failed to archive stale draft",
					"draft_id", draft.ID, "error", err)

				// Keep the failed draft from being re-read forever.
				skipped++

				continue
			}

			j.logger.InfoContext(ctx, "Archived stale draft",
				"draft_id", draft.ID, "module_code", draft.ModuleCode,
				"updated_at", draft.UpdatedAt)

			archived++
			archivedOnPage++
		}

		if archivedOnPage == 0 && !result.HasNextPage {
			return archived, nil
		}
	}
}
