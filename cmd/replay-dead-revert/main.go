package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/warehouse_client/config"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/offline"
)

// Puts DEAD queue entries back to PENDING so the replay engine retries
// them. Run after fixing whatever made them poison (bad token, server-side
// validation, missing master data).
func main() {
	dryRun := flag.Bool("dry-run", true, "Show DEAD records only (no writes)")
	confirm := flag.String("confirm", "", "Type REVERT_DEAD to proceed when dry-run=false")
	flag.Parse()

	if !*dryRun && strings.TrimSpace(*confirm) != "REVERT_DEAD" {
		fmt.Fprintln(os.Stderr, "set --confirm=REVERT_DEAD to proceed")
		os.Exit(1)
	}

	db, err := config.OpenLocalStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate store: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var dead []*models.QueuedMutation
	if err := db.WithContext(ctx).
		Where("replay_status = ?", models.ReplayStatusDead).
		Order("id ASC").
		Find(&dead).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to read queue: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d DEAD entr(ies)\n", len(dead))
	for _, rec := range dead {
		lastErr := ""
		if rec.LastReplayError != nil {
			lastErr = " err=" + *rec.LastReplayError
		}
		fmt.Printf("#%d %s %s %s attempts=%d%s\n",
			rec.ID, rec.Method, rec.URL, rec.EntityType, rec.ReplayAttempts, lastErr)
	}

	if *dryRun {
		fmt.Println("dry-run: no changes written")
		return
	}

	reverted, err := offline.RevertDeadEntries(ctx, db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to revert: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("reverted %d entr(ies) to PENDING\n", reverted)
}
