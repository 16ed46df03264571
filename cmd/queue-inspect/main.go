package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/warehouse_client/config"
	"github.com/mmdatafocus/warehouse_client/models"
)

// Simple tool to dump the offline mutation queue of a device store.
// Useful when a device comes back from the field with entries that will
// not drain.
func main() {
	entityType := flag.String("entity-type", "", "Filter by entity type (e.g. goods_receipt)")
	status := flag.String("status", "", "Filter by replay status (PENDING, FAILED, DEAD)")
	asJSON := flag.Bool("json", false, "Print full records as JSON")
	flag.Parse()

	db, err := config.OpenLocalStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate store: %v\n", err)
		os.Exit(1)
	}

	q := db.WithContext(context.Background()).Order("id ASC")
	if strings.TrimSpace(*entityType) != "" {
		q = q.Where("entity_type = ?", strings.TrimSpace(*entityType))
	}
	if strings.TrimSpace(*status) != "" {
		q = q.Where("replay_status = ?", strings.ToUpper(strings.TrimSpace(*status)))
	}

	var records []*models.QueuedMutation
	if err := q.Find(&records).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to read queue: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("%d queued mutation(s)\n", len(records))
	for _, rec := range records {
		entityId := "-"
		if rec.EntityId != nil {
			entityId = fmt.Sprint(*rec.EntityId)
		}
		parentId := "-"
		if rec.ParentEntityId != nil {
			parentId = fmt.Sprint(*rec.ParentEntityId)
		}
		lastErr := ""
		if rec.LastReplayError != nil {
			lastErr = " err=" + *rec.LastReplayError
		}
		fmt.Printf("#%d %s %s %s entity=%s parent=%s status=%s attempts=%d%s\n",
			rec.ID, rec.Method, rec.URL, rec.EntityType, entityId, parentId,
			rec.ReplayStatus, rec.ReplayAttempts, lastErr)
	}
}
