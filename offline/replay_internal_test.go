package offline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mmdatafocus/warehouse_client/config"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/sirupsen/logrus"
)

func TestReplaceIdSegment(t *testing.T) {
	cases := []struct {
		url      string
		localId  int64
		serverId int64
		want     string
	}{
		{"/goods-receipts/-3/items", -3, 101, "/goods-receipts/101/items"},
		{"/goods-receipts/-1/complete", -1, 50, "/goods-receipts/50/complete"},
		// A longer id containing the local id as a prefix is a different
		// segment and must survive.
		{"/warehouses/-12/goods-receipts/-1/items", -1, 101, "/warehouses/-12/goods-receipts/101/items"},
		// Only the first matching segment is rewritten.
		{"/goods-receipts/-1/items/-1", -1, 50, "/goods-receipts/50/items/-1"},
		// No matching segment leaves the url alone.
		{"/goods-receipts/-5/items", -3, 101, "/goods-receipts/-5/items"},
	}
	for _, tc := range cases {
		if got := replaceIdSegment(tc.url, tc.localId, tc.serverId); got != tc.want {
			t.Errorf("replaceIdSegment(%q, %d, %d) = %q, want %q",
				tc.url, tc.localId, tc.serverId, got, tc.want)
		}
	}
}

func TestMarkReplayFailureLogsBookkeepingErrors(t *testing.T) {
	db, err := config.OpenLocalStoreAt("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	// Dropping the table makes the bookkeeping write fail the way a locked
	// or full store would.
	if err := db.Migrator().DropTable(&models.QueuedMutation{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(&buf)

	engine := NewReplayEngine(db, nil, logger, nil)
	rec := &models.QueuedMutation{ID: 1, EntityType: models.EntityTypeGoodsReceipt}
	engine.markReplayFailure(context.Background(), rec, errors.New("upstream 500"))

	if !strings.Contains(buf.String(), "bookkeeping not written") {
		t.Errorf("bookkeeping failure not logged, got: %s", buf.String())
	}
}
