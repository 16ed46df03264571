package offline_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/warehouse_client/apiclient"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/offline"
	"gorm.io/gorm"
)

type recordingServer struct {
	mu       sync.Mutex
	requests []string
	handler  func(method, path string) (int, string)
	srv      *httptest.Server
}

func newRecordingServer(t *testing.T, handler func(method, path string) (int, string)) *recordingServer {
	t.Helper()
	rs := &recordingServer{handler: handler}
	rs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests = append(rs.requests, r.Method+" "+r.URL.Path)
		rs.mu.Unlock()
		status, body := rs.handler(r.Method, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(rs.srv.Close)
	return rs
}

func (rs *recordingServer) seen() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]string, len(rs.requests))
	copy(out, rs.requests)
	return out
}

func newEngine(t *testing.T, db *gorm.DB, baseURL string) *offline.ReplayEngine {
	t.Helper()
	api := apiclient.NewClientWithBase(baseURL, nil)
	return offline.NewReplayEngine(db, api, nil, nil)
}

func queueCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.QueuedMutation{}).Count(&count).Error; err != nil {
		t.Fatalf("count queue: %v", err)
	}
	return count
}

func enqueueReceiptWithChildren(t *testing.T, store *offline.Store) (parentId int64) {
	t.Helper()
	ctx := context.Background()
	parent, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-receipts",
		Payload:    &models.NewGoodsReceipt{SupplierId: int64Ptr(7)},
		EntityType: models.EntityTypeGoodsReceipt,
	})
	if err != nil {
		t.Fatalf("enqueue parent: %v", err)
	}
	parentId = *parent.EntityId
	if _, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:         models.MutationMethodPost,
		URL:            fmt.Sprintf("/goods-receipts/%d/items", parentId),
		Payload:        &models.NewGoodsReceiptItem{ProductId: 10},
		EntityType:     models.EntityTypeGoodsReceiptItem,
		ParentEntityId: &parentId,
	}); err != nil {
		t.Fatalf("enqueue item: %v", err)
	}
	if _, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:         models.MutationMethodPost,
		URL:            fmt.Sprintf("/goods-receipts/%d/complete", parentId),
		EntityType:     models.EntityTypeGoodsReceiptComplete,
		ParentEntityId: &parentId,
	}); err != nil {
		t.Fatalf("enqueue complete: %v", err)
	}
	return parentId
}

func TestReplayDrainsFIFOAndRemapsChildren(t *testing.T) {
	db := newTestDB(t)
	store := offline.NewStore(db, nil)
	enqueueReceiptWithChildren(t, store)

	rs := newRecordingServer(t, func(method, path string) (int, string) {
		switch {
		case method == "POST" && path == "/goods-receipts":
			return http.StatusCreated, `{"id": 101}`
		case method == "POST" && path == "/goods-receipts/101/items":
			return http.StatusCreated, `{"id": 201}`
		case method == "POST" && path == "/goods-receipts/101/complete":
			return http.StatusOK, `{"message": "Goods receipt completed"}`
		}
		return http.StatusNotFound, `{"error": "unexpected request"}`
	})

	engine := newEngine(t, db, rs.srv.URL)
	replayed, failed := engine.ReplayOnce(context.Background())
	if failed != 0 {
		t.Fatalf("failed = %d, want 0", failed)
	}
	if replayed != 3 {
		t.Fatalf("replayed = %d, want 3", replayed)
	}

	want := []string{
		"POST /goods-receipts",
		"POST /goods-receipts/101/items",
		"POST /goods-receipts/101/complete",
	}
	got := rs.seen()
	if len(got) != len(want) {
		t.Fatalf("requests = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d = %q, want %q (children must follow the parent with its server id)", i, got[i], want[i])
		}
	}

	if n := queueCount(t, db); n != 0 {
		t.Errorf("queue has %d entries after drain, want 0", n)
	}
}

func TestReplayKeepsChildrenWhileParentFails(t *testing.T) {
	db := newTestDB(t)
	store := offline.NewStore(db, nil)
	enqueueReceiptWithChildren(t, store)

	rs := newRecordingServer(t, func(method, path string) (int, string) {
		return http.StatusInternalServerError, `{"error": "boom"}`
	})

	engine := newEngine(t, db, rs.srv.URL)
	replayed, failed := engine.ReplayOnce(context.Background())
	if replayed != 0 {
		t.Fatalf("replayed = %d, want 0", replayed)
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want 1 (only the parent may be attempted)", failed)
	}

	// The children must never have been attempted: their parent's server id
	// is still unknown.
	for _, req := range rs.seen() {
		if req != "POST /goods-receipts" {
			t.Errorf("unexpected request %q while parent unconfirmed", req)
		}
	}

	if n := queueCount(t, db); n != 3 {
		t.Errorf("queue has %d entries, want all 3 kept", n)
	}

	var parent models.QueuedMutation
	if err := db.Where("entity_type = ?", models.EntityTypeGoodsReceipt).First(&parent).Error; err != nil {
		t.Fatalf("load parent: %v", err)
	}
	if parent.ReplayStatus != models.ReplayStatusFailed {
		t.Errorf("parent status = %q, want FAILED", parent.ReplayStatus)
	}
	if parent.ReplayAttempts != 1 {
		t.Errorf("parent attempts = %d, want 1", parent.ReplayAttempts)
	}
	if parent.NextReplayAttemptAt == nil {
		t.Error("parent has no backoff timestamp")
	}

	// Backoff: an immediate second pass must not re-attempt anything.
	before := len(rs.seen())
	engine.ReplayOnce(context.Background())
	if after := len(rs.seen()); after != before {
		t.Errorf("second pass issued %d extra request(s) before backoff elapsed", after-before)
	}
}

func TestReplayDeadAfterMaxAttemptsAndRevert(t *testing.T) {
	t.Setenv("REPLAY_MAX_ATTEMPTS", "1")
	db := newTestDB(t)
	store := offline.NewStore(db, nil)

	if _, err := store.Enqueue(context.Background(), offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-receipts",
		Payload:    &models.NewGoodsReceipt{},
		EntityType: models.EntityTypeGoodsReceipt,
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	rs := newRecordingServer(t, func(method, path string) (int, string) {
		return http.StatusBadGateway, `{"error": "down"}`
	})
	engine := newEngine(t, db, rs.srv.URL)
	engine.ReplayOnce(context.Background())

	var rec models.QueuedMutation
	if err := db.First(&rec).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if rec.ReplayStatus != models.ReplayStatusDead {
		t.Fatalf("status = %q, want DEAD after max attempts", rec.ReplayStatus)
	}
	if rec.LastReplayError == nil {
		t.Error("DEAD record has no last error")
	}

	reverted, err := offline.RevertDeadEntries(context.Background(), db)
	if err != nil {
		t.Fatalf("RevertDeadEntries: %v", err)
	}
	if reverted != 1 {
		t.Fatalf("reverted = %d, want 1", reverted)
	}
	if err := db.First(&rec).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if rec.ReplayStatus != models.ReplayStatusPending {
		t.Errorf("status = %q, want PENDING after revert", rec.ReplayStatus)
	}
	if rec.ReplayAttempts != 0 {
		t.Errorf("attempts = %d, want 0 after revert", rec.ReplayAttempts)
	}
}

// lockRecord puts one queue entry into the state a crashed run leaves
// behind: PROCESSING, locked, never unlocked.
func lockRecord(t *testing.T, db *gorm.DB, id int64, lockedAt time.Time) {
	t.Helper()
	worker := "replay-gone"
	if err := db.Model(&models.QueuedMutation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"replay_status": models.ReplayStatusProcessing,
			"locked_at":     lockedAt,
			"locked_by":     worker,
		}).Error; err != nil {
		t.Fatalf("lock record: %v", err)
	}
}

func TestReplayReclaimsStaleProcessingLock(t *testing.T) {
	db := newTestDB(t)
	store := offline.NewStore(db, nil)

	rec, err := store.Enqueue(context.Background(), offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-receipts",
		Payload:    &models.NewGoodsReceipt{},
		EntityType: models.EntityTypeGoodsReceipt,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	// A run claimed the row and died before finishing; its lock long
	// outlived the TTL.
	lockRecord(t, db, rec.ID, time.Now().UTC().Add(-time.Hour))

	rs := newRecordingServer(t, func(method, path string) (int, string) {
		return http.StatusCreated, `{"id": 77}`
	})
	engine := newEngine(t, db, rs.srv.URL)
	replayed, failed := engine.ReplayOnce(context.Background())
	if replayed != 1 || failed != 0 {
		t.Fatalf("replayed=%d failed=%d, want the stranded row replayed", replayed, failed)
	}
	if n := queueCount(t, db); n != 0 {
		t.Errorf("queue has %d entries, want 0 after reclaim", n)
	}
}

func TestReplayHonorsLiveProcessingLock(t *testing.T) {
	db := newTestDB(t)
	store := offline.NewStore(db, nil)

	rec, err := store.Enqueue(context.Background(), offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-receipts",
		Payload:    &models.NewGoodsReceipt{},
		EntityType: models.EntityTypeGoodsReceipt,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	lockRecord(t, db, rec.ID, time.Now().UTC())

	rs := newRecordingServer(t, func(method, path string) (int, string) {
		return http.StatusCreated, `{"id": 77}`
	})
	engine := newEngine(t, db, rs.srv.URL)
	replayed, failed := engine.ReplayOnce(context.Background())
	if replayed != 0 || failed != 0 {
		t.Fatalf("replayed=%d failed=%d, want a freshly locked row left alone", replayed, failed)
	}
	if got := rs.seen(); len(got) != 0 {
		t.Errorf("issued %v against a row another run holds", got)
	}
}

func TestReplayRemovesEntriesOnlyOnSuccess(t *testing.T) {
	db := newTestDB(t)
	store := offline.NewStore(db, nil)

	ctx := context.Background()
	if _, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-issues",
		Payload:    &models.NewGoodsIssue{Note: "ok"},
		EntityType: models.EntityTypeGoodsIssue,
	}); err != nil {
		t.Fatalf("enqueue ok: %v", err)
	}
	if _, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/stock-transfers",
		Payload:    &models.NewStockTransfer{Note: "rejected"},
		EntityType: models.EntityTypeStockTransfer,
	}); err != nil {
		t.Fatalf("enqueue rejected: %v", err)
	}

	rs := newRecordingServer(t, func(method, path string) (int, string) {
		if path == "/goods-issues" {
			return http.StatusCreated, `{"id": 55}`
		}
		return http.StatusConflict, `{"error": "duplicate transfer number"}`
	})
	engine := newEngine(t, db, rs.srv.URL)
	replayed, failed := engine.ReplayOnce(context.Background())
	if replayed != 1 || failed != 1 {
		t.Fatalf("replayed=%d failed=%d, want 1 and 1", replayed, failed)
	}

	var remaining []*models.QueuedMutation
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("load queue: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("queue has %d entries, want only the rejected one", len(remaining))
	}
	if remaining[0].EntityType != models.EntityTypeStockTransfer {
		t.Errorf("remaining entry is %s, want stock_transfer", remaining[0].EntityType)
	}
}
