package offline_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/mmdatafocus/warehouse_client/config"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/offline"
	"github.com/mmdatafocus/warehouse_client/utils"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenLocalStoreAt("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	return db
}

func int64Ptr(v int64) *int64 { return &v }

func TestEnqueueAllocatesNegativeIds(t *testing.T) {
	ctx := context.Background()
	store := offline.NewStore(newTestDB(t), nil)

	first, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-receipts",
		Payload:    &models.NewGoodsReceipt{SupplierId: int64Ptr(7)},
		EntityType: models.EntityTypeGoodsReceipt,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if first.EntityId == nil || *first.EntityId != -1 {
		t.Fatalf("first EntityId = %v, want -1", first.EntityId)
	}

	second, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-receipts",
		Payload:    &models.NewGoodsReceipt{},
		EntityType: models.EntityTypeGoodsReceipt,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if second.EntityId == nil || *second.EntityId != -2 {
		t.Fatalf("second EntityId = %v, want -2", second.EntityId)
	}
}

func TestAllocatorSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")

	db, err := config.OpenLocalStoreAt(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("migrate store: %v", err)
	}
	store := offline.NewStore(db, nil)

	id1, err := store.AllocateLocalEntityId(ctx)
	if err != nil {
		t.Fatalf("AllocateLocalEntityId: %v", err)
	}
	id2, err := store.AllocateLocalEntityId(ctx)
	if err != nil {
		t.Fatalf("AllocateLocalEntityId: %v", err)
	}
	if id1 != -1 || id2 != -2 {
		t.Fatalf("ids = %d, %d, want -1, -2", id1, id2)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	// Reopen the same file: allocation must continue, never restart.
	reopened, err := config.OpenLocalStoreAt(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if err := models.MigrateTable(reopened); err != nil {
		t.Fatalf("migrate reopened store: %v", err)
	}
	store2 := offline.NewStore(reopened, nil)
	id3, err := store2.AllocateLocalEntityId(ctx)
	if err != nil {
		t.Fatalf("AllocateLocalEntityId after reopen: %v", err)
	}
	if id3 != -3 {
		t.Fatalf("id after reopen = %d, want -3", id3)
	}
}

func TestEnqueueRejectsOrphanChildMutations(t *testing.T) {
	ctx := context.Background()
	store := offline.NewStore(newTestDB(t), nil)

	_, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-receipts/-1/items",
		Payload:    &models.NewGoodsReceiptItem{ProductId: 10},
		EntityType: models.EntityTypeGoodsReceiptItem,
	})
	if err != utils.ErrParentRequired {
		t.Fatalf("err = %v, want ErrParentRequired", err)
	}

	_, err = store.Enqueue(ctx, offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-receipts/-1/complete",
		EntityType: models.EntityTypeGoodsReceiptComplete,
	})
	if err != utils.ErrParentRequired {
		t.Fatalf("action err = %v, want ErrParentRequired", err)
	}
}

func TestListQueuedEntitiesFIFO(t *testing.T) {
	ctx := context.Background()
	store := offline.NewStore(newTestDB(t), nil)

	notes := []string{"first", "second", "third"}
	for _, note := range notes {
		if _, err := store.Enqueue(ctx, offline.MutationDescriptor{
			Method:     models.MutationMethodPost,
			URL:        "/goods-issues",
			Payload:    &models.NewGoodsIssue{Note: note},
			EntityType: models.EntityTypeGoodsIssue,
		}); err != nil {
			t.Fatalf("Enqueue %s: %v", note, err)
		}
	}
	// A different type must not leak into the listing.
	if _, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/goods-receipts",
		Payload:    &models.NewGoodsReceipt{},
		EntityType: models.EntityTypeGoodsReceipt,
	}); err != nil {
		t.Fatalf("Enqueue receipt: %v", err)
	}

	records, err := store.ListQueuedEntities(ctx, models.EntityTypeGoodsIssue)
	if err != nil {
		t.Fatalf("ListQueuedEntities: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, rec := range records {
		issue, err := models.SynthesizeGoodsIssue(rec)
		if err != nil {
			t.Fatalf("synthesize record %d: %v", i, err)
		}
		if issue.Note != notes[i] {
			t.Errorf("record %d note = %q, want %q", i, issue.Note, notes[i])
		}
	}
}

func TestListQueueItemsByEntityFIFOPerParent(t *testing.T) {
	ctx := context.Background()
	store := offline.NewStore(newTestDB(t), nil)

	parentA := int64(-1)
	parentB := int64(-2)
	for i, parent := range []int64{parentA, parentB, parentA, parentA, parentB} {
		if _, err := store.Enqueue(ctx, offline.MutationDescriptor{
			Method:         models.MutationMethodPost,
			URL:            "/goods-receipts/-1/items",
			Payload:        &models.NewGoodsReceiptItem{ProductId: int64(i + 1)},
			EntityType:     models.EntityTypeGoodsReceiptItem,
			ParentEntityId: int64Ptr(parent),
		}); err != nil {
			t.Fatalf("Enqueue item %d: %v", i, err)
		}
	}

	records, err := store.ListQueueItemsByEntity(ctx, models.EntityTypeGoodsReceiptItem, parentA)
	if err != nil {
		t.Fatalf("ListQueueItemsByEntity: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records for parent A, want 3", len(records))
	}
	wantProducts := []int64{1, 3, 4}
	for i, rec := range records {
		item, err := models.SynthesizeGoodsReceiptItem(rec)
		if err != nil {
			t.Fatalf("synthesize item %d: %v", i, err)
		}
		if item.ProductId != wantProducts[i] {
			t.Errorf("item %d product = %d, want %d (FIFO per parent)", i, item.ProductId, wantProducts[i])
		}
	}
}

func TestQueuedMessage(t *testing.T) {
	store := offline.NewStore(newTestDB(t), nil)
	ack := store.QueuedMessage("Goods receipt completion")
	if ack.Message != "Goods receipt completion queued" {
		t.Errorf("Message = %q, want %q", ack.Message, "Goods receipt completion queued")
	}
}

func TestEnqueueStampsCorrelationIdFromContext(t *testing.T) {
	ctx := utils.SetCorrelationIdInContext(context.Background(), "corr-42")
	store := offline.NewStore(newTestDB(t), nil)

	rec, err := store.Enqueue(ctx, offline.MutationDescriptor{
		Method:     models.MutationMethodPost,
		URL:        "/stock-transfers",
		Payload:    &models.NewStockTransfer{},
		EntityType: models.EntityTypeStockTransfer,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if rec.CorrelationId != "corr-42" {
		t.Errorf("CorrelationId = %q, want corr-42", rec.CorrelationId)
	}
}
