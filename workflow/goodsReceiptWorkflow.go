package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/offline"
	"github.com/mmdatafocus/warehouse_client/utils"
)

const goodsReceiptsPath = "/goods-receipts"

// CreateGoodsReceipt records a goods receipt. When the mutation gate defers
// the write, the caller gets a synthesized receipt carrying a negative
// local id; the caller must await this result before creating items against
// it, since the items need that id as their parent.
func (o *Operations) CreateGoodsReceipt(ctx context.Context, input *models.NewGoodsReceipt) (*models.GoodsReceipt, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if o.mustQueue("POST", goodsReceiptsPath, nil) {
		rec, err := o.Store.Enqueue(ctx, offline.MutationDescriptor{
			Method:     models.MutationMethodPost,
			URL:        goodsReceiptsPath,
			Payload:    input,
			EntityType: models.EntityTypeGoodsReceipt,
		})
		if err != nil {
			return nil, err
		}
		return models.SynthesizeGoodsReceipt(rec)
	}
	body, err := o.API.Post(ctx, goodsReceiptsPath, input)
	if err != nil {
		return nil, err
	}
	var receipt models.GoodsReceipt
	if err := utils.UnmarshalFromJSON(body, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// CreateGoodsReceiptItem adds a line to a receipt. receiptId must already
// be resolved: either a server id or the local id returned by
// CreateGoodsReceipt; there is no deferred-parent form.
func (o *Operations) CreateGoodsReceiptItem(ctx context.Context, receiptId int64, input *models.NewGoodsReceiptItem) (*models.GoodsReceiptItem, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%d/items", goodsReceiptsPath, receiptId)
	if o.mustQueue("POST", url, &receiptId) {
		rec, err := o.Store.Enqueue(ctx, offline.MutationDescriptor{
			Method:         models.MutationMethodPost,
			URL:            url,
			Payload:        input,
			EntityType:     models.EntityTypeGoodsReceiptItem,
			ParentEntityId: &receiptId,
		})
		if err != nil {
			return nil, err
		}
		return models.SynthesizeGoodsReceiptItem(rec)
	}
	body, err := o.API.Post(ctx, url, input)
	if err != nil {
		return nil, err
	}
	var item models.GoodsReceiptItem
	if err := utils.UnmarshalFromJSON(body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (o *Operations) CompleteGoodsReceipt(ctx context.Context, receiptId int64) (*models.ActionAck, error) {
	url := fmt.Sprintf("%s/%d/complete", goodsReceiptsPath, receiptId)
	return o.performAction(ctx, models.MutationMethodPost, url, models.EntityTypeGoodsReceiptComplete, receiptId, "Goods receipt completion")
}

func (o *Operations) CancelGoodsReceipt(ctx context.Context, receiptId int64) (*models.ActionAck, error) {
	url := fmt.Sprintf("%s/%d/cancel", goodsReceiptsPath, receiptId)
	return o.performAction(ctx, models.MutationMethodPost, url, models.EntityTypeGoodsReceiptCancel, receiptId, "Goods receipt cancellation")
}

func (o *Operations) DeleteGoodsReceipt(ctx context.Context, receiptId int64) (*models.ActionAck, error) {
	url := fmt.Sprintf("%s/%d", goodsReceiptsPath, receiptId)
	return o.performAction(ctx, models.MutationMethodDelete, url, models.EntityTypeGoodsReceiptDelete, receiptId, "Goods receipt deletion")
}

// ListGoodsReceipts merges confirmed receipts with queued ones. Queued
// receipts come first.
func (o *Operations) ListGoodsReceipts(ctx context.Context) ([]*models.GoodsReceipt, error) {
	server := fetchServerList[models.GoodsReceipt](ctx, o, goodsReceiptsPath)
	records, err := o.Store.ListQueuedEntities(ctx, models.EntityTypeGoodsReceipt)
	if err != nil {
		return nil, err
	}
	queued := synthesizeAll(o, records, models.SynthesizeGoodsReceipt)
	return mergeDocuments(queued, server), nil
}

// ListGoodsReceiptItems merges a receipt's confirmed items with queued
// ones. Server items come first. A receipt that only exists locally has no
// server items to fetch.
func (o *Operations) ListGoodsReceiptItems(ctx context.Context, receiptId int64) ([]*models.GoodsReceiptItem, error) {
	var server []*models.GoodsReceiptItem
	if receiptId > 0 {
		server = fetchServerList[models.GoodsReceiptItem](ctx, o, fmt.Sprintf("%s/%d/items", goodsReceiptsPath, receiptId))
	}
	records, err := o.Store.ListQueueItemsByEntity(ctx, models.EntityTypeGoodsReceiptItem, receiptId)
	if err != nil {
		return nil, err
	}
	queued := synthesizeAll(o, records, models.SynthesizeGoodsReceiptItem)
	return mergeItems(server, queued), nil
}
