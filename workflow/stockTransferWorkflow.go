package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/offline"
	"github.com/mmdatafocus/warehouse_client/utils"
)

const stockTransfersPath = "/stock-transfers"

func (o *Operations) CreateStockTransfer(ctx context.Context, input *models.NewStockTransfer) (*models.StockTransfer, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if o.mustQueue("POST", stockTransfersPath, nil) {
		rec, err := o.Store.Enqueue(ctx, offline.MutationDescriptor{
			Method:     models.MutationMethodPost,
			URL:        stockTransfersPath,
			Payload:    input,
			EntityType: models.EntityTypeStockTransfer,
		})
		if err != nil {
			return nil, err
		}
		return models.SynthesizeStockTransfer(rec)
	}
	body, err := o.API.Post(ctx, stockTransfersPath, input)
	if err != nil {
		return nil, err
	}
	var transfer models.StockTransfer
	if err := utils.UnmarshalFromJSON(body, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (o *Operations) CreateStockTransferItem(ctx context.Context, transferId int64, input *models.NewStockTransferItem) (*models.StockTransferItem, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%d/items", stockTransfersPath, transferId)
	if o.mustQueue("POST", url, &transferId) {
		rec, err := o.Store.Enqueue(ctx, offline.MutationDescriptor{
			Method:         models.MutationMethodPost,
			URL:            url,
			Payload:        input,
			EntityType:     models.EntityTypeStockTransferItem,
			ParentEntityId: &transferId,
		})
		if err != nil {
			return nil, err
		}
		return models.SynthesizeStockTransferItem(rec)
	}
	body, err := o.API.Post(ctx, url, input)
	if err != nil {
		return nil, err
	}
	var item models.StockTransferItem
	if err := utils.UnmarshalFromJSON(body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (o *Operations) CompleteStockTransfer(ctx context.Context, transferId int64) (*models.ActionAck, error) {
	url := fmt.Sprintf("%s/%d/complete", stockTransfersPath, transferId)
	return o.performAction(ctx, models.MutationMethodPost, url, models.EntityTypeStockTransferComplete, transferId, "Stock transfer completion")
}

func (o *Operations) CancelStockTransfer(ctx context.Context, transferId int64) (*models.ActionAck, error) {
	url := fmt.Sprintf("%s/%d/cancel", stockTransfersPath, transferId)
	return o.performAction(ctx, models.MutationMethodPost, url, models.EntityTypeStockTransferCancel, transferId, "Stock transfer cancellation")
}

func (o *Operations) DeleteStockTransfer(ctx context.Context, transferId int64) (*models.ActionAck, error) {
	url := fmt.Sprintf("%s/%d", stockTransfersPath, transferId)
	return o.performAction(ctx, models.MutationMethodDelete, url, models.EntityTypeStockTransferDelete, transferId, "Stock transfer deletion")
}

func (o *Operations) ListStockTransfers(ctx context.Context) ([]*models.StockTransfer, error) {
	server := fetchServerList[models.StockTransfer](ctx, o, stockTransfersPath)
	records, err := o.Store.ListQueuedEntities(ctx, models.EntityTypeStockTransfer)
	if err != nil {
		return nil, err
	}
	queued := synthesizeAll(o, records, models.SynthesizeStockTransfer)
	return mergeDocuments(queued, server), nil
}

func (o *Operations) ListStockTransferItems(ctx context.Context, transferId int64) ([]*models.StockTransferItem, error) {
	var server []*models.StockTransferItem
	if transferId > 0 {
		server = fetchServerList[models.StockTransferItem](ctx, o, fmt.Sprintf("%s/%d/items", stockTransfersPath, transferId))
	}
	records, err := o.Store.ListQueueItemsByEntity(ctx, models.EntityTypeStockTransferItem, transferId)
	if err != nil {
		return nil, err
	}
	queued := synthesizeAll(o, records, models.SynthesizeStockTransferItem)
	return mergeItems(server, queued), nil
}
