package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/offline"
	"github.com/mmdatafocus/warehouse_client/utils"
)

const goodsIssuesPath = "/goods-issues"

func (o *Operations) CreateGoodsIssue(ctx context.Context, input *models.NewGoodsIssue) (*models.GoodsIssue, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if o.mustQueue("POST", goodsIssuesPath, nil) {
		rec, err := o.Store.Enqueue(ctx, offline.MutationDescriptor{
			Method:     models.MutationMethodPost,
			URL:        goodsIssuesPath,
			Payload:    input,
			EntityType: models.EntityTypeGoodsIssue,
		})
		if err != nil {
			return nil, err
		}
		return models.SynthesizeGoodsIssue(rec)
	}
	body, err := o.API.Post(ctx, goodsIssuesPath, input)
	if err != nil {
		return nil, err
	}
	var issue models.GoodsIssue
	if err := utils.UnmarshalFromJSON(body, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (o *Operations) CreateGoodsIssueItem(ctx context.Context, issueId int64, input *models.NewGoodsIssueItem) (*models.GoodsIssueItem, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%d/items", goodsIssuesPath, issueId)
	if o.mustQueue("POST", url, &issueId) {
		rec, err := o.Store.Enqueue(ctx, offline.MutationDescriptor{
			Method:         models.MutationMethodPost,
			URL:            url,
			Payload:        input,
			EntityType:     models.EntityTypeGoodsIssueItem,
			ParentEntityId: &issueId,
		})
		if err != nil {
			return nil, err
		}
		return models.SynthesizeGoodsIssueItem(rec)
	}
	body, err := o.API.Post(ctx, url, input)
	if err != nil {
		return nil, err
	}
	var item models.GoodsIssueItem
	if err := utils.UnmarshalFromJSON(body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (o *Operations) CompleteGoodsIssue(ctx context.Context, issueId int64) (*models.ActionAck, error) {
	url := fmt.Sprintf("%s/%d/complete", goodsIssuesPath, issueId)
	return o.performAction(ctx, models.MutationMethodPost, url, models.EntityTypeGoodsIssueComplete, issueId, "Goods issue completion")
}

func (o *Operations) CancelGoodsIssue(ctx context.Context, issueId int64) (*models.ActionAck, error) {
	url := fmt.Sprintf("%s/%d/cancel", goodsIssuesPath, issueId)
	return o.performAction(ctx, models.MutationMethodPost, url, models.EntityTypeGoodsIssueCancel, issueId, "Goods issue cancellation")
}

func (o *Operations) DeleteGoodsIssue(ctx context.Context, issueId int64) (*models.ActionAck, error) {
	url := fmt.Sprintf("%s/%d", goodsIssuesPath, issueId)
	return o.performAction(ctx, models.MutationMethodDelete, url, models.EntityTypeGoodsIssueDelete, issueId, "Goods issue deletion")
}

func (o *Operations) ListGoodsIssues(ctx context.Context) ([]*models.GoodsIssue, error) {
	server := fetchServerList[models.GoodsIssue](ctx, o, goodsIssuesPath)
	records, err := o.Store.ListQueuedEntities(ctx, models.EntityTypeGoodsIssue)
	if err != nil {
		return nil, err
	}
	queued := synthesizeAll(o, records, models.SynthesizeGoodsIssue)
	return mergeDocuments(queued, server), nil
}

func (o *Operations) ListGoodsIssueItems(ctx context.Context, issueId int64) ([]*models.GoodsIssueItem, error) {
	var server []*models.GoodsIssueItem
	if issueId > 0 {
		server = fetchServerList[models.GoodsIssueItem](ctx, o, fmt.Sprintf("%s/%d/items", goodsIssuesPath, issueId))
	}
	records, err := o.Store.ListQueueItemsByEntity(ctx, models.EntityTypeGoodsIssueItem, issueId)
	if err != nil {
		return nil, err
	}
	queued := synthesizeAll(o, records, models.SynthesizeGoodsIssueItem)
	return mergeItems(server, queued), nil
}
