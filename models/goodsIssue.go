package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// GoodsIssue (Warenausgang) records goods leaving the warehouse against a
// customer or sales order.
type GoodsIssue struct {
	ID           int64          `json:"id"`
	IssueNumber  string         `json:"issue_number"`
	CustomerId   *int64         `json:"customer_id"`
	SalesOrderId *int64         `json:"sales_order_id"`
	Status       DocumentStatus `json:"status"`
	Note         string         `json:"note"`
	CompletedAt  *time.Time     `json:"completed_at"`
	CompletedBy  *string        `json:"completed_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type NewGoodsIssue struct {
	IssueNumber  string `json:"issue_number"`
	CustomerId   *int64 `json:"customer_id"`
	SalesOrderId *int64 `json:"sales_order_id"`
	Note         string `json:"note"`
}

type GoodsIssueItem struct {
	ID                int64            `json:"id"`
	GoodsIssueId      int64            `json:"goods_issue_id"`
	ProductId         int64            `json:"product_id"`
	RequestedQuantity decimal.Decimal  `json:"requested_quantity"`
	IssuedQuantity    decimal.Decimal  `json:"issued_quantity"`
	SourceBinId       *int64           `json:"source_bin_id"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type NewGoodsIssueItem struct {
	ProductId         int64            `json:"product_id" validate:"required"`
	RequestedQuantity decimal.Decimal  `json:"requested_quantity" validate:"required"`
	IssuedQuantity    *decimal.Decimal `json:"issued_quantity"`
	SourceBinId       *int64           `json:"source_bin_id"`
}

func SynthesizeGoodsIssue(m *QueuedMutation) (*GoodsIssue, error) {
	if m.EntityType != EntityTypeGoodsIssue {
		return nil, errors.New("queued mutation is not a goods issue create")
	}
	if m.EntityId == nil {
		return nil, errors.New("queued goods issue has no entity id")
	}
	var input NewGoodsIssue
	if err := UnmarshalPayload(m.Payload, &input); err != nil {
		return nil, err
	}
	number := input.IssueNumber
	if number == "" {
		number = OfflineDocumentNumber(m.EntityType, *m.EntityId)
	}
	return &GoodsIssue{
		ID:           *m.EntityId,
		IssueNumber:  number,
		CustomerId:   input.CustomerId,
		SalesOrderId: input.SalesOrderId,
		Status:       DocumentStatusDraft,
		Note:         input.Note,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// SynthesizeGoodsIssueItem defaults a missing issued quantity to the
// requested quantity; no server-side allocation has happened yet.
func SynthesizeGoodsIssueItem(m *QueuedMutation) (*GoodsIssueItem, error) {
	if m.EntityType != EntityTypeGoodsIssueItem {
		return nil, errors.New("queued mutation is not a goods issue item create")
	}
	if m.EntityId == nil {
		return nil, errors.New("queued goods issue item has no entity id")
	}
	if m.ParentEntityId == nil {
		return nil, errors.New("queued goods issue item has no parent id")
	}
	var input NewGoodsIssueItem
	if err := UnmarshalPayload(m.Payload, &input); err != nil {
		return nil, err
	}
	issued := input.RequestedQuantity
	if input.IssuedQuantity != nil {
		issued = *input.IssuedQuantity
	}
	return &GoodsIssueItem{
		ID:                *m.EntityId,
		GoodsIssueId:      *m.ParentEntityId,
		ProductId:         input.ProductId,
		RequestedQuantity: input.RequestedQuantity,
		IssuedQuantity:    issued,
		SourceBinId:       input.SourceBinId,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}
