package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// StockTransfer (Umlagerung) moves stock between bins or warehouse areas.
type StockTransfer struct {
	ID                     int64          `json:"id"`
	TransferNumber         string         `json:"transfer_number"`
	SourceWarehouseId      *int64         `json:"source_warehouse_id"`
	DestinationWarehouseId *int64         `json:"destination_warehouse_id"`
	Status                 DocumentStatus `json:"status"`
	Note                   string         `json:"note"`
	CompletedAt            *time.Time     `json:"completed_at"`
	CompletedBy            *string        `json:"completed_by"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

type NewStockTransfer struct {
	TransferNumber         string `json:"transfer_number"`
	SourceWarehouseId      *int64 `json:"source_warehouse_id"`
	DestinationWarehouseId *int64 `json:"destination_warehouse_id"`
	Note                   string `json:"note"`
}

type StockTransferItem struct {
	ID              int64           `json:"id"`
	StockTransferId int64           `json:"stock_transfer_id"`
	ProductId       int64           `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	SourceBinId     *int64          `json:"source_bin_id"`
	TargetBinId     *int64          `json:"target_bin_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type NewStockTransferItem struct {
	ProductId   int64           `json:"product_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	SourceBinId *int64          `json:"source_bin_id"`
	TargetBinId *int64          `json:"target_bin_id"`
}

func SynthesizeStockTransfer(m *QueuedMutation) (*StockTransfer, error) {
	if m.EntityType != EntityTypeStockTransfer {
		return nil, errors.New("queued mutation is not a stock transfer create")
	}
	if m.EntityId == nil {
		return nil, errors.New("queued stock transfer has no entity id")
	}
	var input NewStockTransfer
	if err := UnmarshalPayload(m.Payload, &input); err != nil {
		return nil, err
	}
	number := input.TransferNumber
	if number == "" {
		number = OfflineDocumentNumber(m.EntityType, *m.EntityId)
	}
	return &StockTransfer{
		ID:                     *m.EntityId,
		TransferNumber:         number,
		SourceWarehouseId:      input.SourceWarehouseId,
		DestinationWarehouseId: input.DestinationWarehouseId,
		Status:                 DocumentStatusDraft,
		Note:                   input.Note,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}, nil
}

func SynthesizeStockTransferItem(m *QueuedMutation) (*StockTransferItem, error) {
	if m.EntityType != EntityTypeStockTransferItem {
		return nil, errors.New("queued mutation is not a stock transfer item create")
	}
	if m.EntityId == nil {
		return nil, errors.New("queued stock transfer item has no entity id")
	}
	if m.ParentEntityId == nil {
		return nil, errors.New("queued stock transfer item has no parent id")
	}
	var input NewStockTransferItem
	if err := UnmarshalPayload(m.Payload, &input); err != nil {
		return nil, err
	}
	return &StockTransferItem{
		ID:              *m.EntityId,
		StockTransferId: *m.ParentEntityId,
		ProductId:       input.ProductId,
		Quantity:        input.Quantity,
		SourceBinId:     input.SourceBinId,
		TargetBinId:     input.TargetBinId,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}
