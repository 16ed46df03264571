package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// GoodsReceipt (Wareneingang) records goods arriving from a supplier.
// This is the API response shape; the device never stores receipts locally,
// it either reads them from the server or synthesizes them from the queue.
type GoodsReceipt struct {
	ID                 int64          `json:"id"`
	ReceiptNumber      string         `json:"receipt_number"`
	SupplierId         *int64         `json:"supplier_id"`
	PurchaseOrderId    *int64         `json:"purchase_order_id"`
	DeliveryNoteNumber *string        `json:"delivery_note_number"`
	Status             DocumentStatus `json:"status"`
	Note               string         `json:"note"`
	// Server-side lifecycle fields; null until the server has seen the
	// document.
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *string    `json:"completed_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type NewGoodsReceipt struct {
	ReceiptNumber      string  `json:"receipt_number"`
	SupplierId         *int64  `json:"supplier_id"`
	PurchaseOrderId    *int64  `json:"purchase_order_id"`
	DeliveryNoteNumber *string `json:"delivery_note_number"`
	Note               string  `json:"note"`
}

type GoodsReceiptItem struct {
	ID               int64            `json:"id"`
	GoodsReceiptId   int64            `json:"goods_receipt_id"`
	ProductId        int64            `json:"product_id"`
	ExpectedQuantity *decimal.Decimal `json:"expected_quantity"`
	ReceivedQuantity decimal.Decimal  `json:"received_quantity"`
	TargetBinId      *int64           `json:"target_bin_id"`
	Condition        ItemCondition    `json:"condition"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type NewGoodsReceiptItem struct {
	ProductId        int64            `json:"product_id" validate:"required"`
	ExpectedQuantity *decimal.Decimal `json:"expected_quantity"`
	ReceivedQuantity *decimal.Decimal `json:"received_quantity"`
	TargetBinId      *int64           `json:"target_bin_id"`
	Condition        ItemCondition    `json:"condition"`
}

// SynthesizeGoodsReceipt projects a queued goods-receipt create into the
// shape the server would have returned for the confirmed create. Pure:
// identical records always yield identical receipts.
func SynthesizeGoodsReceipt(m *QueuedMutation) (*GoodsReceipt, error) {
	if m.EntityType != EntityTypeGoodsReceipt {
		return nil, errors.New("queued mutation is not a goods receipt create")
	}
	if m.EntityId == nil {
		return nil, errors.New("queued goods receipt has no entity id")
	}
	var input NewGoodsReceipt
	if err := UnmarshalPayload(m.Payload, &input); err != nil {
		return nil, err
	}
	number := input.ReceiptNumber
	if number == "" {
		number = OfflineDocumentNumber(m.EntityType, *m.EntityId)
	}
	return &GoodsReceipt{
		ID:                 *m.EntityId,
		ReceiptNumber:      number,
		SupplierId:         input.SupplierId,
		PurchaseOrderId:    input.PurchaseOrderId,
		DeliveryNoteNumber: input.DeliveryNoteNumber,
		Status:             DocumentStatusDraft,
		Note:               input.Note,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}

// SynthesizeGoodsReceiptItem projects a queued item create. A missing
// received quantity defaults to the expected quantity: nothing has been
// allocated server-side yet, so the optimistic reading is "all of it
// arrived".
func SynthesizeGoodsReceiptItem(m *QueuedMutation) (*GoodsReceiptItem, error) {
	if m.EntityType != EntityTypeGoodsReceiptItem {
		return nil, errors.New("queued mutation is not a goods receipt item create")
	}
	if m.EntityId == nil {
		return nil, errors.New("queued goods receipt item has no entity id")
	}
	if m.ParentEntityId == nil {
		return nil, errors.New("queued goods receipt item has no parent id")
	}
	var input NewGoodsReceiptItem
	if err := UnmarshalPayload(m.Payload, &input); err != nil {
		return nil, err
	}
	received := decimal.Zero
	if input.ReceivedQuantity != nil {
		received = *input.ReceivedQuantity
	} else if input.ExpectedQuantity != nil {
		received = *input.ExpectedQuantity
	}
	condition := input.Condition
	if condition == "" {
		condition = ItemConditionNew
	}
	return &GoodsReceiptItem{
		ID:               *m.EntityId,
		GoodsReceiptId:   *m.ParentEntityId,
		ProductId:        input.ProductId,
		ExpectedQuantity: input.ExpectedQuantity,
		ReceivedQuantity: received,
		TargetBinId:      input.TargetBinId,
		Condition:        condition,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}
