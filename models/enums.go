package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusCompleted DocumentStatus = "completed"
	DocumentStatusCancelled DocumentStatus = "cancelled"
)

type ItemCondition string

const (
	ItemConditionNew     ItemCondition = "new"
	ItemConditionDamaged ItemCondition = "damaged"
	ItemConditionExpired ItemCondition = "expired"
)

type MutationMethod string

const (
	MutationMethodPost   MutationMethod = "POST"
	MutationMethodPut    MutationMethod = "PUT"
	MutationMethodDelete MutationMethod = "DELETE"
)

func (m MutationMethod) Value() (driver.Value, error) {
	return string(m), nil
}

func (m *MutationMethod) Scan(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		if b, ok := value.([]byte); ok {
			s = string(b)
		} else {
			return fmt.Errorf("cannot scan %T into MutationMethod", value)
		}
	}
	switch MutationMethod(s) {
	case MutationMethodPost, MutationMethodPut, MutationMethodDelete:
		*m = MutationMethod(s)
		return nil
	}
	return errors.New("invalid mutation method: " + s)
}

// OfflineEntityType tags a queued mutation with the domain concept it
// affects. The set is closed: document creates, their line-item creates,
// and the three state-transition actions per document kind.
type OfflineEntityType string

const (
	EntityTypeGoodsReceipt          OfflineEntityType = "goods_receipt"
	EntityTypeGoodsIssue            OfflineEntityType = "goods_issue"
	EntityTypeStockTransfer         OfflineEntityType = "stock_transfer"
	EntityTypeGoodsReceiptItem      OfflineEntityType = "goods_receipt_item"
	EntityTypeGoodsIssueItem        OfflineEntityType = "goods_issue_item"
	EntityTypeStockTransferItem     OfflineEntityType = "stock_transfer_item"
	EntityTypeGoodsReceiptComplete  OfflineEntityType = "goods_receipt_complete"
	EntityTypeGoodsReceiptCancel    OfflineEntityType = "goods_receipt_cancel"
	EntityTypeGoodsReceiptDelete    OfflineEntityType = "goods_receipt_delete"
	EntityTypeGoodsIssueComplete    OfflineEntityType = "goods_issue_complete"
	EntityTypeGoodsIssueCancel      OfflineEntityType = "goods_issue_cancel"
	EntityTypeGoodsIssueDelete      OfflineEntityType = "goods_issue_delete"
	EntityTypeStockTransferComplete OfflineEntityType = "stock_transfer_complete"
	EntityTypeStockTransferCancel   OfflineEntityType = "stock_transfer_cancel"
	EntityTypeStockTransferDelete   OfflineEntityType = "stock_transfer_delete"
)

var allEntityTypes = map[OfflineEntityType]struct{}{
	EntityTypeGoodsReceipt: {}, EntityTypeGoodsIssue: {}, EntityTypeStockTransfer: {},
	EntityTypeGoodsReceiptItem: {}, EntityTypeGoodsIssueItem: {}, EntityTypeStockTransferItem: {},
	EntityTypeGoodsReceiptComplete: {}, EntityTypeGoodsReceiptCancel: {}, EntityTypeGoodsReceiptDelete: {},
	EntityTypeGoodsIssueComplete: {}, EntityTypeGoodsIssueCancel: {}, EntityTypeGoodsIssueDelete: {},
	EntityTypeStockTransferComplete: {}, EntityTypeStockTransferCancel: {}, EntityTypeStockTransferDelete: {},
}

func (t OfflineEntityType) Valid() bool {
	_, ok := allEntityTypes[t]
	return ok
}

// IsDocumentCreate reports whether this type is a top-level document create.
func (t OfflineEntityType) IsDocumentCreate() bool {
	switch t {
	case EntityTypeGoodsReceipt, EntityTypeGoodsIssue, EntityTypeStockTransfer:
		return true
	}
	return false
}

// IsItemCreate reports whether this type is a line-item create.
func (t OfflineEntityType) IsItemCreate() bool {
	switch t {
	case EntityTypeGoodsReceiptItem, EntityTypeGoodsIssueItem, EntityTypeStockTransferItem:
		return true
	}
	return false
}

// IsAction reports whether this type is a state-transition action on an
// existing document (complete / cancel / delete).
func (t OfflineEntityType) IsAction() bool {
	return t.Valid() && !t.IsDocumentCreate() && !t.IsItemCreate()
}

// DocumentKindCode returns the short document code used in synthesized
// placeholder numbers: WE (goods receipt), WA (goods issue), UM (stock
// transfer).
func (t OfflineEntityType) DocumentKindCode() string {
	switch t {
	case EntityTypeGoodsReceipt, EntityTypeGoodsReceiptItem,
		EntityTypeGoodsReceiptComplete, EntityTypeGoodsReceiptCancel, EntityTypeGoodsReceiptDelete:
		return "WE"
	case EntityTypeGoodsIssue, EntityTypeGoodsIssueItem,
		EntityTypeGoodsIssueComplete, EntityTypeGoodsIssueCancel, EntityTypeGoodsIssueDelete:
		return "WA"
	case EntityTypeStockTransfer, EntityTypeStockTransferItem,
		EntityTypeStockTransferComplete, EntityTypeStockTransferCancel, EntityTypeStockTransferDelete:
		return "UM"
	}
	return ""
}

func (t OfflineEntityType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *OfflineEntityType) Scan(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		if b, ok := value.([]byte); ok {
			s = string(b)
		} else {
			return fmt.Errorf("cannot scan %T into OfflineEntityType", value)
		}
	}
	et := OfflineEntityType(s)
	if !et.Valid() {
		return errors.New("invalid offline entity type: " + s)
	}
	*t = et
	return nil
}
