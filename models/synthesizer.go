package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OfflineDocumentNumber builds the deterministic placeholder number for a
// document created offline, e.g. "OFFLINE-WE-3" for the goods receipt with
// local id -3. The same mutation always synthesizes the same label.
func OfflineDocumentNumber(t OfflineEntityType, localId int64) string {
	id := localId
	if id < 0 {
		id = -id
	}
	return fmt.Sprintf("OFFLINE-%s-%d", t.DocumentKindCode(), id)
}

// UnmarshalPayload decodes a queued mutation's payload snapshot. A nil
// payload decodes to the input's zero value so actions (which queue without
// a body) synthesize cleanly.
func UnmarshalPayload(payload []byte, out any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

// SynthesizeEntity projects any queued create into its domain shape. The
// switch is total over the closed entity-type set; action mutations have no
// entity to synthesize (their view is the ActionAck) and report as such.
func SynthesizeEntity(m *QueuedMutation) (any, error) {
	if m == nil {
		return nil, errors.New("nil queued mutation")
	}
	switch m.EntityType {
	case EntityTypeGoodsReceipt:
		return SynthesizeGoodsReceipt(m)
	case EntityTypeGoodsIssue:
		return SynthesizeGoodsIssue(m)
	case EntityTypeStockTransfer:
		return SynthesizeStockTransfer(m)
	case EntityTypeGoodsReceiptItem:
		return SynthesizeGoodsReceiptItem(m)
	case EntityTypeGoodsIssueItem:
		return SynthesizeGoodsIssueItem(m)
	case EntityTypeStockTransferItem:
		return SynthesizeStockTransferItem(m)
	case EntityTypeGoodsReceiptComplete, EntityTypeGoodsReceiptCancel, EntityTypeGoodsReceiptDelete,
		EntityTypeGoodsIssueComplete, EntityTypeGoodsIssueCancel, EntityTypeGoodsIssueDelete,
		EntityTypeStockTransferComplete, EntityTypeStockTransferCancel, EntityTypeStockTransferDelete:
		return nil, fmt.Errorf("entity type %s is an action and has no synthesized entity", m.EntityType)
	default:
		return nil, fmt.Errorf("unknown entity type %q", m.EntityType)
	}
}
