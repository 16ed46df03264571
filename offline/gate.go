package offline

import (
	"strings"

	"github.com/mmdatafocus/warehouse_client/config"
)

// Oracle reports the device's best current knowledge of reachability.
// Implemented by apiclient.Connectivity; tests use fixed stubs.
type Oracle interface {
	IsOfflineNow() bool
}

// Gate decides, per (method, resource path), whether a write must be
// queued instead of sent. It is policy, not just a connectivity check:
// only routes whose effects are safe to defer (document/item creates and
// the state-transition actions) ever queue, and OFFLINE_QUEUE_DOCS can
// narrow the set further. No side effects.
type Gate struct {
	Oracle Oracle
}

func NewGate(oracle Oracle) *Gate {
	return &Gate{Oracle: oracle}
}

func (g *Gate) ShouldQueueOfflineMutation(method, url string) bool {
	if !queueableRoute(method, url) {
		return false
	}
	if !config.OfflineQueueDocs(docKeyForPath(url)) {
		return false
	}
	if config.OfflineForceQueue() {
		return true
	}
	return g.Oracle != nil && g.Oracle.IsOfflineNow()
}

func queueableRoute(method, url string) bool {
	switch method {
	case "POST", "PUT", "DELETE":
	default:
		return false
	}
	return docKeyForPath(url) != ""
}

// docKeyForPath maps a resource path to its feature-flag document key.
// Paths look like /goods-receipts, /goods-receipts/-3/items,
// /goods-receipts/-3/complete.
func docKeyForPath(url string) string {
	path := strings.TrimPrefix(url, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	switch path {
	case "goods-receipts":
		return "GOODS_RECEIPT"
	case "goods-issues":
		return "GOODS_ISSUE"
	case "stock-transfers":
		return "STOCK_TRANSFER"
	}
	return ""
}
