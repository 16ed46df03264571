package config

import (
	"os"
	"strings"
)

// OfflineForceQueue makes the mutation gate queue every gated write
// regardless of the connectivity probe. Used on sites with flaky radio
// coverage where attempting the direct path first just burns time.
//
// Set via env:
// - OFFLINE_FORCE_QUEUE=true
func OfflineForceQueue() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OFFLINE_FORCE_QUEUE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// OfflineQueueDocs narrows which document kinds are allowed to queue while
// offline. Empty (the default) means all of them.
//
// Set via env:
// - OFFLINE_QUEUE_DOCS="GOODS_RECEIPT,GOODS_ISSUE,STOCK_TRANSFER"
//
// Doc keys are case-insensitive.
func OfflineQueueDocs(doc string) bool {
	doc = strings.ToUpper(strings.TrimSpace(doc))
	if doc == "" {
		return false
	}
	raw := os.Getenv("OFFLINE_QUEUE_DOCS")
	if strings.TrimSpace(raw) == "" {
		return true
	}
	for _, part := range strings.Split(raw, ",") {
		if strings.ToUpper(strings.TrimSpace(part)) == doc {
			return true
		}
	}
	return false
}
