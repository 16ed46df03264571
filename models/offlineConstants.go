package models

// Replay statuses for QueuedMutation.ReplayStatus.
// Keep these as strings (stored values) so queue inspection stays readable.
//
// There is no SUCCEEDED state: a successfully replayed mutation is deleted,
// never kept, so the queue is exactly the set of not-yet-confirmed work.
const (
	ReplayStatusPending    = "PENDING"
	ReplayStatusProcessing = "PROCESSING"
	ReplayStatusFailed     = "FAILED"
	ReplayStatusDead       = "DEAD"
)
