package models

import (
	"time"
)

// QueuedMutation is the durable record of a deferred write. Its method and
// payload are written once at enqueue time and never edited afterwards;
// corrections are new mutations. The replay engine owns the bookkeeping
// fields and may remap a child's parent reference (and the id segment of its
// URL) once the parent create confirms. Rows leave the table only on a
// confirmed success from the real API.
//
// The autoincrement ID doubles as the FIFO order within an entity type or
// parent.
type QueuedMutation struct {
	ID             int64             `gorm:"primary_key" json:"id"`
	Method         MutationMethod    `gorm:"size:10;not null" json:"method"`
	URL            string            `gorm:"size:500;not null" json:"url"`
	Payload        []byte            `gorm:"type:blob" json:"payload"`
	EntityType     OfflineEntityType `gorm:"size:50;not null;index" json:"entity_type"`
	EntityId       *int64            `gorm:"index" json:"entity_id"`
	ParentEntityId *int64            `gorm:"index" json:"parent_entity_id"`
	CorrelationId  string            `gorm:"size:64;not null" json:"correlation_id"`

	// Replay bookkeeping, owned by the replay engine.
	ReplayStatus        string     `gorm:"size:20;not null;default:PENDING;index" json:"replay_status"`
	ReplayAttempts      int        `gorm:"not null;default:0" json:"replay_attempts"`
	NextReplayAttemptAt *time.Time `json:"next_replay_attempt_at"`
	LastReplayError     *string    `gorm:"type:text" json:"last_replay_error"`
	LockedAt            *time.Time `json:"locked_at"`
	LockedBy            *string    `gorm:"size:100" json:"locked_by"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LocalSequence backs the local entity id allocator. One row per sequence
// name; NextValue counts down from -1 so locally allocated ids can never
// collide with the server's positive id space.
type LocalSequence struct {
	Name      string    `gorm:"primary_key;size:50" json:"name"`
	NextValue int64     `gorm:"not null" json:"next_value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const SequenceOfflineEntityId = "offline_entity_id"

// ActionAck is the acknowledgement shape for state-transition actions. It
// matches the server's response shape for complete/cancel/delete, so a
// queued ack and a confirmed one are interchangeable to callers.
type ActionAck struct {
	Message string `json:"message"`
}
