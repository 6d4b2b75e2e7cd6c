// Package domain contains persistence models for boost slot queues.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SlotDuration is the length of the exclusive boosted-placement window.
// Every plan buys the same fixed window; it is not configurable.
const SlotDuration = 24 * time.Hour

// EntryState represents lifecycle states for a queue entry.
type EntryState string

const (
	EntryStatePending   EntryState = "PENDING"
	EntryStateActive    EntryState = "ACTIVE"
	EntryStateExpired   EntryState = "EXPIRED"
	EntryStateCancelled EntryState = "CANCELLED"
)

// Terminal reports whether no further transition is allowed out of the state.
func (s EntryState) Terminal() bool {
	return s == EntryStateExpired || s == EntryStateCancelled
}

// SlotQueue is the authoritative record of who is boosted and who is
// waiting within one category. Created lazily on first enqueue.
type SlotQueue struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	Category      string        `gorm:"type:text;not null;uniqueIndex"`
	ActiveEntryID *snowflake.ID `gorm:""`
	LastUpdated   time.Time     `gorm:"not null"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SlotQueue) TableName() string { return "boost_queues" }

// QueueEntry is one business's request to occupy the boost slot of a
// category. Owned by its SlotQueue; terminal entries are retained for
// history and excluded from position and estimate computation.
type QueueEntry struct {
	ID               snowflake.ID      `gorm:"primaryKey"`
	QueueID          snowflake.ID      `gorm:"not null;index:idx_entries_queue_state"`
	Category         string            `gorm:"type:text;not null;index"`
	BusinessID       snowflake.ID      `gorm:"not null;index"`
	BusinessOwnerID  snowflake.ID      `gorm:"not null"`
	SubscriptionID   snowflake.ID      `gorm:"not null;index"`
	PaymentReference string            `gorm:"type:text"`
	State            EntryState        `gorm:"type:text;not null;index:idx_entries_queue_state"`
	Position         int               `gorm:"not null;default:0"`
	SlotStart        *time.Time        `gorm:"index"`
	SlotEnd          *time.Time        `gorm:"index"`
	EstimatedStart   *time.Time        `gorm:""`
	EstimatedEnd     *time.Time        `gorm:""`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (QueueEntry) TableName() string { return "boost_queue_entries" }

// TimeRemaining returns how long the entry's active slot still has to
// run, clamped at zero.
func (e QueueEntry) TimeRemaining(now time.Time) time.Duration {
	if e.State != EntryStateActive || e.SlotEnd == nil {
		return 0
	}
	remaining := e.SlotEnd.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
