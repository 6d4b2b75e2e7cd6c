package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists slot queues and their entries. Callers pass the
// *gorm.DB so service-level transactions span every write of one
// logical transition.
type Repository interface {
	InsertQueue(ctx context.Context, db *gorm.DB, queue *SlotQueue) error
	FindQueueByCategory(ctx context.Context, db *gorm.DB, category string) (*SlotQueue, error)
	// FindQueueByCategoryForUpdate locks the queue row; it is the
	// per-category unit of mutual exclusion.
	FindQueueByCategoryForUpdate(ctx context.Context, db *gorm.DB, category string) (*SlotQueue, error)
	// FindElapsedQueues returns queues whose active entry has
	// slot_end <= now, skipping rows locked by concurrent sweepers.
	FindElapsedQueues(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]SlotQueue, error)
	SetQueueActive(ctx context.Context, db *gorm.DB, queueID snowflake.ID, activeEntryID *snowflake.ID, now time.Time) error

	InsertEntry(ctx context.Context, db *gorm.DB, entry *QueueEntry) error
	FindEntry(ctx context.Context, db *gorm.DB, entryID snowflake.ID) (*QueueEntry, error)
	FindEntries(ctx context.Context, db *gorm.DB, queueID snowflake.ID) ([]QueueEntry, error)
	// FindPendingEntries returns pending entries ordered by position.
	FindPendingEntries(ctx context.Context, db *gorm.DB, queueID snowflake.ID) ([]QueueEntry, error)
	FindActiveEntry(ctx context.Context, db *gorm.DB, queueID snowflake.ID) (*QueueEntry, error)
	FindPendingEntryByBusiness(ctx context.Context, db *gorm.DB, queueID, businessID snowflake.ID) (*QueueEntry, error)
	CountEntriesByState(ctx context.Context, db *gorm.DB, queueID snowflake.ID) (map[EntryState]int, error)

	// MarkEntryActive flips a pending entry to active. Returns false
	// when the entry was not pending anymore.
	MarkEntryActive(ctx context.Context, db *gorm.DB, entryID snowflake.ID, slotStart, slotEnd, now time.Time) (bool, error)
	// MarkEntryExpired flips an active entry to expired. Returns false
	// when the entry was not active anymore.
	MarkEntryExpired(ctx context.Context, db *gorm.DB, entryID snowflake.ID, now time.Time) (bool, error)
	// MarkEntryCancelled flips a pending entry to cancelled. Returns
	// false when the entry was not pending anymore.
	MarkEntryCancelled(ctx context.Context, db *gorm.DB, entryID snowflake.ID, now time.Time) (bool, error)
	UpdateEntrySchedule(ctx context.Context, db *gorm.DB, entryID snowflake.ID, position int, estimatedStart, estimatedEnd time.Time, now time.Time) error
}
