package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	boostdomain "github.com/listora/listora/internal/boost/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() boostdomain.Repository {
	return &repo{}
}

func (r *repo) InsertQueue(ctx context.Context, db *gorm.DB, queue *boostdomain.SlotQueue) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO boost_queues (id, category, active_entry_id, last_updated, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		queue.ID,
		queue.Category,
		queue.ActiveEntryID,
		queue.LastUpdated,
		queue.CreatedAt,
		queue.UpdatedAt,
	).Error
}

func (r *repo) FindQueueByCategory(ctx context.Context, db *gorm.DB, category string) (*boostdomain.SlotQueue, error) {
	var queue boostdomain.SlotQueue
	err := db.WithContext(ctx).Raw(
		`SELECT id, category, active_entry_id, last_updated, created_at, updated_at
		 FROM boost_queues
		 WHERE category = ?
		 LIMIT 1`,
		category,
	).Scan(&queue).Error
	if err != nil {
		return nil, err
	}
	if queue.ID == 0 {
		return nil, nil
	}
	return &queue, nil
}

func (r *repo) FindQueueByCategoryForUpdate(ctx context.Context, db *gorm.DB, category string) (*boostdomain.SlotQueue, error) {
	var queue boostdomain.SlotQueue
	err := db.WithContext(ctx).Raw(
		`SELECT id, category, active_entry_id, last_updated, created_at, updated_at
		 FROM boost_queues
		 WHERE category = ?
		 LIMIT 1
		 FOR UPDATE`,
		category,
	).Scan(&queue).Error
	if err != nil {
		return nil, err
	}
	if queue.ID == 0 {
		return nil, nil
	}
	return &queue, nil
}

func (r *repo) FindElapsedQueues(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]boostdomain.SlotQueue, error) {
	var queues []boostdomain.SlotQueue
	err := db.WithContext(ctx).Raw(
		`SELECT q.id, q.category, q.active_entry_id, q.last_updated, q.created_at, q.updated_at
		 FROM boost_queues q
		 JOIN boost_queue_entries e ON e.id = q.active_entry_id
		 WHERE e.state = ? AND e.slot_end <= ?
		 ORDER BY e.slot_end ASC, q.id ASC
		 LIMIT ?
		 FOR UPDATE SKIP LOCKED`,
		boostdomain.EntryStateActive,
		now,
		limit,
	).Scan(&queues).Error
	if err != nil {
		return nil, err
	}
	return queues, nil
}

func (r *repo) SetQueueActive(ctx context.Context, db *gorm.DB, queueID snowflake.ID, activeEntryID *snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE boost_queues
		 SET active_entry_id = ?, last_updated = ?, updated_at = ?
		 WHERE id = ?`,
		activeEntryID,
		now,
		now,
		queueID,
	).Error
}

func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *boostdomain.QueueEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO boost_queue_entries (
			id, queue_id, category, business_id, business_owner_id, subscription_id,
			payment_reference, state, position, slot_start, slot_end,
			estimated_start, estimated_end, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.QueueID,
		entry.Category,
		entry.BusinessID,
		entry.BusinessOwnerID,
		entry.SubscriptionID,
		entry.PaymentReference,
		entry.State,
		entry.Position,
		entry.SlotStart,
		entry.SlotEnd,
		entry.EstimatedStart,
		entry.EstimatedEnd,
		entry.Metadata,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Error
}

const entryColumns = `id, queue_id, category, business_id, business_owner_id, subscription_id,
	payment_reference, state, position, slot_start, slot_end,
	estimated_start, estimated_end, metadata, created_at, updated_at`

func (r *repo) FindEntry(ctx context.Context, db *gorm.DB, entryID snowflake.ID) (*boostdomain.QueueEntry, error) {
	var entry boostdomain.QueueEntry
	err := db.WithContext(ctx).Raw(
		`SELECT `+entryColumns+`
		 FROM boost_queue_entries
		 WHERE id = ?
		 LIMIT 1`,
		entryID,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) FindEntries(ctx context.Context, db *gorm.DB, queueID snowflake.ID) ([]boostdomain.QueueEntry, error) {
	var entries []boostdomain.QueueEntry
	err := db.WithContext(ctx).Raw(
		`SELECT `+entryColumns+`
		 FROM boost_queue_entries
		 WHERE queue_id = ?
		 ORDER BY created_at ASC, id ASC`,
		queueID,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) FindPendingEntries(ctx context.Context, db *gorm.DB, queueID snowflake.ID) ([]boostdomain.QueueEntry, error) {
	var entries []boostdomain.QueueEntry
	err := db.WithContext(ctx).Raw(
		`SELECT `+entryColumns+`
		 FROM boost_queue_entries
		 WHERE queue_id = ? AND state = ?
		 ORDER BY position ASC, created_at ASC, id ASC`,
		queueID,
		boostdomain.EntryStatePending,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) FindActiveEntry(ctx context.Context, db *gorm.DB, queueID snowflake.ID) (*boostdomain.QueueEntry, error) {
	var entry boostdomain.QueueEntry
	err := db.WithContext(ctx).Raw(
		`SELECT `+entryColumns+`
		 FROM boost_queue_entries
		 WHERE queue_id = ? AND state = ?
		 LIMIT 1`,
		queueID,
		boostdomain.EntryStateActive,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) FindPendingEntryByBusiness(ctx context.Context, db *gorm.DB, queueID, businessID snowflake.ID) (*boostdomain.QueueEntry, error) {
	var entry boostdomain.QueueEntry
	err := db.WithContext(ctx).Raw(
		`SELECT `+entryColumns+`
		 FROM boost_queue_entries
		 WHERE queue_id = ? AND business_id = ? AND state = ?
		 ORDER BY position ASC
		 LIMIT 1`,
		queueID,
		businessID,
		boostdomain.EntryStatePending,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) CountEntriesByState(ctx context.Context, db *gorm.DB, queueID snowflake.ID) (map[boostdomain.EntryState]int, error) {
	var rows []struct {
		State boostdomain.EntryState
		Total int
	}
	err := db.WithContext(ctx).Raw(
		`SELECT state, COUNT(1) AS total
		 FROM boost_queue_entries
		 WHERE queue_id = ?
		 GROUP BY state`,
		queueID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[boostdomain.EntryState]int, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Total
	}
	return counts, nil
}

func (r *repo) MarkEntryActive(ctx context.Context, db *gorm.DB, entryID snowflake.ID, slotStart, slotEnd, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE boost_queue_entries
		 SET state = ?, position = 0, slot_start = ?, slot_end = ?,
		     estimated_start = ?, estimated_end = ?, updated_at = ?
		 WHERE id = ? AND state = ?`,
		boostdomain.EntryStateActive,
		slotStart,
		slotEnd,
		slotStart,
		slotEnd,
		now,
		entryID,
		boostdomain.EntryStatePending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkEntryExpired(ctx context.Context, db *gorm.DB, entryID snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE boost_queue_entries
		 SET state = ?, updated_at = ?
		 WHERE id = ? AND state = ?`,
		boostdomain.EntryStateExpired,
		now,
		entryID,
		boostdomain.EntryStateActive,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkEntryCancelled(ctx context.Context, db *gorm.DB, entryID snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE boost_queue_entries
		 SET state = ?, position = 0, updated_at = ?
		 WHERE id = ? AND state = ?`,
		boostdomain.EntryStateCancelled,
		now,
		entryID,
		boostdomain.EntryStatePending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) UpdateEntrySchedule(ctx context.Context, db *gorm.DB, entryID snowflake.ID, position int, estimatedStart, estimatedEnd time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE boost_queue_entries
		 SET position = ?, estimated_start = ?, estimated_end = ?, updated_at = ?
		 WHERE id = ? AND state = ?`,
		position,
		estimatedStart,
		estimatedEnd,
		now,
		entryID,
		boostdomain.EntryStatePending,
	).Error
}
