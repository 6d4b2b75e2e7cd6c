package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// EnqueueRequest asks for a boost slot in one category. No uniqueness
// is enforced across categories: a business may hold or wait for slots
// in several categories at once.
type EnqueueRequest struct {
	Category         string
	BusinessID       snowflake.ID
	BusinessOwnerID  snowflake.ID
	SubscriptionID   snowflake.ID
	PaymentReference string
}

// ExpireResult reports the outcome of an expire-and-promote transition.
type ExpireResult struct {
	Expired  *QueueEntry
	Promoted *QueueEntry
}

// SweepResult aggregates one sweep pass over all categories.
type SweepResult struct {
	QueuesSwept int
	Expired     int
	Promoted    int
}

// QueueStatus is the admin-facing snapshot of one category's queue.
type QueueStatus struct {
	Category    string
	Active      *QueueEntry
	Pending     []QueueEntry
	Counts      map[EntryState]int
	LastUpdated time.Time
}

// EntryStatus is the buyer-facing view of a single entry.
type EntryStatus struct {
	Entry             QueueEntry
	Position          int
	EstimatedStart    *time.Time
	EstimatedEnd      *time.Time
	IsCurrentlyActive bool
	TimeRemaining     time.Duration
}

// Service owns every transition of a slot queue. Callers never mutate
// entries directly.
type Service interface {
	// Enqueue appends a pending entry, or activates it immediately when
	// the queue has no active and no pending entries.
	Enqueue(ctx context.Context, req EnqueueRequest) (*QueueEntry, error)
	// Cancel removes the business's pending entry from the category
	// queue. Returns false when no pending entry matches.
	Cancel(ctx context.Context, category string, businessID snowflake.ID) (bool, error)
	// PromoteNext activates the head of the pending list. Returns nil
	// when no entry is pending.
	PromoteNext(ctx context.Context, category string) (*QueueEntry, error)
	// ExpireCurrent expires the active entry and chains PromoteNext.
	ExpireCurrent(ctx context.Context, category string) (*ExpireResult, error)
	// SweepExpired expires every active entry whose slot has elapsed,
	// promoting successors. Processes at most limit queues per call.
	SweepExpired(ctx context.Context, limit int) (SweepResult, error)

	QueueStatus(ctx context.Context, category string) (*QueueStatus, error)
	EntryStatus(ctx context.Context, category string, businessID snowflake.ID) (*EntryStatus, error)
}

// Projector propagates queue transitions onto the denormalized business
// and subscription mirrors. It copies fields, it does not decide.
type Projector interface {
	// ProjectEntries writes the mirror fields for every given entry
	// using the provided db handle, so it can join the scheduler's
	// transaction.
	ProjectEntries(ctx context.Context, db *gorm.DB, queue *SlotQueue, entries []QueueEntry) error
	// ResyncQueue re-projects every entry of a category's queue. Used
	// by admin remediation when a mirror is suspected stale.
	ResyncQueue(ctx context.Context, category string) error
}
