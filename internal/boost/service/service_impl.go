package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	boostdomain "github.com/listora/listora/internal/boost/domain"
	"github.com/listora/listora/internal/clock"
	obsmetrics "github.com/listora/listora/internal/observability/metrics"
	"github.com/listora/listora/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service implements boostdomain.Service. Every mutation runs inside a
// transaction holding the queue row lock, so transitions within one
// category are serialized while categories proceed independently.
type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      boostdomain.Repository
	projector boostdomain.Projector
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      boostdomain.Repository
	Projector boostdomain.Projector
}

func NewService(p ServiceParam) (boostdomain.Service, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.Repo == nil || p.Projector == nil {
		return nil, boostdomain.ErrInvalidConfig
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("boost.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		projector: p.Projector,
	}, nil
}

func (s *Service) Enqueue(ctx context.Context, req boostdomain.EnqueueRequest) (*boostdomain.QueueEntry, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, boostdomain.ErrInvalidCategory
	}
	if req.BusinessID == 0 {
		return nil, boostdomain.ErrInvalidBusiness
	}

	var entry *boostdomain.QueueEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queue, err := s.lockOrCreateQueue(ctx, tx, category)
		if err != nil {
			return err
		}

		active, err := s.repo.FindActiveEntry(ctx, tx, queue.ID)
		if err != nil {
			return err
		}
		if active != nil && active.BusinessID == req.BusinessID {
			return boostdomain.ErrAlreadyQueued
		}
		existing, err := s.repo.FindPendingEntryByBusiness(ctx, tx, queue.ID, req.BusinessID)
		if err != nil {
			return err
		}
		if existing != nil {
			return boostdomain.ErrAlreadyQueued
		}

		pending, err := s.repo.FindPendingEntries(ctx, tx, queue.ID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		anchor := estimateAnchor(active, now)
		estimatedStart := anchor.Add(boostdomain.SlotDuration * time.Duration(len(pending)))
		estimatedEnd := estimatedStart.Add(boostdomain.SlotDuration)

		entry = &boostdomain.QueueEntry{
			ID:               s.genID.Generate(),
			QueueID:          queue.ID,
			Category:         category,
			BusinessID:       req.BusinessID,
			BusinessOwnerID:  req.BusinessOwnerID,
			SubscriptionID:   req.SubscriptionID,
			PaymentReference: req.PaymentReference,
			State:            boostdomain.EntryStatePending,
			Position:         len(pending) + 1,
			EstimatedStart:   &estimatedStart,
			EstimatedEnd:     &estimatedEnd,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.repo.InsertEntry(ctx, tx, entry); err != nil {
			return err
		}

		affected := []boostdomain.QueueEntry{*entry}

		// Empty-queue fast path: the new entry is promoted in the same
		// transaction instead of waiting for a sweep.
		if active == nil && len(pending) == 0 {
			promoted, rescheduled, err := s.promoteHead(ctx, tx, queue, now)
			if err != nil {
				return err
			}
			affected = append(rescheduled, *promoted)
			entry = promoted
		} else {
			if err := s.repo.SetQueueActive(ctx, tx, queue.ID, queue.ActiveEntryID, now); err != nil {
				return err
			}
		}

		return s.projector.ProjectEntries(ctx, tx, queue, affected)
	})
	if err != nil {
		return nil, err
	}

	if entry.State == boostdomain.EntryStateActive {
		obsmetrics.Sweep().IncEntryTransition(
			string(boostdomain.EntryStatePending),
			string(boostdomain.EntryStateActive),
		)
	}
	s.log.Info("boost.entry.enqueued",
		zap.String("category", category),
		zap.String("entry_id", entry.ID.String()),
		zap.String("business_id", entry.BusinessID.String()),
		zap.String("state", string(entry.State)),
		zap.Int("position", entry.Position),
	)
	return entry, nil
}

func (s *Service) Cancel(ctx context.Context, category string, businessID snowflake.ID) (bool, error) {
	if businessID == 0 {
		return false, boostdomain.ErrInvalidBusiness
	}

	cancelled := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queue, err := s.repo.FindQueueByCategoryForUpdate(ctx, tx, category)
		if err != nil {
			return err
		}
		if queue == nil {
			return boostdomain.ErrQueueNotFound
		}

		entry, err := s.repo.FindPendingEntryByBusiness(ctx, tx, queue.ID, businessID)
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}

		now := s.clock.Now()
		ok, err := s.repo.MarkEntryCancelled(ctx, tx, entry.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cancelled = true
		entry.State = boostdomain.EntryStateCancelled
		entry.Position = 0

		active, err := s.repo.FindActiveEntry(ctx, tx, queue.ID)
		if err != nil {
			return err
		}
		pending, err := s.repo.FindPendingEntries(ctx, tx, queue.ID)
		if err != nil {
			return err
		}
		rescheduled, err := s.reschedulePending(ctx, tx, pending, estimateAnchor(active, now), now)
		if err != nil {
			return err
		}
		if err := s.repo.SetQueueActive(ctx, tx, queue.ID, queue.ActiveEntryID, now); err != nil {
			return err
		}
		return s.projector.ProjectEntries(ctx, tx, queue, append(rescheduled, *entry))
	})
	if err != nil {
		return false, err
	}

	if cancelled {
		obsmetrics.Sweep().IncEntryTransition(
			string(boostdomain.EntryStatePending),
			string(boostdomain.EntryStateCancelled),
		)
		s.log.Info("boost.entry.cancelled",
			zap.String("category", category),
			zap.String("business_id", businessID.String()),
		)
	}
	return cancelled, nil
}

func (s *Service) PromoteNext(ctx context.Context, category string) (*boostdomain.QueueEntry, error) {
	var promoted *boostdomain.QueueEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queue, err := s.repo.FindQueueByCategoryForUpdate(ctx, tx, category)
		if err != nil {
			return err
		}
		if queue == nil {
			return boostdomain.ErrQueueNotFound
		}

		active, err := s.repo.FindActiveEntry(ctx, tx, queue.ID)
		if err != nil {
			return err
		}
		if active != nil {
			return boostdomain.ErrActiveEntryExists
		}

		now := s.clock.Now()
		head, rescheduled, err := s.promoteHead(ctx, tx, queue, now)
		if err != nil {
			return err
		}
		promoted = head
		if head == nil {
			return nil
		}
		return s.projector.ProjectEntries(ctx, tx, queue, append(rescheduled, *head))
	})
	if err != nil {
		return nil, err
	}

	if promoted != nil {
		obsmetrics.Sweep().IncEntryTransition(
			string(boostdomain.EntryStatePending),
			string(boostdomain.EntryStateActive),
		)
		s.log.Info("boost.entry.promoted",
			zap.String("category", category),
			zap.String("entry_id", promoted.ID.String()),
			zap.String("business_id", promoted.BusinessID.String()),
			zap.Timep("slot_end", promoted.SlotEnd),
		)
	}
	return promoted, nil
}

func (s *Service) ExpireCurrent(ctx context.Context, category string) (*boostdomain.ExpireResult, error) {
	result, err := s.expireAndPromote(ctx, category, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) SweepExpired(ctx context.Context, limit int) (boostdomain.SweepResult, error) {
	if limit <= 0 {
		limit = 50
	}

	var queues []boostdomain.SlotQueue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		queues, err = s.repo.FindElapsedQueues(ctx, tx, s.clock.Now(), limit)
		return err
	})
	if err != nil {
		return boostdomain.SweepResult{}, err
	}

	result := boostdomain.SweepResult{}
	var sweepErr error
	for _, queue := range queues {
		if ctx.Err() != nil {
			sweepErr = errors.Join(sweepErr, ctx.Err())
			break
		}
		expired, err := s.expireAndPromote(ctx, queue.Category, true)
		if err != nil {
			sweepErr = errors.Join(sweepErr, err)
			continue
		}
		if expired == nil || expired.Expired == nil {
			// Another worker got there first; nothing to do.
			continue
		}
		result.QueuesSwept++
		result.Expired++
		if expired.Promoted != nil {
			result.Promoted++
		}
	}
	return result, sweepErr
}

// expireAndPromote is the single unit behind both the sweep and the
// admin trigger. When elapsedOnly is set, an active entry whose slot
// has not ended yet is left alone, which makes the sweep idempotent.
func (s *Service) expireAndPromote(ctx context.Context, category string, elapsedOnly bool) (*boostdomain.ExpireResult, error) {
	var result *boostdomain.ExpireResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queue, err := s.repo.FindQueueByCategoryForUpdate(ctx, tx, category)
		if err != nil {
			return err
		}
		if queue == nil {
			return boostdomain.ErrQueueNotFound
		}

		active, err := s.repo.FindActiveEntry(ctx, tx, queue.ID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if active == nil {
			if elapsedOnly {
				result = &boostdomain.ExpireResult{}
				return nil
			}
			return boostdomain.ErrNoActiveEntry
		}
		if elapsedOnly && (active.SlotEnd == nil || active.SlotEnd.After(now)) {
			result = &boostdomain.ExpireResult{}
			return nil
		}

		ok, err := s.repo.MarkEntryExpired(ctx, tx, active.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			result = &boostdomain.ExpireResult{}
			return nil
		}
		active.State = boostdomain.EntryStateExpired
		queue.ActiveEntryID = nil

		promoted, rescheduled, err := s.promoteHead(ctx, tx, queue, now)
		if err != nil {
			return err
		}

		affected := append(rescheduled, *active)
		if promoted != nil {
			affected = append(affected, *promoted)
		}
		result = &boostdomain.ExpireResult{Expired: active, Promoted: promoted}
		return s.projector.ProjectEntries(ctx, tx, queue, affected)
	})
	if err != nil {
		return nil, err
	}

	if result.Expired != nil {
		obsmetrics.Sweep().IncEntryTransition(
			string(boostdomain.EntryStateActive),
			string(boostdomain.EntryStateExpired),
		)
		fields := []zap.Field{
			zap.String("category", category),
			zap.String("expired_entry_id", result.Expired.ID.String()),
			zap.String("expired_business_id", result.Expired.BusinessID.String()),
		}
		if result.Promoted != nil {
			obsmetrics.Sweep().IncEntryTransition(
				string(boostdomain.EntryStatePending),
				string(boostdomain.EntryStateActive),
			)
			fields = append(fields,
				zap.String("promoted_entry_id", result.Promoted.ID.String()),
				zap.String("promoted_business_id", result.Promoted.BusinessID.String()),
			)
		}
		s.log.Info("boost.slot.expired", fields...)
	}
	return result, nil
}

func (s *Service) QueueStatus(ctx context.Context, category string) (*boostdomain.QueueStatus, error) {
	queue, err := s.repo.FindQueueByCategory(ctx, s.db, category)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		return nil, boostdomain.ErrQueueNotFound
	}

	active, err := s.repo.FindActiveEntry(ctx, s.db, queue.ID)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.FindPendingEntries(ctx, s.db, queue.ID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountEntriesByState(ctx, s.db, queue.ID)
	if err != nil {
		return nil, err
	}

	obsmetrics.Sweep().SetQueueDepth(queue.Category, len(pending))

	return &boostdomain.QueueStatus{
		Category:    queue.Category,
		Active:      active,
		Pending:     pending,
		Counts:      counts,
		LastUpdated: queue.LastUpdated,
	}, nil
}

func (s *Service) EntryStatus(ctx context.Context, category string, businessID snowflake.ID) (*boostdomain.EntryStatus, error) {
	queue, err := s.repo.FindQueueByCategory(ctx, s.db, category)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		return nil, boostdomain.ErrQueueNotFound
	}

	entries, err := s.repo.FindEntries(ctx, s.db, queue.ID)
	if err != nil {
		return nil, err
	}

	// Prefer the live entry; fall back to the most recent terminal one.
	var match *boostdomain.QueueEntry
	for i := range entries {
		entry := &entries[i]
		if entry.BusinessID != businessID {
			continue
		}
		if !entry.State.Terminal() {
			match = entry
			break
		}
		match = entry
	}
	if match == nil {
		return nil, boostdomain.ErrEntryNotFound
	}

	return &boostdomain.EntryStatus{
		Entry:             *match,
		Position:          match.Position,
		EstimatedStart:    match.EstimatedStart,
		EstimatedEnd:      match.EstimatedEnd,
		IsCurrentlyActive: match.State == boostdomain.EntryStateActive,
		TimeRemaining:     match.TimeRemaining(s.clock.Now()),
	}, nil
}

// lockOrCreateQueue returns the locked queue for the category, creating
// it on first enqueue. A duplicate-key error means another transaction
// created it concurrently; lock that one instead.
func (s *Service) lockOrCreateQueue(ctx context.Context, tx *gorm.DB, category string) (*boostdomain.SlotQueue, error) {
	queue, err := s.repo.FindQueueByCategoryForUpdate(ctx, tx, category)
	if err != nil {
		return nil, err
	}
	if queue != nil {
		return queue, nil
	}

	now := s.clock.Now()
	queue = &boostdomain.SlotQueue{
		ID:          s.genID.Generate(),
		Category:    category,
		LastUpdated: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertQueue(ctx, tx, queue); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		queue, err = s.repo.FindQueueByCategoryForUpdate(ctx, tx, category)
		if err != nil {
			return nil, err
		}
		if queue == nil {
			return nil, boostdomain.ErrQueueNotFound
		}
	}
	return queue, nil
}

// promoteHead activates the head of the pending list and reschedules
// the rest. Caller must hold the queue lock and have verified there is
// no active entry.
func (s *Service) promoteHead(ctx context.Context, tx *gorm.DB, queue *boostdomain.SlotQueue, now time.Time) (*boostdomain.QueueEntry, []boostdomain.QueueEntry, error) {
	pending, err := s.repo.FindPendingEntries(ctx, tx, queue.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(pending) == 0 {
		queue.ActiveEntryID = nil
		if err := s.repo.SetQueueActive(ctx, tx, queue.ID, nil, now); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}

	head := pending[0]
	slotStart := now
	slotEnd := now.Add(boostdomain.SlotDuration)
	ok, err := s.repo.MarkEntryActive(ctx, tx, head.ID, slotStart, slotEnd, now)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, boostdomain.ErrEntryNotFound
	}
	head.State = boostdomain.EntryStateActive
	head.Position = 0
	head.SlotStart = &slotStart
	head.SlotEnd = &slotEnd
	head.EstimatedStart = &slotStart
	head.EstimatedEnd = &slotEnd

	queue.ActiveEntryID = &head.ID
	if err := s.repo.SetQueueActive(ctx, tx, queue.ID, &head.ID, now); err != nil {
		return nil, nil, err
	}

	rescheduled, err := s.reschedulePending(ctx, tx, pending[1:], slotEnd, now)
	if err != nil {
		return nil, nil, err
	}
	return &head, rescheduled, nil
}

// reschedulePending rewrites positions 1..N and chains the estimates
// off the anchor (the active slot's end, or now when none is active).
func (s *Service) reschedulePending(ctx context.Context, tx *gorm.DB, pending []boostdomain.QueueEntry, anchor time.Time, now time.Time) ([]boostdomain.QueueEntry, error) {
	rescheduled := make([]boostdomain.QueueEntry, 0, len(pending))
	for i := range pending {
		entry := pending[i]
		position := i + 1
		estimatedStart := anchor.Add(boostdomain.SlotDuration * time.Duration(i))
		estimatedEnd := estimatedStart.Add(boostdomain.SlotDuration)
		if err := s.repo.UpdateEntrySchedule(ctx, tx, entry.ID, position, estimatedStart, estimatedEnd, now); err != nil {
			return nil, err
		}
		entry.Position = position
		entry.EstimatedStart = &estimatedStart
		entry.EstimatedEnd = &estimatedEnd
		rescheduled = append(rescheduled, entry)
	}
	return rescheduled, nil
}

func estimateAnchor(active *boostdomain.QueueEntry, now time.Time) time.Time {
	if active != nil && active.SlotEnd != nil {
		return *active.SlotEnd
	}
	return now
}
