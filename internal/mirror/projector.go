// Package mirror keeps the denormalized boost fields on businesses and
// subscriptions in sync with the slot queue.
package mirror

import (
	"context"
	"fmt"
	"time"

	boostdomain "github.com/listora/listora/internal/boost/domain"
	businessdomain "github.com/listora/listora/internal/business/domain"
	"github.com/listora/listora/internal/clock"
	obsmetrics "github.com/listora/listora/internal/observability/metrics"
	subscriptiondomain "github.com/listora/listora/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Projector struct {
	db               *gorm.DB
	log              *zap.Logger
	clock            clock.Clock
	boostRepo        boostdomain.Repository
	businessRepo     businessdomain.Repository
	subscriptionRepo subscriptiondomain.Repository
}

type ProjectorParam struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	Clock            clock.Clock
	BoostRepo        boostdomain.Repository
	BusinessRepo     businessdomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
}

func NewProjector(p ProjectorParam) boostdomain.Projector {
	return &Projector{
		db:               p.DB,
		log:              p.Log.Named("mirror.projector"),
		clock:            p.Clock,
		boostRepo:        p.BoostRepo,
		businessRepo:     p.BusinessRepo,
		subscriptionRepo: p.SubscriptionRepo,
	}
}

// ProjectEntries copies each entry's queue state onto its business and
// subscription rows through the given db handle, so the writes commit
// or roll back with the transition that caused them.
func (p *Projector) ProjectEntries(ctx context.Context, db *gorm.DB, queue *boostdomain.SlotQueue, entries []boostdomain.QueueEntry) error {
	now := p.clock.Now()
	for i := range entries {
		entry := entries[i]
		if err := p.projectEntry(ctx, db, queue, entry, now); err != nil {
			obsmetrics.Sweep().IncProjectionFailure()
			p.log.Error("mirror projection failed",
				zap.String("entry_id", entry.ID.String()),
				zap.String("business_id", entry.BusinessID.String()),
				zap.String("category", entry.Category),
				zap.Error(err),
			)
			return fmt.Errorf("project entry %s: %w", entry.ID, err)
		}
	}
	return nil
}

func (p *Projector) projectEntry(ctx context.Context, db *gorm.DB, queue *boostdomain.SlotQueue, entry boostdomain.QueueEntry, now time.Time) error {
	if err := p.businessRepo.UpdateBoostMirror(ctx, db, entry.BusinessID, businessBoostMirror(entry), now); err != nil {
		return err
	}
	if err := p.subscriptionRepo.UpdateQueueMirror(ctx, db, entry.SubscriptionID, subscriptionQueueMirror(queue, entry), now); err != nil {
		return err
	}
	if status, terminal := subscriptionStatusFor(entry.State); terminal {
		if err := p.subscriptionRepo.UpdateStatus(ctx, db, entry.SubscriptionID, status, now); err != nil {
			return err
		}
	}
	return nil
}

// ResyncQueue re-projects every entry of one category from the
// authoritative queue rows. Admin remediation for mirrors suspected
// stale, e.g. after a partial restore.
func (p *Projector) ResyncQueue(ctx context.Context, category string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queue, err := p.boostRepo.FindQueueByCategoryForUpdate(ctx, tx, category)
		if err != nil {
			return err
		}
		if queue == nil {
			return boostdomain.ErrQueueNotFound
		}
		entries, err := p.boostRepo.FindEntries(ctx, tx, queue.ID)
		if err != nil {
			return err
		}
		if err := p.ProjectEntries(ctx, tx, queue, entries); err != nil {
			return err
		}
		p.log.Info("queue mirrors resynced",
			zap.String("category", category),
			zap.Int("entries", len(entries)),
		)
		return nil
	})
}

// businessBoostMirror derives the listing-facing flags. A pending entry
// already marks the business as boosted so the storefront can badge it,
// but only the active entry lights up the placement.
func businessBoostMirror(entry boostdomain.QueueEntry) businessdomain.BoostMirror {
	switch entry.State {
	case boostdomain.EntryStateActive:
		return businessdomain.BoostMirror{
			IsBoosted:      true,
			IsBoostActive:  true,
			BoostExpiresAt: entry.SlotEnd,
		}
	case boostdomain.EntryStatePending:
		return businessdomain.BoostMirror{IsBoosted: true}
	default:
		return businessdomain.BoostMirror{}
	}
}

func subscriptionQueueMirror(queue *boostdomain.SlotQueue, entry boostdomain.QueueEntry) subscriptiondomain.QueueMirror {
	mirror := subscriptiondomain.QueueMirror{
		SlotStart: entry.SlotStart,
		SlotEnd:   entry.SlotEnd,
	}
	if queue != nil {
		queueID := queue.ID
		mirror.QueueID = &queueID
	}
	switch entry.State {
	case boostdomain.EntryStateActive:
		mirror.IsCurrentlyActive = true
	case boostdomain.EntryStatePending:
		mirror.QueuePosition = entry.Position
		mirror.EstimatedStart = entry.EstimatedStart
		mirror.EstimatedEnd = entry.EstimatedEnd
	}
	return mirror
}

func subscriptionStatusFor(state boostdomain.EntryState) (subscriptiondomain.SubscriptionStatus, bool) {
	switch state {
	case boostdomain.EntryStateExpired:
		return subscriptiondomain.SubscriptionStatusExpired, true
	case boostdomain.EntryStateCancelled:
		return subscriptiondomain.SubscriptionStatusCanceled, true
	default:
		return "", false
	}
}
