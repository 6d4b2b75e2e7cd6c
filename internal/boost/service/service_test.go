package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	boostdomain "github.com/listora/listora/internal/boost/domain"
	boostrepository "github.com/listora/listora/internal/boost/repository"
	businessdomain "github.com/listora/listora/internal/business/domain"
	businessrepository "github.com/listora/listora/internal/business/repository"
	"github.com/listora/listora/internal/clock"
	"github.com/listora/listora/internal/mirror"
	subscriptiondomain "github.com/listora/listora/internal/subscription/domain"
	subscriptionrepository "github.com/listora/listora/internal/subscription/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db               *gorm.DB
	clock            *clock.FakeClock
	node             *snowflake.Node
	svc              boostdomain.Service
	boostRepo        boostdomain.Repository
	businessRepo     businessdomain.Repository
	subscriptionRepo subscriptiondomain.Repository
}

var testStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := openTestDB(t)
	createTestSchema(t, db)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(testStart)

	boostRepo := boostrepository.Provide()
	businessRepo := businessrepository.Provide()
	subscriptionRepo := subscriptionrepository.Provide()

	projector := mirror.NewProjector(mirror.ProjectorParam{
		DB:               db,
		Log:              zap.NewNop(),
		Clock:            fakeClock,
		BoostRepo:        boostRepo,
		BusinessRepo:     businessRepo,
		SubscriptionRepo: subscriptionRepo,
	})

	svc, err := NewService(ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fakeClock,
		Repo:      boostRepo,
		Projector: projector,
	})
	require.NoError(t, err)

	return &testEnv{
		db:               db,
		clock:            fakeClock,
		node:             node,
		svc:              svc,
		boostRepo:        boostRepo,
		businessRepo:     businessRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	// SQLite support hack: remove FOR UPDATE clauses
	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
			newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripForUpdate))
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripForUpdate))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func createTestSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	statements := []string{
		`CREATE TABLE businesses (
			id INTEGER PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			is_boosted INTEGER NOT NULL DEFAULT 0,
			is_boost_active INTEGER NOT NULL DEFAULT 0,
			boost_expires_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE boost_queues (
			id INTEGER PRIMARY KEY,
			category TEXT NOT NULL UNIQUE,
			active_entry_id INTEGER,
			last_updated DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE boost_queue_entries (
			id INTEGER PRIMARY KEY,
			queue_id INTEGER NOT NULL,
			category TEXT NOT NULL,
			business_id INTEGER NOT NULL,
			business_owner_id INTEGER NOT NULL,
			subscription_id INTEGER NOT NULL,
			payment_reference TEXT,
			state TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			slot_start DATETIME,
			slot_end DATETIME,
			estimated_start DATETIME,
			estimated_end DATETIME,
			metadata TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE boost_subscriptions (
			id INTEGER PRIMARY KEY,
			business_id INTEGER NOT NULL,
			business_owner_id INTEGER NOT NULL,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			payment_reference TEXT,
			queue_id INTEGER,
			queue_position INTEGER NOT NULL DEFAULT 0,
			estimated_start DATETIME,
			estimated_end DATETIME,
			is_currently_active INTEGER NOT NULL DEFAULT 0,
			slot_start DATETIME,
			slot_end DATETIME,
			metadata TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
}

type seededBusiness struct {
	BusinessID     snowflake.ID
	OwnerID        snowflake.ID
	SubscriptionID snowflake.ID
}

func (env *testEnv) seedBusiness(t *testing.T, name, category string) seededBusiness {
	t.Helper()

	now := env.clock.Now()
	business := &businessdomain.Business{
		ID:        env.node.Generate(),
		OwnerID:   env.node.Generate(),
		Name:      name,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, env.businessRepo.Insert(context.Background(), env.db, business))

	subscription := &subscriptiondomain.Subscription{
		ID:              env.node.Generate(),
		BusinessID:      business.ID,
		BusinessOwnerID: business.OwnerID,
		Category:        category,
		Status:          subscriptiondomain.SubscriptionStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, env.subscriptionRepo.Insert(context.Background(), env.db, subscription))

	return seededBusiness{
		BusinessID:     business.ID,
		OwnerID:        business.OwnerID,
		SubscriptionID: subscription.ID,
	}
}

func (env *testEnv) enqueue(t *testing.T, category string, seed seededBusiness) *boostdomain.QueueEntry {
	t.Helper()

	entry, err := env.svc.Enqueue(context.Background(), boostdomain.EnqueueRequest{
		Category:        category,
		BusinessID:      seed.BusinessID,
		BusinessOwnerID: seed.OwnerID,
		SubscriptionID:  seed.SubscriptionID,
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	return entry
}

func (env *testEnv) business(t *testing.T, id snowflake.ID) businessdomain.Business {
	t.Helper()
	business, err := env.businessRepo.FindByID(context.Background(), env.db, id)
	require.NoError(t, err)
	require.NotNil(t, business)
	return *business
}

func (env *testEnv) subscription(t *testing.T, id snowflake.ID) subscriptiondomain.Subscription {
	t.Helper()
	subscription, err := env.subscriptionRepo.FindByID(context.Background(), env.db, id)
	require.NoError(t, err)
	require.NotNil(t, subscription)
	return *subscription
}

func TestEnqueueEmptyQueueActivatesImmediately(t *testing.T) {
	env := newTestEnv(t)
	seed := env.seedBusiness(t, "Aurora Cafe", "restaurants")

	entry := env.enqueue(t, "restaurants", seed)

	assert.Equal(t, boostdomain.EntryStateActive, entry.State)
	assert.Equal(t, 0, entry.Position)
	require.NotNil(t, entry.SlotStart)
	require.NotNil(t, entry.SlotEnd)
	assert.True(t, entry.SlotStart.Equal(testStart))
	assert.True(t, entry.SlotEnd.Equal(testStart.Add(boostdomain.SlotDuration)))

	business := env.business(t, seed.BusinessID)
	assert.True(t, business.IsBoosted)
	assert.True(t, business.IsBoostActive)
	require.NotNil(t, business.BoostExpiresAt)
	assert.True(t, business.BoostExpiresAt.Equal(*entry.SlotEnd))

	subscription := env.subscription(t, seed.SubscriptionID)
	assert.True(t, subscription.IsCurrentlyActive)
	assert.Equal(t, 0, subscription.QueuePosition)
	require.NotNil(t, subscription.SlotEnd)
	assert.True(t, subscription.SlotEnd.Equal(*entry.SlotEnd))
}

func TestEnqueueBehindActiveGetsPositionAndEstimates(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	second := env.seedBusiness(t, "Bistro Nine", "restaurants")
	third := env.seedBusiness(t, "Corner Deli", "restaurants")

	active := env.enqueue(t, "restaurants", first)
	env.clock.Advance(2 * time.Hour)

	entryB := env.enqueue(t, "restaurants", second)
	assert.Equal(t, boostdomain.EntryStatePending, entryB.State)
	assert.Equal(t, 1, entryB.Position)
	require.NotNil(t, entryB.EstimatedStart)
	assert.True(t, entryB.EstimatedStart.Equal(*active.SlotEnd))
	assert.True(t, entryB.EstimatedEnd.Equal(active.SlotEnd.Add(boostdomain.SlotDuration)))

	entryC := env.enqueue(t, "restaurants", third)
	assert.Equal(t, 2, entryC.Position)
	assert.True(t, entryC.EstimatedStart.Equal(active.SlotEnd.Add(boostdomain.SlotDuration)))
	assert.True(t, entryC.EstimatedEnd.Equal(active.SlotEnd.Add(2*boostdomain.SlotDuration)))

	subscription := env.subscription(t, third.SubscriptionID)
	assert.Equal(t, 2, subscription.QueuePosition)
	assert.False(t, subscription.IsCurrentlyActive)

	// Queued but not yet placed
	business := env.business(t, third.BusinessID)
	assert.True(t, business.IsBoosted)
	assert.False(t, business.IsBoostActive)
}

func TestEnqueueRejectsDuplicateBusiness(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	second := env.seedBusiness(t, "Bistro Nine", "restaurants")

	env.enqueue(t, "restaurants", first)
	env.enqueue(t, "restaurants", second)

	// Active duplicate
	_, err := env.svc.Enqueue(context.Background(), boostdomain.EnqueueRequest{
		Category:       "restaurants",
		BusinessID:     first.BusinessID,
		SubscriptionID: env.node.Generate(),
	})
	assert.ErrorIs(t, err, boostdomain.ErrAlreadyQueued)

	// Pending duplicate
	_, err = env.svc.Enqueue(context.Background(), boostdomain.EnqueueRequest{
		Category:       "restaurants",
		BusinessID:     second.BusinessID,
		SubscriptionID: env.node.Generate(),
	})
	assert.ErrorIs(t, err, boostdomain.ErrAlreadyQueued)
}

func TestEnqueueAllowsSameBusinessAcrossCategories(t *testing.T) {
	env := newTestEnv(t)
	seed := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	other := env.seedBusiness(t, "Aurora Catering", "catering")
	other.BusinessID = seed.BusinessID

	entryA := env.enqueue(t, "restaurants", seed)
	entryB := env.enqueue(t, "catering", other)

	assert.Equal(t, boostdomain.EntryStateActive, entryA.State)
	assert.Equal(t, boostdomain.EntryStateActive, entryB.State)
}

func TestEnqueueValidatesInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Enqueue(context.Background(), boostdomain.EnqueueRequest{
		Category:   "  ",
		BusinessID: env.node.Generate(),
	})
	assert.ErrorIs(t, err, boostdomain.ErrInvalidCategory)

	_, err = env.svc.Enqueue(context.Background(), boostdomain.EnqueueRequest{
		Category: "restaurants",
	})
	assert.ErrorIs(t, err, boostdomain.ErrInvalidBusiness)
}

func TestCancelPendingReschedulesSuccessors(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	second := env.seedBusiness(t, "Bistro Nine", "restaurants")
	third := env.seedBusiness(t, "Corner Deli", "restaurants")

	active := env.enqueue(t, "restaurants", first)
	env.enqueue(t, "restaurants", second)
	entryC := env.enqueue(t, "restaurants", third)
	require.Equal(t, 2, entryC.Position)

	cancelled, err := env.svc.Cancel(context.Background(), "restaurants", second.BusinessID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	status, err := env.svc.QueueStatus(context.Background(), "restaurants")
	require.NoError(t, err)
	require.Len(t, status.Pending, 1)
	assert.Equal(t, third.BusinessID, status.Pending[0].BusinessID)
	assert.Equal(t, 1, status.Pending[0].Position)
	assert.True(t, status.Pending[0].EstimatedStart.Equal(*active.SlotEnd))

	// Cancelled entry's mirrors are cleared
	business := env.business(t, second.BusinessID)
	assert.False(t, business.IsBoosted)
	assert.False(t, business.IsBoostActive)
	subscription := env.subscription(t, second.SubscriptionID)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusCanceled, subscription.Status)
	assert.Equal(t, 0, subscription.QueuePosition)
}

func TestCancelReturnsFalseWhenNothingPending(t *testing.T) {
	env := newTestEnv(t)
	seed := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	env.enqueue(t, "restaurants", seed)

	// The active entry is not cancellable, only pending ones are.
	cancelled, err := env.svc.Cancel(context.Background(), "restaurants", seed.BusinessID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	cancelled, err = env.svc.Cancel(context.Background(), "restaurants", env.node.Generate())
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCancelUnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Cancel(context.Background(), "ghost-town", env.node.Generate())
	assert.ErrorIs(t, err, boostdomain.ErrQueueNotFound)
}

func TestExpireCurrentPromotesHead(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	second := env.seedBusiness(t, "Bistro Nine", "restaurants")
	third := env.seedBusiness(t, "Corner Deli", "restaurants")

	env.enqueue(t, "restaurants", first)
	env.enqueue(t, "restaurants", second)
	env.enqueue(t, "restaurants", third)

	env.clock.Advance(6 * time.Hour)
	now := env.clock.Now()

	// Admin override expires the slot even though it has not elapsed.
	result, err := env.svc.ExpireCurrent(context.Background(), "restaurants")
	require.NoError(t, err)
	require.NotNil(t, result.Expired)
	require.NotNil(t, result.Promoted)
	assert.Equal(t, first.BusinessID, result.Expired.BusinessID)
	assert.Equal(t, second.BusinessID, result.Promoted.BusinessID)
	assert.True(t, result.Promoted.SlotStart.Equal(now))
	assert.True(t, result.Promoted.SlotEnd.Equal(now.Add(boostdomain.SlotDuration)))

	status, err := env.svc.QueueStatus(context.Background(), "restaurants")
	require.NoError(t, err)
	require.Len(t, status.Pending, 1)
	assert.Equal(t, third.BusinessID, status.Pending[0].BusinessID)
	assert.Equal(t, 1, status.Pending[0].Position)
	assert.True(t, status.Pending[0].EstimatedStart.Equal(now.Add(boostdomain.SlotDuration)))

	// Expired business loses the placement, promoted one gains it.
	assert.False(t, env.business(t, first.BusinessID).IsBoostActive)
	assert.True(t, env.business(t, second.BusinessID).IsBoostActive)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusExpired, env.subscription(t, first.SubscriptionID).Status)
}

func TestExpireCurrentRequiresActiveEntry(t *testing.T) {
	env := newTestEnv(t)
	seed := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	env.enqueue(t, "restaurants", seed)

	env.clock.Advance(boostdomain.SlotDuration + time.Minute)
	_, err := env.svc.ExpireCurrent(context.Background(), "restaurants")
	require.NoError(t, err)

	// Queue now drained
	_, err = env.svc.ExpireCurrent(context.Background(), "restaurants")
	assert.ErrorIs(t, err, boostdomain.ErrNoActiveEntry)
}

func TestPromoteNextConflictsWithActiveEntry(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	second := env.seedBusiness(t, "Bistro Nine", "restaurants")

	env.enqueue(t, "restaurants", first)
	env.enqueue(t, "restaurants", second)

	_, err := env.svc.PromoteNext(context.Background(), "restaurants")
	assert.ErrorIs(t, err, boostdomain.ErrActiveEntryExists)
}

func TestPromoteNextEmptyQueueIsNoop(t *testing.T) {
	env := newTestEnv(t)
	seed := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	env.enqueue(t, "restaurants", seed)

	env.clock.Advance(boostdomain.SlotDuration)
	_, err := env.svc.ExpireCurrent(context.Background(), "restaurants")
	require.NoError(t, err)

	promoted, err := env.svc.PromoteNext(context.Background(), "restaurants")
	require.NoError(t, err)
	assert.Nil(t, promoted)
}

func TestSweepExpiredPromotesAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	second := env.seedBusiness(t, "Bistro Nine", "restaurants")

	env.enqueue(t, "restaurants", first)
	env.enqueue(t, "restaurants", second)

	// Slot has not elapsed: sweep finds nothing.
	result, err := env.svc.SweepExpired(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, result.QueuesSwept)

	env.clock.Advance(boostdomain.SlotDuration + time.Minute)

	result, err = env.svc.SweepExpired(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.QueuesSwept)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.Promoted)

	// Running again immediately does nothing.
	result, err = env.svc.SweepExpired(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, result.QueuesSwept)
	assert.Zero(t, result.Expired)

	status, err := env.svc.QueueStatus(context.Background(), "restaurants")
	require.NoError(t, err)
	require.NotNil(t, status.Active)
	assert.Equal(t, second.BusinessID, status.Active.BusinessID)
	assert.Empty(t, status.Pending)
}

func TestSweepExpiredSpansCategories(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	plumber := env.seedBusiness(t, "Pipe Dreams", "plumbing")

	env.enqueue(t, "restaurants", restaurant)
	env.enqueue(t, "plumbing", plumber)

	env.clock.Advance(boostdomain.SlotDuration + time.Minute)

	result, err := env.svc.SweepExpired(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.QueuesSwept)
	assert.Equal(t, 2, result.Expired)
	assert.Zero(t, result.Promoted)

	for _, category := range []string{"restaurants", "plumbing"} {
		status, err := env.svc.QueueStatus(context.Background(), category)
		require.NoError(t, err)
		assert.Nil(t, status.Active)
		assert.Empty(t, status.Pending)
	}
}

func TestQueueStatusCountsAndEntryStatus(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedBusiness(t, "Aurora Cafe", "restaurants")
	second := env.seedBusiness(t, "Bistro Nine", "restaurants")

	env.enqueue(t, "restaurants", first)
	env.enqueue(t, "restaurants", second)

	env.clock.Advance(10 * time.Hour)

	status, err := env.svc.QueueStatus(context.Background(), "restaurants")
	require.NoError(t, err)
	assert.Equal(t, "restaurants", status.Category)
	require.NotNil(t, status.Active)
	assert.Equal(t, first.BusinessID, status.Active.BusinessID)
	assert.Equal(t, 1, status.Counts[boostdomain.EntryStateActive])
	assert.Equal(t, 1, status.Counts[boostdomain.EntryStatePending])

	activeStatus, err := env.svc.EntryStatus(context.Background(), "restaurants", first.BusinessID)
	require.NoError(t, err)
	assert.True(t, activeStatus.IsCurrentlyActive)
	assert.Equal(t, 14*time.Hour, activeStatus.TimeRemaining)

	pendingStatus, err := env.svc.EntryStatus(context.Background(), "restaurants", second.BusinessID)
	require.NoError(t, err)
	assert.False(t, pendingStatus.IsCurrentlyActive)
	assert.Equal(t, 1, pendingStatus.Position)
	assert.Zero(t, pendingStatus.TimeRemaining)

	_, err = env.svc.EntryStatus(context.Background(), "restaurants", env.node.Generate())
	assert.ErrorIs(t, err, boostdomain.ErrEntryNotFound)

	_, err = env.svc.QueueStatus(context.Background(), "ghost-town")
	assert.ErrorIs(t, err, boostdomain.ErrQueueNotFound)
}

func TestEntryStatusPrefersLiveEntryOverTerminal(t *testing.T) {
	env := newTestEnv(t)
	seed := env.seedBusiness(t, "Aurora Cafe", "restaurants")

	env.enqueue(t, "restaurants", seed)
	env.clock.Advance(boostdomain.SlotDuration)
	_, err := env.svc.ExpireCurrent(context.Background(), "restaurants")
	require.NoError(t, err)

	// Re-purchase after expiry: the new pending/active entry wins.
	again := seed
	again.SubscriptionID = env.node.Generate()
	seedSubscriptionRow(t, env, again)
	entry := env.enqueue(t, "restaurants", again)
	require.Equal(t, boostdomain.EntryStateActive, entry.State)

	status, err := env.svc.EntryStatus(context.Background(), "restaurants", seed.BusinessID)
	require.NoError(t, err)
	assert.Equal(t, boostdomain.EntryStateActive, status.Entry.State)
	assert.True(t, status.IsCurrentlyActive)
}

func seedSubscriptionRow(t *testing.T, env *testEnv, seed seededBusiness) {
	t.Helper()
	now := env.clock.Now()
	require.NoError(t, env.subscriptionRepo.Insert(context.Background(), env.db, &subscriptiondomain.Subscription{
		ID:              seed.SubscriptionID,
		BusinessID:      seed.BusinessID,
		BusinessOwnerID: seed.OwnerID,
		Category:        "restaurants",
		Status:          subscriptiondomain.SubscriptionStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}))
}

// Three buyers, three days: the slot rotates strictly in purchase order
// and every mirror tracks the rotation.
func TestSlotRotationOverThreeDays(t *testing.T) {
	env := newTestEnv(t)
	businesses := []seededBusiness{
		env.seedBusiness(t, "Aurora Cafe", "restaurants"),
		env.seedBusiness(t, "Bistro Nine", "restaurants"),
		env.seedBusiness(t, "Corner Deli", "restaurants"),
	}
	for _, seed := range businesses {
		env.enqueue(t, "restaurants", seed)
	}

	for day, current := range businesses {
		status, err := env.svc.QueueStatus(context.Background(), "restaurants")
		require.NoError(t, err)
		require.NotNil(t, status.Active, "day %d", day)
		assert.Equal(t, current.BusinessID, status.Active.BusinessID, "day %d", day)
		assert.Len(t, status.Pending, len(businesses)-day-1, "day %d", day)

		// Positions stay contiguous from 1.
		for i, pending := range status.Pending {
			assert.Equal(t, i+1, pending.Position, "day %d", day)
		}

		assert.True(t, env.business(t, current.BusinessID).IsBoostActive, "day %d", day)

		env.clock.Advance(boostdomain.SlotDuration + time.Minute)
		_, err = env.svc.SweepExpired(context.Background(), 10)
		require.NoError(t, err)
	}

	status, err := env.svc.QueueStatus(context.Background(), "restaurants")
	require.NoError(t, err)
	assert.Nil(t, status.Active)
	assert.Empty(t, status.Pending)
	assert.Equal(t, 3, status.Counts[boostdomain.EntryStateExpired])

	for _, seed := range businesses {
		business := env.business(t, seed.BusinessID)
		assert.False(t, business.IsBoosted)
		assert.False(t, business.IsBoostActive)
		assert.Equal(t, subscriptiondomain.SubscriptionStatusExpired, env.subscription(t, seed.SubscriptionID).Status)
	}
}
