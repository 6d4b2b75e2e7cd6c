package service

import (
	"context"
	"errors"
	"testing"

	boostdomain "github.com/listora/listora/internal/boost/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errMirrorDown = errors.New("mirror write failed")

type failingProjector struct{}

func (failingProjector) ProjectEntries(context.Context, *gorm.DB, *boostdomain.SlotQueue, []boostdomain.QueueEntry) error {
	return errMirrorDown
}

func (failingProjector) ResyncQueue(context.Context, string) error { return nil }

func transitionCount(t *testing.T, from, to string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "boost_entry_transitions_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["from"] == from && labels["to"] == to {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRolledBackPromotionDoesNotCountTransition(t *testing.T) {
	env := newTestEnv(t)

	svc, err := NewService(ServiceParam{
		DB:        env.db,
		Log:       zap.NewNop(),
		GenID:     env.node,
		Clock:     env.clock,
		Repo:      env.boostRepo,
		Projector: failingProjector{},
	})
	require.NoError(t, err)

	seed := env.seedBusiness(t, "corner-cafe", "restaurants")
	before := transitionCount(t, string(boostdomain.EntryStatePending), string(boostdomain.EntryStateActive))

	// Empty-queue fast path: the projection failure rolls back the
	// whole transaction including the promotion.
	_, err = svc.Enqueue(context.Background(), boostdomain.EnqueueRequest{
		Category:        "restaurants",
		BusinessID:      seed.BusinessID,
		BusinessOwnerID: seed.OwnerID,
		SubscriptionID:  seed.SubscriptionID,
	})
	require.ErrorIs(t, err, errMirrorDown)

	after := transitionCount(t, string(boostdomain.EntryStatePending), string(boostdomain.EntryStateActive))
	assert.Equal(t, before, after, "rolled-back promotion must not be counted")

	queue, err := env.boostRepo.FindQueueByCategory(context.Background(), env.db, "restaurants")
	require.NoError(t, err)
	assert.Nil(t, queue, "rolled-back enqueue must not leave a queue behind")

	// The same operation through a working projector is counted once.
	env.enqueue(t, "restaurants", seed)
	counted := transitionCount(t, string(boostdomain.EntryStatePending), string(boostdomain.EntryStateActive))
	assert.Equal(t, before+1, counted)
}
