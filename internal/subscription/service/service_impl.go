package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	boostdomain "github.com/listora/listora/internal/boost/domain"
	"github.com/listora/listora/internal/clock"
	subscriptiondomain "github.com/listora/listora/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  subscriptiondomain.Repository
	boost boostdomain.Service
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  subscriptiondomain.Repository
	Boost boostdomain.Service
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		boost: p.Boost,
	}
}

func (s *Service) ConfirmBoostPurchase(ctx context.Context, req subscriptiondomain.ConfirmBoostPurchaseRequest) (subscriptiondomain.ConfirmBoostPurchaseResponse, error) {
	if req.BusinessID == 0 {
		return subscriptiondomain.ConfirmBoostPurchaseResponse{}, subscriptiondomain.ErrInvalidBusiness
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return subscriptiondomain.ConfirmBoostPurchaseResponse{}, subscriptiondomain.ErrInvalidCategory
	}

	now := s.clock.Now()
	subscription := &subscriptiondomain.Subscription{
		ID:               s.genID.Generate(),
		BusinessID:       req.BusinessID,
		BusinessOwnerID:  req.BusinessOwnerID,
		Category:         category,
		Status:           subscriptiondomain.SubscriptionStatusActive,
		PaymentReference: req.PaymentReference,
		Metadata:         datatypes.JSONMap(req.Metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, s.db, subscription); err != nil {
		return subscriptiondomain.ConfirmBoostPurchaseResponse{}, err
	}

	entry, err := s.boost.Enqueue(ctx, boostdomain.EnqueueRequest{
		Category:         category,
		BusinessID:       req.BusinessID,
		BusinessOwnerID:  req.BusinessOwnerID,
		SubscriptionID:   subscription.ID,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		// The purchase record stays for audit; the subscription just
		// never reaches the queue.
		if cancelErr := s.repo.UpdateStatus(ctx, s.db, subscription.ID, subscriptiondomain.SubscriptionStatusCanceled, s.clock.Now()); cancelErr != nil {
			s.log.Warn("failed to cancel subscription after enqueue failure",
				zap.String("subscription_id", subscription.ID.String()),
				zap.Error(cancelErr),
			)
		}
		return subscriptiondomain.ConfirmBoostPurchaseResponse{}, err
	}

	s.log.Info("boost.purchase.confirmed",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("business_id", req.BusinessID.String()),
		zap.String("category", category),
		zap.String("state", string(entry.State)),
	)

	return subscriptiondomain.ConfirmBoostPurchaseResponse{
		SubscriptionID:    subscription.ID,
		QueuePosition:     entry.Position,
		EstimatedStart:    formatTime(entry.EstimatedStart),
		EstimatedEnd:      formatTime(entry.EstimatedEnd),
		IsCurrentlyActive: entry.State == boostdomain.EntryStateActive,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (subscriptiondomain.Subscription, error) {
	subscription, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if subscription == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrNotFound
	}
	return *subscription, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
