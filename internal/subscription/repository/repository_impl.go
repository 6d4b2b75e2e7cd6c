package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/listora/listora/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO boost_subscriptions (
			id, business_id, business_owner_id, category, status, payment_reference,
			queue_id, queue_position, estimated_start, estimated_end,
			is_currently_active, slot_start, slot_end, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.BusinessID,
		subscription.BusinessOwnerID,
		subscription.Category,
		subscription.Status,
		subscription.PaymentReference,
		subscription.QueueID,
		subscription.QueuePosition,
		subscription.EstimatedStart,
		subscription.EstimatedEnd,
		subscription.IsCurrentlyActive,
		subscription.SlotStart,
		subscription.SlotEnd,
		subscription.Metadata,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, business_id, business_owner_id, category, status, payment_reference,
		        queue_id, queue_position, estimated_start, estimated_end,
		        is_currently_active, slot_start, slot_end, metadata, created_at, updated_at
		 FROM boost_subscriptions
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status subscriptiondomain.SubscriptionStatus, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE boost_subscriptions
		 SET status = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		now,
		id,
	).Error
}

func (r *repo) UpdateQueueMirror(ctx context.Context, db *gorm.DB, id snowflake.ID, mirror subscriptiondomain.QueueMirror, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE boost_subscriptions
		 SET queue_id = ?, queue_position = ?, estimated_start = ?, estimated_end = ?,
		     is_currently_active = ?, slot_start = ?, slot_end = ?, updated_at = ?
		 WHERE id = ?`,
		mirror.QueueID,
		mirror.QueuePosition,
		mirror.EstimatedStart,
		mirror.EstimatedEnd,
		mirror.IsCurrentlyActive,
		mirror.SlotStart,
		mirror.SlotEnd,
		now,
		id,
	).Error
}
