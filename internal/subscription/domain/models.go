// Package domain contains persistence models for boost subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a boost subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
	SubscriptionStatusExpired  SubscriptionStatus = "EXPIRED"
)

// Subscription captures one paid boost purchase. The queue fields are a
// denormalized mirror of the subscription's queue entry, written only
// through the projector.
type Subscription struct {
	ID               snowflake.ID       `gorm:"primaryKey"`
	BusinessID       snowflake.ID       `gorm:"not null;index"`
	BusinessOwnerID  snowflake.ID       `gorm:"not null;index"`
	Category         string             `gorm:"type:text;not null"`
	Status           SubscriptionStatus `gorm:"type:text;not null"`
	PaymentReference string             `gorm:"type:text"`

	QueueID           *snowflake.ID `gorm:""`
	QueuePosition     int           `gorm:"not null;default:0"`
	EstimatedStart    *time.Time    `gorm:""`
	EstimatedEnd      *time.Time    `gorm:""`
	IsCurrentlyActive bool          `gorm:"not null;default:false"`
	SlotStart         *time.Time    `gorm:""`
	SlotEnd           *time.Time    `gorm:""`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "boost_subscriptions" }

// QueueMirror is the projected snapshot written onto a subscription.
type QueueMirror struct {
	QueueID           *snowflake.ID
	QueuePosition     int
	EstimatedStart    *time.Time
	EstimatedEnd      *time.Time
	IsCurrentlyActive bool
	SlotStart         *time.Time
	SlotEnd           *time.Time
}
