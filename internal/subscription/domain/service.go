package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound        = errors.New("subscription_not_found")
	ErrInvalidBusiness = errors.New("invalid_business")
	ErrInvalidCategory = errors.New("invalid_category")
)

// ConfirmBoostPurchaseRequest is issued by the payment flow once a
// boost-type purchase has been captured.
type ConfirmBoostPurchaseRequest struct {
	BusinessID       snowflake.ID   `json:"business_id,string"`
	BusinessOwnerID  snowflake.ID   `json:"business_owner_id,string"`
	Category         string         `json:"category"`
	PaymentReference string         `json:"payment_reference"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// ConfirmBoostPurchaseResponse echoes what the buyer should see.
type ConfirmBoostPurchaseResponse struct {
	SubscriptionID    snowflake.ID `json:"subscription_id,string"`
	QueuePosition     int          `json:"queue_position"`
	EstimatedStart    string       `json:"estimated_start,omitempty"`
	EstimatedEnd      string       `json:"estimated_end,omitempty"`
	IsCurrentlyActive bool         `json:"is_currently_active"`
}

type Service interface {
	// ConfirmBoostPurchase records the purchase and enqueues the
	// business for its category's boost slot.
	ConfirmBoostPurchase(ctx context.Context, req ConfirmBoostPurchaseRequest) (ConfirmBoostPurchaseResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (Subscription, error)
}
