// Package domain contains persistence models for directory businesses.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrNotFound = errors.New("business_not_found")

// Business is a directory listing. The boost fields are a denormalized
// mirror of the slot queue, written only through the projector; readers
// never have to touch the queue to know the boost state.
type Business struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	OwnerID  snowflake.ID `gorm:"not null;index"`
	Name     string       `gorm:"type:text;not null"`
	Category string       `gorm:"type:text;not null;index"`

	IsBoosted      bool       `gorm:"not null;default:false"`
	IsBoostActive  bool       `gorm:"not null;default:false"`
	BoostExpiresAt *time.Time `gorm:""`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Business) TableName() string { return "businesses" }

// BoostMirror is the projected snapshot written onto a business.
type BoostMirror struct {
	IsBoosted      bool
	IsBoostActive  bool
	BoostExpiresAt *time.Time
}
