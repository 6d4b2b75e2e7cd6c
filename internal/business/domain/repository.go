package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, business *Business) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Business, error)
	UpdateBoostMirror(ctx context.Context, db *gorm.DB, id snowflake.ID, mirror BoostMirror, now time.Time) error
}
