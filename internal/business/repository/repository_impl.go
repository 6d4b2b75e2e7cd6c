package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	businessdomain "github.com/listora/listora/internal/business/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() businessdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, business *businessdomain.Business) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO businesses (
			id, owner_id, name, category, is_boosted, is_boost_active,
			boost_expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		business.ID,
		business.OwnerID,
		business.Name,
		business.Category,
		business.IsBoosted,
		business.IsBoostActive,
		business.BoostExpiresAt,
		business.CreatedAt,
		business.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*businessdomain.Business, error) {
	var business businessdomain.Business
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, name, category, is_boosted, is_boost_active,
		        boost_expires_at, created_at, updated_at
		 FROM businesses
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&business).Error
	if err != nil {
		return nil, err
	}
	if business.ID == 0 {
		return nil, nil
	}
	return &business, nil
}

func (r *repo) UpdateBoostMirror(ctx context.Context, db *gorm.DB, id snowflake.ID, mirror businessdomain.BoostMirror, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE businesses
		 SET is_boosted = ?, is_boost_active = ?, boost_expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		mirror.IsBoosted,
		mirror.IsBoostActive,
		mirror.BoostExpiresAt,
		now,
		id,
	).Error
}
