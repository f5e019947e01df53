// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides provider profile persistence.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// GetProfile fetches a provider profile or returns ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.ProviderProfile, error) {
	var p domain.ProviderProfile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a new profile. A short_id clash returns a
// duplicate-key error.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.ProviderProfile) error {
	return db.WithContext(ctx).Create(p).Error
}

// UpdateProfile writes the mutable columns of an existing profile.
func UpdateProfile(ctx context.Context, db *gorm.DB, p *domain.ProviderProfile) error {
	res := db.WithContext(ctx).
		Model(&domain.ProviderProfile{}).
		Where("user_id = ?", p.UserID).
		Select("skills", "location_text", "latitude", "longitude", "travel_radius_km", "updated_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ShortIDExists reports whether a profile already holds shortID.
func ShortIDExists(ctx context.Context, db *gorm.DB, shortID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.ProviderProfile{}).Where("short_id = ?", shortID).Count(&n).Error
	return n > 0, err
}
