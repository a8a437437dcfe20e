package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"todo-manager/internal/model"
)

// PreferencesRepository keeps the single preferences row.
type PreferencesRepository struct {
	db *gorm.DB
}

func NewPreferencesRepository(db *gorm.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the stored preferences, creating the defaults on first use.
func (r *PreferencesRepository) Get(ctx context.Context) (*model.Preferences, error) {
	var prefs model.Preferences
	db := r.db.WithContext(ctx)
	err := db.First(&prefs, model.PreferencesID).Error
	switch {
	case err == nil:
		return &prefs, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		prefs = model.DefaultPreferences()
		if err := db.Create(&prefs).Error; err != nil {
			return nil, fmt.Errorf("create preferences: %w", err)
		}
		return &prefs, nil
	default:
		return nil, fmt.Errorf("find preferences: %w", err)
	}
}

// Save writes every field, including false and empty values.
func (r *PreferencesRepository) Save(ctx context.Context, prefs *model.Preferences) error {
	prefs.ID = model.PreferencesID
	if err := r.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
