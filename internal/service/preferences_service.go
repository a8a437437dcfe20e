package service

import (
	"context"
	"fmt"
	"strings"

	"todo-manager/internal/model"
)

// PreferencesStore is the persistence the preferences service needs.
type PreferencesStore interface {
	Get(ctx context.Context) (*model.Preferences, error)
	Save(ctx context.Context, prefs *model.Preferences) error
}

var (
	supportedLanguages = map[string]bool{"en": true, "es": true}
	supportedThemes    = map[string]bool{"light": true, "dark": true}
)

// PreferencesInput is a partial preferences update. Nil fields are left as they are.
type PreferencesInput struct {
	Language      *string
	Theme         *string
	Notifications *bool
}

type PreferencesService struct {
	store PreferencesStore
}

func NewPreferencesService(store PreferencesStore) *PreferencesService {
	return &PreferencesService{store: store}
}

func (s *PreferencesService) Get(ctx context.Context) (*model.Preferences, error) {
	return s.store.Get(ctx)
}

func (s *PreferencesService) Update(ctx context.Context, input PreferencesInput) (*model.Preferences, error) {
	prefs, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*input.Language))
		if !supportedLanguages[lang] {
			return nil, fmt.Errorf("%w: unsupported language %q", model.ErrValidation, *input.Language)
		}
		prefs.Language = lang
	}
	if input.Theme != nil {
		theme := strings.ToLower(strings.TrimSpace(*input.Theme))
		if !supportedThemes[theme] {
			return nil, fmt.Errorf("%w: unsupported theme %q", model.ErrValidation, *input.Theme)
		}
		prefs.Theme = theme
	}
	if input.Notifications != nil {
		prefs.NotificationsEnabled = *input.Notifications
	}

	if err := s.store.Save(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// BindChat records where notifications are delivered.
func (s *PreferencesService) BindChat(ctx context.Context, chatID int64) error {
	prefs, err := s.store.Get(ctx)
	if err != nil {
		return err
	}
	if prefs.ChatID == chatID {
		return nil
	}
	prefs.ChatID = chatID
	return s.store.Save(ctx, prefs)
}
