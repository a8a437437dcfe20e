package model

// PreferencesID is the primary key of the single preferences row.
const PreferencesID = 1

// Preferences holds user settings. Only one row exists.
type Preferences struct {
	ID                   uint   `gorm:"primaryKey"`
	Language             string `gorm:"size:8;default:en"`
	Theme                string `gorm:"size:16;default:light"`
	NotificationsEnabled bool   `gorm:"default:true"`
	ChatID               int64
}

// DefaultPreferences returns the settings used before the user changes anything.
func DefaultPreferences() Preferences {
	return Preferences{
		ID:                   PreferencesID,
		Language:             "en",
		Theme:                "light",
		NotificationsEnabled: true,
	}
}
