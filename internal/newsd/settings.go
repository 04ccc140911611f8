package newsd

import (
	"context"
	"fmt"
	"time"
)

// Language is the article language requested from the provider.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageRussian Language = "ru"
	LanguageFrench  Language = "fr"
	LanguageGerman  Language = "de"
)

func (l Language) Validate() error {
	switch l {
	case LanguageEnglish, LanguageRussian, LanguageFrench, LanguageGerman:
		return nil
	}
	return fmt.Errorf("unsupported language %q", string(l))
}

// Interval is the refresh period, stored as whole minutes.
type Interval int

const (
	Interval15Min   Interval = 15
	Interval30Min   Interval = 30
	Interval1Hour   Interval = 60
	Interval2Hours  Interval = 120
	Interval4Hours  Interval = 240
	Interval8Hours  Interval = 480
	Interval24Hours Interval = 1440
)

func (i Interval) Validate() error {
	switch i {
	case Interval15Min, Interval30Min, Interval1Hour, Interval2Hours,
		Interval4Hours, Interval8Hours, Interval24Hours:
		return nil
	}
	return fmt.Errorf("unsupported interval %d", int(i))
}

func (i Interval) Duration() time.Duration {
	return time.Duration(i) * time.Minute
}

// Settings is the singleton user configuration. There is exactly one row
// after the first read; defaults come from DefaultSettings.
type Settings struct {
	Language             Language `db:"language"`
	Interval             Interval `db:"interval_minutes"`
	NotificationsEnabled bool     `db:"notifications_enabled"`
	WifiOnly             bool     `db:"wifi_only"`
}

func DefaultSettings() Settings {
	return Settings{
		Language:             LanguageEnglish,
		Interval:             Interval15Min,
		NotificationsEnabled: true,
		WifiOnly:             false,
	}
}

// SettingsService exposes the current settings and field-by-field setters.
// Every committed mutation re-emits the full Settings to watchers.
type SettingsService interface {
	Get(ctx context.Context) (Settings, error)
	SetLanguage(ctx context.Context, l Language) error
	SetInterval(ctx context.Context, i Interval) error
	SetNotificationsEnabled(ctx context.Context, enabled bool) error
	SetWifiOnly(ctx context.Context, wifiOnly bool) error
	Watch(ctx context.Context) <-chan Settings
}
